/*
 * @module service/dataquality/expression
 * @description 受限布尔表达式解释器：词法分析 + 递归下降求值，仅支持比较/算术/布尔运算、
 *              value 变量与少量安全辅助函数，不暴露任何宿主语言求值能力
 * @architecture 分层架构 - 业务服务层，解释器模式
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 黑名单筛查 -> 词法分析 -> 递归下降求值 -> 布尔结果
 * @rules 含禁用标记的表达式直接拒绝；任何解析或求值错误均判为失败，绝不抛出
 * @dependencies strconv, strings, unicode
 * @refs service/dataquality/evaluators.go
 */

package dataquality

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cast"
)

// 静态筛查的禁用标记
var forbiddenTokens = []string{"import", "exec", "eval", "__", "open", "file"}

// EvaluateSafeExpression 以受限解释器对 value 求布尔表达式，失败关闭
func EvaluateSafeExpression(value interface{}, expression string) bool {
	for _, token := range forbiddenTokens {
		if strings.Contains(expression, token) {
			return false
		}
	}

	tokens, err := lexExpression(expression)
	if err != nil {
		return false
	}
	p := &exprParser{tokens: tokens, value: toExprValue(value)}
	result, err := p.parseOr()
	if err != nil || p.pos != len(p.tokens) {
		return false
	}
	return result.truthy()
}

// ── 词法分析 ────────────────────────────────────────────────────────────

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokIdent
	tokOperator
	tokLParen
	tokRParen
	tokComma
)

type exprToken struct {
	kind tokenKind
	text string
	num  float64
}

func lexExpression(input string) ([]exprToken, error) {
	var tokens []exprToken
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			j := i
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			num, err := strconv.ParseFloat(string(runes[i:j]), 64)
			if err != nil {
				return nil, fmt.Errorf("数字字面量无效: %s", string(runes[i:j]))
			}
			tokens = append(tokens, exprToken{kind: tokNumber, num: num})
			i = j
		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("字符串字面量未闭合")
			}
			tokens = append(tokens, exprToken{kind: tokString, text: string(runes[i+1 : j])})
			i = j + 1
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			tokens = append(tokens, exprToken{kind: tokIdent, text: string(runes[i:j])})
			i = j
		case r == '(':
			tokens = append(tokens, exprToken{kind: tokLParen})
			i++
		case r == ')':
			tokens = append(tokens, exprToken{kind: tokRParen})
			i++
		case r == ',':
			tokens = append(tokens, exprToken{kind: tokComma})
			i++
		case strings.ContainsRune("=!<>+-*/%", r):
			if i+1 < len(runes) && runes[i+1] == '=' && strings.ContainsRune("=!<>", r) {
				tokens = append(tokens, exprToken{kind: tokOperator, text: string(runes[i : i+2])})
				i += 2
			} else {
				if r == '=' || r == '!' {
					return nil, fmt.Errorf("非法运算符: %c", r)
				}
				tokens = append(tokens, exprToken{kind: tokOperator, text: string(r)})
				i++
			}
		default:
			return nil, fmt.Errorf("非法字符: %c", r)
		}
	}
	return tokens, nil
}

// ── 求值 ────────────────────────────────────────────────────────────────

type exprValueKind int

const (
	kindNumber exprValueKind = iota
	kindString
	kindBool
)

type exprValue struct {
	kind exprValueKind
	num  float64
	str  string
	b    bool
}

func numberValue(n float64) exprValue { return exprValue{kind: kindNumber, num: n} }
func stringValue(s string) exprValue  { return exprValue{kind: kindString, str: s} }
func boolValue(b bool) exprValue      { return exprValue{kind: kindBool, b: b} }

func (v exprValue) truthy() bool {
	switch v.kind {
	case kindNumber:
		return v.num != 0
	case kindString:
		return v.str != ""
	default:
		return v.b
	}
}

func (v exprValue) asString() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindBool:
		if v.b {
			return "True"
		}
		return "False"
	default:
		return v.str
	}
}

func (v exprValue) asNumber() (float64, error) {
	switch v.kind {
	case kindNumber:
		return v.num, nil
	case kindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	default:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, fmt.Errorf("无法转换为数值: %s", v.str)
		}
		return n, nil
	}
}

// toExprValue 将单元格原始值映射为表达式值，nil 按空串处理
func toExprValue(value interface{}) exprValue {
	switch v := value.(type) {
	case nil:
		return stringValue("")
	case bool:
		return boolValue(v)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return numberValue(cast.ToFloat64(v))
	default:
		return stringValue(cast.ToString(value))
	}
}

type exprParser struct {
	tokens []exprToken
	pos    int
	value  exprValue
}

func (p *exprParser) peek() *exprToken {
	if p.pos < len(p.tokens) {
		return &p.tokens[p.pos]
	}
	return nil
}

func (p *exprParser) matchIdent(name string) bool {
	t := p.peek()
	if t != nil && t.kind == tokIdent && t.text == name {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) matchOperator(ops ...string) (string, bool) {
	t := p.peek()
	if t != nil && t.kind == tokOperator {
		for _, op := range ops {
			if t.text == op {
				p.pos++
				return op, true
			}
		}
	}
	return "", false
}

func (p *exprParser) parseOr() (exprValue, error) {
	left, err := p.parseAnd()
	if err != nil {
		return exprValue{}, err
	}
	for p.matchIdent("or") {
		right, err := p.parseAnd()
		if err != nil {
			return exprValue{}, err
		}
		left = boolValue(left.truthy() || right.truthy())
	}
	return left, nil
}

func (p *exprParser) parseAnd() (exprValue, error) {
	left, err := p.parseNot()
	if err != nil {
		return exprValue{}, err
	}
	for p.matchIdent("and") {
		right, err := p.parseNot()
		if err != nil {
			return exprValue{}, err
		}
		left = boolValue(left.truthy() && right.truthy())
	}
	return left, nil
}

func (p *exprParser) parseNot() (exprValue, error) {
	if p.matchIdent("not") {
		inner, err := p.parseNot()
		if err != nil {
			return exprValue{}, err
		}
		return boolValue(!inner.truthy()), nil
	}
	return p.parseComparison()
}

func (p *exprParser) parseComparison() (exprValue, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return exprValue{}, err
	}

	// 成员运算：子串包含
	if p.matchIdent("in") {
		right, err := p.parseAdditive()
		if err != nil {
			return exprValue{}, err
		}
		return boolValue(strings.Contains(right.asString(), left.asString())), nil
	}

	op, ok := p.matchOperator("==", "!=", "<=", ">=", "<", ">")
	if !ok {
		return left, nil
	}
	right, err := p.parseAdditive()
	if err != nil {
		return exprValue{}, err
	}
	return compareValues(left, right, op)
}

func compareValues(left, right exprValue, op string) (exprValue, error) {
	if left.kind == kindNumber || right.kind == kindNumber {
		ln, lerr := left.asNumber()
		rn, rerr := right.asNumber()
		if lerr == nil && rerr == nil {
			return boolValue(compareFloat(ln, rn, op)), nil
		}
		// 类型不可比：相等性判否，排序判错
		if op == "==" {
			return boolValue(false), nil
		}
		if op == "!=" {
			return boolValue(true), nil
		}
		return exprValue{}, fmt.Errorf("数值与非数值不可排序比较")
	}

	ls, rs := left.asString(), right.asString()
	switch op {
	case "==":
		return boolValue(ls == rs), nil
	case "!=":
		return boolValue(ls != rs), nil
	case "<":
		return boolValue(ls < rs), nil
	case "<=":
		return boolValue(ls <= rs), nil
	case ">":
		return boolValue(ls > rs), nil
	default:
		return boolValue(ls >= rs), nil
	}
}

func compareFloat(a, b float64, op string) bool {
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	default:
		return a >= b
	}
}

func (p *exprParser) parseAdditive() (exprValue, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return exprValue{}, err
	}
	for {
		op, ok := p.matchOperator("+", "-")
		if !ok {
			return left, nil
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return exprValue{}, err
		}
		// 字符串加法即拼接
		if op == "+" && left.kind == kindString && right.kind == kindString {
			left = stringValue(left.str + right.str)
			continue
		}
		ln, err := left.asNumber()
		if err != nil {
			return exprValue{}, err
		}
		rn, err := right.asNumber()
		if err != nil {
			return exprValue{}, err
		}
		if op == "+" {
			left = numberValue(ln + rn)
		} else {
			left = numberValue(ln - rn)
		}
	}
}

func (p *exprParser) parseMultiplicative() (exprValue, error) {
	left, err := p.parseUnary()
	if err != nil {
		return exprValue{}, err
	}
	for {
		op, ok := p.matchOperator("*", "/", "%")
		if !ok {
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return exprValue{}, err
		}
		ln, err := left.asNumber()
		if err != nil {
			return exprValue{}, err
		}
		rn, err := right.asNumber()
		if err != nil {
			return exprValue{}, err
		}
		switch op {
		case "*":
			left = numberValue(ln * rn)
		case "/":
			if rn == 0 {
				return exprValue{}, fmt.Errorf("除数为零")
			}
			left = numberValue(ln / rn)
		default:
			if rn == 0 {
				return exprValue{}, fmt.Errorf("除数为零")
			}
			left = numberValue(math.Mod(ln, rn))
		}
	}
}

func (p *exprParser) parseUnary() (exprValue, error) {
	if _, ok := p.matchOperator("-"); ok {
		inner, err := p.parseUnary()
		if err != nil {
			return exprValue{}, err
		}
		n, err := inner.asNumber()
		if err != nil {
			return exprValue{}, err
		}
		return numberValue(-n), nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (exprValue, error) {
	t := p.peek()
	if t == nil {
		return exprValue{}, fmt.Errorf("表达式意外结束")
	}

	switch t.kind {
	case tokNumber:
		p.pos++
		return numberValue(t.num), nil
	case tokString:
		p.pos++
		return stringValue(t.text), nil
	case tokLParen:
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return exprValue{}, err
		}
		if next := p.peek(); next == nil || next.kind != tokRParen {
			return exprValue{}, fmt.Errorf("缺少右括号")
		}
		p.pos++
		return inner, nil
	case tokIdent:
		switch t.text {
		case "value":
			p.pos++
			return p.value, nil
		case "true", "True":
			p.pos++
			return boolValue(true), nil
		case "false", "False":
			p.pos++
			return boolValue(false), nil
		case "len", "str", "int", "float", "abs", "min", "max":
			return p.parseCall(t.text)
		}
		return exprValue{}, fmt.Errorf("未知标识符: %s", t.text)
	}
	return exprValue{}, fmt.Errorf("非法表达式片段")
}

// parseCall 安全辅助函数调用：len/str/int/float/abs/min/max
func (p *exprParser) parseCall(name string) (exprValue, error) {
	p.pos++
	if next := p.peek(); next == nil || next.kind != tokLParen {
		return exprValue{}, fmt.Errorf("函数 %s 缺少调用括号", name)
	}
	p.pos++

	var args []exprValue
	for {
		arg, err := p.parseOr()
		if err != nil {
			return exprValue{}, err
		}
		args = append(args, arg)
		next := p.peek()
		if next == nil {
			return exprValue{}, fmt.Errorf("函数 %s 调用未闭合", name)
		}
		if next.kind == tokComma {
			p.pos++
			continue
		}
		if next.kind == tokRParen {
			p.pos++
			break
		}
		return exprValue{}, fmt.Errorf("函数 %s 参数列表非法", name)
	}

	return applyFunction(name, args)
}

func applyFunction(name string, args []exprValue) (exprValue, error) {
	switch name {
	case "len":
		if len(args) != 1 {
			return exprValue{}, fmt.Errorf("len 需要一个参数")
		}
		return numberValue(float64(len([]rune(args[0].asString())))), nil
	case "str":
		if len(args) != 1 {
			return exprValue{}, fmt.Errorf("str 需要一个参数")
		}
		return stringValue(args[0].asString()), nil
	case "int":
		if len(args) != 1 {
			return exprValue{}, fmt.Errorf("int 需要一个参数")
		}
		n, err := args[0].asNumber()
		if err != nil {
			return exprValue{}, err
		}
		return numberValue(math.Trunc(n)), nil
	case "float":
		if len(args) != 1 {
			return exprValue{}, fmt.Errorf("float 需要一个参数")
		}
		n, err := args[0].asNumber()
		if err != nil {
			return exprValue{}, err
		}
		return numberValue(n), nil
	case "abs":
		if len(args) != 1 {
			return exprValue{}, fmt.Errorf("abs 需要一个参数")
		}
		n, err := args[0].asNumber()
		if err != nil {
			return exprValue{}, err
		}
		return numberValue(math.Abs(n)), nil
	case "min", "max":
		if len(args) < 1 {
			return exprValue{}, fmt.Errorf("%s 至少需要一个参数", name)
		}
		best, err := args[0].asNumber()
		if err != nil {
			return exprValue{}, err
		}
		for _, a := range args[1:] {
			n, err := a.asNumber()
			if err != nil {
				return exprValue{}, err
			}
			if (name == "min" && n < best) || (name == "max" && n > best) {
				best = n
			}
		}
		return numberValue(best), nil
	}
	return exprValue{}, fmt.Errorf("未知函数: %s", name)
}
