/*
 * @module service/dataquality/evaluators
 * @description 单值规则求值器集合，按规则类型通过调度表查找执行
 * @architecture 分层架构 - 业务服务层，策略模式
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 规则执行器调度 -> 求值器判定 -> 通过/失败/求值错误
 * @rules 格式类规则对空值放行；求值错误由调用方折叠为失败并注记错误文本
 * @dependencies github.com/spf13/cast
 * @refs service/dataquality/rule_executor.go
 */

package dataquality

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"dq-assessment-service/service/models"

	"github.com/spf13/cast"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// valueEvaluator 无状态的单值求值器：返回是否通过，或一个求值错误
type valueEvaluator func(value interface{}, expression string) (bool, error)

// 规则类型调度表。uniqueness / uniqueness_combination 依赖执行器预计算状态，
// 在执行器内单独处理；未登记的类型一律视为通过
var valueEvaluators = map[string]valueEvaluator{
	models.RuleNotNull:          evalNotNull,
	models.RuleRegex:            evalRegex,
	models.RuleAllowedValues:    evalAllowedValues,
	models.RuleRange:            evalRange,
	models.RuleLength:           evalLength,
	models.RuleNoSpecialChars:   evalNoSpecialChars,
	models.RuleEmailFormat:      evalEmailFormat,
	models.RuleNumericOnly:      evalNumericOnly,
	models.RuleAlphaOnly:        evalAlphaOnly,
	models.RuleDateFormat:       evalDateFormat,
	models.RuleContains:         evalContains,
	models.RuleNotContains:      evalNotContains,
	models.RuleCustomExpression: evalCustomExpression,
}

func evalNotNull(value interface{}, _ string) (bool, error) {
	return !models.IsNullOrEmpty(value), nil
}

// evalRegex 表达式作为正则在值起始处匹配，前缀命中即通过
func evalRegex(value interface{}, expression string) (bool, error) {
	if models.IsNullOrEmpty(value) || expression == "" {
		return true, nil
	}
	re, err := regexp.Compile(expression)
	if err != nil {
		return false, fmt.Errorf("正则表达式无效: %v", err)
	}
	loc := re.FindStringIndex(cast.ToString(value))
	return loc != nil && loc[0] == 0, nil
}

// evalAllowedValues 表达式为逗号分隔的允许值清单，逐项去空白
func evalAllowedValues(value interface{}, expression string) (bool, error) {
	if models.IsNullOrEmpty(value) || expression == "" {
		return true, nil
	}
	str := cast.ToString(value)
	for _, allowed := range strings.Split(expression, ",") {
		if strings.TrimSpace(allowed) == str {
			return true, nil
		}
	}
	return false, nil
}

// toFloat 按浮点数解析，字符串先去掉首尾空白
func toFloat(value interface{}) (float64, error) {
	if s, ok := value.(string); ok {
		return cast.ToFloat64E(strings.TrimSpace(s))
	}
	return cast.ToFloat64E(value)
}

// evalRange 表达式为 "min,max"（闭区间），值按浮点数解析
func evalRange(value interface{}, expression string) (bool, error) {
	if models.IsNullOrEmpty(value) || expression == "" {
		return true, nil
	}
	num, err := toFloat(value)
	if err != nil {
		return false, fmt.Errorf("值无法解析为数值: %v", err)
	}
	parts := strings.SplitN(expression, ",", 2)
	if len(parts) != 2 {
		return false, fmt.Errorf("range 表达式格式应为 min,max")
	}
	min, err := cast.ToFloat64E(strings.TrimSpace(parts[0]))
	if err != nil {
		return false, fmt.Errorf("range 下界无效: %v", err)
	}
	max, err := cast.ToFloat64E(strings.TrimSpace(parts[1]))
	if err != nil {
		return false, fmt.Errorf("range 上界无效: %v", err)
	}
	return min <= num && num <= max, nil
}

// evalLength 表达式为 "min,max"（闭区间长度）或单个整数（精确长度）
func evalLength(value interface{}, expression string) (bool, error) {
	if models.IsNullOrEmpty(value) || expression == "" {
		return true, nil
	}
	length := len([]rune(cast.ToString(value)))
	if strings.Contains(expression, ",") {
		parts := strings.SplitN(expression, ",", 2)
		min, err := cast.ToIntE(strings.TrimSpace(parts[0]))
		if err != nil {
			return false, fmt.Errorf("length 下界无效: %v", err)
		}
		max, err := cast.ToIntE(strings.TrimSpace(parts[1]))
		if err != nil {
			return false, fmt.Errorf("length 上界无效: %v", err)
		}
		return min <= length && length <= max, nil
	}
	exact, err := cast.ToIntE(strings.TrimSpace(expression))
	if err != nil {
		return false, fmt.Errorf("length 表达式无效: %v", err)
	}
	return length == exact, nil
}

// evalNoSpecialChars 默认模式标记字母/数字/空白之外的任意字符，表达式可覆盖模式
func evalNoSpecialChars(value interface{}, expression string) (bool, error) {
	if models.IsNullOrEmpty(value) {
		return true, nil
	}
	pattern := `[^A-Za-z0-9\s]`
	if expression != "" {
		pattern = expression
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("特殊字符模式无效: %v", err)
	}
	return !re.MatchString(cast.ToString(value)), nil
}

func evalEmailFormat(value interface{}, _ string) (bool, error) {
	if models.IsNullOrEmpty(value) {
		return true, nil
	}
	return emailPattern.MatchString(cast.ToString(value)), nil
}

func evalNumericOnly(value interface{}, _ string) (bool, error) {
	if models.IsNullOrEmpty(value) {
		return true, nil
	}
	if _, err := toFloat(value); err != nil {
		return false, fmt.Errorf("值无法解析为数值: %v", err)
	}
	return true, nil
}

// evalAlphaOnly 去掉空格后仅允许字母字符
func evalAlphaOnly(value interface{}, _ string) (bool, error) {
	if models.IsNullOrEmpty(value) {
		return true, nil
	}
	str := strings.ReplaceAll(cast.ToString(value), " ", "")
	if str == "" {
		return false, nil
	}
	for _, r := range str {
		if !unicode.IsLetter(r) {
			return false, nil
		}
	}
	return true, nil
}

// evalDateFormat 表达式为 Go 时间布局，默认 2006-01-02
func evalDateFormat(value interface{}, expression string) (bool, error) {
	if models.IsNullOrEmpty(value) {
		return true, nil
	}
	layout := "2006-01-02"
	if expression != "" {
		layout = expression
	}
	if _, err := time.Parse(layout, strings.TrimSpace(cast.ToString(value))); err != nil {
		return false, fmt.Errorf("日期解析失败: %v", err)
	}
	return true, nil
}

func evalContains(value interface{}, expression string) (bool, error) {
	if models.IsNullOrEmpty(value) || expression == "" {
		return true, nil
	}
	return strings.Contains(cast.ToString(value), expression), nil
}

func evalNotContains(value interface{}, expression string) (bool, error) {
	if models.IsNullOrEmpty(value) || expression == "" {
		return true, nil
	}
	return !strings.Contains(cast.ToString(value), expression), nil
}

// evalCustomExpression 受限布尔表达式求值，任何错误均视为失败（失败关闭）
func evalCustomExpression(value interface{}, expression string) (bool, error) {
	if expression == "" {
		return true, nil
	}
	return EvaluateSafeExpression(value, expression), nil
}
