/*
 * @module service/dataquality/rule_executor
 * @description 规则执行引擎：预计算重复索引后对每行每规则求值，输出注记结果表
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 构造时预计算单列/组合重复索引 -> 逐行逐规则求值 -> 行级聚合 -> 注记结果
 * @rules 重复判定必须基于整列预计算；已识别类型的运行期错误折叠为失败，未知类型视为通过
 * @dependencies dq-assessment-service/service/models, github.com/spf13/cast
 * @refs service/dataquality/evaluators.go, service/dataquality/scoring_service.go
 */

package dataquality

import (
	"fmt"
	"sort"
	"strings"

	"dq-assessment-service/service/models"

	"github.com/spf13/cast"
)

// evalResult 单规则单行的求值结果，立即折叠进行级聚合，不单独留存
type evalResult struct {
	passed    bool
	message   string
	ruleType  string
	column    string
	columns   []string
	dimension string
}

// RuleExecutor 规则执行引擎
type RuleExecutor struct {
	dataset  *models.Dataset
	rulebook *models.Rulebook

	// 列名 -> 重复行索引集合
	duplicateCache map[string]map[int]bool
	// 组合键（" + " 连接的列名）-> 重复行索引分组，按首次遇到顺序
	combinationDuplicates map[string][][]int
	// 组合键 -> 行索引集合，供逐行判定
	combinationIndex map[string]map[int]bool
}

// NewRuleExecutor 创建规则执行引擎并完成重复索引预计算
func NewRuleExecutor(dataset *models.Dataset, rulebook *models.Rulebook) *RuleExecutor {
	e := &RuleExecutor{
		dataset:               dataset,
		rulebook:              rulebook,
		duplicateCache:        make(map[string]map[int]bool),
		combinationDuplicates: make(map[string][][]int),
		combinationIndex:      make(map[string]map[int]bool),
	}
	e.precomputeDuplicates()
	e.precomputeCombinationDuplicates()
	return e
}

// precomputeDuplicates 为每一列预计算重复行索引集合
// 组合唯一性之外的单列唯一性检查直接查询该集合
func (e *RuleExecutor) precomputeDuplicates() {
	for _, col := range e.dataset.Columns {
		indicesByValue := make(map[string][]int)
		for idx, row := range e.dataset.Rows {
			value := row[col]
			if models.IsNullOrEmpty(value) {
				continue
			}
			key := rawValueKey(value)
			indicesByValue[key] = append(indicesByValue[key], idx)
		}

		dupIndices := make(map[int]bool)
		for _, indices := range indicesByValue {
			if len(indices) > 1 {
				for _, idx := range indices {
					dupIndices[idx] = true
				}
			}
		}
		e.duplicateCache[col] = dupIndices
	}
}

// precomputeCombinationDuplicates 为每条组合唯一性规则预计算元组重复分组
// 组合键使用原始值等价（不做去空白/小写归一化），与重复检测引擎的匹配键路径刻意区分
func (e *RuleExecutor) precomputeCombinationDuplicates() {
	for _, rule := range e.rulebook.Rules {
		if rule.RuleType != models.RuleUniquenessCombination || len(rule.Columns) < 2 {
			continue
		}
		comboKey := rule.CombinationKey()
		if _, done := e.combinationDuplicates[comboKey]; done {
			continue
		}

		indicesByTuple := make(map[string][]int)
		var tupleOrder []string
		for idx, row := range e.dataset.Rows {
			parts := make([]string, 0, len(rule.Columns))
			hasNull := false
			for _, col := range rule.Columns {
				value := row[col]
				if models.IsNullOrEmpty(value) {
					hasNull = true
					break
				}
				parts = append(parts, rawValueKey(value))
			}
			if hasNull {
				continue
			}
			tuple := strings.Join(parts, "\x1f")
			if _, seen := indicesByTuple[tuple]; !seen {
				tupleOrder = append(tupleOrder, tuple)
			}
			indicesByTuple[tuple] = append(indicesByTuple[tuple], idx)
		}

		var dupGroups [][]int
		memberIndex := make(map[int]bool)
		for _, tuple := range tupleOrder {
			indices := indicesByTuple[tuple]
			if len(indices) > 1 {
				dupGroups = append(dupGroups, indices)
				for _, idx := range indices {
					memberIndex[idx] = true
				}
			}
		}
		e.combinationDuplicates[comboKey] = dupGroups
		e.combinationIndex[comboKey] = memberIndex
	}
}

// GetCombinationDuplicates 返回组合键到重复行索引分组的映射，供下游报表使用
func (e *RuleExecutor) GetCombinationDuplicates() map[string][][]int {
	return e.combinationDuplicates
}

// ExecuteAllRules 对所有行执行全部规则，返回注记结果表
func (e *RuleExecutor) ExecuteAllRules() *models.AnnotatedResults {
	results := &models.AnnotatedResults{
		Columns: append([]string(nil), e.dataset.Columns...),
		Rows:    make([]models.AnnotatedRow, 0, e.dataset.RowCount()),
	}

	for idx, row := range e.dataset.Rows {
		var issues []string
		var failedRules []string
		var failedColumns []string
		var details []models.FailureDetail
		seenRules := make(map[string]bool)
		seenColumns := make(map[string]bool)
		dimensionSet := make(map[string]bool)

		for i := range e.rulebook.Rules {
			res := e.executeSingleRule(row, &e.rulebook.Rules[i], idx)
			if res.passed {
				continue
			}
			issues = append(issues, res.message)
			if !seenRules[res.ruleType] {
				seenRules[res.ruleType] = true
				failedRules = append(failedRules, res.ruleType)
			}
			cols := res.columns
			if len(cols) == 0 && res.column != "" {
				cols = []string{res.column}
			}
			for _, c := range cols {
				if !seenColumns[c] {
					seenColumns[c] = true
					failedColumns = append(failedColumns, c)
				}
			}
			dimensionSet[res.dimension] = true

			detailColumn := res.column
			if detailColumn == "" {
				detailColumn = strings.Join(res.columns, " + ")
			}
			details = append(details, models.FailureDetail{
				Column:    detailColumn,
				RuleType:  res.ruleType,
				Dimension: res.dimension,
				Message:   res.message,
			})
		}

		dimensions := make([]string, 0, len(dimensionSet))
		for d := range dimensionSet {
			dimensions = append(dimensions, d)
		}
		sort.Strings(dimensions)

		data := make(models.Row, len(row))
		for k, v := range row {
			data[k] = v
		}

		results.Rows = append(results.Rows, models.AnnotatedRow{
			Data:              data,
			Issues:            strings.Join(issues, " | "),
			IssueCount:        len(issues),
			FailedRules:       strings.Join(failedRules, ", "),
			FailedColumns:     strings.Join(failedColumns, ", "),
			IssueCategories:   strings.Join(dimensions, ", "),
			FailedColumnsList: failedColumns,
			FailedDetails:     details,
		})
	}

	return results
}

// executeSingleRule 单规则调度执行
func (e *RuleExecutor) executeSingleRule(row models.Row, rule *models.Rule, rowIdx int) evalResult {
	message := rule.Message
	if message == "" {
		message = "Validation failed"
	}
	dimension := rule.Dimension
	if dimension == "" {
		dimension = "General"
	}

	if rule.RuleType == models.RuleUniquenessCombination {
		return e.executeCombinationUniqueness(rule, rowIdx)
	}

	result := evalResult{
		passed:    true,
		ruleType:  rule.RuleType,
		column:    rule.Column,
		dimension: dimension,
	}

	// 行中不存在的列视为通过
	if !e.dataset.HasColumn(rule.Column) {
		return result
	}
	value := row[rule.Column]

	switch rule.RuleType {
	case models.RuleUniqueness:
		result.passed = !e.duplicateCache[rule.Column][rowIdx]
	default:
		evaluator, known := valueEvaluators[rule.RuleType]
		if !known {
			// 未识别的规则类型一律放行
			return result
		}
		passed, err := evaluator(value, rule.Expression)
		if err != nil {
			result.passed = false
			message = fmt.Sprintf("%s (Error: %v)", message, err)
		} else {
			result.passed = passed
		}
	}

	if !result.passed {
		result.message = message
	}
	return result
}

// executeCombinationUniqueness 组合唯一性判定：行索引是否落入预计算的重复分组
func (e *RuleExecutor) executeCombinationUniqueness(rule *models.Rule, rowIdx int) evalResult {
	message := rule.Message
	if message == "" {
		message = "Duplicate combination found"
	}
	dimension := rule.Dimension
	if dimension == "" {
		dimension = "Uniqueness"
	}

	result := evalResult{
		passed:    true,
		ruleType:  models.RuleUniquenessCombination,
		column:    rule.CombinationKey(),
		columns:   rule.Columns,
		dimension: dimension,
	}
	if len(rule.Columns) < 2 {
		return result
	}

	if e.combinationIndex[rule.CombinationKey()][rowIdx] {
		result.passed = false
		result.message = message
	}
	return result
}

// rawValueKey 原始值等价键：保留类型信息，数值按统一字面形式呈现
func rawValueKey(value interface{}) string {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return "n:" + cast.ToString(value)
	case bool:
		return "b:" + cast.ToString(value)
	default:
		return "s:" + cast.ToString(value)
	}
}
