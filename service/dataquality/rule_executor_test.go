/*
 * @module service/dataquality/rule_executor_test
 * @description 规则执行引擎测试：空值判定、唯一性预计算、组合唯一性、错误折叠与聚合字段
 * @architecture 测试层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 数据集+规则手册 -> 执行 -> 注记结果验证
 * @rules 两次执行结果必须一致；单行单规则错误不得中断整体运行
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs service/dataquality/rule_executor.go
 */

package dataquality

import (
	"testing"

	"dq-assessment-service/service/models"

	"github.com/stretchr/testify/assert"
)

func rulebookOf(rules ...models.Rule) *models.Rulebook {
	return &models.Rulebook{Rules: rules, Metadata: models.RulebookMetadata{TotalRules: len(rules)}}
}

// TestNotNullRule 测试非空规则：nil、空白与字面 nan 均判失败
func TestNotNullRule(t *testing.T) {
	ds := &models.Dataset{
		Columns: []string{"name"},
		Rows: []models.Row{
			{"name": "Alice"},
			{"name": nil},
			{"name": "   "},
			{"name": "NaN"},
		},
	}
	rb := rulebookOf(models.Rule{RuleType: models.RuleNotNull, Column: "name", Dimension: "Completeness", Message: "name required"})

	results := NewRuleExecutor(ds, rb).ExecuteAllRules()
	assert.True(t, results.Rows[0].IsClean())
	for _, i := range []int{1, 2, 3} {
		assert.Equal(t, 1, results.Rows[i].IssueCount, "行 %d 应判失败", i)
		assert.Equal(t, "name required", results.Rows[i].Issues)
		assert.Equal(t, "Completeness", results.Rows[i].IssueCategories)
	}
}

// TestUniquenessRule 测试单列唯一性：重复值的所有行都被标记，空值不参与
func TestUniquenessRule(t *testing.T) {
	ds := &models.Dataset{
		Columns: []string{"id"},
		Rows: []models.Row{
			{"id": 1},
			{"id": 1},
			{"id": 2},
			{"id": nil},
			{"id": nil},
		},
	}
	rb := rulebookOf(models.Rule{RuleType: models.RuleUniqueness, Column: "id", Dimension: "Uniqueness"})

	results := NewRuleExecutor(ds, rb).ExecuteAllRules()
	assert.Equal(t, 1, results.Rows[0].IssueCount)
	assert.Equal(t, 1, results.Rows[1].IssueCount)
	assert.True(t, results.Rows[2].IsClean())
	assert.True(t, results.Rows[3].IsClean(), "空值不参与重复判定")
	assert.True(t, results.Rows[4].IsClean())
}

// TestCombinationUniqueness 测试组合唯一性：原始元组等价，含空成员的组合不参与
func TestCombinationUniqueness(t *testing.T) {
	ds := &models.Dataset{
		Columns: []string{"first", "last"},
		Rows: []models.Row{
			{"first": "Ann", "last": "Lee"},
			{"first": "Ann", "last": "Lee"},
			{"first": "ann", "last": "lee"},
			{"first": "Bo", "last": nil},
			{"first": "Bo", "last": nil},
		},
	}
	rule := models.Rule{
		RuleType:  models.RuleUniquenessCombination,
		Columns:   []string{"first", "last"},
		Dimension: "Uniqueness",
		Message:   "combo dup",
	}
	executor := NewRuleExecutor(ds, rulebookOf(rule))
	results := executor.ExecuteAllRules()

	assert.Equal(t, 1, results.Rows[0].IssueCount)
	assert.Equal(t, 1, results.Rows[1].IssueCount)
	assert.True(t, results.Rows[2].IsClean(), "组合键使用原始值等价，大小写不同不算重复")
	assert.True(t, results.Rows[3].IsClean(), "含空成员的组合不参与")
	assert.True(t, results.Rows[4].IsClean())

	// 失败列展开为组合的各个成员列
	assert.Equal(t, []string{"first", "last"}, results.Rows[0].FailedColumnsList)

	dups := executor.GetCombinationDuplicates()
	assert.Equal(t, [][]int{{0, 1}}, dups["first + last"])
}

// TestFormatRulesSkipBlank 测试格式类规则对空值放行
func TestFormatRulesSkipBlank(t *testing.T) {
	ds := &models.Dataset{
		Columns: []string{"email"},
		Rows: []models.Row{
			{"email": "a@x.com"},
			{"email": "bad"},
			{"email": nil},
		},
	}
	rb := rulebookOf(
		models.Rule{RuleType: models.RuleNotNull, Column: "email", Dimension: "Completeness", Message: "required"},
		models.Rule{RuleType: models.RuleEmailFormat, Column: "email", Dimension: "Validity", Message: "bad email"},
	)

	results := NewRuleExecutor(ds, rb).ExecuteAllRules()
	assert.Equal(t, 0, results.Rows[0].IssueCount)
	assert.Equal(t, 1, results.Rows[1].IssueCount)
	assert.Equal(t, "bad email", results.Rows[1].Issues)
	assert.Equal(t, 1, results.Rows[2].IssueCount, "空值只触发 not_null，不叠加 email_format")
	assert.Equal(t, "required", results.Rows[2].Issues)
}

// TestNumericRulesTrimWhitespace 测试数值规则容忍字符串首尾空白
func TestNumericRulesTrimWhitespace(t *testing.T) {
	ds := &models.Dataset{
		Columns: []string{"age"},
		Rows: []models.Row{
			{"age": " 12 "},
			{"age": "999"},
		},
	}
	rb := rulebookOf(
		models.Rule{RuleType: models.RuleNumericOnly, Column: "age", Dimension: "Validity", Message: "not numeric"},
		models.Rule{RuleType: models.RuleRange, Column: "age", Expression: "0,150", Dimension: "Accuracy", Message: "age range"},
	)

	results := NewRuleExecutor(ds, rb).ExecuteAllRules()
	assert.Equal(t, 0, results.Rows[0].IssueCount, "带空白的数字应按数值解析")
	assert.Equal(t, 1, results.Rows[1].IssueCount)
	assert.Equal(t, "age range", results.Rows[1].Issues)
}

// TestEvaluationErrorAnnotated 测试求值错误折叠为失败并注记错误文本
func TestEvaluationErrorAnnotated(t *testing.T) {
	ds := &models.Dataset{
		Columns: []string{"age"},
		Rows:    []models.Row{{"age": "abc"}},
	}
	rb := rulebookOf(models.Rule{RuleType: models.RuleRange, Column: "age", Expression: "0,100", Dimension: "Accuracy", Message: "age range"})

	results := NewRuleExecutor(ds, rb).ExecuteAllRules()
	assert.Equal(t, 1, results.Rows[0].IssueCount)
	assert.Contains(t, results.Rows[0].Issues, "age range (Error:")
}

// TestUnknownRuleTypePasses 测试未知规则类型与缺失列一律放行
func TestUnknownRuleTypePasses(t *testing.T) {
	ds := &models.Dataset{
		Columns: []string{"name"},
		Rows:    []models.Row{{"name": "x"}},
	}
	rb := rulebookOf(
		models.Rule{RuleType: "totally_unknown", Column: "name", Dimension: "General"},
		models.Rule{RuleType: models.RuleNotNull, Column: "missing_col", Dimension: "Completeness"},
	)

	results := NewRuleExecutor(ds, rb).ExecuteAllRules()
	assert.True(t, results.Rows[0].IsClean())
}

// TestAggregationFields 测试行级聚合字段：消息连接、去重与维度排序
func TestAggregationFields(t *testing.T) {
	ds := &models.Dataset{
		Columns: []string{"name", "age"},
		Rows:    []models.Row{{"name": nil, "age": "200"}},
	}
	rb := rulebookOf(
		models.Rule{RuleType: models.RuleNotNull, Column: "name", Dimension: "Completeness", Message: "m1"},
		models.Rule{RuleType: models.RuleRange, Column: "age", Expression: "0,150", Dimension: "Accuracy", Message: "m2"},
		models.Rule{RuleType: models.RuleLength, Column: "name", Expression: "1,10", Dimension: "Completeness", Message: "m3"},
	)

	results := NewRuleExecutor(ds, rb).ExecuteAllRules()
	row := results.Rows[0]
	assert.Equal(t, 2, row.IssueCount, "length 对空值放行")
	assert.Equal(t, "m1 | m2", row.Issues)
	assert.Equal(t, "not_null, range", row.FailedRules)
	assert.Equal(t, "name, age", row.FailedColumns)
	assert.Equal(t, "Accuracy, Completeness", row.IssueCategories, "维度按字母序排序")
	assert.Len(t, row.FailedDetails, 2)
}

// TestExecuteIdempotent 测试重复执行结果一致，无隐藏可变状态
func TestExecuteIdempotent(t *testing.T) {
	ds := &models.Dataset{
		Columns: []string{"id", "email"},
		Rows: []models.Row{
			{"id": 1, "email": "a@x.com"},
			{"id": 1, "email": "bad"},
		},
	}
	rb := rulebookOf(
		models.Rule{RuleType: models.RuleUniqueness, Column: "id", Dimension: "Uniqueness", Message: "dup"},
		models.Rule{RuleType: models.RuleEmailFormat, Column: "email", Dimension: "Validity", Message: "fmt"},
	)

	executor := NewRuleExecutor(ds, rb)
	first := executor.ExecuteAllRules()
	second := executor.ExecuteAllRules()
	assert.Equal(t, first, second)
}

// TestEmptyInputs 测试空数据集与空规则手册
func TestEmptyInputs(t *testing.T) {
	emptyDS := &models.Dataset{Columns: []string{"a"}}
	rb := rulebookOf(models.Rule{RuleType: models.RuleNotNull, Column: "a"})
	results := NewRuleExecutor(emptyDS, rb).ExecuteAllRules()
	assert.Empty(t, results.Rows)

	ds := &models.Dataset{Columns: []string{"a"}, Rows: []models.Row{{"a": nil}}}
	results = NewRuleExecutor(ds, rulebookOf()).ExecuteAllRules()
	assert.True(t, results.Rows[0].IsClean(), "空规则手册应全部通过")
}
