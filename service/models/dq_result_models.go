/*
 * @module service/models/dq_result_models
 * @description 规则执行结果模型：单条失败明细、行级注记结果与评估运行汇总
 * @architecture 数据模型层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 规则执行 -> 行级聚合 -> 评分服务 -> 报表协作方
 * @rules 注记结果一次运行创建一次，创建后不可变
 * @dependencies 无
 * @refs service/dataquality/rule_executor.go, service/dataquality/scoring_service.go
 */

package models

// FailureDetail 单条规则失败明细，供维度/列级报表拆分使用
type FailureDetail struct {
	Column    string `json:"column"`
	RuleType  string `json:"rule_type"`
	Dimension string `json:"dimension"`
	Message   string `json:"message"`
}

// AnnotatedRow 行级注记结果：原始行字段加失败聚合字段
type AnnotatedRow struct {
	Data              Row             `json:"data"`
	Issues            string          `json:"issues"`           // "|" 连接的失败消息
	IssueCount        int             `json:"count_of_issues"`  // 失败条数
	FailedRules       string          `json:"failed_rules"`     // 去重后的规则类型，逗号连接
	FailedColumns     string          `json:"failed_columns"`   // 去重后的列名，逗号连接
	IssueCategories   string          `json:"issue_categories"` // 去重排序后的维度名，逗号连接
	FailedColumnsList []string        `json:"-"`                // 内部字段：去重失败列列表
	FailedDetails     []FailureDetail `json:"-"`                // 内部字段：完整失败明细
}

// IsClean 零失败即为干净记录
func (r *AnnotatedRow) IsClean() bool {
	return r.IssueCount == 0
}

// AnnotatedResults 规则执行的完整注记结果表，行序与源数据集一致
type AnnotatedResults struct {
	Columns []string       `json:"columns"`
	Rows    []AnnotatedRow `json:"rows"`
}

// AssessmentReport 一次评估运行的汇总输出
type AssessmentReport struct {
	OverallScore          float64            `json:"overall_score"`
	TotalRecords          int                `json:"total_records"`
	CleanRecords          int                `json:"clean_records"`
	TotalIssues           int                `json:"total_issues"`
	DimensionScores       map[string]float64 `json:"dimension_scores"`
	ColumnScores          map[string]float64 `json:"column_scores"`
	Results               *AnnotatedResults  `json:"results"`
	Rulebook              *Rulebook          `json:"rulebook"`
	CombinationDuplicates map[string][][]int `json:"duplicate_combinations"`
	DatasetFingerprint    string             `json:"dataset_fingerprint"`
}
