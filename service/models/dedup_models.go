/*
 * @module service/models/dedup_models
 * @description 重复检测与幸存者裁决模型：列画像、重复组、注记数据集与黄金记录划分
 * @architecture 数据模型层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 列画像 -> 重复检测 -> 黄金记录裁决 -> 报表协作方
 * @rules 重复检测生成新的注记副本，原数据集保持有效可复用
 * @dependencies 无
 * @refs service/dedup/
 */

package models

// 注记数据集的内部派生列，以内部命名空间前缀避免与用户列冲突
const (
	ColDupGroupID      = "_dup_group_id"
	ColIsDuplicate     = "_is_duplicate"
	ColDupCount        = "_dup_count"
	ColMatchType       = "_match_type"
	ColSimilarityScore = "_similarity_score"
	ColCompleteness    = "_completeness"
	ColRecencyRank     = "_recency_rank"
)

// 匹配类型
const (
	MatchTypeExact = "Exact"
	MatchTypeFuzzy = "Fuzzy"
)

// 键适用性推荐
const (
	KeyStrengthStrong = "Strong"
	KeyStrengthMedium = "Medium"
	KeyStrengthWeak   = "Weak"
)

// 幸存者策略
const (
	StrategyMostComplete   = "Most Complete"
	StrategyMostRecent     = "Most Recent"
	StrategyMostFrequent   = "Most Frequent"
	StrategySourcePriority = "Source Priority"
	StrategyManual         = "Manual Selection"
)

// SurvivorshipStrategies 可供选择的幸存者策略列表，顺序即展示顺序
var SurvivorshipStrategies = []string{
	StrategyMostComplete,
	StrategyMostRecent,
	StrategyMostFrequent,
	StrategySourcePriority,
	StrategyManual,
}

// ColumnProfile 单列画像结果
type ColumnProfile struct {
	Column         string  `json:"column"`
	Cardinality    int     `json:"cardinality"`
	UniquenessPct  float64 `json:"uniqueness_pct"`
	NullEmptyPct   float64 `json:"null_empty_pct"`
	Recommendation string  `json:"recommendation"` // Strong / Medium / Weak
}

// DuplicateGroup 一个重复组及其成员行索引（按首次遇到顺序）
type DuplicateGroup struct {
	GroupID   string `json:"group_id"`
	MatchType string `json:"match_type"`
	Rows      []int  `json:"rows"`
}

// DuplicateResult 重复检测的注记结果：数据集副本追加内部列，外加结构化组信息
type DuplicateResult struct {
	Dataset      *Dataset         `json:"dataset"`
	Groups       []DuplicateGroup `json:"groups"`
	MatchColumns []string         `json:"match_columns"`
	Fuzzy        bool             `json:"fuzzy"`
	Threshold    float64          `json:"threshold"`
}

// DuplicateRows 返回所有被标记为重复的行索引
func (r *DuplicateResult) DuplicateRows() []int {
	var rows []int
	for _, g := range r.Groups {
		rows = append(rows, g.Rows...)
	}
	return rows
}

// GoldenPartition 黄金记录划分：黄金集与淘汰集互斥，合并后覆盖全部行
type GoldenPartition struct {
	Strategy    string         `json:"strategy"`
	GoldenRows  []int          `json:"golden_rows"`
	DiscardRows []int          `json:"discard_rows"`
	GroupWinner map[string]int `json:"group_winner"` // 组ID -> 黄金行索引
}
