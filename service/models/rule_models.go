/*
 * @module service/models/rule_models
 * @description 验证规则与规则手册的规范化模型，包含规则类型枚举与严重级别
 * @architecture 数据模型层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 规则源解析 -> 规范化规则 -> 规则手册 -> 规则执行
 * @rules 规则的 Column/Columns 必须引用数据集中存在的列，构建阶段过滤
 * @dependencies time
 * @refs service/dataquality/rulebook_builder.go
 */

package models

import (
	"strings"
	"time"
)

// 规范化规则类型
const (
	RuleNotNull               = "not_null"
	RuleUniqueness            = "uniqueness"
	RuleUniquenessCombination = "uniqueness_combination"
	RuleRegex                 = "regex"
	RuleAllowedValues         = "allowed_values"
	RuleRange                 = "range"
	RuleLength                = "length"
	RuleNoSpecialChars        = "no_special_chars"
	RuleEmailFormat           = "email_format"
	RuleNumericOnly           = "numeric_only"
	RuleAlphaOnly             = "alpha_only"
	RuleDateFormat            = "date_format"
	RuleContains              = "contains"
	RuleNotContains           = "not_contains"
	RuleCustomExpression      = "custom_expression"
)

// 严重级别
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
)

// Rule 规范化验证规则。单列规则使用 Column，组合唯一性规则使用 Columns
type Rule struct {
	RuleType   string   `json:"rule_type"`
	Column     string   `json:"column,omitempty"`
	Columns    []string `json:"columns,omitempty"`
	Dimension  string   `json:"dimension"`
	Expression string   `json:"expression,omitempty"`
	Message    string   `json:"message"`
	Severity   string   `json:"severity"`
}

// IsCombination 是否为组合唯一性规则
func (r *Rule) IsCombination() bool {
	return r.RuleType == RuleUniquenessCombination
}

// CombinationKey 组合规则的展示键，按列顺序以 " + " 连接
func (r *Rule) CombinationKey() string {
	return strings.Join(r.Columns, " + ")
}

// RulebookMetadata 规则手册元数据
type RulebookMetadata struct {
	Created    time.Time `json:"created"`
	TotalRules int       `json:"total_rules"`
	Source     string    `json:"source"`
}

// Rulebook 规范化规则手册，规则顺序为源表插入顺序
type Rulebook struct {
	Rules    []Rule           `json:"rules"`
	Metadata RulebookMetadata `json:"metadata"`
}
