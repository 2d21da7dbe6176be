/*
 * @module service/dataquality/rulebook_builder
 * @description 规则手册构建服务，将规则表格或 JSON 文档归一化为规范规则手册
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 字段探测 -> 逐行解析 -> 规则类型归一化 -> 规则手册输出
 * @rules 引用未知列的单列规则在构建期丢弃；组合规则需至少两个有效列，否则丢弃
 * @dependencies dq-assessment-service/service/models, github.com/spf13/cast
 * @refs service/dataquality/rule_executor.go
 */

package dataquality

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"dq-assessment-service/service/models"

	"github.com/spf13/cast"
)

// 规则类型别名表，精确匹配优先于子串启发式
var defaultRuleAliasMap = map[string]string{
	"mandatory":      models.RuleNotNull,
	"required":       models.RuleNotNull,
	"not empty":      models.RuleNotNull,
	"no duplicates":  models.RuleUniqueness,
	"primary key":    models.RuleUniqueness,
	"valid email":    models.RuleEmailFormat,
	"in list":        models.RuleAllowedValues,
	"allowed values": models.RuleAllowedValues,
	"between":        models.RuleRange,
	"range check":    models.RuleRange,
	"length check":   models.RuleLength,
	"max length":     models.RuleLength,
	"number":         models.RuleNumericOnly,
	"letters only":   models.RuleAlphaOnly,
	"custom":         models.RuleCustomExpression,
}

// RulebookBuilderService 规则手册构建服务
// 支持组合唯一性规则（如 "column1 + column2"）
type RulebookBuilderService struct {
	ruleAliasMap map[string]string
}

// NewRulebookBuilderService 创建规则手册构建服务实例
func NewRulebookBuilderService() *RulebookBuilderService {
	return &RulebookBuilderService{
		ruleAliasMap: defaultRuleAliasMap,
	}
}

// LoadJSONRulebook 加载已有的 JSON 规则手册文件
func (s *RulebookBuilderService) LoadJSONRulebook(filePath string) (*models.Rulebook, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("读取规则手册文件失败: %w", err)
	}
	return s.ParseJSONRulebook(data)
}

// ParseJSONRulebook 解析 JSON 规则手册内容
func (s *RulebookBuilderService) ParseJSONRulebook(data []byte) (*models.Rulebook, error) {
	var raw struct {
		Rules    *[]models.Rule           `json:"rules"`
		Metadata *models.RulebookMetadata `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("解析 JSON 规则手册失败: %w", err)
	}
	if raw.Rules == nil {
		return nil, fmt.Errorf("规则手册必须包含 rules 数组")
	}

	rulebook := &models.Rulebook{Rules: *raw.Rules}
	if raw.Metadata != nil {
		rulebook.Metadata = *raw.Metadata
	} else {
		rulebook.Metadata = models.RulebookMetadata{
			Created:    time.Now(),
			TotalRules: len(rulebook.Rules),
			Source:     "json_file",
		}
	}
	return rulebook, nil
}

// BuildFromRulesDataset 从规则表格构建规则手册
// 期望字段（命名灵活）：column_name|column、rule_type|rule、dimension|rule_category、message、expression、severity
func (s *RulebookBuilderService) BuildFromRulesDataset(rulesDataset *models.Dataset, baseColumns []string) (*models.Rulebook, error) {
	if rulesDataset == nil || len(rulesDataset.Columns) == 0 {
		return nil, fmt.Errorf("规则表不能为空")
	}
	colField, err := s.detectColumnField(rulesDataset)
	if err != nil {
		return nil, err
	}
	ruleField, err := s.detectRuleField(rulesDataset)
	if err != nil {
		return nil, err
	}
	dimensionField := s.detectDimensionField(rulesDataset)

	baseSet := make(map[string]bool, len(baseColumns))
	for _, c := range baseColumns {
		baseSet[c] = true
	}

	rules := make([]models.Rule, 0, rulesDataset.RowCount())
	for _, row := range rulesDataset.Rows {
		column := row[colField]
		if models.IsNullOrEmpty(column) {
			continue
		}

		columnText := cast.ToString(column)
		var rule *models.Rule
		if strings.Contains(columnText, "+") {
			rule = s.buildCombinationRule(row, columnText, ruleField, dimensionField, baseSet)
		} else {
			col := strings.TrimSpace(columnText)
			if baseSet[col] {
				rule = s.buildSingleRule(row, col, ruleField, dimensionField)
			}
		}

		if rule != nil {
			rules = append(rules, *rule)
		}
	}

	return &models.Rulebook{
		Rules: rules,
		Metadata: models.RulebookMetadata{
			Created:    time.Now(),
			TotalRules: len(rules),
			Source:     "rules_dataset",
		},
	}, nil
}

// detectColumnField 探测目标列字段名
func (s *RulebookBuilderService) detectColumnField(ds *models.Dataset) (string, error) {
	if ds.HasColumn("column_name") {
		return "column_name", nil
	}
	if ds.HasColumn("column") {
		return "column", nil
	}
	return "", fmt.Errorf("规则表格必须包含 column_name 或 column 字段")
}

// detectRuleField 探测规则类型字段名
func (s *RulebookBuilderService) detectRuleField(ds *models.Dataset) (string, error) {
	if ds.HasColumn("rule_type") {
		return "rule_type", nil
	}
	if ds.HasColumn("rule") {
		return "rule", nil
	}
	return "", fmt.Errorf("规则表格必须包含 rule_type 或 rule 字段")
}

// detectDimensionField 探测可选的维度字段名，不存在时返回空串
func (s *RulebookBuilderService) detectDimensionField(ds *models.Dataset) string {
	if ds.HasColumn("dimension") {
		return "dimension"
	}
	if ds.HasColumn("rule_category") {
		return "rule_category"
	}
	return ""
}

// buildCombinationRule 构建组合唯一性规则，有效列不足两个时返回 nil
func (s *RulebookBuilderService) buildCombinationRule(row models.Row, columnCombination, ruleField, dimensionField string, baseSet map[string]bool) *models.Rule {
	parts := strings.Split(columnCombination, "+")
	validColumns := make([]string, 0, len(parts))
	for _, p := range parts {
		c := strings.TrimSpace(p)
		if baseSet[c] {
			validColumns = append(validColumns, c)
		}
	}
	if len(validColumns) < 2 {
		return nil
	}

	dimension := "Uniqueness"
	if dimensionField != "" && !models.IsNullOrEmpty(row[dimensionField]) {
		dimension = cast.ToString(row[dimensionField])
	}

	message := cast.ToString(row["message"])
	if models.IsNullOrEmpty(row["message"]) {
		message = fmt.Sprintf("Combination %s should be unique", strings.Join(validColumns, " + "))
	}

	severity := models.SeverityHigh
	if !models.IsNullOrEmpty(row["severity"]) {
		severity = cast.ToString(row["severity"])
	}

	return &models.Rule{
		RuleType:  models.RuleUniquenessCombination,
		Columns:   validColumns,
		Dimension: dimension,
		Message:   message,
		Severity:  severity,
	}
}

// buildSingleRule 构建单列规则，规则类型字段为空时返回 nil
func (s *RulebookBuilderService) buildSingleRule(row models.Row, column, ruleField, dimensionField string) *models.Rule {
	ruleValue := row[ruleField]
	if models.IsNullOrEmpty(ruleValue) {
		return nil
	}

	ruleType := s.normalizeRuleType(cast.ToString(ruleValue))

	dimension := "General"
	if dimensionField != "" && !models.IsNullOrEmpty(row[dimensionField]) {
		dimension = cast.ToString(row[dimensionField])
	}

	message := cast.ToString(row["message"])
	if models.IsNullOrEmpty(row["message"]) {
		message = fmt.Sprintf("%s: %s validation failed", column, ruleType)
	}

	expression := ""
	if !models.IsNullOrEmpty(row["expression"]) {
		exprText := cast.ToString(row["expression"])
		if strings.ToLower(exprText) != "none" {
			expression = exprText
		}
	}

	severity := models.SeverityMedium
	if !models.IsNullOrEmpty(row["severity"]) {
		severity = cast.ToString(row["severity"])
	}

	return &models.Rule{
		RuleType:   ruleType,
		Column:     column,
		Dimension:  dimension,
		Expression: expression,
		Message:    message,
		Severity:   severity,
	}
}

// normalizeRuleType 规则类型归一化：先查别名表，再按固定优先级做子串启发式匹配
func (s *RulebookBuilderService) normalizeRuleType(ruleText string) string {
	ruleLower := strings.ToLower(strings.TrimSpace(ruleText))
	if canonical, ok := s.ruleAliasMap[ruleLower]; ok {
		return canonical
	}

	switch {
	case strings.Contains(ruleLower, "not null") || strings.Contains(ruleLower, "not blank"):
		return models.RuleNotNull
	case strings.Contains(ruleLower, "unique") || strings.Contains(ruleLower, "duplicate"):
		return models.RuleUniqueness
	case strings.Contains(ruleLower, "email"):
		return models.RuleEmailFormat
	case strings.Contains(ruleLower, "regex") || strings.Contains(ruleLower, "pattern"):
		return models.RuleRegex
	case strings.Contains(ruleLower, "numeric"):
		return models.RuleNumericOnly
	case strings.Contains(ruleLower, "alpha"):
		return models.RuleAlphaOnly
	case strings.Contains(ruleLower, "special char"):
		return models.RuleNoSpecialChars
	case strings.Contains(ruleLower, "date"):
		return models.RuleDateFormat
	}
	return ruleLower
}
