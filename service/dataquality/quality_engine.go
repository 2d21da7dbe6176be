/*
 * @module service/dataquality/quality_engine
 * @description 数据质量评估编排器：规则手册构建/加载、规则执行与评分的高层入口
 * @architecture 分层架构 - 业务服务层，编排模式
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 规则手册就绪 -> 规则执行 -> 评分汇总 -> 评估报告
 * @rules 一次评估运行同步处理到完成，数据集在运行期间只读
 * @dependencies dq-assessment-service/service/models
 * @refs service/dataquality/rule_executor.go, service/dataquality/scoring_service.go
 */

package dataquality

import (
	"fmt"
	"log/slog"

	"dq-assessment-service/service/models"
)

// DataQualityEngine 数据质量评估编排器
type DataQualityEngine struct {
	builder *RulebookBuilderService
	scoring *ScoringService
}

// NewDataQualityEngine 创建评估编排器实例
func NewDataQualityEngine() *DataQualityEngine {
	return &DataQualityEngine{
		builder: NewRulebookBuilderService(),
		scoring: NewScoringService(),
	}
}

// Builder 返回内部的规则手册构建服务
func (e *DataQualityEngine) Builder() *RulebookBuilderService {
	return e.builder
}

// Run 对数据集执行完整评估：规则执行、评分与组合重复索引汇总
func (e *DataQualityEngine) Run(dataset *models.Dataset, rulebook *models.Rulebook) (*models.AssessmentReport, error) {
	if dataset == nil {
		return nil, fmt.Errorf("数据集不能为空")
	}
	if rulebook == nil {
		return nil, fmt.Errorf("规则手册不能为空")
	}

	executor := NewRuleExecutor(dataset, rulebook)
	results := executor.ExecuteAllRules()

	cleanRecords := 0
	totalIssues := 0
	for i := range results.Rows {
		if results.Rows[i].IsClean() {
			cleanRecords++
		}
		totalIssues += results.Rows[i].IssueCount
	}

	report := &models.AssessmentReport{
		OverallScore:          e.scoring.CalculateOverallScore(results),
		TotalRecords:          dataset.RowCount(),
		CleanRecords:          cleanRecords,
		TotalIssues:           totalIssues,
		DimensionScores:       e.scoring.CalculateDimensionScores(results),
		ColumnScores:          e.scoring.CalculateColumnScores(results, dataset.Columns),
		Results:               results,
		Rulebook:              rulebook,
		CombinationDuplicates: executor.GetCombinationDuplicates(),
		DatasetFingerprint:    dataset.Fingerprint(),
	}

	slog.Info("质量评估完成",
		"total_records", report.TotalRecords,
		"clean_records", report.CleanRecords,
		"total_issues", report.TotalIssues,
		"overall_score", report.OverallScore,
		"fingerprint", report.DatasetFingerprint)

	return report, nil
}

// RunWithRulesDataset 先从规则表格构建规则手册，再执行完整评估
func (e *DataQualityEngine) RunWithRulesDataset(dataset, rulesDataset *models.Dataset) (*models.AssessmentReport, error) {
	if dataset == nil {
		return nil, fmt.Errorf("数据集不能为空")
	}
	rulebook, err := e.builder.BuildFromRulesDataset(rulesDataset, dataset.Columns)
	if err != nil {
		return nil, fmt.Errorf("构建规则手册失败: %w", err)
	}
	return e.Run(dataset, rulebook)
}
