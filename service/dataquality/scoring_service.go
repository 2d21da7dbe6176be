/*
 * @module service/dataquality/scoring_service
 * @description 评分服务：基于注记结果表计算总体、列级与维度级质量得分
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 注记结果 -> 干净记录统计 -> 百分制得分（保留两位小数）
 * @rules 空数据集得分为 0.0，不产生 NaN 也不报错
 * @dependencies dq-assessment-service/service/models, math
 * @refs service/dataquality/rule_executor.go
 */

package dataquality

import (
	"math"
	"strings"

	"dq-assessment-service/service/models"
)

// 结果表的聚合保留字段，列级评分时跳过
var reservedResultFields = map[string]bool{
	"Issues":           true,
	"Count of issues":  true,
	"Failed_Rules":     true,
	"Failed_Columns":   true,
	"Issue categories": true,
}

// ScoringService 数据质量评分服务
type ScoringService struct{}

// NewScoringService 创建评分服务实例
func NewScoringService() *ScoringService {
	return &ScoringService{}
}

// CalculateOverallScore 总体得分 = 100 × 干净记录数 / 总记录数
func (s *ScoringService) CalculateOverallScore(results *models.AnnotatedResults) float64 {
	total := len(results.Rows)
	if total == 0 {
		return 0.0
	}
	clean := 0
	for i := range results.Rows {
		if results.Rows[i].IsClean() {
			clean++
		}
	}
	return round2(float64(clean) / float64(total) * 100)
}

// CalculateColumnScores 列级得分：(总行数 - 该列失败行数) / 总行数 × 100
func (s *ScoringService) CalculateColumnScores(results *models.AnnotatedResults, allColumns []string) map[string]float64 {
	total := len(results.Rows)
	if total == 0 {
		return map[string]float64{}
	}

	failedTracker := make(map[string]map[int]bool)
	for idx := range results.Rows {
		for _, col := range results.Rows[idx].FailedColumnsList {
			if failedTracker[col] == nil {
				failedTracker[col] = make(map[int]bool)
			}
			failedTracker[col][idx] = true
		}
	}

	scores := make(map[string]float64, len(allColumns))
	for _, col := range allColumns {
		if strings.HasPrefix(col, "_") || reservedResultFields[col] {
			continue
		}
		failedCount := len(failedTracker[col])
		scores[col] = round2(float64(total-failedCount) / float64(total) * 100)
	}
	return scores
}

// CalculateDimensionScores 维度级得分：未命中该维度的行占比 × 100
func (s *ScoringService) CalculateDimensionScores(results *models.AnnotatedResults) map[string]float64 {
	total := len(results.Rows)
	if total == 0 {
		return map[string]float64{}
	}

	dimensionSet := make(map[string]bool)
	for i := range results.Rows {
		for _, d := range strings.Split(results.Rows[i].IssueCategories, ",") {
			d = strings.TrimSpace(d)
			if d != "" {
				dimensionSet[d] = true
			}
		}
	}

	scores := make(map[string]float64, len(dimensionSet))
	for dim := range dimensionSet {
		failed := 0
		for i := range results.Rows {
			if strings.Contains(results.Rows[i].IssueCategories, dim) {
				failed++
			}
		}
		scores[dim] = round2(float64(total-failed) / float64(total) * 100)
	}
	return scores
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
