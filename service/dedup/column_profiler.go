/*
 * @module service/dedup/column_profiler
 * @description 列画像服务：统计每列的基数、唯一率与空置率，给出匹配键适用性推荐
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 数据集输入 -> 逐列统计 -> 按唯一率降序的画像列表
 * @rules 唯一率 ≥90 且空置率 <5 为 Strong；唯一率 ≥50 且空置率 <20 为 Medium；其余为 Weak
 * @dependencies dq-assessment-service/service/models, github.com/spf13/cast
 * @refs service/dedup/duplicate_detector.go
 */

package dedup

import (
	"math"
	"sort"
	"strings"

	"dq-assessment-service/service/models"

	"github.com/spf13/cast"
)

// ColumnProfiler 列画像服务，为重复检测的匹配键选择提供操作指引
type ColumnProfiler struct{}

// NewColumnProfiler 创建列画像服务实例
func NewColumnProfiler() *ColumnProfiler {
	return &ColumnProfiler{}
}

// ProfileColumns 对所有非内部列做画像，按唯一率降序返回
func (p *ColumnProfiler) ProfileColumns(ds *models.Dataset) []models.ColumnProfile {
	total := ds.RowCount()
	columns := ds.NonInternalColumns()
	profiles := make([]models.ColumnProfile, 0, len(columns))

	for _, col := range columns {
		nullCount := 0
		emptyCount := 0
		distinct := make(map[string]bool)

		for _, row := range ds.Rows {
			value := row[col]
			if value == nil {
				nullCount++
				continue
			}
			normalized := strings.ToLower(strings.TrimSpace(cast.ToString(value)))
			if normalized == "" || normalized == "nan" {
				emptyCount++
				continue
			}
			distinct[normalized] = true
		}

		var effectiveNullPct, uniquenessPct float64
		if total > 0 {
			effectiveNullPct = float64(nullCount+emptyCount) / float64(total) * 100
			uniquenessPct = float64(len(distinct)) / float64(total) * 100
		}

		recommendation := models.KeyStrengthWeak
		if uniquenessPct >= 90 && effectiveNullPct < 5 {
			recommendation = models.KeyStrengthStrong
		} else if uniquenessPct >= 50 && effectiveNullPct < 20 {
			recommendation = models.KeyStrengthMedium
		}

		profiles = append(profiles, models.ColumnProfile{
			Column:         col,
			Cardinality:    len(distinct),
			UniquenessPct:  round1(uniquenessPct),
			NullEmptyPct:   round1(effectiveNullPct),
			Recommendation: recommendation,
		})
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].UniquenessPct > profiles[j].UniquenessPct
	})
	return profiles
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
