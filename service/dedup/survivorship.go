/*
 * @module service/dedup/survivorship
 * @description 幸存者裁决服务：按策略从每个重复组中选出唯一黄金记录，其余成员进入淘汰集
 * @architecture 分层架构 - 业务服务层，策略模式
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 重复检测结果 -> 逐组裁决 -> 黄金集/淘汰集划分
 * @rules 所有策略的并列一律以最小行索引（首次出现）打破；空组返回 -1 哨兵
 * @dependencies dq-assessment-service/service/models, github.com/spf13/cast
 * @refs service/dedup/duplicate_detector.go
 */

package dedup

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"dq-assessment-service/service/models"

	"github.com/spf13/cast"
)

// 来源优先级策略探测的列名关键词，按列顺序取第一个命中列
var sourcePriorityKeywords = []string{"source", "system", "origin", "priority"}

// SurvivorshipResolver 幸存者裁决服务
type SurvivorshipResolver struct{}

// NewSurvivorshipResolver 创建幸存者裁决服务实例
func NewSurvivorshipResolver() *SurvivorshipResolver {
	return &SurvivorshipResolver{}
}

// IdentifyGoldenRecord 按策略从一个重复组中选出黄金记录的行索引，空组返回 -1
func (r *SurvivorshipResolver) IdentifyGoldenRecord(result *models.DuplicateResult, group []int, strategy string) int {
	if len(group) == 0 {
		return -1
	}
	rows := result.Dataset.Rows

	switch strategy {
	case models.StrategyMostComplete:
		return argMaxFloat(group, func(idx int) float64 {
			return cast.ToFloat64(rows[idx][models.ColCompleteness])
		})

	case models.StrategyMostRecent:
		return argMinFloat(group, func(idx int) float64 {
			return cast.ToFloat64(rows[idx][models.ColRecencyRank])
		})

	case models.StrategyMostFrequent:
		nonInternal := nonInternalOf(result.Dataset)
		return argMaxFloat(group, func(idx int) float64 {
			filled := 0
			for _, col := range nonInternal {
				if rows[idx][col] != nil {
					filled++
				}
			}
			return float64(filled)
		})

	case models.StrategySourcePriority:
		srcCol := r.findSourceColumn(result.Dataset)
		if srcCol == "" {
			return r.IdentifyGoldenRecord(result, group, models.StrategyMostComplete)
		}
		best := group[0]
		for _, idx := range group[1:] {
			if valueLess(rows[idx][srcCol], rows[best][srcCol]) {
				best = idx
			}
		}
		return best

	default:
		// Manual Selection 与未识别策略：取组内最小行索引
		best := group[0]
		for _, idx := range group[1:] {
			if idx < best {
				best = idx
			}
		}
		return best
	}
}

// BuildGoldenRecords 构建黄金集/淘汰集划分：非重复行直通黄金集，每组胜者入黄金集，其余入淘汰集
func (r *SurvivorshipResolver) BuildGoldenRecords(result *models.DuplicateResult, strategy string) (*models.GoldenPartition, error) {
	if result == nil || result.Dataset == nil {
		return nil, fmt.Errorf("重复检测结果为空")
	}

	partition := &models.GoldenPartition{
		Strategy:    strategy,
		GroupWinner: make(map[string]int),
	}

	duplicate := make(map[int]bool)
	for _, group := range result.Groups {
		for _, idx := range group.Rows {
			duplicate[idx] = true
		}
	}

	for idx := range result.Dataset.Rows {
		if !duplicate[idx] {
			partition.GoldenRows = append(partition.GoldenRows, idx)
		}
	}

	for _, group := range result.Groups {
		winner := r.IdentifyGoldenRecord(result, group.Rows, strategy)
		if winner < 0 {
			continue
		}
		partition.GroupWinner[group.GroupID] = winner
		partition.GoldenRows = append(partition.GoldenRows, winner)
		for _, idx := range group.Rows {
			if idx != winner {
				partition.DiscardRows = append(partition.DiscardRows, idx)
			}
		}
	}

	sort.Ints(partition.GoldenRows)
	sort.Ints(partition.DiscardRows)
	return partition, nil
}

// findSourceColumn 按列顺序查找名字含来源关键词的第一个列
func (r *SurvivorshipResolver) findSourceColumn(ds *models.Dataset) string {
	for _, col := range ds.Columns {
		if strings.HasPrefix(col, "_") {
			continue
		}
		lower := strings.ToLower(col)
		for _, kw := range sourcePriorityKeywords {
			if strings.Contains(lower, kw) {
				return col
			}
		}
	}
	return ""
}

func nonInternalOf(ds *models.Dataset) []string {
	return ds.NonInternalColumns()
}

// argMaxFloat 严格大于才更新，并列保留最小行索引
func argMaxFloat(group []int, key func(int) float64) int {
	best := group[0]
	bestVal := key(best)
	for _, idx := range group[1:] {
		if v := key(idx); v > bestVal {
			best, bestVal = idx, v
		}
	}
	return best
}

// argMinFloat 严格小于才更新，并列保留最小行索引
func argMinFloat(group []int, key func(int) float64) int {
	best := group[0]
	bestVal := key(best)
	for _, idx := range group[1:] {
		if v := key(idx); v < bestVal {
			best, bestVal = idx, v
		}
	}
	return best
}

// valueLess 混合类型比较：双方均可数值化时按数值，否则按字符串字典序；nil 视为最大
func valueLess(a, b interface{}) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	an, aerr := strconv.ParseFloat(strings.TrimSpace(cast.ToString(a)), 64)
	bn, berr := strconv.ParseFloat(strings.TrimSpace(cast.ToString(b)), 64)
	if aerr == nil && berr == nil {
		return an < bn
	}
	return cast.ToString(a) < cast.ToString(b)
}
