/*
 * @module service/dedup/survivorship_test
 * @description 幸存者裁决测试：五种策略、并列打破与黄金/淘汰划分完整性
 * @architecture 测试层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 注记结果输入 -> 裁决 -> 划分验证
 * @rules 黄金集与淘汰集互斥且无行丢失，每组恰好一个黄金记录
 * @dependencies testing, github.com/stretchr/testify/assert
 * @refs service/dedup/survivorship.go
 */

package dedup

import (
	"sort"
	"testing"

	"dq-assessment-service/service/models"

	"github.com/stretchr/testify/assert"
)

// annotatedResult 构造已注记的重复检测结果供裁决测试使用
func annotatedResult(columns []string, rows []models.Row, groups []models.DuplicateGroup) *models.DuplicateResult {
	return &models.DuplicateResult{
		Dataset: &models.Dataset{Columns: columns, Rows: rows},
		Groups:  groups,
	}
}

// TestMostComplete 测试最完整策略与最小索引并列打破
func TestMostComplete(t *testing.T) {
	result := annotatedResult(
		[]string{"a", models.ColCompleteness},
		[]models.Row{
			{"a": "1", models.ColCompleteness: 50.0},
			{"a": "2", models.ColCompleteness: 100.0},
			{"a": "3", models.ColCompleteness: 100.0},
		},
		nil,
	)

	resolver := NewSurvivorshipResolver()
	winner := resolver.IdentifyGoldenRecord(result, []int{0, 1, 2}, models.StrategyMostComplete)
	assert.Equal(t, 1, winner, "并列时取最小行索引")
}

// TestMostRecent 测试最近策略：排名 1 胜出
func TestMostRecent(t *testing.T) {
	result := annotatedResult(
		[]string{"a", models.ColRecencyRank},
		[]models.Row{
			{"a": "1", models.ColRecencyRank: 2},
			{"a": "2", models.ColRecencyRank: 1},
		},
		nil,
	)

	winner := NewSurvivorshipResolver().IdentifyGoldenRecord(result, []int{0, 1}, models.StrategyMostRecent)
	assert.Equal(t, 1, winner)
}

// TestMostFrequent 测试最多非空值策略
func TestMostFrequent(t *testing.T) {
	result := annotatedResult(
		[]string{"a", "b", "c"},
		[]models.Row{
			{"a": "1", "b": nil, "c": nil},
			{"a": "1", "b": "2", "c": "3"},
		},
		nil,
	)

	winner := NewSurvivorshipResolver().IdentifyGoldenRecord(result, []int{0, 1}, models.StrategyMostFrequent)
	assert.Equal(t, 1, winner)
}

// TestSourcePriority 测试来源优先级策略与无来源列时的回退
func TestSourcePriority(t *testing.T) {
	resolver := NewSurvivorshipResolver()

	withSource := annotatedResult(
		[]string{"a", "source_system", models.ColCompleteness},
		[]models.Row{
			{"a": "1", "source_system": "CRM", models.ColCompleteness: 10.0},
			{"a": "2", "source_system": "Billing", models.ColCompleteness: 90.0},
		},
		nil,
	)
	winner := resolver.IdentifyGoldenRecord(withSource, []int{0, 1}, models.StrategySourcePriority)
	assert.Equal(t, 1, winner, "字典序最小的来源值优先")

	noSource := annotatedResult(
		[]string{"a", models.ColCompleteness},
		[]models.Row{
			{"a": "1", models.ColCompleteness: 10.0},
			{"a": "2", models.ColCompleteness: 90.0},
		},
		nil,
	)
	winner = resolver.IdentifyGoldenRecord(noSource, []int{0, 1}, models.StrategySourcePriority)
	assert.Equal(t, 1, winner, "无来源列时回退到最完整策略")
}

// TestManualAndUnknownStrategy 测试手动选择与未识别策略默认取首行
func TestManualAndUnknownStrategy(t *testing.T) {
	result := annotatedResult(
		[]string{"a"},
		[]models.Row{{"a": "1"}, {"a": "2"}, {"a": "3"}},
		nil,
	)

	resolver := NewSurvivorshipResolver()
	assert.Equal(t, 1, resolver.IdentifyGoldenRecord(result, []int{1, 2}, models.StrategyManual))
	assert.Equal(t, 1, resolver.IdentifyGoldenRecord(result, []int{1, 2}, "Whatever"))
	assert.Equal(t, -1, resolver.IdentifyGoldenRecord(result, nil, models.StrategyMostComplete), "空组返回哨兵")
}

// TestBuildGoldenRecordsPartition 测试黄金/淘汰划分的完整性与互斥性
func TestBuildGoldenRecordsPartition(t *testing.T) {
	detector := NewDuplicateDetector()
	ds := &models.Dataset{
		Columns: []string{"email", "name"},
		Rows: []models.Row{
			{"email": "a@x.com", "name": "Alice"},
			{"email": "a@x.com", "name": nil},
			{"email": "b@x.com", "name": "Bob"},
			{"email": "c@x.com", "name": "Carol"},
			{"email": "c@x.com", "name": "Caroline"},
		},
	}
	result, err := detector.DetectDuplicates(ds, DetectOptions{MatchColumns: []string{"email"}})
	assert.NoError(t, err)
	assert.Len(t, result.Groups, 2)

	partition, err := NewSurvivorshipResolver().BuildGoldenRecords(result, models.StrategyMostComplete)
	assert.NoError(t, err)

	// 每组恰好一个黄金记录
	assert.Len(t, partition.GroupWinner, 2)
	assert.Equal(t, 0, partition.GroupWinner["DG-0001"], "更完整的行胜出")

	// 互斥且覆盖全部行
	all := append(append([]int(nil), partition.GoldenRows...), partition.DiscardRows...)
	sort.Ints(all)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, all)
	for _, g := range partition.GoldenRows {
		assert.NotContains(t, partition.DiscardRows, g)
	}

	// 非重复行直通黄金集
	assert.Contains(t, partition.GoldenRows, 2)

	_, err = NewSurvivorshipResolver().BuildGoldenRecords(nil, models.StrategyMostComplete)
	assert.Error(t, err)
}
