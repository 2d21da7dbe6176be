/*
 * @module service/dedup/duplicate_detector
 * @description 重复检测引擎：精确匹配按归一化匹配键分组，模糊匹配以种子行做相似度扫描，
 *              输出追加内部列的注记数据集与结构化重复组
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 匹配键归一化 -> 精确分组 -> 模糊分组（可选）-> 完整度/时近排名 -> 注记结果
 * @rules 检测产出新的注记副本，原数据集保持有效；模糊分组默认只与种子行比较，不做传递闭包
 * @dependencies github.com/sergi/go-diff/diffmatchpatch, golang.org/x/text
 * @refs service/dedup/survivorship.go, service/dedup/column_profiler.go
 */

package dedup

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"dq-assessment-service/service/models"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cast"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// 注记数据集追加的内部列，顺序固定
var internalColumns = []string{
	models.ColDupGroupID,
	models.ColIsDuplicate,
	models.ColDupCount,
	models.ColMatchType,
	models.ColSimilarityScore,
	models.ColCompleteness,
	models.ColRecencyRank,
}

// 日期列探测使用的布局，按常见程度排序
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02-01-2006",
}

// DetectOptions 重复检测选项
type DetectOptions struct {
	MatchColumns []string `json:"match_columns"`
	Fuzzy        bool     `json:"fuzzy"`
	Threshold    float64  `json:"threshold"`
	// TransitiveFuzzy 开启后模糊候选与组内任意成员命中即入组（并查集式扩展）；
	// 默认关闭，保持只与种子行比较的历史行为
	TransitiveFuzzy bool `json:"transitive_fuzzy"`
}

// DuplicateDetector 重复检测引擎
type DuplicateDetector struct {
	dmp        *diffmatchpatch.DiffMatchPatch
	keyFolding transform.Transformer
}

// NewDuplicateDetector 创建重复检测引擎实例
func NewDuplicateDetector() *DuplicateDetector {
	return &DuplicateDetector{
		dmp:        diffmatchpatch.New(),
		keyFolding: transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
	}
}

// DetectDuplicates 在给定匹配列上检测重复组，返回注记数据集与组信息
func (d *DuplicateDetector) DetectDuplicates(ds *models.Dataset, opts DetectOptions) (*models.DuplicateResult, error) {
	if ds == nil || ds.RowCount() == 0 {
		return nil, fmt.Errorf("数据集为空，无法执行重复检测")
	}
	if len(opts.MatchColumns) == 0 {
		return nil, fmt.Errorf("至少需要一个匹配列")
	}
	for _, col := range opts.MatchColumns {
		if !ds.HasColumn(col) {
			return nil, fmt.Errorf("匹配列不存在: %s", col)
		}
	}
	if opts.Threshold <= 0 {
		opts.Threshold = 0.85
	}

	annotated := ds.Copy()
	annotated.Columns = append(annotated.Columns, internalColumns...)

	nonInternal := ds.NonInternalColumns()
	for _, row := range annotated.Rows {
		row[models.ColDupGroupID] = nil
		row[models.ColIsDuplicate] = false
		row[models.ColDupCount] = 0
		row[models.ColMatchType] = ""
		row[models.ColSimilarityScore] = 0.0
		row[models.ColCompleteness] = completenessOf(row, nonInternal)
	}

	keys := make([]string, ds.RowCount())
	for idx, row := range ds.Rows {
		keys[idx] = d.buildMatchKey(row, opts.MatchColumns)
	}

	result := &models.DuplicateResult{
		Dataset:      annotated,
		MatchColumns: opts.MatchColumns,
		Fuzzy:        opts.Fuzzy,
		Threshold:    opts.Threshold,
	}

	groupID := 0
	groupID = d.exactPhase(result, keys, groupID)
	if opts.Fuzzy && len(opts.MatchColumns) == 1 {
		d.fuzzyPhase(result, keys, groupID, opts)
	}

	d.assignRecencyRanks(result)
	return result, nil
}

// buildMatchKey 构造归一化匹配键：去空白、小写、折叠变音符号，按列顺序以 "|" 连接
func (d *DuplicateDetector) buildMatchKey(row models.Row, matchColumns []string) string {
	parts := make([]string, 0, len(matchColumns))
	for _, col := range matchColumns {
		value := row[col]
		if value == nil {
			parts = append(parts, "")
			continue
		}
		normalized := strings.ToLower(strings.TrimSpace(cast.ToString(value)))
		if folded, _, err := transform.String(d.keyFolding, normalized); err == nil {
			normalized = folded
		}
		parts = append(parts, normalized)
	}
	return strings.Join(parts, "|")
}

// exactPhase 精确匹配：相同匹配键且出现次数 >1 的行归入同一组，组号按首次遇到顺序分配
func (d *DuplicateDetector) exactPhase(result *models.DuplicateResult, keys []string, groupID int) int {
	indicesByKey := make(map[string][]int)
	var keyOrder []string
	for idx, key := range keys {
		if _, seen := indicesByKey[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		indicesByKey[key] = append(indicesByKey[key], idx)
	}

	for _, key := range keyOrder {
		indices := indicesByKey[key]
		if len(indices) < 2 {
			continue
		}
		groupID++
		gid := fmt.Sprintf("DG-%04d", groupID)
		for _, idx := range indices {
			row := result.Dataset.Rows[idx]
			row[models.ColDupGroupID] = gid
			row[models.ColIsDuplicate] = true
			row[models.ColDupCount] = len(indices)
			row[models.ColMatchType] = models.MatchTypeExact
			row[models.ColSimilarityScore] = 1.0
		}
		result.Groups = append(result.Groups, models.DuplicateGroup{
			GroupID:   gid,
			MatchType: models.MatchTypeExact,
			Rows:      indices,
		})
	}
	return groupID
}

// fuzzyPhase 模糊匹配：仅对未被精确阶段认领的行运行。每个未访问行作为种子开组，
// 其余行与种子键（或开启传递模式后与组内任意成员键）的相似度达到阈值即入组
func (d *DuplicateDetector) fuzzyPhase(result *models.DuplicateResult, keys []string, groupID int, opts DetectOptions) {
	var unassigned []int
	for idx := range keys {
		if !cast.ToBool(result.Dataset.Rows[idx][models.ColIsDuplicate]) {
			unassigned = append(unassigned, idx)
		}
	}

	visited := make(map[int]bool)
	for _, seed := range unassigned {
		if visited[seed] {
			continue
		}
		group := []int{seed}
		for _, candidate := range unassigned {
			if candidate == seed || visited[candidate] {
				continue
			}
			matched := false
			var sim float64
			if opts.TransitiveFuzzy {
				for _, member := range group {
					sim = d.SimilarityRatio(keys[member], keys[candidate])
					if sim >= opts.Threshold {
						matched = true
						break
					}
				}
			} else {
				sim = d.SimilarityRatio(keys[seed], keys[candidate])
				matched = sim >= opts.Threshold
			}
			if matched {
				group = append(group, candidate)
				result.Dataset.Rows[candidate][models.ColSimilarityScore] = round3(sim)
			}
		}
		if len(group) < 2 {
			continue
		}

		groupID++
		gid := fmt.Sprintf("DG-%04d-F", groupID)
		for _, idx := range group {
			visited[idx] = true
			row := result.Dataset.Rows[idx]
			row[models.ColDupGroupID] = gid
			row[models.ColIsDuplicate] = true
			row[models.ColDupCount] = len(group)
			row[models.ColMatchType] = models.MatchTypeFuzzy
			// 种子行未被比较过，补记满分
			if cast.ToFloat64(row[models.ColSimilarityScore]) == 0.0 {
				row[models.ColSimilarityScore] = 1.0
			}
		}
		result.Groups = append(result.Groups, models.DuplicateGroup{
			GroupID:   gid,
			MatchType: models.MatchTypeFuzzy,
			Rows:      group,
		})
	}
}

// SimilarityRatio 字符级相似度：2 × 相同字符数 / 两串总长，对称且落在 [0,1]
func (d *DuplicateDetector) SimilarityRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a)+len(b) == 0 {
		return 1.0
	}
	diffs := d.dmp.DiffMain(a, b, false)
	matched := 0
	for _, diff := range diffs {
		if diff.Type == diffmatchpatch.DiffEqual {
			matched += len([]rune(diff.Text))
		}
	}
	return 2 * float64(matched) / float64(len([]rune(a))+len([]rune(b)))
}

// assignRecencyRanks 组内时近排名：存在日期列时按日期降序（并列按先出现者优先），
// 否则按组内倒序出现次序；未入组的行排名为 0
func (d *DuplicateDetector) assignRecencyRanks(result *models.DuplicateResult) {
	dateCol := d.detectDateColumn(result.Dataset)

	for i := range result.Dataset.Rows {
		result.Dataset.Rows[i][models.ColRecencyRank] = 0
	}

	for _, group := range result.Groups {
		members := append([]int(nil), group.Rows...)
		if dateCol != "" {
			sort.SliceStable(members, func(i, j int) bool {
				ti := dateOf(result.Dataset.Rows[members[i]][dateCol])
				tj := dateOf(result.Dataset.Rows[members[j]][dateCol])
				return ti.After(tj)
			})
		} else {
			// 倒序出现次序：后出现者排名靠前
			for l, r := 0, len(members)-1; l < r; l, r = l+1, r-1 {
				members[l], members[r] = members[r], members[l]
			}
		}
		for rank, idx := range members {
			result.Dataset.Rows[idx][models.ColRecencyRank] = rank + 1
		}
	}
}

// detectDateColumn 返回第一个日期类型列：至少一个非空值且所有非空值均可按已知布局解析
func (d *DuplicateDetector) detectDateColumn(ds *models.Dataset) string {
	for _, col := range ds.NonInternalColumns() {
		nonNull := 0
		allDates := true
		for _, row := range ds.Rows {
			value := row[col]
			if models.IsNullOrEmpty(value) {
				continue
			}
			if _, ok := value.(time.Time); ok {
				nonNull++
				continue
			}
			if parseAnyDate(cast.ToString(value)).IsZero() {
				allDates = false
				break
			}
			nonNull++
		}
		if allDates && nonNull > 0 {
			return col
		}
	}
	return ""
}

func dateOf(value interface{}) time.Time {
	if t, ok := value.(time.Time); ok {
		return t
	}
	return parseAnyDate(cast.ToString(value))
}

func parseAnyDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// completenessOf 行完整度：非内部列中非空值的百分比，保留两位小数
func completenessOf(row models.Row, nonInternal []string) float64 {
	if len(nonInternal) == 0 {
		return 0.0
	}
	filled := 0
	for _, col := range nonInternal {
		if row[col] != nil {
			filled++
		}
	}
	return math.Round(float64(filled)/float64(len(nonInternal))*100*100) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
