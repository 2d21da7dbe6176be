/*
 * @module service/casemgmt/case_service
 * @description 数据治理案例服务：案例创建、筛选查询、状态流转、指派与自动建案
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 创建(Open) -> 任意状态间流转 -> Resolved/Closed 盖章 resolved_at
 * @rules 状态流转不设守卫，任意状态可达任意状态；每次流转必须追加一条历史；案例从不删除
 * @dependencies gorm.io/gorm, dq-assessment-service/service/models
 * @refs service/models/case_models.go, service/dataquality/, service/dedup/
 */

package casemgmt

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dq-assessment-service/service/models"

	"github.com/spf13/cast"
	"gorm.io/gorm"
)

// 历史条目时间戳格式，精确到分钟
const historyTimeLayout = "2006-01-02 15:04"

// 维度名到案例类型的映射，未知维度归入 Other
var dimensionCaseTypes = map[string]string{
	"Completeness":    "Missing Values",
	"Validity":        "Invalid Format",
	"Uniqueness":      "Uniqueness Violation",
	"Standardization": "Standardization Issue",
	"Consistency":     "Consistency Issue",
	"Accuracy":        "Outlier / Range Violation",
}

// CreateCaseRequest 创建案例请求
type CreateCaseRequest struct {
	Title           string       `json:"title"`
	Type            string       `json:"type"`
	Priority        string       `json:"priority"`
	Description     string       `json:"description"`
	AffectedRecords int          `json:"affected_records"`
	AffectedColumns string       `json:"affected_columns"`
	Source          string       `json:"source"`
	Extra           models.JSONB `json:"extra,omitempty"`
}

// CaseFilter 案例列表筛选条件，空值表示不过滤
type CaseFilter struct {
	Status     string `json:"status"`
	Priority   string `json:"priority"`
	Type       string `json:"type"`
	AssignedTo string `json:"assigned_to"`
}

// CaseSummary 案例看板汇总
type CaseSummary struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"by_status"`
	ByPriority map[string]int64 `json:"by_priority"`
	ByType     map[string]int64 `json:"by_type"`
	OpenCount  int64            `json:"open_count"`
}

// CaseService 案例管理服务
type CaseService struct {
	db *gorm.DB
}

// NewCaseService 创建案例管理服务实例
func NewCaseService(db *gorm.DB) *CaseService {
	return &CaseService{db: db}
}

// nextCaseID 生成下一个业务编号。案例从不删除，按现有数量递增即可保持单调
func (s *CaseService) nextCaseID() (string, error) {
	var count int64
	if err := s.db.Model(&models.Case{}).Count(&count).Error; err != nil {
		return "", fmt.Errorf("查询案例数量失败: %w", err)
	}
	return fmt.Sprintf("CASE-%04d", count+1), nil
}

// CreateCase 创建案例，初始状态 Open，并追加 "Case created" 历史
func (s *CaseService) CreateCase(req *CreateCaseRequest) (*models.Case, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("案例标题不能为空")
	}

	priority := req.Priority
	if priority == "" {
		priority = models.CasePriorityMedium
	}
	source := req.Source
	if source == "" {
		source = "Manual"
	}

	caseID, err := s.nextCaseID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	c := &models.Case{
		CaseID:          caseID,
		Title:           req.Title,
		Type:            req.Type,
		Priority:        priority,
		Status:          models.CaseStatusOpen,
		Description:     req.Description,
		AffectedRecords: req.AffectedRecords,
		AffectedColumns: req.AffectedColumns,
		Source:          source,
		Extra:           req.Extra,
		History: models.CaseHistoryList{{
			Timestamp: now.Format(historyTimeLayout),
			Action:    "Case created",
			Actor:     "System",
		}},
	}

	if err := s.db.Create(c).Error; err != nil {
		return nil, fmt.Errorf("创建案例失败: %w", err)
	}

	slog.Info("案例已创建", "case_id", c.CaseID, "title", c.Title, "source", c.Source)
	return c, nil
}

// GetCase 按业务编号查询案例
func (s *CaseService) GetCase(caseID string) (*models.Case, error) {
	var c models.Case
	if err := s.db.Where("case_id = ?", caseID).First(&c).Error; err != nil {
		return nil, fmt.Errorf("案例不存在 %s: %w", caseID, err)
	}
	return &c, nil
}

// ListCases 按筛选条件查询案例列表，按创建时间倒序
func (s *CaseService) ListCases(filter *CaseFilter) ([]models.Case, error) {
	query := s.db.Model(&models.Case{})
	if filter != nil {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.Priority != "" {
			query = query.Where("priority = ?", filter.Priority)
		}
		if filter.Type != "" {
			query = query.Where("type = ?", filter.Type)
		}
		if filter.AssignedTo != "" {
			query = query.Where("assigned_to = ?", filter.AssignedTo)
		}
	}

	var cases []models.Case
	if err := query.Order("created_at DESC").Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("查询案例列表失败: %w", err)
	}
	return cases, nil
}

// UpdateCaseStatus 状态流转：任意状态可达任意状态，流转即追加历史并刷新 updated_at
// 进入 Resolved 或 Closed 时盖章 resolved_at
func (s *CaseService) UpdateCaseStatus(caseID, newStatus, note, by string) (*models.Case, error) {
	valid := false
	for _, st := range models.CaseStatuses {
		if st == newStatus {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("非法的案例状态: %s", newStatus)
	}
	if by == "" {
		by = "User"
	}

	c, err := s.GetCase(caseID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	action := fmt.Sprintf("Status changed: %s → %s", c.Status, newStatus)
	if note != "" {
		action = fmt.Sprintf("%s (%s)", action, note)
	}

	c.Status = newStatus
	c.UpdatedAt = now
	if newStatus == models.CaseStatusResolved || newStatus == models.CaseStatusClosed {
		c.ResolvedAt = &now
	}
	c.History = append(c.History, models.CaseHistoryEntry{
		Timestamp: now.Format(historyTimeLayout),
		Action:    action,
		Actor:     by,
	})

	if err := s.db.Save(c).Error; err != nil {
		return nil, fmt.Errorf("更新案例状态失败: %w", err)
	}

	slog.Info("案例状态已更新", "case_id", c.CaseID, "status", newStatus, "by", by)
	return c, nil
}

// AssignCase 指派案例并追加历史
func (s *CaseService) AssignCase(caseID, assignee, by string) (*models.Case, error) {
	if strings.TrimSpace(assignee) == "" {
		return nil, fmt.Errorf("指派对象不能为空")
	}
	if by == "" {
		by = "User"
	}

	c, err := s.GetCase(caseID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	c.AssignedTo = assignee
	c.UpdatedAt = now
	c.History = append(c.History, models.CaseHistoryEntry{
		Timestamp: now.Format(historyTimeLayout),
		Action:    fmt.Sprintf("Assigned to %s", assignee),
		Actor:     by,
	})

	if err := s.db.Save(c).Error; err != nil {
		return nil, fmt.Errorf("指派案例失败: %w", err)
	}
	return c, nil
}

// Summary 案例看板汇总统计
func (s *CaseService) Summary() (*CaseSummary, error) {
	summary := &CaseSummary{
		ByStatus:   make(map[string]int64),
		ByPriority: make(map[string]int64),
		ByType:     make(map[string]int64),
	}

	var cases []models.Case
	if err := s.db.Find(&cases).Error; err != nil {
		return nil, fmt.Errorf("查询案例汇总失败: %w", err)
	}

	summary.Total = int64(len(cases))
	for i := range cases {
		summary.ByStatus[cases[i].Status]++
		summary.ByPriority[cases[i].Priority]++
		summary.ByType[cases[i].Type]++
		if cases[i].Status == models.CaseStatusOpen {
			summary.OpenCount++
		}
	}
	return summary, nil
}

// AutoCreateCasesFromDQ 从评估报告自动建案：每个得分低于 80 的维度一单，
// 唯一性违规行聚合一单；同标题案例不重复创建
func (s *CaseService) AutoCreateCasesFromDQ(report *models.AssessmentReport) (int, error) {
	if report == nil || report.Results == nil || len(report.Results.Rows) == 0 {
		return 0, nil
	}

	existing, err := s.existingTitles()
	if err != nil {
		return 0, err
	}

	created := 0
	for dim, score := range report.DimensionScores {
		if score >= 80 {
			continue
		}
		title := fmt.Sprintf("DQ Issue: %s score %.1f%%", dim, score)
		if existing[title] {
			continue
		}

		priority := models.CasePriorityMedium
		if score < 50 {
			priority = models.CasePriorityCritical
		} else if score < 70 {
			priority = models.CasePriorityHigh
		}

		affected := 0
		for i := range report.Results.Rows {
			if strings.Contains(report.Results.Rows[i].IssueCategories, dim) {
				affected++
			}
		}

		if _, err := s.CreateCase(&CreateCaseRequest{
			Title:           title,
			Type:            mapDimensionToCaseType(dim),
			Priority:        priority,
			Description:     fmt.Sprintf("Dimension '%s' scored %.1f%% — below 80%% threshold.", dim, score),
			AffectedRecords: affected,
			Source:          "DQ Engine",
		}); err != nil {
			return created, err
		}
		existing[title] = true
		created++
	}

	dupRows := 0
	for i := range report.Results.Rows {
		if strings.Contains(strings.ToLower(report.Results.Rows[i].FailedRules), "uniqueness") {
			dupRows++
		}
	}
	if dupRows > 0 {
		title := fmt.Sprintf("Duplicate Records Detected (%d rows)", dupRows)
		if !existing[title] {
			if _, err := s.CreateCase(&CreateCaseRequest{
				Title:           title,
				Type:            models.CaseTypeDuplicate,
				Priority:        models.CasePriorityHigh,
				Description:     fmt.Sprintf("%d records flagged for uniqueness violations.", dupRows),
				AffectedRecords: dupRows,
				Source:          "DQ Engine",
			}); err != nil {
				return created, err
			}
			created++
		}
	}

	return created, nil
}

// AutoCreateCasesForDupGroups 为每个重复组自动建案，同标题不重复创建
func (s *CaseService) AutoCreateCasesForDupGroups(result *models.DuplicateResult) (int, error) {
	if result == nil || len(result.Groups) == 0 {
		return 0, nil
	}

	existing, err := s.existingTitles()
	if err != nil {
		return 0, err
	}

	matchCols := strings.Join(result.MatchColumns, ", ")
	created := 0
	for _, group := range result.Groups {
		title := fmt.Sprintf("Dup Group %s: %d records on [%s]", group.GroupID, len(group.Rows), matchCols)
		if existing[title] {
			continue
		}

		simSum := 0.0
		for _, idx := range group.Rows {
			simSum += cast.ToFloat64(result.Dataset.Rows[idx][models.ColSimilarityScore])
		}
		avgSim := simSum / float64(len(group.Rows))

		rowIndices := make([]interface{}, len(group.Rows))
		for i, idx := range group.Rows {
			rowIndices[i] = idx
		}

		if _, err := s.CreateCase(&CreateCaseRequest{
			Title:    title,
			Type:     models.CaseTypeDuplicate,
			Priority: models.CasePriorityHigh,
			Description: fmt.Sprintf(
				"Duplicate group %s contains %d records matched via %s comparison on columns: %s. Avg similarity: %.2f%%",
				group.GroupID, len(group.Rows), group.MatchType, matchCols, avgSim*100),
			AffectedRecords: len(group.Rows),
			AffectedColumns: matchCols,
			Source:          "Duplicate Studio",
			Extra: models.JSONB{
				"group_id":      group.GroupID,
				"match_type":    group.MatchType,
				"row_indices":   rowIndices,
				"match_columns": result.MatchColumns,
				"record_count":  len(group.Rows),
			},
		}); err != nil {
			return created, err
		}
		existing[title] = true
		created++
	}

	return created, nil
}

func (s *CaseService) existingTitles() (map[string]bool, error) {
	var titles []string
	if err := s.db.Model(&models.Case{}).Pluck("title", &titles).Error; err != nil {
		return nil, fmt.Errorf("查询已有案例标题失败: %w", err)
	}
	set := make(map[string]bool, len(titles))
	for _, t := range titles {
		set[t] = true
	}
	return set, nil
}

func mapDimensionToCaseType(dim string) string {
	if t, ok := dimensionCaseTypes[dim]; ok {
		return t
	}
	return "Other"
}
