/*
 * @module service/casemgmt/case_service_test
 * @description 案例服务测试：编号分配、状态流转审计、筛选与自动建案去重
 * @architecture 测试层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 测试数据库初始化 -> 案例操作 -> 结果验证 -> 清理
 * @rules 每次状态流转必须恰好追加一条历史
 * @dependencies testing, github.com/stretchr/testify/assert, dq-assessment-service/testutil
 * @refs service/casemgmt/case_service.go
 */

package casemgmt

import (
	"errors"
	"testing"

	"dq-assessment-service/service/models"
	"dq-assessment-service/testutil"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*CaseService, *testutil.TestDB) {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	return NewCaseService(tdb.DB), tdb
}

// TestCreateCase 测试案例创建与编号格式
func TestCreateCase(t *testing.T) {
	svc, _ := newTestService(t)

	c1, err := svc.CreateCase(&CreateCaseRequest{Title: "第一单", Type: models.CaseTypeManual})
	assert.NoError(t, err)
	assert.Equal(t, "CASE-0001", c1.CaseID)
	assert.Equal(t, models.CaseStatusOpen, c1.Status)
	assert.Equal(t, models.CasePriorityMedium, c1.Priority, "优先级默认 Medium")
	assert.Equal(t, "Manual", c1.Source)
	assert.Len(t, c1.History, 1)
	assert.Equal(t, "Case created", c1.History[0].Action)
	assert.Equal(t, "System", c1.History[0].Actor)

	c2, err := svc.CreateCase(&CreateCaseRequest{Title: "第二单", Type: models.CaseTypeManual})
	assert.NoError(t, err)
	assert.Equal(t, "CASE-0002", c2.CaseID, "编号单调递增")

	_, err = svc.CreateCase(&CreateCaseRequest{Title: "  "})
	assert.Error(t, err, "空标题应报错")
}

// TestUpdateCaseStatus 测试状态流转、历史追加与 resolved_at 盖章
func TestUpdateCaseStatus(t *testing.T) {
	svc, _ := newTestService(t)

	c, err := svc.CreateCase(&CreateCaseRequest{Title: "流转测试", Type: models.CaseTypeManual})
	assert.NoError(t, err)

	c, err = svc.UpdateCaseStatus(c.CaseID, models.CaseStatusInProgress, "", "tester")
	assert.NoError(t, err)
	assert.Equal(t, models.CaseStatusInProgress, c.Status)
	assert.Len(t, c.History, 2)
	assert.Contains(t, c.History[1].Action, "Status changed: Open → In Progress")
	assert.Equal(t, "tester", c.History[1].Actor)
	assert.Nil(t, c.ResolvedAt)

	// 任意状态可达任意状态：直接关闭
	c, err = svc.UpdateCaseStatus(c.CaseID, models.CaseStatusClosed, "直接关闭", "tester")
	assert.NoError(t, err)
	assert.NotNil(t, c.ResolvedAt, "进入 Closed 应盖章 resolved_at")
	assert.Contains(t, c.History[2].Action, "(直接关闭)")

	// 从终态再打开也允许
	c, err = svc.UpdateCaseStatus(c.CaseID, models.CaseStatusOpen, "", "")
	assert.NoError(t, err)
	assert.Equal(t, models.CaseStatusOpen, c.Status)
	assert.Len(t, c.History, 4)

	_, err = svc.UpdateCaseStatus(c.CaseID, "Bogus", "", "")
	assert.Error(t, err, "非法状态应报错")

	_, err = svc.UpdateCaseStatus("CASE-9999", models.CaseStatusOpen, "", "")
	assert.Error(t, err, "不存在的案例应报错")
}

// TestGetCaseNotFound 测试不存在的案例保留底层错误链
func TestGetCaseNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.GetCase("CASE-9999")
	assert.Nil(t, got)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound), "错误链应保留 gorm.ErrRecordNotFound")

	c, err := svc.CreateCase(&CreateCaseRequest{Title: "详情测试", Type: models.CaseTypeManual})
	assert.NoError(t, err)

	got, err = svc.GetCase(c.CaseID)
	assert.NoError(t, err)
	assert.Equal(t, c.CaseID, got.CaseID)
}

// TestAssignCase 测试指派
func TestAssignCase(t *testing.T) {
	svc, _ := newTestService(t)

	c, err := svc.CreateCase(&CreateCaseRequest{Title: "指派测试", Type: models.CaseTypeManual})
	assert.NoError(t, err)

	c, err = svc.AssignCase(c.CaseID, "张三", "admin")
	assert.NoError(t, err)
	assert.Equal(t, "张三", c.AssignedTo)
	assert.Contains(t, c.History[1].Action, "Assigned to 张三")

	_, err = svc.AssignCase(c.CaseID, " ", "admin")
	assert.Error(t, err)
}

// TestListCasesWithFilter 测试筛选查询
func TestListCasesWithFilter(t *testing.T) {
	svc, _ := newTestService(t)

	c1, _ := svc.CreateCase(&CreateCaseRequest{Title: "A", Type: models.CaseTypeDuplicate, Priority: models.CasePriorityHigh})
	svc.CreateCase(&CreateCaseRequest{Title: "B", Type: models.CaseTypeManual, Priority: models.CasePriorityLow})
	svc.UpdateCaseStatus(c1.CaseID, models.CaseStatusResolved, "", "")

	all, err := svc.ListCases(nil)
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	resolved, err := svc.ListCases(&CaseFilter{Status: models.CaseStatusResolved})
	assert.NoError(t, err)
	assert.Len(t, resolved, 1)
	assert.Equal(t, "A", resolved[0].Title)

	high, err := svc.ListCases(&CaseFilter{Priority: models.CasePriorityHigh, Type: models.CaseTypeDuplicate})
	assert.NoError(t, err)
	assert.Len(t, high, 1)
}

// TestSummary 测试看板汇总
func TestSummary(t *testing.T) {
	svc, _ := newTestService(t)

	svc.CreateCase(&CreateCaseRequest{Title: "A", Type: models.CaseTypeDuplicate, Priority: models.CasePriorityHigh})
	c2, _ := svc.CreateCase(&CreateCaseRequest{Title: "B", Type: models.CaseTypeManual})
	svc.UpdateCaseStatus(c2.CaseID, models.CaseStatusClosed, "", "")

	summary, err := svc.Summary()
	assert.NoError(t, err)
	assert.Equal(t, int64(2), summary.Total)
	assert.Equal(t, int64(1), summary.OpenCount)
	assert.Equal(t, int64(1), summary.ByStatus[models.CaseStatusClosed])
	assert.Equal(t, int64(1), summary.ByPriority[models.CasePriorityHigh])
}

// TestAutoCreateCasesFromDQ 测试从评估报告自动建案与去重
func TestAutoCreateCasesFromDQ(t *testing.T) {
	svc, _ := newTestService(t)

	report := &models.AssessmentReport{
		DimensionScores: map[string]float64{
			"Completeness": 45.0, // Critical
			"Validity":     65.0, // High
			"Accuracy":     95.0, // 不建案
		},
		Results: &models.AnnotatedResults{
			Rows: []models.AnnotatedRow{
				{IssueCategories: "Completeness", FailedRules: "not_null, uniqueness"},
				{IssueCategories: "Completeness, Validity", FailedRules: "not_null"},
				{IssueCategories: ""},
			},
		},
	}

	created, err := svc.AutoCreateCasesFromDQ(report)
	assert.NoError(t, err)
	assert.Equal(t, 3, created, "两个低分维度各一单，加唯一性违规聚合一单")

	cases, _ := svc.ListCases(nil)
	byTitle := make(map[string]models.Case)
	for _, c := range cases {
		byTitle[c.Title] = c
	}

	comp := byTitle["DQ Issue: Completeness score 45.0%"]
	assert.Equal(t, models.CasePriorityCritical, comp.Priority)
	assert.Equal(t, "Missing Values", comp.Type)
	assert.Equal(t, 2, comp.AffectedRecords)

	val := byTitle["DQ Issue: Validity score 65.0%"]
	assert.Equal(t, models.CasePriorityHigh, val.Priority)

	dup := byTitle["Duplicate Records Detected (1 rows)"]
	assert.Equal(t, models.CaseTypeDuplicate, dup.Type)

	// 再次导入同一报告不重复建案
	created, err = svc.AutoCreateCasesFromDQ(report)
	assert.NoError(t, err)
	assert.Zero(t, created)

	created, err = svc.AutoCreateCasesFromDQ(nil)
	assert.NoError(t, err)
	assert.Zero(t, created)
}

// TestAutoCreateCasesForDupGroups 测试按重复组自动建案
func TestAutoCreateCasesForDupGroups(t *testing.T) {
	svc, _ := newTestService(t)

	result := &models.DuplicateResult{
		Dataset: &models.Dataset{
			Columns: []string{"email", models.ColSimilarityScore},
			Rows: []models.Row{
				{"email": "a@x.com", models.ColSimilarityScore: 1.0},
				{"email": "a@x.com", models.ColSimilarityScore: 1.0},
				{"email": "b@x.com", models.ColSimilarityScore: 0.0},
			},
		},
		Groups: []models.DuplicateGroup{
			{GroupID: "DG-0001", MatchType: models.MatchTypeExact, Rows: []int{0, 1}},
		},
		MatchColumns: []string{"email"},
	}

	created, err := svc.AutoCreateCasesForDupGroups(result)
	assert.NoError(t, err)
	assert.Equal(t, 1, created)

	cases, _ := svc.ListCases(nil)
	assert.Len(t, cases, 1)
	assert.Equal(t, "Dup Group DG-0001: 2 records on [email]", cases[0].Title)
	assert.Equal(t, models.CasePriorityHigh, cases[0].Priority)
	assert.Equal(t, 2, cases[0].AffectedRecords)
	assert.Equal(t, "DG-0001", cases[0].Extra["group_id"])

	// 同标题不重复
	created, err = svc.AutoCreateCasesForDupGroups(result)
	assert.NoError(t, err)
	assert.Zero(t, created)
}
