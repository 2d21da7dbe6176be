/*
 * @module api/controllers/case_controller_test
 * @description 案例控制器单元测试
 * @architecture 测试层
 * @stateFlow 测试准备 -> 请求构建 -> 响应验证
 * @dependencies testing, net/http/httptest, stretchr/testify
 */

package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestCase(t *testing.T, title string) map[string]interface{} {
	t.Helper()

	body := map[string]interface{}{
		"title":       title,
		"type":        "Missing Values",
		"priority":    "High",
		"description": "单元测试案例",
	}
	_, response := postJSON(t, CreateCase, "/cases", body)
	require.Equal(t, 0, response.Status)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	return data
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestCreateCase 测试创建案例
func TestCreateCase(t *testing.T) {
	data := createTestCase(t, "控制器创建案例")

	caseID, ok := data["case_id"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(caseID, "CASE-"))
	assert.Equal(t, "Open", data["status"])
	assert.Equal(t, "High", data["priority"])
}

// TestCreateCaseMissingTitle 测试缺少标题时报错
func TestCreateCaseMissingTitle(t *testing.T) {
	_, response := postJSON(t, CreateCase, "/cases", map[string]interface{}{"priority": "Low"})
	assert.Equal(t, 400, response.Status)
}

// TestGetCase 测试案例详情与不存在案例
func TestGetCase(t *testing.T) {
	created := createTestCase(t, "控制器详情案例")
	caseID := created["case_id"].(string)

	req := httptest.NewRequest(http.MethodGet, "/cases/"+caseID, nil)
	req = withURLParam(req, "case_id", caseID)
	w := httptest.NewRecorder()
	GetCase(w, req)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 0, response.Status)

	req = httptest.NewRequest(http.MethodGet, "/cases/CASE-9999", nil)
	req = withURLParam(req, "case_id", "CASE-9999")
	w = httptest.NewRecorder()
	GetCase(w, req)

	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 404, response.Status)
}

// TestUpdateCaseStatusEndpoint 测试状态流转接口
func TestUpdateCaseStatusEndpoint(t *testing.T) {
	created := createTestCase(t, "控制器流转案例")
	caseID := created["case_id"].(string)

	body, _ := json.Marshal(UpdateCaseStatusRequest{Status: "Resolved", Note: "已修复", By: "tester"})
	req := httptest.NewRequest(http.MethodPut, "/cases/"+caseID+"/status", bytes.NewReader(body))
	req = withURLParam(req, "case_id", caseID)
	w := httptest.NewRecorder()
	UpdateCaseStatus(w, req)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Equal(t, 0, response.Status)

	data := response.Data.(map[string]interface{})
	assert.Equal(t, "Resolved", data["status"])
	assert.NotNil(t, data["resolved_at"])

	// 非法状态
	body, _ = json.Marshal(UpdateCaseStatusRequest{Status: "Archived"})
	req = httptest.NewRequest(http.MethodPut, "/cases/"+caseID+"/status", bytes.NewReader(body))
	req = withURLParam(req, "case_id", caseID)
	w = httptest.NewRecorder()
	UpdateCaseStatus(w, req)

	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 400, response.Status)
}

// TestAssignCaseEndpoint 测试案例指派接口
func TestAssignCaseEndpoint(t *testing.T) {
	created := createTestCase(t, "控制器指派案例")
	caseID := created["case_id"].(string)

	body, _ := json.Marshal(AssignCaseRequest{Assignee: "data-steward", By: "admin"})
	req := httptest.NewRequest(http.MethodPut, "/cases/"+caseID+"/assign", bytes.NewReader(body))
	req = withURLParam(req, "case_id", caseID)
	w := httptest.NewRecorder()
	AssignCase(w, req)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Equal(t, 0, response.Status)

	data := response.Data.(map[string]interface{})
	assert.Equal(t, "data-steward", data["assigned_to"])
}

// TestImportDuplicateCases 测试从会话检测结果导入重复案例
func TestImportDuplicateCases(t *testing.T) {
	detectBody := map[string]interface{}{
		"session_id": "import-dup-session",
		"dataset": map[string]interface{}{
			"columns": []string{"name"},
			"rows": []map[string]interface{}{
				{"name": "Import Dup"},
				{"name": "import dup"},
			},
		},
		"options": map[string]interface{}{
			"match_columns": []string{"name"},
		},
	}
	_, response := postJSON(t, DetectDuplicates, "/dedup/detect", detectBody)
	require.Equal(t, 0, response.Status)

	importBody := map[string]interface{}{"session_id": "import-dup-session"}
	_, response = postJSON(t, ImportDuplicateCases, "/cases/import-duplicates", importBody)
	require.Equal(t, 0, response.Status)

	data := response.Data.(map[string]interface{})
	assert.Equal(t, 1.0, data["cases_created"])

	// 再次导入按标题去重，不重复建案
	_, response = postJSON(t, ImportDuplicateCases, "/cases/import-duplicates", importBody)
	require.Equal(t, 0, response.Status)
	data = response.Data.(map[string]interface{})
	assert.Equal(t, 0.0, data["cases_created"])

	// 未知会话返回 404
	_, response = postJSON(t, ImportDuplicateCases, "/cases/import-duplicates", map[string]interface{}{"session_id": "nope"})
	assert.Equal(t, 404, response.Status)
}

// TestListCasesAndSummary 测试列表筛选与看板汇总
func TestListCasesAndSummary(t *testing.T) {
	createTestCase(t, "控制器列表案例")

	req := httptest.NewRequest(http.MethodGet, "/cases?priority=High", nil)
	w := httptest.NewRecorder()
	ListCases(w, req)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Equal(t, 0, response.Status)

	cases, ok := response.Data.([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, cases)
	for _, c := range cases {
		assert.Equal(t, "High", c.(map[string]interface{})["priority"])
	}

	req = httptest.NewRequest(http.MethodGet, "/cases/summary", nil)
	w = httptest.NewRecorder()
	CaseSummary(w, req)

	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Equal(t, 0, response.Status)

	summary := response.Data.(map[string]interface{})
	assert.GreaterOrEqual(t, summary["total"], 1.0)
}
