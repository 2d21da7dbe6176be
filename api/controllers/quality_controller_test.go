/*
 * @module api/controllers/quality_controller_test
 * @description 数据质量评估控制器单元测试
 * @architecture 测试层
 * @stateFlow 测试准备 -> 请求构建 -> 响应验证
 * @dependencies testing, net/http/httptest, stretchr/testify
 */

package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "dq-assessment-service/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body interface{}) (*httptest.ResponseRecorder, *APIResponse) {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler(w, req)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return w, &response
}

// TestHealth 测试健康检查
func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	Health(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "dq-assessment-service", response.Service)
}

// TestBuildRulebook 测试从规则表构建规则手册
func TestBuildRulebook(t *testing.T) {
	body := map[string]interface{}{
		"base_columns": []string{"email", "age"},
		"rules_dataset": map[string]interface{}{
			"columns": []string{"column_name", "rule_type", "dimension"},
			"rows": []map[string]interface{}{
				{"column_name": "email", "rule_type": "valid email", "dimension": "Validity"},
				{"column_name": "age", "rule_type": "not null", "dimension": "Completeness"},
			},
		},
	}

	w, response := postJSON(t, BuildRulebook, "/quality/rulebook/build", body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, response.Status)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	rules, ok := data["rules"].([]interface{})
	require.True(t, ok)
	assert.Len(t, rules, 2)

	first, ok := rules[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "email_format", first["rule_type"])
	assert.Equal(t, "Validity", first["dimension"])
}

// TestBuildRulebookBadPayload 测试非法请求体
func TestBuildRulebookBadPayload(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/quality/rulebook/build", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()

	BuildRulebook(w, req)

	var response APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, 400, response.Status)
}

// TestLoadRulebook 测试加载 JSON 规则手册
func TestLoadRulebook(t *testing.T) {
	body := map[string]interface{}{
		"rulebook": map[string]interface{}{
			"rules": []map[string]interface{}{
				{"rule_type": "not_null", "column": "name"},
			},
		},
	}

	w, response := postJSON(t, LoadRulebook, "/quality/rulebook/load", body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, response.Status)
}

// TestAssessWithRulesDataset 测试完整评估流程（规则表输入）
func TestAssessWithRulesDataset(t *testing.T) {
	body := map[string]interface{}{
		"dataset": map[string]interface{}{
			"columns": []string{"name", "email"},
			"rows": []map[string]interface{}{
				{"name": "Alice", "email": "alice@example.com"},
				{"name": nil, "email": "not-an-email"},
			},
		},
		"rules_dataset": map[string]interface{}{
			"columns": []string{"column", "rule"},
			"rows": []map[string]interface{}{
				{"column": "name", "rule": "not null"},
				{"column": "email", "rule": "valid email"},
			},
		},
	}

	w, response := postJSON(t, Assess, "/quality/assess", body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, response.Status)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["session_id"])

	report, ok := data["report"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 50.0, report["overall_score"])
	assert.Equal(t, 2.0, report["total_records"])
	assert.Equal(t, 2.0, report["total_issues"])
}

// TestAssessRequiresRulebook 测试缺少规则手册时报错
func TestAssessRequiresRulebook(t *testing.T) {
	body := map[string]interface{}{
		"dataset": map[string]interface{}{
			"columns": []string{"name"},
			"rows":    []map[string]interface{}{{"name": "Alice"}},
		},
	}

	_, response := postJSON(t, Assess, "/quality/assess", body)
	assert.Equal(t, 400, response.Status)
}

// TestGetAssessmentReport 测试按会话取回评估报告
func TestGetAssessmentReport(t *testing.T) {
	body := map[string]interface{}{
		"session_id": "report-session",
		"dataset": map[string]interface{}{
			"columns": []string{"name"},
			"rows":    []map[string]interface{}{{"name": "Alice"}},
		},
		"rulebook": map[string]interface{}{
			"rules": []map[string]interface{}{
				{"rule_type": "not_null", "column": "name"},
			},
		},
	}

	_, response := postJSON(t, Assess, "/quality/assess", body)
	require.Equal(t, 0, response.Status)

	req := httptest.NewRequest(http.MethodGet, "/quality/assessments/report-session", nil)
	req = withURLParam(req, "id", "report-session")
	w := httptest.NewRecorder()
	GetAssessmentReport(w, req)

	var getResp APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&getResp))
	assert.Equal(t, 0, getResp.Status)

	// 未知会话返回 404
	req = httptest.NewRequest(http.MethodGet, "/quality/assessments/no-such-session", nil)
	req = withURLParam(req, "id", "no-such-session")
	w = httptest.NewRecorder()
	GetAssessmentReport(w, req)

	require.NoError(t, json.NewDecoder(w.Body).Decode(&getResp))
	assert.Equal(t, 404, getResp.Status)
}
