/*
 * @module api/controllers/quality_controller
 * @description 数据质量评估控制器：规则手册构建、解析与完整评估运行
 * @architecture MVC架构 - 控制器层
 * @dependencies github.com/go-chi/render, github.com/prometheus/client_golang
 * @refs service/dataquality, service/session, service/events
 */

package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"dq-assessment-service/service"
	"dq-assessment-service/service/events"
	"dq-assessment-service/service/models"
	"dq-assessment-service/service/monitoring"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// BuildRulebookRequest 从规则表构建规则手册的请求体
type BuildRulebookRequest struct {
	RulesDataset *models.Dataset `json:"rules_dataset"`
	BaseColumns  []string        `json:"base_columns"`
}

// ParseRulebookRequest 解析 JSON 规则手册的请求体
type ParseRulebookRequest struct {
	Rulebook json.RawMessage `json:"rulebook"`
}

// AssessRequest 数据质量评估请求体。
// rulebook 与 rules_dataset 二选一；都提供时优先 rulebook
type AssessRequest struct {
	SessionID       string          `json:"session_id,omitempty"`
	Dataset         *models.Dataset `json:"dataset"`
	Rulebook        *models.Rulebook `json:"rulebook,omitempty"`
	RulesDataset    *models.Dataset `json:"rules_dataset,omitempty"`
	AutoCreateCases bool            `json:"auto_create_cases,omitempty"`
}

// AssessResponse 评估响应：报告加会话标识
type AssessResponse struct {
	SessionID    string                   `json:"session_id"`
	Report       *models.AssessmentReport `json:"report"`
	CasesCreated int                      `json:"cases_created"`
}

// BuildRulebook 从规则表数据集构建规范化规则手册
// @Summary 构建规则手册
// @Description 从宽松格式的规则表（column/rule/dimension 列名自动探测）构建规范化规则手册
// @Tags 数据质量
// @Accept json
// @Produce json
// @Param request body BuildRulebookRequest true "规则表与基础数据列"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /quality/rulebook/build [post]
func BuildRulebook(w http.ResponseWriter, r *http.Request) {
	var req BuildRulebookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	rulebook, err := service.GlobalQualityEngine.Builder().BuildFromRulesDataset(req.RulesDataset, req.BaseColumns)
	if err != nil {
		render.JSON(w, r, BadRequestResponse("构建规则手册失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("构建规则手册成功", rulebook))
}

// LoadRulebook 加载并校验 JSON 格式的规则手册
// @Summary 加载规则手册
// @Description 解析并规范化 JSON 规则手册，缺省字段按规则类型补全
// @Tags 数据质量
// @Accept json
// @Produce json
// @Param request body ParseRulebookRequest true "JSON规则手册"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /quality/rulebook/load [post]
func LoadRulebook(w http.ResponseWriter, r *http.Request) {
	var req ParseRulebookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	rulebook, err := service.GlobalQualityEngine.Builder().ParseJSONRulebook(req.Rulebook)
	if err != nil {
		render.JSON(w, r, BadRequestResponse("解析规则手册失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("解析规则手册成功", rulebook))
}

// Assess 运行完整的数据质量评估
// @Summary 数据质量评估
// @Description 对数据集运行规则手册并返回注记结果、总分及维度/列分数；可选按维度分数自动创建治理案例
// @Tags 数据质量
// @Accept json
// @Produce json
// @Param request body AssessRequest true "数据集与规则手册"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /quality/assess [post]
func Assess(w http.ResponseWriter, r *http.Request) {
	var req AssessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	start := time.Now()

	var report *models.AssessmentReport
	var err error
	switch {
	case req.Rulebook != nil:
		report, err = service.GlobalQualityEngine.Run(req.Dataset, req.Rulebook)
	case req.RulesDataset != nil:
		report, err = service.GlobalQualityEngine.RunWithRulesDataset(req.Dataset, req.RulesDataset)
	default:
		render.JSON(w, r, BadRequestResponse("必须提供 rulebook 或 rules_dataset", nil))
		return
	}
	if err != nil {
		monitoring.AssessmentsTotal.WithLabelValues("error").Inc()
		render.JSON(w, r, BadRequestResponse("数据质量评估失败", err))
		return
	}

	monitoring.AssessmentsTotal.WithLabelValues("success").Inc()
	monitoring.AssessmentDuration.Observe(time.Since(start).Seconds())
	monitoring.RulesEvaluatedTotal.Add(float64(report.TotalRecords * len(report.Rulebook.Rules)))

	state := service.GlobalSessionStore.GetOrCreate(req.SessionID)
	state.Dataset = req.Dataset
	state.Rulebook = report.Rulebook
	state.Report = report

	casesCreated := 0
	if req.AutoCreateCases {
		casesCreated, err = service.GlobalCaseService.AutoCreateCasesFromDQ(report)
		if err != nil {
			slog.Error("自动创建案例失败", "error", err)
		} else if casesCreated > 0 {
			monitoring.CasesCreatedTotal.WithLabelValues("dq_assessment").Add(float64(casesCreated))
		}
	}

	service.GlobalEventBroadcaster.Publish(r.Context(), events.NewEvent(events.EventAssessmentCompleted, map[string]interface{}{
		"session_id":    state.ID,
		"overall_score": report.OverallScore,
		"total_records": report.TotalRecords,
		"total_issues":  report.TotalIssues,
		"fingerprint":   report.DatasetFingerprint,
	}))

	render.JSON(w, r, SuccessResponse("数据质量评估完成", AssessResponse{
		SessionID:    state.ID,
		Report:       report,
		CasesCreated: casesCreated,
	}))
}

// GetAssessmentReport 获取会话中缓存的评估报告
// @Summary 获取评估报告
// @Description 按会话ID返回最近一次评估的完整报告
// @Tags 数据质量
// @Produce json
// @Param id path string true "会话ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /quality/assessments/{id} [get]
func GetAssessmentReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	state, ok := service.GlobalSessionStore.Get(sessionID)
	if !ok || state.Report == nil {
		render.JSON(w, r, NotFoundResponse("评估报告不存在", nil))
		return
	}

	render.JSON(w, r, SuccessResponse("获取评估报告成功", AssessResponse{
		SessionID: state.ID,
		Report:    state.Report,
	}))
}
