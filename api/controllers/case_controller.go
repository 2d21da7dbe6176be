/*
 * @module api/controllers/case_controller
 * @description 数据治理案例控制器：案例增查、状态流转、指派与看板汇总
 * @architecture MVC架构 - 控制器层
 * @dependencies github.com/go-chi/chi, github.com/go-chi/render
 * @refs service/casemgmt, service/events
 */

package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"dq-assessment-service/service"
	"dq-assessment-service/service/casemgmt"
	"dq-assessment-service/service/events"
	"dq-assessment-service/service/monitoring"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"gorm.io/gorm"
)

// UpdateCaseStatusRequest 案例状态流转请求体
type UpdateCaseStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
	By     string `json:"by,omitempty"`
}

// AssignCaseRequest 案例指派请求体
type AssignCaseRequest struct {
	Assignee string `json:"assignee"`
	By       string `json:"by,omitempty"`
}

// CreateCase 创建数据治理案例
// @Summary 创建案例
// @Description 手工创建一条数据治理案例，案例编号自动分配
// @Tags 案例管理
// @Accept json
// @Produce json
// @Param request body casemgmt.CreateCaseRequest true "案例内容"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /cases [post]
func CreateCase(w http.ResponseWriter, r *http.Request) {
	var req casemgmt.CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	c, err := service.GlobalCaseService.CreateCase(&req)
	if err != nil {
		render.JSON(w, r, BadRequestResponse("创建案例失败", err))
		return
	}

	monitoring.CasesCreatedTotal.WithLabelValues("manual").Inc()
	service.GlobalEventBroadcaster.Publish(r.Context(), events.NewEvent(events.EventCaseCreated, map[string]interface{}{
		"case_id":  c.CaseID,
		"title":    c.Title,
		"priority": c.Priority,
		"source":   c.Source,
	}))

	render.JSON(w, r, SuccessResponse("创建案例成功", c))
}

// ListCases 按条件查询案例列表
// @Summary 案例列表
// @Description 按状态、优先级、类型与负责人筛选案例，按创建时间倒序
// @Tags 案例管理
// @Produce json
// @Param status query string false "案例状态"
// @Param priority query string false "优先级"
// @Param type query string false "案例类型"
// @Param assigned_to query string false "负责人"
// @Success 200 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /cases [get]
func ListCases(w http.ResponseWriter, r *http.Request) {
	filter := &casemgmt.CaseFilter{
		Status:     r.URL.Query().Get("status"),
		Priority:   r.URL.Query().Get("priority"),
		Type:       r.URL.Query().Get("type"),
		AssignedTo: r.URL.Query().Get("assigned_to"),
	}

	cases, err := service.GlobalCaseService.ListCases(filter)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("查询案例列表失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("查询案例列表成功", cases))
}

// GetCase 按案例编号查询单条案例
// @Summary 案例详情
// @Tags 案例管理
// @Produce json
// @Param case_id path string true "案例编号"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /cases/{case_id} [get]
func GetCase(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "case_id")

	c, err := service.GlobalCaseService.GetCase(caseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			render.JSON(w, r, NotFoundResponse("案例不存在", nil))
			return
		}
		render.JSON(w, r, InternalErrorResponse("查询案例失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("查询案例成功", c))
}

// UpdateCaseStatus 流转案例状态
// @Summary 案例状态流转
// @Description 将案例流转到任意合法状态；进入 Resolved/Closed 时记录解决时间，历史追加流转记录
// @Tags 案例管理
// @Accept json
// @Produce json
// @Param case_id path string true "案例编号"
// @Param request body UpdateCaseStatusRequest true "目标状态与备注"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /cases/{case_id}/status [put]
func UpdateCaseStatus(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "case_id")

	var req UpdateCaseStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	c, err := service.GlobalCaseService.UpdateCaseStatus(caseID, req.Status, req.Note, req.By)
	if err != nil {
		render.JSON(w, r, BadRequestResponse("案例状态流转失败", err))
		return
	}

	monitoring.CaseTransitionsTotal.WithLabelValues(c.Status).Inc()
	service.GlobalEventBroadcaster.Publish(r.Context(), events.NewEvent(events.EventCaseStatusChanged, map[string]interface{}{
		"case_id": c.CaseID,
		"status":  c.Status,
	}))

	render.JSON(w, r, SuccessResponse("案例状态流转成功", c))
}

// AssignCase 指派案例负责人
// @Summary 案例指派
// @Tags 案例管理
// @Accept json
// @Produce json
// @Param case_id path string true "案例编号"
// @Param request body AssignCaseRequest true "负责人"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /cases/{case_id}/assign [put]
func AssignCase(w http.ResponseWriter, r *http.Request) {
	caseID := chi.URLParam(r, "case_id")

	var req AssignCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	c, err := service.GlobalCaseService.AssignCase(caseID, req.Assignee, req.By)
	if err != nil {
		render.JSON(w, r, BadRequestResponse("案例指派失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("案例指派成功", c))
}

// ImportCasesRequest 从会话结果批量导入案例的请求体
type ImportCasesRequest struct {
	SessionID string `json:"session_id"`
}

// ImportDQCases 从已缓存的评估报告批量创建案例
// @Summary 导入质量案例
// @Description 按维度分数为会话中最近一次评估报告批量创建治理案例，标题已存在的维度跳过
// @Tags 案例管理
// @Accept json
// @Produce json
// @Param request body ImportCasesRequest true "会话ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /cases/import-dq [post]
func ImportDQCases(w http.ResponseWriter, r *http.Request) {
	var req ImportCasesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	state, ok := service.GlobalSessionStore.Get(req.SessionID)
	if !ok || state.Report == nil {
		render.JSON(w, r, NotFoundResponse("会话中没有评估报告", nil))
		return
	}

	created, err := service.GlobalCaseService.AutoCreateCasesFromDQ(state.Report)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("导入质量案例失败", err))
		return
	}
	if created > 0 {
		monitoring.CasesCreatedTotal.WithLabelValues("dq_assessment").Add(float64(created))
	}

	render.JSON(w, r, SuccessResponse("导入质量案例成功", map[string]int{"cases_created": created}))
}

// ImportDuplicateCases 从已缓存的重复检测结果按组批量创建案例
// @Summary 导入重复案例
// @Description 为会话中最近一次重复检测的每个重复组创建案例，标题已存在的组跳过
// @Tags 案例管理
// @Accept json
// @Produce json
// @Param request body ImportCasesRequest true "会话ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /cases/import-duplicates [post]
func ImportDuplicateCases(w http.ResponseWriter, r *http.Request) {
	var req ImportCasesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	state, ok := service.GlobalSessionStore.Get(req.SessionID)
	if !ok || state.DupResult == nil {
		render.JSON(w, r, NotFoundResponse("会话中没有重复检测结果", nil))
		return
	}

	created, err := service.GlobalCaseService.AutoCreateCasesForDupGroups(state.DupResult)
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("导入重复案例失败", err))
		return
	}
	if created > 0 {
		monitoring.CasesCreatedTotal.WithLabelValues("dedup").Add(float64(created))
	}

	render.JSON(w, r, SuccessResponse("导入重复案例成功", map[string]int{"cases_created": created}))
}

// CaseSummary 案例看板汇总
// @Summary 案例看板汇总
// @Description 按状态、优先级与类型统计案例数量
// @Tags 案例管理
// @Produce json
// @Success 200 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /cases/summary [get]
func CaseSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := service.GlobalCaseService.Summary()
	if err != nil {
		render.JSON(w, r, InternalErrorResponse("案例汇总失败", err))
		return
	}

	render.JSON(w, r, SuccessResponse("案例汇总成功", summary))
}
