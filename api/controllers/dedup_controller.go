/*
 * @module api/controllers/dedup_controller
 * @description 重复检测控制器：列画像、精确/模糊重复检测与黄金记录裁决
 * @architecture MVC架构 - 控制器层
 * @dependencies github.com/go-chi/render, github.com/prometheus/client_golang
 * @refs service/dedup, service/session, service/events
 */

package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"dq-assessment-service/service"
	"dq-assessment-service/service/dedup"
	"dq-assessment-service/service/events"
	"dq-assessment-service/service/models"
	"dq-assessment-service/service/monitoring"
	"dq-assessment-service/service/session"

	"github.com/go-chi/render"
)

// ProfileRequest 列画像请求体
type ProfileRequest struct {
	Dataset *models.Dataset `json:"dataset"`
}

// DetectRequest 重复检测请求体
type DetectRequest struct {
	SessionID       string              `json:"session_id,omitempty"`
	Dataset         *models.Dataset     `json:"dataset"`
	Options         dedup.DetectOptions `json:"options"`
	AutoCreateCases bool                `json:"auto_create_cases,omitempty"`
}

// DetectResponse 重复检测响应
type DetectResponse struct {
	SessionID    string                  `json:"session_id"`
	Result       *models.DuplicateResult `json:"result"`
	CasesCreated int                     `json:"cases_created"`
}

// GoldenRequest 黄金记录裁决请求体。
// 不提供 result 时使用会话中缓存的最近一次检测结果
type GoldenRequest struct {
	SessionID string                  `json:"session_id,omitempty"`
	Result    *models.DuplicateResult `json:"result,omitempty"`
	Strategy  string                  `json:"strategy"`
}

// GoldenResponse 黄金记录裁决响应
type GoldenResponse struct {
	SessionID string                  `json:"session_id,omitempty"`
	Partition *models.GoldenPartition `json:"partition"`
}

// ProfileColumns 对数据集执行列画像
// @Summary 列画像
// @Description 计算每列的基数、唯一率与空值率，并给出匹配列推荐强度
// @Tags 重复检测
// @Accept json
// @Produce json
// @Param request body ProfileRequest true "待画像数据集"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /dedup/profile [post]
func ProfileColumns(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}
	if req.Dataset == nil || req.Dataset.RowCount() == 0 {
		render.JSON(w, r, BadRequestResponse("数据集为空", nil))
		return
	}

	profiles := service.GlobalColumnProfiler.ProfileColumns(req.Dataset)
	render.JSON(w, r, SuccessResponse("列画像完成", profiles))
}

// DetectDuplicates 运行重复检测
// @Summary 重复检测
// @Description 按匹配列执行精确或模糊重复检测，返回追加内部列的注记数据集与重复组
// @Tags 重复检测
// @Accept json
// @Produce json
// @Param request body DetectRequest true "数据集与检测选项"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /dedup/detect [post]
func DetectDuplicates(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	mode := "exact"
	if req.Options.Fuzzy {
		mode = "fuzzy"
	}

	result, err := service.GlobalDupDetector.DetectDuplicates(req.Dataset, req.Options)
	if err != nil {
		monitoring.DedupRunsTotal.WithLabelValues(mode, "error").Inc()
		render.JSON(w, r, BadRequestResponse("重复检测失败", err))
		return
	}

	monitoring.DedupRunsTotal.WithLabelValues(mode, "success").Inc()
	monitoring.DuplicateGroupsFound.Observe(float64(len(result.Groups)))

	state := service.GlobalSessionStore.GetOrCreate(req.SessionID)
	state.DupResult = result
	state.Partition = nil

	casesCreated := 0
	if req.AutoCreateCases && len(result.Groups) > 0 {
		casesCreated, err = service.GlobalCaseService.AutoCreateCasesForDupGroups(result)
		if err != nil {
			slog.Error("自动创建重复案例失败", "error", err)
		} else if casesCreated > 0 {
			monitoring.CasesCreatedTotal.WithLabelValues("dedup").Add(float64(casesCreated))
		}
	}

	service.GlobalEventBroadcaster.Publish(r.Context(), events.NewEvent(events.EventDedupCompleted, map[string]interface{}{
		"session_id":     state.ID,
		"match_columns":  result.MatchColumns,
		"fuzzy":          result.Fuzzy,
		"group_count":    len(result.Groups),
		"duplicate_rows": len(result.DuplicateRows()),
	}))

	render.JSON(w, r, SuccessResponse("重复检测完成", DetectResponse{
		SessionID:    state.ID,
		Result:       result,
		CasesCreated: casesCreated,
	}))
}

// BuildGoldenRecords 按幸存者策略划分黄金记录
// @Summary 黄金记录裁决
// @Description 对重复检测结果应用幸存者策略，返回黄金集、淘汰集与每组胜出行
// @Tags 重复检测
// @Accept json
// @Produce json
// @Param request body GoldenRequest true "检测结果或会话ID，以及幸存者策略"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /dedup/golden [post]
func BuildGoldenRecords(w http.ResponseWriter, r *http.Request) {
	var req GoldenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, BadRequestResponse("请求参数格式错误", err))
		return
	}

	result := req.Result
	var state *session.State
	if result == nil {
		var ok bool
		state, ok = service.GlobalSessionStore.Get(req.SessionID)
		if !ok || state.DupResult == nil {
			render.JSON(w, r, NotFoundResponse("会话中没有重复检测结果", nil))
			return
		}
		result = state.DupResult
	}

	partition, err := service.GlobalSurvivorship.BuildGoldenRecords(result, req.Strategy)
	if err != nil {
		render.JSON(w, r, BadRequestResponse("黄金记录裁决失败", err))
		return
	}
	if state != nil {
		state.Partition = partition
	}

	resp := GoldenResponse{Partition: partition}
	if state != nil {
		resp.SessionID = state.ID
	}
	render.JSON(w, r, SuccessResponse("黄金记录裁决完成", resp))
}

// ListSurvivorshipStrategies 返回支持的幸存者策略
// @Summary 幸存者策略列表
// @Tags 重复检测
// @Produce json
// @Success 200 {object} APIResponse
// @Router /dedup/strategies [get]
func ListSurvivorshipStrategies(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, SuccessResponse("获取幸存者策略成功", models.SurvivorshipStrategies))
}
