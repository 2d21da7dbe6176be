/*
 * @module api/controllers/health_controller
 * @description 健康检查控制器，提供存活与就绪探针
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow HTTP请求 -> 控制器 -> JSON响应
 * @rules 健康检查不依赖外部资源，始终快速返回
 * @dependencies github.com/go-chi/render
 * @refs api/routes.go
 */

package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status" example:"ok"`
	Timestamp string `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Version   string `json:"version" example:"1.0.0"`
	Service   string `json:"service" example:"dq-assessment-service"`
}

// Health 健康检查
// @Summary 健康检查
// @Description 返回服务存活状态
// @Tags 健康检查
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
		Service:   "dq-assessment-service",
	})
}

// Ready 就绪检查
// @Summary 就绪检查
// @Description 返回服务就绪状态
// @Tags 健康检查
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /ready [get]
func Ready(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
		Service:   "dq-assessment-service",
	})
}
