/*
 * @module api/controllers/response
 * @description 统一API响应结构与构造辅助
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 无状态响应构造
 * @rules status 0 表示成功，非 0 为错误码；错误详情拼接到 msg
 * @dependencies 无
 * @refs api/controllers/
 */

package controllers

import "fmt"

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}

// SuccessResponse 成功响应
func SuccessResponse(msg string, data interface{}) *APIResponse {
	return &APIResponse{Status: 0, Msg: msg, Data: data}
}

// BadRequestResponse 请求参数错误响应
func BadRequestResponse(msg string, err error) *APIResponse {
	return &APIResponse{Status: 400, Msg: withError(msg, err)}
}

// NotFoundResponse 资源不存在响应
func NotFoundResponse(msg string, err error) *APIResponse {
	return &APIResponse{Status: 404, Msg: withError(msg, err)}
}

// InternalErrorResponse 服务内部错误响应
func InternalErrorResponse(msg string, err error) *APIResponse {
	return &APIResponse{Status: 500, Msg: withError(msg, err)}
}

func withError(msg string, err error) string {
	if err == nil {
		return msg
	}
	return fmt.Sprintf("%s: %v", msg, err)
}
