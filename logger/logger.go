/*
 * @module logger
 * @description 全局日志初始化，JSON 结构化输出
 * @architecture 基础设施层
 * @rules 日志级别由 LOG_LEVEL 环境变量控制，默认 debug；所有日志携带 service 字段
 * @dependencies log/slog
 * @refs main.go
 */

package logger

import (
	"log/slog"
	"os"
	"strings"
)

const serviceName = "dq-assessment-service"

// InitLogger 初始化全局日志记录器
// 创建 JSON 格式的日志处理器,输出到 stdout
func InitLogger() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	})
	logger := slog.New(handler).With("service", serviceName)
	slog.SetDefault(logger)
}

// parseLevel 解析日志级别，无法识别时回退 debug
func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
