/*
 * @module service/cleanup/session_janitor
 * @description 会话清扫服务：按 cron 周期回收空闲过期的评估会话
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 定时触发 -> 扫描过期会话 -> 回收并记录结果
 * @rules 清扫不得影响活跃会话的正常访问
 * @dependencies github.com/robfig/cron/v3, dq-assessment-service/service/session
 * @refs service/session/session_store.go
 */

package cleanup

import (
	"log/slog"
	"time"

	"dq-assessment-service/service/session"

	"github.com/robfig/cron/v3"
)

// 默认每十分钟清扫一次
const defaultSweepSpec = "0 */10 * * * *"

// SessionJanitor 会话清扫服务
type SessionJanitor struct {
	store   *session.Store
	cron    *cron.Cron
	started bool
}

// NewSessionJanitor 创建会话清扫服务实例
func NewSessionJanitor(store *session.Store) *SessionJanitor {
	return &SessionJanitor{
		store: store,
		cron:  cron.New(cron.WithSeconds()),
	}
}

// Start 注册清扫任务并启动调度
func (j *SessionJanitor) Start() error {
	if j.started {
		return nil
	}

	if _, err := j.cron.AddFunc(defaultSweepSpec, j.sweepOnce); err != nil {
		return err
	}
	j.cron.Start()
	j.started = true
	slog.Info("会话清扫任务已启动", "spec", defaultSweepSpec)
	return nil
}

// Stop 停止调度
func (j *SessionJanitor) Stop() {
	if !j.started {
		return
	}
	j.cron.Stop()
	j.started = false
	slog.Info("会话清扫任务已停止")
}

func (j *SessionJanitor) sweepOnce() {
	start := time.Now()
	removed := j.store.Sweep()
	if removed > 0 {
		slog.Info("会话清扫完成",
			"removed", removed,
			"remaining", j.store.Count(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
