/*
 * @module service/monitoring/metrics
 * @description Prometheus 指标定义：评估运行、重复检测与案例操作的计数与耗时
 * @architecture 监控层
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 业务操作 -> 指标打点 -> /metrics 暴露
 * @rules 指标注册一次，业务侧只做打点
 * @dependencies github.com/prometheus/client_golang/prometheus
 * @refs main.go, api/controllers/
 */

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AssessmentsTotal 评估运行总数，按结果分类
	AssessmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dq_assessments_total",
		Help: "数据质量评估运行总数",
	}, []string{"status"})

	// AssessmentDuration 评估执行耗时分布
	AssessmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dq_assessment_duration_seconds",
		Help:    "单次质量评估耗时（秒）",
		Buckets: prometheus.DefBuckets,
	})

	// RulesEvaluatedTotal 规则求值总次数（行 × 规则）
	RulesEvaluatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dq_rules_evaluated_total",
		Help: "规则求值总次数",
	})

	// DedupRunsTotal 重复检测运行总数，按匹配模式分类
	DedupRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dq_dedup_runs_total",
		Help: "重复检测运行总数",
	}, []string{"mode", "status"})

	// DuplicateGroupsFound 单次检测发现的重复组数分布
	DuplicateGroupsFound = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dq_duplicate_groups_found",
		Help:    "单次重复检测发现的组数",
		Buckets: []float64{0, 1, 5, 10, 50, 100, 500},
	})

	// CasesCreatedTotal 案例创建总数，按来源分类
	CasesCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dq_cases_created_total",
		Help: "案例创建总数",
	}, []string{"source"})

	// CaseTransitionsTotal 案例状态流转总数
	CaseTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dq_case_transitions_total",
		Help: "案例状态流转总数",
	}, []string{"to_status"})

	// ActiveSessions 当前活跃评估会话数
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dq_active_sessions",
		Help: "当前活跃评估会话数",
	})
)
