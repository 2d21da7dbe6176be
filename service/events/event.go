/*
 * @module service/events/event
 * @description 领域事件定义与广播器：评估完成、重复检测完成与案例变更以尽力而为方式对外发布
 * @architecture 适配器模式 - 统一发布接口下挂多个消息通道适配器
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 业务完成 -> 事件构造 -> 广播到全部已配置通道 -> 单通道失败仅记日志
 * @rules 事件发布失败不得影响业务结果返回
 * @dependencies log/slog, encoding/json
 * @refs service/events/kafka_publisher.go, service/events/redis_publisher.go, service/events/mqtt_publisher.go
 */

package events

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// 事件类型
const (
	EventAssessmentCompleted = "quality.assessment.completed"
	EventDedupCompleted      = "dedup.detection.completed"
	EventCaseCreated         = "case.created"
	EventCaseStatusChanged   = "case.status_changed"
)

// Event 领域事件
type Event struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}

// NewEvent 构造事件并盖时间戳
func NewEvent(eventType string, payload map[string]interface{}) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

// Publisher 单通道事件发布接口
type Publisher interface {
	Name() string
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// Broadcaster 多通道广播器，逐通道尽力而为发布
type Broadcaster struct {
	publishers []Publisher
}

// NewBroadcaster 创建广播器
func NewBroadcaster(publishers ...Publisher) *Broadcaster {
	return &Broadcaster{publishers: publishers}
}

// NewBroadcasterFromEnv 按环境变量装配通道：
// EVENT_KAFKA_BROKERS（逗号分隔）、EVENT_REDIS_ADDR、EVENT_MQTT_BROKER，未配置的通道直接跳过
func NewBroadcasterFromEnv() *Broadcaster {
	var publishers []Publisher

	if brokers := os.Getenv("EVENT_KAFKA_BROKERS"); brokers != "" {
		publishers = append(publishers, NewKafkaPublisher(brokers, getEnv("EVENT_KAFKA_TOPIC", "dq-events")))
	}
	if addr := os.Getenv("EVENT_REDIS_ADDR"); addr != "" {
		publishers = append(publishers, NewRedisPublisher(addr, os.Getenv("EVENT_REDIS_PASSWORD"), getEnv("EVENT_REDIS_CHANNEL", "dq:events")))
	}
	if broker := os.Getenv("EVENT_MQTT_BROKER"); broker != "" {
		publishers = append(publishers, NewMQTTPublisher(broker, getEnv("EVENT_MQTT_TOPIC", "dq/events")))
	}

	if len(publishers) > 0 {
		names := make([]string, 0, len(publishers))
		for _, p := range publishers {
			names = append(names, p.Name())
		}
		slog.Info("事件广播通道已装配", "channels", names)
	}
	return NewBroadcaster(publishers...)
}

// Publish 广播事件，单通道失败只记日志不中断
func (b *Broadcaster) Publish(ctx context.Context, event *Event) {
	for _, p := range b.publishers {
		if err := p.Publish(ctx, event); err != nil {
			slog.Warn("事件发布失败", "channel", p.Name(), "event_type", event.Type, "error", err)
		}
	}
}

// Close 关闭全部通道
func (b *Broadcaster) Close() {
	for _, p := range b.publishers {
		if err := p.Close(); err != nil {
			slog.Warn("事件通道关闭失败", "channel", p.Name(), "error", err)
		}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
