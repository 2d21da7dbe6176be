/*
 * @module service/events/kafka_publisher
 * @description Kafka 事件发布适配器，封装 kafka-go 生产者
 * @architecture 适配器模式 - 封装第三方Kafka客户端，提供统一的发布接口
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 懒连接 -> 消息序列化发送 -> 关闭
 * @rules 事件键为事件类型，同类型事件落入同一分区保持有序
 * @dependencies github.com/segmentio/kafka-go, encoding/json
 * @refs service/events/event.go
 */

package events

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher Kafka 事件发布器
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher 创建 Kafka 事件发布器，brokers 为逗号分隔地址列表
func NewKafkaPublisher(brokers, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(strings.Split(brokers, ",")...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
	}
}

// Name 通道名
func (p *KafkaPublisher) Name() string {
	return "kafka"
}

// Publish 序列化事件并发送
func (p *KafkaPublisher) Publish(ctx context.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Type),
		Value: data,
	})
}

// Close 关闭生产者
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
