/*
 * @module service/events/redis_publisher
 * @description Redis 事件发布适配器，基于发布订阅频道推送事件
 * @architecture 适配器模式 - 封装第三方Redis客户端，提供统一的发布接口
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 客户端初始化 -> PUBLISH 到固定频道 -> 关闭
 * @rules 频道无人订阅时发布成功但无消费者，属预期行为
 * @dependencies github.com/go-redis/redis/v8, encoding/json
 * @refs service/events/event.go
 */

package events

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
)

// RedisPublisher Redis 发布订阅事件发布器
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher 创建 Redis 事件发布器
func NewRedisPublisher(addr, password, channel string) *RedisPublisher {
	return &RedisPublisher{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		channel: channel,
	}
}

// Name 通道名
func (p *RedisPublisher) Name() string {
	return "redis"
}

// Publish 序列化事件并发布到频道
func (p *RedisPublisher) Publish(ctx context.Context, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

// Close 关闭客户端
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
