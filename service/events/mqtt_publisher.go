/*
 * @module service/events/mqtt_publisher
 * @description MQTT 事件发布适配器，封装 paho 客户端按主题推送事件
 * @architecture 适配器模式 - 封装第三方MQTT客户端，提供统一的发布接口
 * @documentReference ai_docs/dq_assessment_design.md
 * @stateFlow 懒连接 -> 主题发布（QoS 1）-> 断开
 * @rules 首次发布时建立连接，连接失败返回错误由广播器记日志
 * @dependencies github.com/eclipse/paho.mqtt.golang, encoding/json
 * @refs service/events/event.go
 */

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTPublisher MQTT 事件发布器
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	mutex  sync.Mutex
}

// NewMQTTPublisher 创建 MQTT 事件发布器
func NewMQTTPublisher(broker, topic string) *MQTTPublisher {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(fmt.Sprintf("dq-assessment-%d", time.Now().UnixNano())).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	return &MQTTPublisher{
		client: mqtt.NewClient(opts),
		topic:  topic,
	}
}

// Name 通道名
func (p *MQTTPublisher) Name() string {
	return "mqtt"
}

// Publish 首次调用时建立连接，之后按 QoS 1 发布
func (p *MQTTPublisher) Publish(ctx context.Context, event *Event) error {
	p.mutex.Lock()
	if !p.client.IsConnected() {
		token := p.client.Connect()
		if !token.WaitTimeout(10 * time.Second) {
			p.mutex.Unlock()
			return fmt.Errorf("MQTT 连接超时")
		}
		if err := token.Error(); err != nil {
			p.mutex.Unlock()
			return fmt.Errorf("MQTT 连接失败: %w", err)
		}
	}
	p.mutex.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, 1, false, data)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 断开连接
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
