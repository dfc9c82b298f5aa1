/*
 * @module service/monitoring/notification
 * @description 通知渠道接口和实现，将新建告警推送到Webhook、Kafka、MQTT和脚本渠道
 * @architecture 适配器模式 - 业务服务层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 告警订阅 -> 渠道过滤 -> 通知发送 -> 失败记录
 * @rules 通知发送失败只记录日志，不影响其他渠道和引擎自身状态
 * @dependencies github.com/segmentio/kafka-go, github.com/eclipse/paho.mqtt.golang, github.com/traefik/yaegi
 * @refs service/monitoring/subscription.go
 */

package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// NotificationSender 通知发送器接口
type NotificationSender interface {
	Send(alert Alert) error
	ChannelType() string
}

// NotificationManager 通知管理器，订阅告警总线并向所有渠道分发
type NotificationManager struct {
	senders  []NotificationSender
	minLevel AlertLevel
	sub      *Subscription
}

// levelRank 告警级别排序，用于最低级别过滤
func levelRank(level AlertLevel) int {
	switch level {
	case AlertInfo:
		return 0
	case AlertWarn:
		return 1
	case AlertError:
		return 2
	case AlertCritical:
		return 3
	default:
		return 0
	}
}

// NewNotificationManager 创建通知管理器实例
func NewNotificationManager(minLevel AlertLevel, senders ...NotificationSender) *NotificationManager {
	return &NotificationManager{
		senders:  senders,
		minLevel: minLevel,
	}
}

// Attach 订阅告警总线
func (n *NotificationManager) Attach(bus *SubscriptionBus) {
	n.sub = bus.OnAlert(func(alert Alert) {
		if levelRank(alert.Level) < levelRank(n.minLevel) {
			return
		}
		go n.dispatch(alert)
	})
}

// Detach 释放总线订阅
func (n *NotificationManager) Detach(bus *SubscriptionBus) {
	bus.Unsubscribe(n.sub)
	n.sub = nil
}

// dispatch 向所有渠道分发，单渠道失败不影响其他渠道
func (n *NotificationManager) dispatch(alert Alert) {
	for _, sender := range n.senders {
		if err := sender.Send(alert); err != nil {
			slog.Error("告警通知发送失败",
				"channel", sender.ChannelType(),
				"alert_id", alert.ID,
				"error", err)
		}
	}
}

// === Webhook渠道 ===

// WebhookChannel Webhook通知渠道
type WebhookChannel struct {
	URL    string
	client *http.Client
}

// NewWebhookChannel 创建Webhook通知渠道
func NewWebhookChannel(url string) *WebhookChannel {
	return &WebhookChannel{
		URL:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send 发送Webhook通知
func (w *WebhookChannel) Send(alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("序列化告警失败: %w", err)
	}

	resp, err := w.client.Post(w.URL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("发送Webhook请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("Webhook返回错误状态: %d", resp.StatusCode)
	}
	return nil
}

// ChannelType 渠道类型
func (w *WebhookChannel) ChannelType() string {
	return "webhook"
}

// === Kafka渠道 ===

// KafkaChannel Kafka通知渠道，按告警服务名作为消息键保证同服务告警有序
type KafkaChannel struct {
	writer *kafka.Writer
}

// NewKafkaChannel 创建Kafka通知渠道
func NewKafkaChannel(brokers []string, topic string) *KafkaChannel {
	return &KafkaChannel{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 100 * time.Millisecond,
		},
	}
}

// Send 发布告警消息
func (k *KafkaChannel) Send(alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("序列化告警失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(alert.Service),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("写入Kafka失败: %w", err)
	}
	return nil
}

// ChannelType 渠道类型
func (k *KafkaChannel) ChannelType() string {
	return "kafka"
}

// Close 关闭底层写入器
func (k *KafkaChannel) Close() error {
	return k.writer.Close()
}

// === MQTT渠道 ===

// MQTTChannel MQTT通知渠道
type MQTTChannel struct {
	client mqtt.Client
	topic  string
}

// NewMQTTChannel 创建MQTT通知渠道并建立连接
func NewMQTTChannel(broker, clientID, topic string) (*MQTTChannel, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		return nil, fmt.Errorf("连接MQTT代理失败: %v", token.Error())
	}

	return &MQTTChannel{client: client, topic: topic}, nil
}

// Send 发布告警消息，QoS 1保证至少一次投递
func (m *MQTTChannel) Send(alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("序列化告警失败: %w", err)
	}

	token := m.client.Publish(m.topic, 1, false, payload)
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		return fmt.Errorf("发布MQTT消息失败: %v", token.Error())
	}
	return nil
}

// ChannelType 渠道类型
func (m *MQTTChannel) ChannelType() string {
	return "mqtt"
}

// Close 断开MQTT连接
func (m *MQTTChannel) Close() {
	m.client.Disconnect(250)
}

// === 脚本渠道 ===

// ScriptChannel 脚本通知渠道，通过yaegi解释执行用户脚本。
// 脚本必须是package main并提供 Run(params map[string]interface{}) (interface{}, error) 入口
type ScriptChannel struct {
	fn func(map[string]interface{}) (interface{}, error)
}

// NewScriptChannel 编译脚本并创建脚本通知渠道
func NewScriptChannel(script string) (*ScriptChannel, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("加载脚本标准库失败: %w", err)
	}

	if _, err := i.Eval(script); err != nil {
		return nil, fmt.Errorf("脚本编译失败: %w", err)
	}

	v, err := i.Eval("main.Run")
	if err != nil {
		return nil, fmt.Errorf("脚本缺少Run入口函数: %w", err)
	}

	fn, ok := v.Interface().(func(map[string]interface{}) (interface{}, error))
	if !ok {
		return nil, fmt.Errorf("Run函数签名必须是 func(map[string]interface{}) (interface{}, error)")
	}

	return &ScriptChannel{fn: fn}, nil
}

// Send 以告警字段为参数执行脚本
func (s *ScriptChannel) Send(alert Alert) error {
	params := map[string]interface{}{
		"id":         alert.ID,
		"level":      string(alert.Level),
		"service":    alert.Service,
		"message":    alert.Message,
		"created_at": alert.CreatedAt.Format(time.RFC3339),
	}

	if _, err := s.fn(params); err != nil {
		return fmt.Errorf("脚本执行失败: %w", err)
	}
	return nil
}

// ChannelType 渠道类型
func (s *ScriptChannel) ChannelType() string {
	return "script"
}
