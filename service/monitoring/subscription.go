/*
 * @module service/monitoring/subscription
 * @description 订阅总线，向注册的观察者广播新建告警和新采集指标
 * @architecture 事件驱动架构 - 业务服务层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 订阅注册 -> 事件广播 -> 订阅释放
 * @rules 广播为尽力而为：单个订阅者panic被隔离并记录，不影响其他订阅者和引擎自身状态
 * @dependencies github.com/google/uuid
 * @refs service/monitoring/monitor_service.go
 */

package monitoring

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// AlertCallback 告警订阅回调
type AlertCallback func(alert Alert)

// MetricsCallback 指标订阅回调
type MetricsCallback func(metrics SystemMetrics)

// Subscription 订阅句柄，用于显式释放订阅
type Subscription struct {
	ID   string
	kind string
}

// SubscriptionBus 订阅总线
type SubscriptionBus struct {
	alertSubs   map[string]AlertCallback
	metricsSubs map[string]MetricsCallback
	mutex       sync.RWMutex
}

// NewSubscriptionBus 创建订阅总线实例
func NewSubscriptionBus() *SubscriptionBus {
	return &SubscriptionBus{
		alertSubs:   make(map[string]AlertCallback),
		metricsSubs: make(map[string]MetricsCallback),
	}
}

// OnAlert 注册告警订阅
func (b *SubscriptionBus) OnAlert(callback AlertCallback) *Subscription {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	sub := &Subscription{ID: uuid.New().String(), kind: "alert"}
	b.alertSubs[sub.ID] = callback
	return sub
}

// OnMetrics 注册指标订阅
func (b *SubscriptionBus) OnMetrics(callback MetricsCallback) *Subscription {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	sub := &Subscription{ID: uuid.New().String(), kind: "metrics"}
	b.metricsSubs[sub.ID] = callback
	return sub
}

// Unsubscribe 释放订阅，重复释放无副作用
func (b *SubscriptionBus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	switch sub.kind {
	case "alert":
		delete(b.alertSubs, sub.ID)
	case "metrics":
		delete(b.metricsSubs, sub.ID)
	}
}

// PublishAlert 广播新建告警
func (b *SubscriptionBus) PublishAlert(alert Alert) {
	for _, callback := range b.snapshotAlertSubs() {
		b.deliver(func() { callback(alert) })
	}
}

// PublishMetrics 广播新采集指标
func (b *SubscriptionBus) PublishMetrics(metrics SystemMetrics) {
	for _, callback := range b.snapshotMetricsSubs() {
		b.deliver(func() { callback(metrics) })
	}
}

// deliver 投递单个订阅者，panic被隔离
func (b *SubscriptionBus) deliver(invoke func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("订阅者回调异常", "panic", r)
		}
	}()
	invoke()
}

func (b *SubscriptionBus) snapshotAlertSubs() []AlertCallback {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	subs := make([]AlertCallback, 0, len(b.alertSubs))
	for _, callback := range b.alertSubs {
		subs = append(subs, callback)
	}
	return subs
}

func (b *SubscriptionBus) snapshotMetricsSubs() []MetricsCallback {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	subs := make([]MetricsCallback, 0, len(b.metricsSubs))
	for _, callback := range b.metricsSubs {
		subs = append(subs, callback)
	}
	return subs
}
