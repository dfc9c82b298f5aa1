/*
 * @module service/monitoring/notification_test
 * @description 通知渠道单元测试，覆盖级别过滤、Webhook发送和脚本渠道执行
 * @architecture 测试层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 渠道装配 -> 告警广播 -> 发送结果验证
 * @rules 单渠道失败不影响其他渠道
 * @dependencies testing, net/http/httptest, stretchr/testify
 * @refs notification.go
 */

package monitoring

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSender 记录收到告警的测试发送器
type recordingSender struct {
	received chan Alert
	sendErr  error
}

func newRecordingSender() *recordingSender {
	return &recordingSender{received: make(chan Alert, 10)}
}

func (r *recordingSender) Send(alert Alert) error {
	r.received <- alert
	return r.sendErr
}

func (r *recordingSender) ChannelType() string {
	return "recording"
}

// waitForAlert 等待发送器收到告警，超时返回false
func waitForAlert(t *testing.T, sender *recordingSender) (Alert, bool) {
	t.Helper()
	select {
	case alert := <-sender.received:
		return alert, true
	case <-time.After(time.Second):
		return Alert{}, false
	}
}

// TestNotificationLevelFilter 测试低于最低级别的告警不通知
func TestNotificationLevelFilter(t *testing.T) {
	bus := NewSubscriptionBus()
	sender := newRecordingSender()
	manager := NewNotificationManager(AlertWarn, sender)
	manager.Attach(bus)
	defer manager.Detach(bus)

	// INFO低于WARN，被过滤
	bus.PublishAlert(Alert{ID: "alert_info", Level: AlertInfo})

	// ERROR通过过滤
	bus.PublishAlert(Alert{ID: "alert_error", Level: AlertError})

	alert, ok := waitForAlert(t, sender)
	require.True(t, ok)
	assert.Equal(t, "alert_error", alert.ID)

	select {
	case unexpected := <-sender.received:
		t.Fatalf("被过滤的告警不应通知: %s", unexpected.ID)
	case <-time.After(200 * time.Millisecond):
	}
}

// TestNotificationFanOutWithFailure 测试单渠道失败不影响其他渠道
func TestNotificationFanOutWithFailure(t *testing.T) {
	bus := NewSubscriptionBus()
	failing := newRecordingSender()
	failing.sendErr = errors.New("broker unreachable")
	healthy := newRecordingSender()

	manager := NewNotificationManager(AlertInfo, failing, healthy)
	manager.Attach(bus)
	defer manager.Detach(bus)

	bus.PublishAlert(Alert{ID: "alert_1", Level: AlertCritical})

	_, ok := waitForAlert(t, failing)
	require.True(t, ok)
	alert, ok := waitForAlert(t, healthy)
	require.True(t, ok)
	assert.Equal(t, "alert_1", alert.ID)
}

// TestNotificationDetach 测试释放订阅后不再通知
func TestNotificationDetach(t *testing.T) {
	bus := NewSubscriptionBus()
	sender := newRecordingSender()
	manager := NewNotificationManager(AlertInfo, sender)
	manager.Attach(bus)
	manager.Detach(bus)

	bus.PublishAlert(Alert{ID: "alert_1", Level: AlertCritical})

	select {
	case <-sender.received:
		t.Fatal("释放订阅后不应再通知")
	case <-time.After(200 * time.Millisecond):
	}
}

// TestWebhookChannelSend 测试Webhook渠道发送告警
func TestWebhookChannelSend(t *testing.T) {
	var received atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var alert Alert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&alert))
		received.Store(alert)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel := NewWebhookChannel(server.URL)
	assert.Equal(t, "webhook", channel.ChannelType())

	err := channel.Send(Alert{ID: "alert_1", Level: AlertError, Service: ServiceDatabase, Message: "db down"})
	require.NoError(t, err)

	alert, ok := received.Load().(Alert)
	require.True(t, ok)
	assert.Equal(t, "alert_1", alert.ID)
	assert.Equal(t, "db down", alert.Message)
}

// TestWebhookChannelServerError 测试Webhook返回错误状态时上报失败
func TestWebhookChannelServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	channel := NewWebhookChannel(server.URL)

	assert.Error(t, channel.Send(Alert{ID: "alert_1"}))
}

// TestScriptChannel 测试脚本渠道的编译与执行
func TestScriptChannel(t *testing.T) {
	script := `package main

var LastMessage string

func Run(params map[string]interface{}) (interface{}, error) {
	LastMessage = params["message"].(string)
	return LastMessage, nil
}
`
	channel, err := NewScriptChannel(script)
	require.NoError(t, err)
	assert.Equal(t, "script", channel.ChannelType())

	err = channel.Send(Alert{
		ID:        "alert_1",
		Level:     AlertWarn,
		Service:   ServiceCache,
		Message:   "cache slow",
		CreatedAt: time.Now(),
	})
	assert.NoError(t, err)
}

// TestScriptChannelMissingEntry 测试脚本缺少Run入口时创建失败
func TestScriptChannelMissingEntry(t *testing.T) {
	_, err := NewScriptChannel(`package main

func Notify() {}
`)
	assert.Error(t, err)
}

// TestScriptChannelBadSignature 测试Run签名不匹配时创建失败
func TestScriptChannelBadSignature(t *testing.T) {
	_, err := NewScriptChannel(`package main

func Run() {}
`)
	assert.Error(t, err)
}
