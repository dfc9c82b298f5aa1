/*
 * @module api/controllers/event_controller
 * @description 事件推送控制器，通过SSE向前端实时推送新建告警和新采集指标
 * @architecture RESTful API架构 - 控制器层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 订阅总线注册 -> 事件入队 -> SSE推送 -> 连接断开时释放订阅
 * @rules 慢客户端不阻塞引擎：事件队列满时丢弃，连接断开时订阅立即释放
 * @dependencies github.com/go-chi/render, github.com/google/uuid
 * @refs service/monitoring/subscription.go
 */

package controllers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"tradewatch-service/service/monitoring"
)

// SSE单连接事件队列长度，队列满时丢弃事件
const sseQueueSize = 100

// EventController 事件推送控制器
type EventController struct {
	monitor *monitoring.MonitorService
}

// NewEventController 创建事件控制器实例
func NewEventController(monitor *monitoring.MonitorService) *EventController {
	return &EventController{monitor: monitor}
}

// sseEvent SSE推送的事件结构
type sseEvent struct {
	Type      string      `json:"type"` // alert, metrics, connected
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// HandleSSE 建立SSE连接
// @Summary 建立SSE连接
// @Description 前端页面通过此接口建立SSE连接，接收实时告警和指标推送
// @Tags 事件推送
// @Success 200 {string} string "SSE事件流"
// @Router /sse [get]
func (c *EventController) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	connectionID := uuid.New().String()
	events := make(chan sseEvent, sseQueueSize)

	bus := c.monitor.Bus()
	alertSub := bus.OnAlert(func(alert monitoring.Alert) {
		enqueue(events, sseEvent{Type: "alert", Timestamp: time.Now(), Data: alert})
	})
	metricsSub := bus.OnMetrics(func(metrics monitoring.SystemMetrics) {
		enqueue(events, sseEvent{Type: "metrics", Timestamp: time.Now(), Data: metrics})
	})
	defer bus.Unsubscribe(alertSub)
	defer bus.Unsubscribe(metricsSub)

	slog.Info("SSE连接已建立", "connection_id", connectionID, "client_ip", r.RemoteAddr)

	// 连接成功事件
	writeSSE(w, sseEvent{Type: "connected", Timestamp: time.Now(), Data: map[string]string{"connection_id": connectionID}})
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.Info("SSE连接已断开", "connection_id", connectionID)
			return
		case event := <-events:
			writeSSE(w, event)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// enqueue 事件入队，队列满时丢弃
func enqueue(events chan sseEvent, event sseEvent) {
	select {
	case events <- event:
	default:
	}
}

// writeSSE 写出单个SSE事件
func writeSSE(w http.ResponseWriter, event sseEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}
