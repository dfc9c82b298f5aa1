/*
 * @module service/monitoring/exporter
 * @description 指标导出器，提供最近指标的JSON转储和Prometheus文本格式导出
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 最新快照 -> 仪表赋值 -> 文本格式渲染 / 历史快照 -> JSON序列化
 * @rules 文本格式的指标名与结构是对外兼容面，外部抓取依赖这些字段名，不可改动
 * @dependencies github.com/prometheus/client_golang, github.com/prometheus/common
 * @refs service/monitoring/metrics_collector.go
 */

package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// JSON导出的最大快照数量
const exportJSONLimit = 100

// Exporter 指标导出器
type Exporter struct {
	collector *MetricsCollector
	registry  *prometheus.Registry

	cpuUsage     prometheus.Gauge
	memoryUsage  prometheus.Gauge
	dbQueryTime  prometheus.Gauge
	cacheHitRate prometheus.Gauge
	activeOrders prometheus.Gauge
	totalPnL     prometheus.Gauge
}

// NewExporter 创建导出器实例并注册全部仪表
func NewExporter(collector *MetricsCollector) *Exporter {
	e := &Exporter{
		collector: collector,
		registry:  prometheus.NewRegistry(),
		cpuUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cpu_usage_percent",
			Help: "Current process CPU usage percentage",
		}),
		memoryUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "memory_usage_percent",
			Help: "Current process memory usage percentage",
		}),
		dbQueryTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "database_query_time_ms",
			Help: "Average database query time in milliseconds",
		}),
		cacheHitRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_rate_percent",
			Help: "Cache hit rate percentage",
		}),
		activeOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "active_orders_count",
			Help: "Number of active trading orders",
		}),
		totalPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "total_pnl",
			Help: "Running profit and loss of the trading subsystem",
		}),
	}

	e.registry.MustRegister(e.cpuUsage, e.memoryUsage, e.dbQueryTime,
		e.cacheHitRate, e.activeOrders, e.totalPnL)
	return e
}

// ExportPrometheus 将最新快照渲染为Prometheus文本格式。
// 尚未采集时输出全零仪表，保证抓取端总能拿到响应
func (e *Exporter) ExportPrometheus() (string, error) {
	latest := e.collector.Latest()
	if latest != nil {
		e.setGauges(latest)
	}

	families, err := e.registry.Gather()
	if err != nil {
		return "", fmt.Errorf("收集导出指标失败: %w", err)
	}

	var buf bytes.Buffer
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, family); err != nil {
			return "", fmt.Errorf("渲染文本格式失败: %w", err)
		}
	}
	return buf.String(), nil
}

// setGauges 从快照刷新仪表值
func (e *Exporter) setGauges(metrics *SystemMetrics) {
	e.cpuUsage.Set(metrics.CPU.Usage)
	e.memoryUsage.Set(metrics.Memory.Percentage)
	e.dbQueryTime.Set(metrics.Database.AvgQueryTime)
	e.cacheHitRate.Set(metrics.Cache.HitRate)
	e.activeOrders.Set(float64(metrics.Trading.ActiveOrders))
	e.totalPnL.Set(metrics.Trading.TotalPnL)
}

// metricsDump JSON导出结构
type metricsDump struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Count       int              `json:"count"`
	Metrics     []*SystemMetrics `json:"metrics"`
}

// ExportJSON 导出最近100条指标记录
func (e *Exporter) ExportJSON() ([]byte, error) {
	recent := e.collector.Recent(exportJSONLimit)
	dump := metricsDump{
		GeneratedAt: time.Now(),
		Count:       len(recent),
		Metrics:     recent,
	}

	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("序列化指标数据失败: %w", err)
	}
	return data, nil
}
