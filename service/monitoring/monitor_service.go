/*
 * @module service/monitoring/monitor_service
 * @description 监控服务引擎，驱动指标采集、阈值评估、健康检查和保留清理三条独立节拍，对外提供健康与指标查询
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 采集节拍 -> 阈值评估 -> 告警创建 -> 订阅广播；健康检查节拍 -> 告警升级；保留清理节拍 -> 过期清除
 * @rules 任何单步失败都不终止节拍循环；三条节拍互不等待，操作设计为可安全交错
 * @dependencies github.com/robfig/cron/v3
 * @refs service/monitoring/metrics_collector.go, service/monitoring/alert_manager.go
 */

package monitoring

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// MonitorConfig 监控引擎配置
type MonitorConfig struct {
	CollectionInterval  time.Duration `json:"collection_interval"`   // 指标采集间隔
	HealthCheckInterval time.Duration `json:"health_check_interval"` // 健康检查间隔
	RetentionSchedule   string        `json:"retention_schedule"`    // 保留清理cron表达式
	Thresholds          Thresholds    `json:"thresholds"`            // 初始阈值
}

// DefaultMonitorConfig 默认引擎配置
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		CollectionInterval:  30 * time.Second,
		HealthCheckInterval: 60 * time.Second,
		RetentionSchedule:   "@hourly",
		Thresholds:          DefaultThresholds(),
	}
}

// MonitorService 监控服务引擎
type MonitorService struct {
	collector     *MetricsCollector
	evaluator     *ThresholdEvaluator
	alertManager  *AlertManager
	healthChecker *HealthChecker
	bus           *SubscriptionBus
	exporter      *Exporter
	errorTracker  *ErrorTracker

	config     MonitorConfig
	thresholds Thresholds
	threshMu   sync.RWMutex

	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	runMu     sync.Mutex
}

// NewMonitorService 创建监控引擎实例。适配器注册在构建时完成，没有隐藏的全局状态
func NewMonitorService(config MonitorConfig, database DatabaseAdapter, cache CacheAdapter, trading TradingAdapter) *MonitorService {
	ctx, cancel := context.WithCancel(context.Background())

	errorTracker := NewErrorTracker()
	collector := NewMetricsCollector(database, cache, trading, errorTracker)
	alertManager := NewAlertManager()

	return &MonitorService{
		collector:     collector,
		evaluator:     NewThresholdEvaluator(),
		alertManager:  alertManager,
		healthChecker: NewHealthChecker(database, cache, alertManager),
		bus:           NewSubscriptionBus(),
		exporter:      NewExporter(collector),
		errorTracker:  errorTracker,
		config:        config,
		thresholds:    config.Thresholds,
		cron:          cron.New(),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start 启动引擎的三条节拍循环
func (m *MonitorService) Start() error {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.isRunning {
		return fmt.Errorf("监控引擎已在运行中")
	}

	// Stop 之后 ctx 已取消、cron 内残留旧任务，重启前重建两者
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.cron = cron.New()

	if _, err := m.cron.AddFunc(m.config.RetentionSchedule, func() {
		m.alertManager.Cleanup()
	}); err != nil {
		return fmt.Errorf("注册保留清理任务失败: %w", err)
	}

	m.isRunning = true
	m.cron.Start()
	go m.collectionLoop()
	go m.healthCheckLoop()

	slog.Info("监控引擎已启动",
		"collection_interval", m.config.CollectionInterval.String(),
		"health_check_interval", m.config.HealthCheckInterval.String(),
		"retention_schedule", m.config.RetentionSchedule)
	return nil
}

// Stop 停止引擎。只是翻转停止标志，在途操作在下一个节拍前自然结束
func (m *MonitorService) Stop() error {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if !m.isRunning {
		return fmt.Errorf("监控引擎未运行")
	}

	m.cancel()
	m.cron.Stop()
	m.isRunning = false

	slog.Info("监控引擎已停止")
	return nil
}

// IsRunning 返回引擎运行状态
func (m *MonitorService) IsRunning() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.isRunning
}

// collectionLoop 指标采集循环
func (m *MonitorService) collectionLoop() {
	ticker := time.NewTicker(m.config.CollectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.CollectOnce()
		}
	}
}

// healthCheckLoop 健康检查循环
func (m *MonitorService) healthCheckLoop() {
	ticker := time.NewTicker(m.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.healthChecker.RunChecks(m.ctx)
		}
	}
}

// CollectOnce 执行一次完整的采集-评估-广播流程
func (m *MonitorService) CollectOnce() *SystemMetrics {
	metrics, failures := m.collector.Collect(m.ctx)

	// 采集失败本身升级为MONITORING告警，与被采集服务不健康区分开
	for _, failure := range failures {
		m.errorTracker.Record(false)
		if alert := m.alertManager.Raise(AlertError, ServiceMonitoring, failure.FailureMessage(),
			map[string]interface{}{"source": failure.Source, "error": failure.Err.Error()}); alert != nil {
			m.bus.PublishAlert(*alert)
		}
	}

	// 阈值评估
	for _, request := range m.evaluator.Evaluate(metrics, m.GetThresholds()) {
		if alert := m.alertManager.Raise(request.Level, request.Service, request.Message, request.Metadata); alert != nil {
			m.bus.PublishAlert(*alert)
		}
	}

	m.bus.PublishMetrics(*metrics)
	return metrics
}

// RunHealthChecks 立即执行一轮健康检查
func (m *MonitorService) RunHealthChecks() {
	m.healthChecker.RunChecks(m.ctx)
}

// GetThresholds 获取当前阈值表的一致副本
func (m *MonitorService) GetThresholds() Thresholds {
	m.threshMu.RLock()
	defer m.threshMu.RUnlock()
	return m.thresholds
}

// UpdateThresholds 合并更新阈值表。整表替换，读取方不会看到新旧混合的阈值
func (m *MonitorService) UpdateThresholds(updates map[string]float64) Thresholds {
	m.threshMu.Lock()
	defer m.threshMu.Unlock()

	next := m.thresholds
	for key, value := range updates {
		switch key {
		case "cpu_usage":
			next.CPUUsage = value
		case "memory_usage":
			next.MemoryUsage = value
		case "query_time":
			next.QueryTime = value
		case "cache_hit_rate":
			next.CacheHitRate = value
		case "error_rate":
			next.ErrorRate = value
		case "critical_errors":
			next.CriticalErrors = value
		default:
			slog.Warn("忽略未知阈值字段", "key", key)
		}
	}
	m.thresholds = next

	slog.Info("阈值表已更新", "thresholds", next)
	return next
}

// GetHealthStatus 获取健康快照：整体状态、各服务状态、最新指标和最新10条未解决告警。
// 尚未采集任何数据时返回默认快照而不是错误
func (m *MonitorService) GetHealthStatus() HealthSnapshot {
	alerts := m.alertManager.Unresolved("")
	if len(alerts) > 10 {
		alerts = alerts[:10]
	}

	return HealthSnapshot{
		Overall: m.healthChecker.Overall(),
		Services: map[string]HealthState{
			"database": m.healthChecker.PerService(ServiceDatabase),
			"cache":    m.healthChecker.PerService(ServiceCache),
			"trading":  m.healthChecker.PerService(ServiceTrading),
			"risk":     m.healthChecker.PerService(ServiceRisk),
		},
		Metrics:   m.collector.Latest(),
		Alerts:    alerts,
		Timestamp: time.Now(),
	}
}

// GetMetrics 获取最近hours小时的指标历史
func (m *MonitorService) GetMetrics(hours int) []*SystemMetrics {
	if hours <= 0 {
		hours = 1
	}
	return m.collector.History(hours)
}

// GetAlerts 按解决状态查询告警
func (m *MonitorService) GetAlerts(resolved bool, limit int) []Alert {
	return m.alertManager.GetAlerts(resolved, limit)
}

// ResolveAlert 解决告警
func (m *MonitorService) ResolveAlert(alertID, reason string) bool {
	return m.alertManager.ResolveWithReason(alertID, reason)
}

// RecordError 供外部组件上报错误，进入滚动一小时错误窗口
func (m *MonitorService) RecordError(critical bool) {
	m.errorTracker.Record(critical)
}

// Raise 供外部组件直接创建告警，经过同一去重窗口
func (m *MonitorService) Raise(level AlertLevel, service, message string, metadata map[string]interface{}) *Alert {
	alert := m.alertManager.Raise(level, service, message, metadata)
	if alert != nil {
		m.bus.PublishAlert(*alert)
	}
	return alert
}

// Bus 订阅总线访问器
func (m *MonitorService) Bus() *SubscriptionBus {
	return m.bus
}

// Exporter 导出器访问器
func (m *MonitorService) Exporter() *Exporter {
	return m.exporter
}

// Alerts 告警管理器访问器
func (m *MonitorService) Alerts() *AlertManager {
	return m.alertManager
}

// Health 健康检查器访问器
func (m *MonitorService) Health() *HealthChecker {
	return m.healthChecker
}
