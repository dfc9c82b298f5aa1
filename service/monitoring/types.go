/*
 * @module service/monitoring/types
 * @description 监控引擎核心数据模型，定义系统指标快照、告警实例、阈值表和适配器契约
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 指标采集 -> 阈值评估 -> 告警生命周期 -> 健康聚合
 * @rules 指标快照创建后不可变；告警仅通过 Resolve 和保留清理两条路径变更
 * @dependencies time
 * @refs service/monitoring/monitor_service.go
 */

package monitoring

import (
	"context"
	"time"
)

// AlertLevel 告警级别
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarn     AlertLevel = "WARN"
	AlertError    AlertLevel = "ERROR"
	AlertCritical AlertLevel = "CRITICAL"
)

// 告警服务标签
const (
	ServiceSystem     = "SYSTEM"
	ServiceDatabase   = "DATABASE"
	ServiceCache      = "CACHE"
	ServiceTrading    = "TRADING"
	ServiceRisk       = "RISK"
	ServiceMonitoring = "MONITORING" // 采集过程自身的故障，区别于被采集服务不健康
)

// HealthState 健康状态
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
)

// CPUMetrics CPU指标
type CPUMetrics struct {
	Usage        float64   `json:"usage"`         // 使用率百分比（累计进程时间近似值，封顶100）
	LoadAverages []float64 `json:"load_averages"` // 1/5/15分钟负载
}

// MemoryMetrics 内存指标
type MemoryMetrics struct {
	Used       uint64  `json:"used"`       // 已用字节数
	Total      uint64  `json:"total"`      // 总字节数
	Percentage float64 `json:"percentage"` // 使用率百分比
}

// DatabaseMetrics 数据库指标
type DatabaseMetrics struct {
	Status            string  `json:"status"` // healthy, degraded, unhealthy
	AvgQueryTime      float64 `json:"avg_query_time"` // 平均查询时间（毫秒）
	ActiveConnections int     `json:"active_connections"`
}

// CacheMetrics 缓存指标
type CacheMetrics struct {
	Status          string  `json:"status"`
	HitRate         float64 `json:"hit_rate"` // 命中率 0-100
	TotalOperations int64   `json:"total_operations"`
}

// TradingMetrics 交易指标
type TradingMetrics struct {
	ActiveOrders int     `json:"active_orders"`
	TotalTrades  int64   `json:"total_trades"`
	TotalPnL     float64 `json:"total_pnl"`
}

// ErrorMetrics 错误指标（滚动一小时窗口）
type ErrorMetrics struct {
	Count         int `json:"count"`
	CriticalCount int `json:"critical_count"`
}

// SystemMetrics 系统指标快照，每个采集周期创建一次，创建后不再修改
type SystemMetrics struct {
	Timestamp time.Time       `json:"timestamp"`
	CPU       CPUMetrics      `json:"cpu"`
	Memory    MemoryMetrics   `json:"memory"`
	Database  DatabaseMetrics `json:"database"`
	Cache     CacheMetrics    `json:"cache"`
	Trading   TradingMetrics  `json:"trading"`
	Errors    ErrorMetrics    `json:"errors"`
}

// Alert 告警实例
type Alert struct {
	ID        string                 `json:"id"`
	Level     AlertLevel             `json:"level"`
	Service   string                 `json:"service"`
	Message   string                 `json:"message"`
	CreatedAt time.Time              `json:"created_at"`
	Resolved  bool                   `json:"resolved"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// AlertRequest 阈值评估产生的告警请求，经告警管理器去重后才成为告警实例
type AlertRequest struct {
	Level    AlertLevel             `json:"level"`
	Service  string                 `json:"service"`
	Message  string                 `json:"message"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Thresholds 阈值表，整体读取、整体替换，避免读到新旧混合的阈值
type Thresholds struct {
	CPUUsage       float64 `json:"cpu_usage"`        // CPU使用率上限（百分比）
	MemoryUsage    float64 `json:"memory_usage"`     // 内存使用率上限（百分比）
	QueryTime      float64 `json:"query_time"`       // 平均查询时间上限（毫秒）
	CacheHitRate   float64 `json:"cache_hit_rate"`   // 缓存命中率下限（百分比）
	ErrorRate      float64 `json:"error_rate"`       // 每小时错误数上限
	CriticalErrors float64 `json:"critical_errors"`  // 每小时严重错误数上限
}

// DefaultThresholds 默认阈值
func DefaultThresholds() Thresholds {
	return Thresholds{
		CPUUsage:       80,
		MemoryUsage:    85,
		QueryTime:      1000,
		CacheHitRate:   50,
		ErrorRate:      10,
		CriticalErrors: 3,
	}
}

// CheckResult 适配器健康检查结果
type CheckResult struct {
	Status  HealthState            `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// DatabaseStats 数据库适配器统计快照
type DatabaseStats struct {
	AvgQueryTime      float64 `json:"avg_query_time"`
	ActiveConnections int     `json:"active_connections"`
}

// CacheStats 缓存适配器统计快照
type CacheStats struct {
	Connected       bool    `json:"connected"`
	HitRate         float64 `json:"hit_rate"`
	TotalOperations int64   `json:"total_operations"`
}

// TradingStats 交易适配器统计快照
type TradingStats struct {
	ActiveOrders int     `json:"active_orders"`
	TotalTrades  int64   `json:"total_trades"`
	TotalPnL     float64 `json:"total_pnl"`
}

// DatabaseAdapter 数据库依赖的监控能力契约
type DatabaseAdapter interface {
	HealthCheck(ctx context.Context) CheckResult
	Stats(ctx context.Context) (DatabaseStats, error)
}

// CacheAdapter 缓存依赖的监控能力契约
type CacheAdapter interface {
	HealthCheck(ctx context.Context) CheckResult
	Stats(ctx context.Context) (CacheStats, error)
}

// TradingAdapter 交易子系统的监控能力契约
type TradingAdapter interface {
	Stats(ctx context.Context) (TradingStats, error)
}

// HealthSnapshot 对外暴露的健康快照
type HealthSnapshot struct {
	Overall   HealthState            `json:"overall"`
	Services  map[string]HealthState `json:"services"`
	Metrics   *SystemMetrics         `json:"metrics,omitempty"`
	Alerts    []Alert                `json:"alerts"`
	Timestamp time.Time              `json:"timestamp"`
}
