/*
 * @module service/monitoring/metrics_collector
 * @description 指标收集器，每个周期从各适配器和进程运行时拉取数据，组装不可变指标快照并维护有界历史
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 运行时采样 + 适配器拉取 -> 快照组装 -> FIFO历史入队
 * @rules 单个适配器失败不中断采集，填充不健康哨兵值并上报采集失败；历史超限时先进先出淘汰
 * @dependencies runtime, syscall
 * @refs service/monitoring/monitor_service.go
 */

package monitoring

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

const (
	// 历史上限：30秒采集周期下约等于24小时
	maxMetricsHistory = 2880
	// 单次适配器调用超时，保证一次采集在一个采集周期内完成
	adapterTimeout = 5 * time.Second
)

// CollectFailure 采集过程中单个数据源的失败，由调用方升级为MONITORING告警
type CollectFailure struct {
	Source string
	Err    error
}

// MetricsCollector 指标收集器
type MetricsCollector struct {
	database DatabaseAdapter
	cache    CacheAdapter
	trading  TradingAdapter
	errors   *ErrorTracker

	history []*SystemMetrics
	mutex   sync.RWMutex

	startedAt time.Time // CPU使用率近似值的基准时间
}

// NewMetricsCollector 创建指标收集器实例
func NewMetricsCollector(database DatabaseAdapter, cache CacheAdapter, trading TradingAdapter, errors *ErrorTracker) *MetricsCollector {
	return &MetricsCollector{
		database:  database,
		cache:     cache,
		trading:   trading,
		errors:    errors,
		history:   make([]*SystemMetrics, 0),
		startedAt: time.Now(),
	}
}

// Collect 采集一次快照并追加到历史。适配器失败不会中断采集，
// 对应子记录填充哨兵值并在返回的失败列表中上报
func (c *MetricsCollector) Collect(ctx context.Context) (*SystemMetrics, []CollectFailure) {
	var failures []CollectFailure

	metrics := &SystemMetrics{
		Timestamp: time.Now(),
		CPU:       c.collectCPU(),
		Memory:    c.collectMemory(),
	}

	metrics.Database, metrics.Cache, metrics.Trading, failures = c.collectAdapters(ctx)

	if c.errors != nil {
		metrics.Errors = c.errors.Counts()
	}

	c.append(metrics)
	return metrics, failures
}

// collectAdapters 拉取各适配器统计数据
func (c *MetricsCollector) collectAdapters(ctx context.Context) (DatabaseMetrics, CacheMetrics, TradingMetrics, []CollectFailure) {
	var failures []CollectFailure

	// 数据库
	database := DatabaseMetrics{Status: string(HealthUnhealthy)}
	if c.database != nil {
		callCtx, cancel := context.WithTimeout(ctx, adapterTimeout)
		stats, err := c.database.Stats(callCtx)
		cancel()
		if err != nil {
			failures = append(failures, CollectFailure{Source: "database", Err: err})
		} else {
			database = DatabaseMetrics{
				Status:            string(HealthHealthy),
				AvgQueryTime:      stats.AvgQueryTime,
				ActiveConnections: stats.ActiveConnections,
			}
		}
	}

	// 缓存
	cache := CacheMetrics{Status: string(HealthUnhealthy)}
	if c.cache != nil {
		callCtx, cancel := context.WithTimeout(ctx, adapterTimeout)
		stats, err := c.cache.Stats(callCtx)
		cancel()
		if err != nil {
			failures = append(failures, CollectFailure{Source: "cache", Err: err})
		} else {
			status := HealthHealthy
			if !stats.Connected {
				status = HealthUnhealthy
			}
			cache = CacheMetrics{
				Status:          string(status),
				HitRate:         stats.HitRate,
				TotalOperations: stats.TotalOperations,
			}
		}
	}

	// 交易
	trading := TradingMetrics{}
	if c.trading != nil {
		callCtx, cancel := context.WithTimeout(ctx, adapterTimeout)
		stats, err := c.trading.Stats(callCtx)
		cancel()
		if err != nil {
			failures = append(failures, CollectFailure{Source: "trading", Err: err})
		} else {
			trading = TradingMetrics{
				ActiveOrders: stats.ActiveOrders,
				TotalTrades:  stats.TotalTrades,
				TotalPnL:     stats.TotalPnL,
			}
		}
	}

	return database, cache, trading, failures
}

// collectCPU 采集CPU指标。使用率是累计进程时间相对进程运行时长的近似值，
// 不是窗口化的瞬时值，封顶100
func (c *MetricsCollector) collectCPU() CPUMetrics {
	metrics := CPUMetrics{LoadAverages: readLoadAverages()}

	var usage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &usage); err != nil {
		return metrics
	}

	cpuSeconds := float64(usage.Utime.Sec+usage.Stime.Sec) +
		float64(usage.Utime.Usec+usage.Stime.Usec)/1e6
	elapsed := time.Since(c.startedAt).Seconds()
	if elapsed <= 0 {
		return metrics
	}

	percent := cpuSeconds / elapsed * 100
	if percent > 100 {
		percent = 100
	}
	metrics.Usage = percent
	return metrics
}

// collectMemory 采集内存指标，基于Go运行时统计
func (c *MetricsCollector) collectMemory() MemoryMetrics {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := MemoryMetrics{
		Used:  memStats.HeapInuse,
		Total: memStats.Sys,
	}
	if memStats.Sys > 0 {
		metrics.Percentage = float64(memStats.HeapInuse) / float64(memStats.Sys) * 100
	}
	return metrics
}

// readLoadAverages 读取系统负载，读取失败时返回零值
func readLoadAverages() []float64 {
	loads := []float64{0, 0, 0}

	data, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return loads
	}

	fields := strings.Fields(string(data))
	for i := 0; i < 3 && i < len(fields); i++ {
		if value, err := strconv.ParseFloat(fields[i], 64); err == nil {
			loads[i] = value
		}
	}
	return loads
}

// append 历史入队，超出上限时淘汰最旧条目
func (c *MetricsCollector) append(metrics *SystemMetrics) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.history = append(c.history, metrics)
	if len(c.history) > maxMetricsHistory {
		c.history = c.history[len(c.history)-maxMetricsHistory:]
	}
}

// Latest 返回最近一次快照，尚未采集时返回nil
func (c *MetricsCollector) Latest() *SystemMetrics {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if len(c.history) == 0 {
		return nil
	}
	return c.history[len(c.history)-1]
}

// History 返回时间戳不早于now-hours的快照
func (c *MetricsCollector) History(hours int) []*SystemMetrics {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	cutoff := time.Now().Add(-time.Duration(hours) * time.Hour)
	result := make([]*SystemMetrics, 0)
	for _, m := range c.history {
		if !m.Timestamp.Before(cutoff) {
			result = append(result, m)
		}
	}
	return result
}

// Recent 返回最近count条快照，时间正序。count<=0时返回空切片
func (c *MetricsCollector) Recent(count int) []*SystemMetrics {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if count <= 0 {
		return []*SystemMetrics{}
	}

	start := len(c.history) - count
	if start < 0 {
		start = 0
	}
	result := make([]*SystemMetrics, len(c.history)-start)
	copy(result, c.history[start:])
	return result
}

// Len 返回当前历史长度
func (c *MetricsCollector) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.history)
}

// FailureMessage 采集失败的告警文案
func (f CollectFailure) FailureMessage() string {
	return fmt.Sprintf("Metrics collection failed for %s", f.Source)
}
