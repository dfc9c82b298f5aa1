/*
 * @module service/monitoring/health_checker
 * @description 健康检查驱动与健康聚合器：周期性执行各依赖的健康检查并升级为告警，按告警状态实时推导整体与单服务健康
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 健康检查执行 -> 失败升级告警 -> 查询时按未解决告警聚合健康状态
 * @rules 健康状态每次查询基于当前告警与最近检查结果重新计算；检查执行失败按不健康处理，绝不静默丢弃
 * @dependencies context, time
 * @refs service/monitoring/alert_manager.go
 */

package monitoring

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

const (
	// 单服务健康只看最近5分钟的未解决告警，已恢复又复发的问题不应永久拉低服务状态
	perServiceWindow = 5 * time.Minute
	// 健康检查单次执行超时
	healthCheckTimeout = 5 * time.Second
	// 进程自检的内存降级水位
	selfCheckMemoryLimit = 90.0
)

// HealthChecker 健康检查驱动与聚合器
type HealthChecker struct {
	database DatabaseAdapter
	cache    CacheAdapter
	alerts   *AlertManager

	// 各服务最近一次健康检查结果，单服务健康取检查结果与告警推导的较差者
	lastCheckResults map[string]CheckResult
	checkMu          sync.RWMutex

	now func() time.Time
}

// NewHealthChecker 创建健康检查器实例
func NewHealthChecker(database DatabaseAdapter, cache CacheAdapter, alerts *AlertManager) *HealthChecker {
	return &HealthChecker{
		database:         database,
		cache:            cache,
		alerts:           alerts,
		lastCheckResults: make(map[string]CheckResult),
		now:              time.Now,
	}
}

// RunChecks 执行一轮健康检查：数据库、缓存和进程自检。
// 不健康升级为ERROR告警，降级升级为WARN告警，都经过告警管理器的去重窗口
func (h *HealthChecker) RunChecks(ctx context.Context) {
	if h.database != nil {
		h.runCheck(ctx, ServiceDatabase, "database", func(checkCtx context.Context) CheckResult {
			return h.database.HealthCheck(checkCtx)
		})
	}

	if h.cache != nil {
		h.runCheck(ctx, ServiceCache, "cache", func(checkCtx context.Context) CheckResult {
			return h.cache.HealthCheck(checkCtx)
		})
	}

	h.runCheck(ctx, ServiceSystem, "process", func(context.Context) CheckResult {
		return h.selfCheck()
	})
}

// runCheck 执行单个检查并根据结果升级告警。
// 检查函数自身的panic按不健康处理，失败原因进入告警元数据
func (h *HealthChecker) runCheck(ctx context.Context, service, name string, check func(context.Context) CheckResult) {
	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	result := h.safeCheck(checkCtx, name, check)

	h.checkMu.Lock()
	h.lastCheckResults[service] = result
	h.checkMu.Unlock()

	switch result.Status {
	case HealthUnhealthy:
		h.alerts.Raise(AlertError, service, fmt.Sprintf("Service unhealthy: %s", name), result.Details)
	case HealthDegraded:
		h.alerts.Raise(AlertWarn, service, fmt.Sprintf("Service degraded: %s", name), result.Details)
	}
}

// safeCheck 执行检查并兜底panic
func (h *HealthChecker) safeCheck(ctx context.Context, name string, check func(context.Context) CheckResult) (result CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("健康检查执行失败", "check", name, "panic", r)
			result = CheckResult{
				Status:  HealthUnhealthy,
				Details: map[string]interface{}{"error": fmt.Sprintf("health check panicked: %v", r)},
			}
		}
	}()
	return check(ctx)
}

// selfCheck 进程自检，堆占用超过水位时降级
func (h *HealthChecker) selfCheck() CheckResult {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	details := map[string]interface{}{
		"goroutines": runtime.NumGoroutine(),
		"heap_inuse": memStats.HeapInuse,
	}

	if memStats.Sys > 0 {
		percent := float64(memStats.HeapInuse) / float64(memStats.Sys) * 100
		details["heap_percent"] = percent
		if percent > selfCheckMemoryLimit {
			return CheckResult{Status: HealthDegraded, Details: details}
		}
	}
	return CheckResult{Status: HealthHealthy, Details: details}
}

// PerService 单服务健康：取最近一次健康检查结果与告警推导状态的较差者。
// 告警推导只统计该服务最近5分钟内创建的未解决告警：
// 任一CRITICAL为不健康；任一ERROR或告警数超过2条为降级；否则健康
func (h *HealthChecker) PerService(service string) HealthState {
	h.checkMu.RLock()
	checked, hasCheck := h.lastCheckResults[service]
	h.checkMu.RUnlock()
	if hasCheck && checked.Status == HealthUnhealthy {
		return HealthUnhealthy
	}

	cutoff := h.now().Add(-perServiceWindow)

	recent := 0
	hasError := false
	for _, alert := range h.alerts.Unresolved(service) {
		if alert.CreatedAt.Before(cutoff) {
			continue
		}
		recent++
		switch alert.Level {
		case AlertCritical:
			return HealthUnhealthy
		case AlertError:
			hasError = true
		}
	}

	if hasError || recent > 2 {
		return HealthDegraded
	}
	if hasCheck && checked.Status == HealthDegraded {
		return HealthDegraded
	}
	return HealthHealthy
}

// Overall 整体健康：统计全部未解决告警，不限时间窗口。
// 任一CRITICAL为不健康；ERROR超过2条或总数超过5条为降级；否则健康
func (h *HealthChecker) Overall() HealthState {
	errorCount := 0
	total := 0
	for _, alert := range h.alerts.Unresolved("") {
		total++
		switch alert.Level {
		case AlertCritical:
			return HealthUnhealthy
		case AlertError:
			errorCount++
		}
	}

	if errorCount > 2 || total > 5 {
		return HealthDegraded
	}
	return HealthHealthy
}
