/*
 * @module service/monitoring/threshold_evaluator
 * @description 阈值评估器，将当前指标快照与阈值表逐条比对，产生告警请求
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 指标快照 + 阈值表 -> 规则逐条评估 -> 告警请求列表
 * @rules 比较一律使用严格不等号，恰好等于阈值不触发；各规则相互独立
 * @dependencies fmt
 * @refs service/monitoring/alert_manager.go
 */

package monitoring

import "fmt"

// 冷缓存保护：操作数不超过该值时不评估命中率，低流量下的低命中率不可作为告警依据
const cacheMinOperations = 10

// ThresholdEvaluator 阈值评估器，无内部状态，是快照与阈值表的纯函数
type ThresholdEvaluator struct{}

// NewThresholdEvaluator 创建阈值评估器实例
func NewThresholdEvaluator() *ThresholdEvaluator {
	return &ThresholdEvaluator{}
}

// Evaluate 评估一次快照，一个快照可以同时触发零到全部规则
func (e *ThresholdEvaluator) Evaluate(metrics *SystemMetrics, thresholds Thresholds) []AlertRequest {
	requests := make([]AlertRequest, 0)

	if metrics.CPU.Usage > thresholds.CPUUsage {
		requests = append(requests, AlertRequest{
			Level:   AlertWarn,
			Service: ServiceSystem,
			Message: fmt.Sprintf("High CPU usage: %.2f%%", metrics.CPU.Usage),
			Metadata: map[string]interface{}{
				"cpu_usage": metrics.CPU.Usage,
				"threshold": thresholds.CPUUsage,
			},
		})
	}

	if metrics.Memory.Percentage > thresholds.MemoryUsage {
		requests = append(requests, AlertRequest{
			Level:   AlertWarn,
			Service: ServiceSystem,
			Message: fmt.Sprintf("High memory usage: %.2f%%", metrics.Memory.Percentage),
			Metadata: map[string]interface{}{
				"memory_percentage": metrics.Memory.Percentage,
				"threshold":         thresholds.MemoryUsage,
			},
		})
	}

	if metrics.Database.AvgQueryTime > thresholds.QueryTime {
		requests = append(requests, AlertRequest{
			Level:   AlertWarn,
			Service: ServiceDatabase,
			Message: fmt.Sprintf("Slow database queries: %.2fms", metrics.Database.AvgQueryTime),
			Metadata: map[string]interface{}{
				"avg_query_time": metrics.Database.AvgQueryTime,
				"threshold":      thresholds.QueryTime,
			},
		})
	}

	if metrics.Cache.HitRate < thresholds.CacheHitRate && metrics.Cache.TotalOperations > cacheMinOperations {
		requests = append(requests, AlertRequest{
			Level:   AlertWarn,
			Service: ServiceCache,
			Message: fmt.Sprintf("Low cache hit rate: %.2f%%", metrics.Cache.HitRate),
			Metadata: map[string]interface{}{
				"hit_rate":         metrics.Cache.HitRate,
				"total_operations": metrics.Cache.TotalOperations,
				"threshold":        thresholds.CacheHitRate,
			},
		})
	}

	if float64(metrics.Errors.Count) > thresholds.ErrorRate {
		requests = append(requests, AlertRequest{
			Level:   AlertError,
			Service: ServiceSystem,
			Message: fmt.Sprintf("High error rate: %d errors in the last hour", metrics.Errors.Count),
			Metadata: map[string]interface{}{
				"error_count": metrics.Errors.Count,
				"threshold":   thresholds.ErrorRate,
			},
		})
	}

	if float64(metrics.Errors.CriticalCount) > thresholds.CriticalErrors {
		requests = append(requests, AlertRequest{
			Level:   AlertCritical,
			Service: ServiceSystem,
			Message: fmt.Sprintf("Critical errors detected: %d in the last hour", metrics.Errors.CriticalCount),
			Metadata: map[string]interface{}{
				"critical_count": metrics.Errors.CriticalCount,
				"threshold":      thresholds.CriticalErrors,
			},
		})
	}

	return requests
}
