/*
 * @module service/adapters/cache_adapter
 * @description 缓存监控适配器，基于Redis客户端提供健康检查和命中率统计
 * @architecture 适配器模式 - 封装第三方Redis客户端，向监控引擎提供统一的探测能力
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 连接探测 -> INFO统计解析 -> 命中率计算
 * @rules 统计取自Redis服务端的keyspace_hits/keyspace_misses，不在客户端另行计数
 * @dependencies github.com/go-redis/redis/v8
 * @refs service/monitoring/types.go
 */

package adapters

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"

	"tradewatch-service/service/monitoring"
)

// CacheAdapter 缓存监控适配器
type CacheAdapter struct {
	client *redis.Client
}

// NewCacheAdapter 创建缓存适配器实例
func NewCacheAdapter(client *redis.Client) *CacheAdapter {
	return &CacheAdapter{client: client}
}

// HealthCheck 探测Redis连通性
func (a *CacheAdapter) HealthCheck(ctx context.Context) monitoring.CheckResult {
	if a.client == nil {
		return monitoring.CheckResult{
			Status:  monitoring.HealthUnhealthy,
			Details: map[string]interface{}{"error": "redis client is not configured"},
		}
	}

	if err := a.client.Ping(ctx).Err(); err != nil {
		return monitoring.CheckResult{
			Status:  monitoring.HealthUnhealthy,
			Details: map[string]interface{}{"error": err.Error()},
		}
	}

	poolStats := a.client.PoolStats()
	return monitoring.CheckResult{
		Status: monitoring.HealthHealthy,
		Details: map[string]interface{}{
			"total_conns": poolStats.TotalConns,
			"idle_conns":  poolStats.IdleConns,
		},
	}
}

// Stats 返回统计快照，命中率和总操作数解析自INFO stats段
func (a *CacheAdapter) Stats(ctx context.Context) (monitoring.CacheStats, error) {
	if a.client == nil {
		return monitoring.CacheStats{}, fmt.Errorf("redis client is not configured")
	}

	if err := a.client.Ping(ctx).Err(); err != nil {
		return monitoring.CacheStats{Connected: false}, err
	}

	info, err := a.client.Info(ctx, "stats").Result()
	if err != nil {
		return monitoring.CacheStats{Connected: false}, fmt.Errorf("读取Redis统计信息失败: %w", err)
	}

	hits := parseInfoValue(info, "keyspace_hits")
	misses := parseInfoValue(info, "keyspace_misses")
	total := hits + misses

	stats := monitoring.CacheStats{
		Connected:       true,
		TotalOperations: total,
	}
	if total > 0 {
		stats.HitRate = float64(hits) / float64(total) * 100
	}
	return stats, nil
}

// parseInfoValue 从INFO输出中解析单个整数字段
func parseInfoValue(info, key string) int64 {
	for _, line := range strings.Split(info, "\r\n") {
		if !strings.HasPrefix(line, key+":") {
			continue
		}
		value, err := strconv.ParseInt(strings.TrimPrefix(line, key+":"), 10, 64)
		if err != nil {
			return 0
		}
		return value
	}
	return 0
}
