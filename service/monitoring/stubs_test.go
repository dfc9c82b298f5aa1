/*
 * @module service/monitoring/stubs_test
 * @description 监控包测试公用的适配器桩实现
 * @architecture 测试层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 测试准备 -> 桩配置 -> 被测组件注入
 * @rules 桩的返回值全部可配置，默认返回健康结果
 * @dependencies context
 * @refs types.go
 */

package monitoring

import (
	"context"
	"errors"
)

var errAdapterDown = errors.New("connection refused")

// stubDatabase 数据库适配器桩
type stubDatabase struct {
	checkResult CheckResult
	stats       DatabaseStats
	statsErr    error
	checkCalls  int
}

func healthyDatabaseStub() *stubDatabase {
	return &stubDatabase{
		checkResult: CheckResult{Status: HealthHealthy},
		stats:       DatabaseStats{AvgQueryTime: 5.5, ActiveConnections: 3},
	}
}

func (s *stubDatabase) HealthCheck(ctx context.Context) CheckResult {
	s.checkCalls++
	return s.checkResult
}

func (s *stubDatabase) Stats(ctx context.Context) (DatabaseStats, error) {
	if s.statsErr != nil {
		return DatabaseStats{}, s.statsErr
	}
	return s.stats, nil
}

// stubCache 缓存适配器桩
type stubCache struct {
	checkResult CheckResult
	stats       CacheStats
	statsErr    error
}

func healthyCacheStub() *stubCache {
	return &stubCache{
		checkResult: CheckResult{Status: HealthHealthy},
		stats:       CacheStats{Connected: true, HitRate: 95, TotalOperations: 1000},
	}
}

func (s *stubCache) HealthCheck(ctx context.Context) CheckResult {
	return s.checkResult
}

func (s *stubCache) Stats(ctx context.Context) (CacheStats, error) {
	if s.statsErr != nil {
		return CacheStats{}, s.statsErr
	}
	return s.stats, nil
}

// stubTrading 交易适配器桩
type stubTrading struct {
	stats    TradingStats
	statsErr error
}

func (s *stubTrading) Stats(ctx context.Context) (TradingStats, error) {
	if s.statsErr != nil {
		return TradingStats{}, s.statsErr
	}
	return s.stats, nil
}

// panicCache 健康检查panic的缓存适配器桩
type panicCache struct{}

func (p *panicCache) HealthCheck(ctx context.Context) CheckResult {
	panic("redis client not initialized")
}

func (p *panicCache) Stats(ctx context.Context) (CacheStats, error) {
	return CacheStats{}, errAdapterDown
}
