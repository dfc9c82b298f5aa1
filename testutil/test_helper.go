/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和桩适配器
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 测试环境初始化 -> 桩适配器装配 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify
 * @refs service/monitoring
 */

package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tradewatch-service/service/monitoring"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建内存sqlite测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}
	return &TestDB{DB: db}
}

// Close 关闭测试数据库
func (t *TestDB) Close() {
	if sqlDB, err := t.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

// StubDatabaseAdapter 数据库桩适配器，检查结果和统计可按测试场景配置
type StubDatabaseAdapter struct {
	CheckResult monitoring.CheckResult
	StatsResult monitoring.DatabaseStats
	StatsErr    error
}

// NewStubDatabaseAdapter 创建默认健康的数据库桩适配器
func NewStubDatabaseAdapter() *StubDatabaseAdapter {
	return &StubDatabaseAdapter{
		CheckResult: monitoring.CheckResult{Status: monitoring.HealthHealthy},
		StatsResult: monitoring.DatabaseStats{AvgQueryTime: 5, ActiveConnections: 3},
	}
}

// HealthCheck 返回配置的检查结果
func (s *StubDatabaseAdapter) HealthCheck(ctx context.Context) monitoring.CheckResult {
	return s.CheckResult
}

// Stats 返回配置的统计结果
func (s *StubDatabaseAdapter) Stats(ctx context.Context) (monitoring.DatabaseStats, error) {
	return s.StatsResult, s.StatsErr
}

// StubCacheAdapter 缓存桩适配器
type StubCacheAdapter struct {
	CheckResult monitoring.CheckResult
	StatsResult monitoring.CacheStats
	StatsErr    error
}

// NewStubCacheAdapter 创建默认健康的缓存桩适配器
func NewStubCacheAdapter() *StubCacheAdapter {
	return &StubCacheAdapter{
		CheckResult: monitoring.CheckResult{Status: monitoring.HealthHealthy},
		StatsResult: monitoring.CacheStats{Connected: true, HitRate: 95, TotalOperations: 1000},
	}
}

// HealthCheck 返回配置的检查结果
func (s *StubCacheAdapter) HealthCheck(ctx context.Context) monitoring.CheckResult {
	return s.CheckResult
}

// Stats 返回配置的统计结果
func (s *StubCacheAdapter) Stats(ctx context.Context) (monitoring.CacheStats, error) {
	return s.StatsResult, s.StatsErr
}

// StubTradingAdapter 交易桩适配器
type StubTradingAdapter struct {
	StatsResult monitoring.TradingStats
	StatsErr    error
}

// Stats 返回配置的统计结果
func (s *StubTradingAdapter) Stats(ctx context.Context) (monitoring.TradingStats, error) {
	return s.StatsResult, s.StatsErr
}

// NewTestMonitor 创建注入桩适配器的监控引擎，不启动节拍循环
func NewTestMonitor() *monitoring.MonitorService {
	return monitoring.NewMonitorService(
		monitoring.DefaultMonitorConfig(),
		NewStubDatabaseAdapter(),
		NewStubCacheAdapter(),
		&StubTradingAdapter{StatsResult: monitoring.TradingStats{ActiveOrders: 2, TotalTrades: 10, TotalPnL: 125.5}},
	)
}

// PerformRequest 执行HTTP测试请求
func PerformRequest(handler http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

// AssertJSONResponse 断言响应状态码并解码JSON响应体
func AssertJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, expectedCode int, target interface{}) {
	t.Helper()
	assert.Equal(t, expectedCode, recorder.Code)
	if target != nil {
		assert.NoError(t, json.NewDecoder(recorder.Body).Decode(target))
	}
}
