/*
 * @module service/adapters/cache_adapter_test
 * @description 缓存监控适配器单元测试，覆盖INFO解析和无客户端时的行为
 * @architecture 测试层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 输入构造 -> 解析/探测 -> 结果验证
 * @rules 无客户端时返回不健康结果而不是panic
 * @dependencies testing, stretchr/testify
 * @refs cache_adapter.go
 */

package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"tradewatch-service/service/monitoring"
)

// TestParseInfoValue 测试INFO stats段的字段解析
func TestParseInfoValue(t *testing.T) {
	info := "# Stats\r\ntotal_connections_received:42\r\nkeyspace_hits:950\r\nkeyspace_misses:50\r\n"

	assert.Equal(t, int64(950), parseInfoValue(info, "keyspace_hits"))
	assert.Equal(t, int64(50), parseInfoValue(info, "keyspace_misses"))
	assert.Equal(t, int64(0), parseInfoValue(info, "expired_keys"))
	assert.Equal(t, int64(0), parseInfoValue("keyspace_hits:not_a_number\r\n", "keyspace_hits"))
}

// TestParseInfoValueExactKeyMatch 测试前缀相近的字段不会误匹配
func TestParseInfoValueExactKeyMatch(t *testing.T) {
	info := "keyspace_hits_total:999\r\nkeyspace_hits:10\r\n"

	assert.Equal(t, int64(10), parseInfoValue(info, "keyspace_hits"))
}

// TestCacheHealthCheckNoClient 测试未配置客户端时返回不健康
func TestCacheHealthCheckNoClient(t *testing.T) {
	adapter := NewCacheAdapter(nil)

	result := adapter.HealthCheck(context.Background())

	assert.Equal(t, monitoring.HealthUnhealthy, result.Status)
	assert.Contains(t, result.Details["error"], "not configured")
}

// TestCacheStatsNoClient 测试未配置客户端时统计报错
func TestCacheStatsNoClient(t *testing.T) {
	adapter := NewCacheAdapter(nil)

	_, err := adapter.Stats(context.Background())

	assert.Error(t, err)
}
