/*
 * @module service/config/config_test
 * @description 配置加载单元测试，覆盖默认值、环境变量覆盖和阈值解析
 * @architecture 测试层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 环境变量设置 -> 配置加载 -> 字段验证
 * @rules 缺失环境变量时全部字段有可用默认值
 * @dependencies testing, stretchr/testify
 * @refs config.go
 */

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestLoadDefaults 测试无环境变量时的默认配置
func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 30*time.Second, cfg.CollectionInterval)
	assert.Equal(t, 60*time.Second, cfg.HealthCheckInterval)
	assert.Equal(t, "@hourly", cfg.RetentionSchedule)
	assert.Empty(t, cfg.ThresholdOverrides)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "tradewatch.alerts", cfg.KafkaTopic)
	assert.Contains(t, cfg.DatabaseURL, "dbname=tradewatch")
}

// TestLoadFromEnv 测试环境变量覆盖默认配置
func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "host=db.internal port=5432 user=monitor dbname=prod")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("COLLECTION_INTERVAL_SECONDS", "10")
	t.Setenv("ALERT_KAFKA_BROKERS", "broker1:9092, broker2:9092 ,")

	cfg := Load()

	assert.Equal(t, "host=db.internal port=5432 user=monitor dbname=prod", cfg.DatabaseURL)
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr)
	assert.Equal(t, 10*time.Second, cfg.CollectionInterval)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
}

// TestLoadThresholdOverrides 测试阈值覆盖只收集显式设置的项
func TestLoadThresholdOverrides(t *testing.T) {
	t.Setenv("THRESHOLD_CPU_USAGE", "90")
	t.Setenv("THRESHOLD_CACHE_HIT_RATE", "60.5")

	cfg := Load()

	assert.Len(t, cfg.ThresholdOverrides, 2)
	assert.Equal(t, 90.0, cfg.ThresholdOverrides["cpu_usage"])
	assert.Equal(t, 60.5, cfg.ThresholdOverrides["cache_hit_rate"])
}

// TestBuildDatabaseURLFromParts 测试分离环境变量构建连接字符串
func TestBuildDatabaseURLFromParts(t *testing.T) {
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("DB_NAME", "tradewatch_test")

	cfg := Load()

	assert.Contains(t, cfg.DatabaseURL, "host=pg.internal")
	assert.Contains(t, cfg.DatabaseURL, "dbname=tradewatch_test")
	assert.Contains(t, cfg.DatabaseURL, "sslmode=disable")
}
