/*
 * @module service/config
 * @description 服务配置加载，从环境变量读取数据库、缓存、引擎节拍、阈值和通知渠道配置
 * @architecture 分层架构 - 配置层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 进程启动时一次性加载，运行期阈值通过引擎的合并更新接口修改
 * @rules 所有配置都有可用默认值，缺失环境变量不阻止服务启动
 * @dependencies github.com/spf13/cast
 * @refs service/app.go
 */

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Config 服务配置
type Config struct {
	// 数据库
	DatabaseURL string

	// 缓存
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// 引擎节拍
	CollectionInterval  time.Duration
	HealthCheckInterval time.Duration
	RetentionSchedule   string

	// 阈值覆盖（键与引擎合并更新接口一致）
	ThresholdOverrides map[string]float64

	// 通知渠道
	WebhookURL   string
	KafkaBrokers []string
	KafkaTopic   string
	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
	ScriptPath   string
}

// Load 从环境变量加载配置
func Load() *Config {
	cfg := &Config{
		DatabaseURL:         buildDatabaseURL(),
		RedisAddr:           getEnvWithDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             cast.ToInt(getEnvWithDefault("REDIS_DB", "0")),
		CollectionInterval:  time.Duration(cast.ToInt(getEnvWithDefault("COLLECTION_INTERVAL_SECONDS", "30"))) * time.Second,
		HealthCheckInterval: time.Duration(cast.ToInt(getEnvWithDefault("HEALTH_CHECK_INTERVAL_SECONDS", "60"))) * time.Second,
		RetentionSchedule:   getEnvWithDefault("RETENTION_SCHEDULE", "@hourly"),
		ThresholdOverrides:  loadThresholdOverrides(),
		WebhookURL:          os.Getenv("ALERT_WEBHOOK_URL"),
		KafkaTopic:          getEnvWithDefault("ALERT_KAFKA_TOPIC", "tradewatch.alerts"),
		MQTTBroker:          os.Getenv("ALERT_MQTT_BROKER"),
		MQTTTopic:           getEnvWithDefault("ALERT_MQTT_TOPIC", "tradewatch/alerts"),
		MQTTClientID:        getEnvWithDefault("ALERT_MQTT_CLIENT_ID", "tradewatch-service"),
		ScriptPath:          os.Getenv("ALERT_SCRIPT_PATH"),
	}

	if brokers := os.Getenv("ALERT_KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if trimmed := strings.TrimSpace(broker); trimmed != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, trimmed)
			}
		}
	}

	return cfg
}

// buildDatabaseURL 优先使用DATABASE_URL，否则用分离的环境变量构建连接字符串
func buildDatabaseURL() string {
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		return databaseURL
	}

	host := getEnvWithDefault("DB_HOST", "localhost")
	port := getEnvWithDefault("DB_PORT", "5432")
	user := getEnvWithDefault("DB_USER", "postgres")
	password := getEnvWithDefault("DB_PASSWORD", "postgres")
	dbname := getEnvWithDefault("DB_NAME", "tradewatch")
	sslmode := getEnvWithDefault("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

// loadThresholdOverrides 从环境变量读取阈值覆盖，仅收集显式设置的项
func loadThresholdOverrides() map[string]float64 {
	overrides := make(map[string]float64)

	envKeys := map[string]string{
		"THRESHOLD_CPU_USAGE":       "cpu_usage",
		"THRESHOLD_MEMORY_USAGE":    "memory_usage",
		"THRESHOLD_QUERY_TIME_MS":   "query_time",
		"THRESHOLD_CACHE_HIT_RATE":  "cache_hit_rate",
		"THRESHOLD_ERROR_RATE":      "error_rate",
		"THRESHOLD_CRITICAL_ERRORS": "critical_errors",
	}

	for envKey, thresholdKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			overrides[thresholdKey] = cast.ToFloat64(value)
		}
	}
	return overrides
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

