/*
 * @module service/app
 * @description 服务组装根，负责数据库/缓存连接、适配器注册、监控引擎构建和通知渠道装配。
 *              引擎是显式构建的实例，由组装根持有并注入API层，没有进程级单例
 * @architecture 分层架构 - 组装层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 连接依赖 -> 构建适配器 -> 构建引擎 -> 装配通知渠道 -> 启动引擎
 * @rules 依赖连接失败不阻止服务启动，对应适配器以断连状态注册，由健康检查持续上报
 * @dependencies gorm.io/gorm, github.com/go-redis/redis/v8
 * @refs service/monitoring/monitor_service.go, service/adapters
 */

package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tradewatch-service/service/adapters"
	"tradewatch-service/service/config"
	"tradewatch-service/service/monitoring"
)

// App 服务组装根
type App struct {
	Config  *config.Config
	DB      *gorm.DB
	Redis   *redis.Client
	Monitor *monitoring.MonitorService
	Trading *adapters.TradingAdapter

	notifier *monitoring.NotificationManager
}

// NewApp 构建服务。依赖连接失败记录日志后继续，监控引擎会把断连依赖上报为不健康
func NewApp(cfg *config.Config) *App {
	app := &App{Config: cfg}

	app.DB = connectDatabase(cfg)
	app.Redis = connectRedis(cfg)

	databaseAdapter := adapters.NewDatabaseAdapter(app.DB)
	cacheAdapter := adapters.NewCacheAdapter(app.Redis)
	app.Trading = adapters.NewTradingAdapter()

	monitorConfig := monitoring.MonitorConfig{
		CollectionInterval:  cfg.CollectionInterval,
		HealthCheckInterval: cfg.HealthCheckInterval,
		RetentionSchedule:   cfg.RetentionSchedule,
		Thresholds:          monitoring.DefaultThresholds(),
	}
	app.Monitor = monitoring.NewMonitorService(monitorConfig, databaseAdapter, cacheAdapter, app.Trading)

	if len(cfg.ThresholdOverrides) > 0 {
		app.Monitor.UpdateThresholds(cfg.ThresholdOverrides)
	}

	app.setupNotifications(cfg)
	return app
}

// Start 启动监控引擎
func (a *App) Start() error {
	return a.Monitor.Start()
}

// Stop 停止监控引擎
func (a *App) Stop() error {
	return a.Monitor.Stop()
}

// setupNotifications 按配置装配通知渠道并订阅告警总线
func (a *App) setupNotifications(cfg *config.Config) {
	senders := make([]monitoring.NotificationSender, 0)

	if cfg.WebhookURL != "" {
		senders = append(senders, monitoring.NewWebhookChannel(cfg.WebhookURL))
		slog.Info("已启用Webhook告警渠道", "url", cfg.WebhookURL)
	}

	if len(cfg.KafkaBrokers) > 0 {
		senders = append(senders, monitoring.NewKafkaChannel(cfg.KafkaBrokers, cfg.KafkaTopic))
		slog.Info("已启用Kafka告警渠道", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	if cfg.MQTTBroker != "" {
		channel, err := monitoring.NewMQTTChannel(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopic)
		if err != nil {
			slog.Error("MQTT告警渠道初始化失败", "broker", cfg.MQTTBroker, "error", err)
		} else {
			senders = append(senders, channel)
			slog.Info("已启用MQTT告警渠道", "broker", cfg.MQTTBroker, "topic", cfg.MQTTTopic)
		}
	}

	if cfg.ScriptPath != "" {
		script, err := os.ReadFile(cfg.ScriptPath)
		if err != nil {
			slog.Error("读取告警脚本失败", "path", cfg.ScriptPath, "error", err)
		} else if channel, err := monitoring.NewScriptChannel(string(script)); err != nil {
			slog.Error("脚本告警渠道初始化失败", "path", cfg.ScriptPath, "error", err)
		} else {
			senders = append(senders, channel)
			slog.Info("已启用脚本告警渠道", "path", cfg.ScriptPath)
		}
	}

	if len(senders) == 0 {
		return
	}

	a.notifier = monitoring.NewNotificationManager(monitoring.AlertWarn, senders...)
	a.notifier.Attach(a.Monitor.Bus())
}

// connectDatabase 连接数据库，失败时返回nil
func connectDatabase(cfg *config.Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		slog.Error("数据库连接失败，数据库监控将持续上报不健康", "error", err)
		return nil
	}

	slog.Info("数据库连接成功")
	return db
}

// connectRedis 连接Redis，探测失败时仍返回客户端，由健康检查持续上报
func connectRedis(cfg *config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("Redis连接探测失败，缓存监控将持续上报不健康", "addr", cfg.RedisAddr, "error", err)
	} else {
		slog.Info("Redis连接成功", "addr", cfg.RedisAddr)
	}
	return client
}
