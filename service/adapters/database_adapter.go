/*
 * @module service/adapters/database_adapter
 * @description 数据库监控适配器，基于gorm连接提供健康检查和查询耗时/连接数统计
 * @architecture 适配器模式 - 封装数据库连接，向监控引擎提供统一的探测能力
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 连接探测 -> 耗时采样 -> 滚动平均计算
 * @rules 探测失败返回不健康结果而不是panic，监控引擎据此填充哨兵值
 * @dependencies gorm.io/gorm
 * @refs service/monitoring/types.go
 */

package adapters

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"tradewatch-service/service/monitoring"
)

// 滚动平均的采样窗口大小
const querySampleWindow = 100

// DatabaseAdapter 数据库监控适配器
type DatabaseAdapter struct {
	db *gorm.DB

	// 查询耗时滚动采样（毫秒）
	samples []float64
	cursor  int
	filled  bool
	mutex   sync.Mutex
}

// NewDatabaseAdapter 创建数据库适配器实例
func NewDatabaseAdapter(db *gorm.DB) *DatabaseAdapter {
	return &DatabaseAdapter{
		db:      db,
		samples: make([]float64, querySampleWindow),
	}
}

// HealthCheck 探测数据库连通性
func (a *DatabaseAdapter) HealthCheck(ctx context.Context) monitoring.CheckResult {
	if a.db == nil {
		return monitoring.CheckResult{
			Status:  monitoring.HealthUnhealthy,
			Details: map[string]interface{}{"error": "database connection is not configured"},
		}
	}

	sqlDB, err := a.db.DB()
	if err != nil {
		return monitoring.CheckResult{
			Status:  monitoring.HealthUnhealthy,
			Details: map[string]interface{}{"error": err.Error()},
		}
	}

	start := time.Now()
	if err := sqlDB.PingContext(ctx); err != nil {
		return monitoring.CheckResult{
			Status:  monitoring.HealthUnhealthy,
			Details: map[string]interface{}{"error": err.Error()},
		}
	}

	return monitoring.CheckResult{
		Status: monitoring.HealthHealthy,
		Details: map[string]interface{}{
			"response_time_ms": float64(time.Since(start).Microseconds()) / 1000,
		},
	}
}

// Stats 返回统计快照：探测查询耗时进入滚动平均，连接数来自连接池
func (a *DatabaseAdapter) Stats(ctx context.Context) (monitoring.DatabaseStats, error) {
	if a.db == nil {
		return monitoring.DatabaseStats{}, gorm.ErrInvalidDB
	}

	sqlDB, err := a.db.DB()
	if err != nil {
		return monitoring.DatabaseStats{}, err
	}

	// 探测查询，耗时计入滚动采样
	start := time.Now()
	var one int
	if err := a.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error; err != nil {
		return monitoring.DatabaseStats{}, err
	}
	a.ObserveQuery(time.Since(start))

	return monitoring.DatabaseStats{
		AvgQueryTime:      a.averageQueryTime(),
		ActiveConnections: sqlDB.Stats().OpenConnections,
	}, nil
}

// ObserveQuery 记录一次查询耗时，业务代码可以用它上报真实查询延迟
func (a *DatabaseAdapter) ObserveQuery(duration time.Duration) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.samples[a.cursor] = float64(duration.Microseconds()) / 1000
	a.cursor++
	if a.cursor >= len(a.samples) {
		a.cursor = 0
		a.filled = true
	}
}

// averageQueryTime 计算滚动平均查询耗时（毫秒）
func (a *DatabaseAdapter) averageQueryTime() float64 {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	count := a.cursor
	if a.filled {
		count = len(a.samples)
	}
	if count == 0 {
		return 0
	}

	sum := 0.0
	for i := 0; i < count; i++ {
		sum += a.samples[i]
	}
	return sum / float64(count)
}
