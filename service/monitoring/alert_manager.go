/*
 * @module service/monitoring/alert_manager
 * @description 告警管理器，负责告警创建、去重抑制、解决生命周期和有界告警日志维护
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 告警请求 -> 去重检查 -> 创建入库 -> 解决/保留清理
 * @rules 同一(service, message)在10分钟窗口内只产生一条未解决告警，避免告警风暴
 * @dependencies github.com/google/uuid
 * @refs service/monitoring/monitor_service.go
 */

package monitoring

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// 告警日志上限，超出后按位置裁剪最旧条目
	maxAlertHistory = 1000
	// 去重窗口：窗口内相同(service, message)的未解决告警被抑制
	dedupWindow = 10 * time.Minute
	// 已解决告警的保留窗口
	alertRetention = 24 * time.Hour
)

// AlertManager 告警管理器
type AlertManager struct {
	alerts []*Alert // 最新在前
	mutex  sync.RWMutex

	now func() time.Time // 测试可替换的时钟
}

// NewAlertManager 创建告警管理器实例
func NewAlertManager() *AlertManager {
	return &AlertManager{
		alerts: make([]*Alert, 0),
		now:    time.Now,
	}
}

// Raise 创建告警。命中去重窗口时返回nil，不产生任何状态变更
func (a *AlertManager) Raise(level AlertLevel, service, message string, metadata map[string]interface{}) *Alert {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	now := a.now()

	// 去重：扫描未解决告警，相同(service, message)且在窗口内则抑制
	cutoff := now.Add(-dedupWindow)
	for _, existing := range a.alerts {
		if !existing.Resolved && existing.Service == service && existing.Message == message &&
			existing.CreatedAt.After(cutoff) {
			return nil
		}
	}

	alert := &Alert{
		ID:        generateAlertID(now),
		Level:     level,
		Service:   service,
		Message:   message,
		CreatedAt: now,
		Resolved:  false,
		Metadata:  metadata,
	}

	// 最新在前插入
	a.alerts = append([]*Alert{alert}, a.alerts...)

	// 按位置裁剪最旧条目
	if len(a.alerts) > maxAlertHistory {
		a.alerts = a.alerts[:maxAlertHistory]
	}

	slog.Warn("触发告警",
		"alert_id", alert.ID,
		"level", string(alert.Level),
		"service", alert.Service,
		"message", alert.Message)

	copied := cloneAlert(alert)
	return &copied
}

// cloneAlert 产出告警的值拷贝，Metadata另建新map，避免调用方改写内部状态
func cloneAlert(alert *Alert) Alert {
	copied := *alert
	if alert.Metadata != nil {
		copied.Metadata = make(map[string]interface{}, len(alert.Metadata))
		for k, v := range alert.Metadata {
			copied.Metadata[k] = v
		}
	}
	return copied
}

// Resolve 解决告警，未知ID返回false且不产生任何状态变更
func (a *AlertManager) Resolve(alertID string) bool {
	return a.ResolveWithReason(alertID, "")
}

// ResolveWithReason 解决告警并记录原因
func (a *AlertManager) ResolveWithReason(alertID, reason string) bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	for _, alert := range a.alerts {
		if alert.ID == alertID {
			if alert.Resolved {
				return true
			}
			alert.Resolved = true
			if reason != "" {
				if alert.Metadata == nil {
					alert.Metadata = make(map[string]interface{})
				}
				alert.Metadata["resolve_reason"] = reason
			}
			slog.Info("告警已解决", "alert_id", alertID, "reason", reason)
			return true
		}
	}
	return false
}

// Unresolved 获取未解决告警，serviceFilter为空时返回全部
func (a *AlertManager) Unresolved(serviceFilter string) []Alert {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	result := make([]Alert, 0)
	for _, alert := range a.alerts {
		if alert.Resolved {
			continue
		}
		if serviceFilter != "" && alert.Service != serviceFilter {
			continue
		}
		result = append(result, cloneAlert(alert))
	}
	return result
}

// GetAlerts 按解决状态查询告警，limit<=0时不限制数量
func (a *AlertManager) GetAlerts(resolved bool, limit int) []Alert {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	result := make([]Alert, 0)
	for _, alert := range a.alerts {
		if alert.Resolved != resolved {
			continue
		}
		result = append(result, cloneAlert(alert))
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result
}

// Count 返回当前告警日志长度
func (a *AlertManager) Count() int {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return len(a.alerts)
}

// Cleanup 保留清理：移除创建时间超过24小时的已解决告警。
// 未解决告警不按时间移除，只会被1000条上限挤出。幂等。
func (a *AlertManager) Cleanup() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	cutoff := a.now().Add(-alertRetention)
	kept := a.alerts[:0]
	removed := 0
	for _, alert := range a.alerts {
		if alert.Resolved && alert.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, alert)
	}
	a.alerts = kept

	if removed > 0 {
		slog.Info("告警保留清理完成", "removed_count", removed, "remaining_count", len(a.alerts))
	}
	return removed
}

// generateAlertID 生成告警ID：时间戳加随机后缀，进程生命周期内不重复
func generateAlertID(now time.Time) string {
	return fmt.Sprintf("alert_%d_%s", now.UnixNano(), uuid.New().String()[:8])
}
