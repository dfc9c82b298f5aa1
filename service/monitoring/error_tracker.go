/*
 * @module service/monitoring/error_tracker
 * @description 错误计数器，维护滚动一小时窗口内的错误和严重错误数量
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 错误上报 -> 时间戳入队 -> 查询时裁剪过期条目
 * @rules 只统计最近一小时，窗口外的记录在读取时惰性清除
 * @dependencies sync, time
 * @refs service/monitoring/metrics_collector.go
 */

package monitoring

import (
	"sync"
	"time"
)

const errorWindow = time.Hour

// ErrorTracker 错误计数器
type ErrorTracker struct {
	entries []errorEntry
	mutex   sync.Mutex

	now func() time.Time
}

type errorEntry struct {
	at       time.Time
	critical bool
}

// NewErrorTracker 创建错误计数器实例
func NewErrorTracker() *ErrorTracker {
	return &ErrorTracker{
		entries: make([]errorEntry, 0),
		now:     time.Now,
	}
}

// Record 记录一次错误
func (t *ErrorTracker) Record(critical bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.entries = append(t.entries, errorEntry{at: t.now(), critical: critical})
}

// Counts 返回滚动一小时窗口内的错误数与严重错误数
func (t *ErrorTracker) Counts() ErrorMetrics {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	cutoff := t.now().Add(-errorWindow)

	// 惰性裁剪过期条目，条目按时间有序
	idx := 0
	for idx < len(t.entries) && !t.entries[idx].at.After(cutoff) {
		idx++
	}
	if idx > 0 {
		t.entries = append(t.entries[:0], t.entries[idx:]...)
	}

	counts := ErrorMetrics{}
	for _, entry := range t.entries {
		counts.Count++
		if entry.critical {
			counts.CriticalCount++
		}
	}
	return counts
}
