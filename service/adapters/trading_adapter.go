/*
 * @module service/adapters/trading_adapter
 * @description 交易子系统监控适配器。当前为占位实现，维护内存计数器，等待接入真实撮合引擎
 * @architecture 适配器模式 - 向监控引擎提供交易侧统计快照
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 交易事件上报 -> 计数器更新 -> 快照读取
 * @rules 计数器更新与快照读取可并发，快照是一致的整体读取
 * @dependencies sync
 * @refs service/monitoring/types.go
 */

package adapters

import (
	"context"
	"sync"

	"tradewatch-service/service/monitoring"
)

// TradingAdapter 交易监控适配器，占位实现
type TradingAdapter struct {
	activeOrders int
	totalTrades  int64
	totalPnL     float64
	mutex        sync.RWMutex
}

// NewTradingAdapter 创建交易适配器实例
func NewTradingAdapter() *TradingAdapter {
	return &TradingAdapter{}
}

// Stats 返回交易统计快照
func (a *TradingAdapter) Stats(ctx context.Context) (monitoring.TradingStats, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	return monitoring.TradingStats{
		ActiveOrders: a.activeOrders,
		TotalTrades:  a.totalTrades,
		TotalPnL:     a.totalPnL,
	}, nil
}

// SetActiveOrders 更新活跃订单数
func (a *TradingAdapter) SetActiveOrders(count int) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.activeOrders = count
}

// RecordTrade 记录一笔成交及其盈亏
func (a *TradingAdapter) RecordTrade(pnl float64) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.totalTrades++
	a.totalPnL += pnl
}
