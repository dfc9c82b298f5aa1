/*
 * @module api/controllers/dashboard_controller
 * @description 仪表板控制器，聚合健康状态、最新指标和告警统计供前端概览页使用
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 请求接收 -> 引擎查询聚合 -> 响应返回
 * @rules 概览是只读聚合，所有数据来自监控引擎的查询接口
 * @dependencies net/http
 * @refs service/monitoring/monitor_service.go
 */

package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"tradewatch-service/service/monitoring"
)

// DashboardController 仪表板控制器
type DashboardController struct {
	monitor *monitoring.MonitorService
}

// NewDashboardController 创建仪表板控制器实例
func NewDashboardController(monitor *monitoring.MonitorService) *DashboardController {
	return &DashboardController{monitor: monitor}
}

// DashboardSummary 仪表板概览
type DashboardSummary struct {
	Overall          monitoring.HealthState            `json:"overall"`
	Services         map[string]monitoring.HealthState `json:"services"`
	LatestMetrics    *monitoring.SystemMetrics         `json:"latest_metrics,omitempty"`
	UnresolvedAlerts int                               `json:"unresolved_alerts"`
	CriticalAlerts   int                               `json:"critical_alerts"`
	Thresholds       monitoring.Thresholds             `json:"thresholds"`
	GeneratedAt      time.Time                         `json:"generated_at"`
}

// GetSummary 获取仪表板概览
// @Summary 获取仪表板概览
// @Description 聚合整体健康、各服务健康、最新指标、告警统计和当前阈值
// @Tags 仪表板
// @Produce json
// @Success 200 {object} APIResponse{data=DashboardSummary}
// @Router /dashboard/summary [get]
func (c *DashboardController) GetSummary(w http.ResponseWriter, r *http.Request) {
	snapshot := c.monitor.GetHealthStatus()

	unresolved := c.monitor.Alerts().Unresolved("")
	critical := 0
	for _, alert := range unresolved {
		if alert.Level == monitoring.AlertCritical {
			critical++
		}
	}

	render.JSON(w, r, &APIResponse{
		Status: 0,
		Msg:    "获取概览成功",
		Data: DashboardSummary{
			Overall:          snapshot.Overall,
			Services:         snapshot.Services,
			LatestMetrics:    snapshot.Metrics,
			UnresolvedAlerts: len(unresolved),
			CriticalAlerts:   critical,
			Thresholds:       c.monitor.GetThresholds(),
			GeneratedAt:      time.Now(),
		},
	})
}
