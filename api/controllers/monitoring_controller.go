/*
 * @module api/controllers/monitoring_controller
 * @description 监控告警控制器，提供健康快照、指标历史、告警管理、阈值配置和指标导出接口
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 请求接收 -> 业务逻辑处理 -> 响应返回
 * @rules 查询接口总是尽力给出答案：尚未采集数据时返回默认快照而不是错误
 * @dependencies net/http, strconv
 * @refs service/monitoring/monitor_service.go
 */

package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"tradewatch-service/service/monitoring"
)

// MonitoringController 监控告警控制器
type MonitoringController struct {
	monitor *monitoring.MonitorService
}

// NewMonitoringController 创建监控控制器实例
func NewMonitoringController(monitor *monitoring.MonitorService) *MonitoringController {
	return &MonitoringController{monitor: monitor}
}

// GetHealthStatus 获取健康快照
// @Summary 获取健康快照
// @Description 获取整体健康、各服务健康、最新指标和最新10条未解决告警
// @Tags 系统监控
// @Produce json
// @Success 200 {object} APIResponse{data=monitoring.HealthSnapshot}
// @Router /monitoring/health [get]
func (c *MonitoringController) GetHealthStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, &APIResponse{
		Status: 0,
		Msg:    "获取健康状态成功",
		Data:   c.monitor.GetHealthStatus(),
	})
}

// GetMetrics 获取指标历史
// @Summary 获取指标历史
// @Description 获取最近N小时的系统指标快照
// @Tags 系统监控
// @Produce json
// @Param hours query int false "时间范围（小时），默认1"
// @Success 200 {object} APIResponse{data=[]monitoring.SystemMetrics}
// @Router /monitoring/metrics [get]
func (c *MonitoringController) GetMetrics(w http.ResponseWriter, r *http.Request) {
	hours := 1
	if value := r.URL.Query().Get("hours"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			hours = parsed
		}
	}

	render.JSON(w, r, &APIResponse{
		Status: 0,
		Msg:    "获取指标成功",
		Data:   c.monitor.GetMetrics(hours),
	})
}

// GetAlerts 查询告警
// @Summary 查询告警
// @Description 按解决状态查询告警日志，最新在前
// @Tags 告警管理
// @Produce json
// @Param resolved query bool false "是否查询已解决告警，默认false"
// @Param limit query int false "返回数量上限，默认50"
// @Success 200 {object} APIResponse{data=[]monitoring.Alert}
// @Router /monitoring/alerts [get]
func (c *MonitoringController) GetAlerts(w http.ResponseWriter, r *http.Request) {
	resolved := false
	if value := r.URL.Query().Get("resolved"); value != "" {
		resolved, _ = strconv.ParseBool(value)
	}

	limit := 50
	if value := r.URL.Query().Get("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	render.JSON(w, r, &APIResponse{
		Status: 0,
		Msg:    "获取告警成功",
		Data:   c.monitor.GetAlerts(resolved, limit),
	})
}

// resolveRequest 解决告警请求体
type resolveRequest struct {
	Reason string `json:"reason"`
}

// ResolveAlert 解决告警
// @Summary 解决告警
// @Description 将指定告警标记为已解决，未知ID返回404
// @Tags 告警管理
// @Accept json
// @Produce json
// @Param id path string true "告警ID"
// @Param request body resolveRequest false "解决原因"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /monitoring/alerts/{id}/resolve [post]
func (c *MonitoringController) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "id")

	var req resolveRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if !c.monitor.ResolveAlert(alertID, req.Reason) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, &APIResponse{Status: 1, Msg: "告警不存在"})
		return
	}

	render.JSON(w, r, &APIResponse{Status: 0, Msg: "告警已解决"})
}

// GetThresholds 获取当前阈值表
// @Summary 获取阈值表
// @Tags 告警配置
// @Produce json
// @Success 200 {object} APIResponse{data=monitoring.Thresholds}
// @Router /monitoring/thresholds [get]
func (c *MonitoringController) GetThresholds(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, &APIResponse{
		Status: 0,
		Msg:    "获取阈值成功",
		Data:   c.monitor.GetThresholds(),
	})
}

// UpdateThresholds 合并更新阈值表
// @Summary 更新阈值表
// @Description 合并更新阈值表，未提供的字段保持不变，返回更新后的完整阈值表
// @Tags 告警配置
// @Accept json
// @Produce json
// @Param request body map[string]number true "阈值更新项"
// @Success 200 {object} APIResponse{data=monitoring.Thresholds}
// @Failure 400 {object} APIResponse
// @Router /monitoring/thresholds [put]
func (c *MonitoringController) UpdateThresholds(w http.ResponseWriter, r *http.Request) {
	var updates map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, &APIResponse{Status: 1, Msg: "请求体格式错误: " + err.Error()})
		return
	}

	render.JSON(w, r, &APIResponse{
		Status: 0,
		Msg:    "阈值已更新",
		Data:   c.monitor.UpdateThresholds(updates),
	})
}

// ExportMetrics 导出指标
// @Summary 导出指标
// @Description 导出监控数据：json为最近100条指标记录，prometheus为文本格式仪表
// @Tags 系统监控
// @Produce json
// @Param format query string false "导出格式" Enums(json,prometheus)
// @Success 200 {string} string "导出内容"
// @Failure 500 {object} APIResponse
// @Router /monitoring/export [get]
func (c *MonitoringController) ExportMetrics(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")

	switch format {
	case "prometheus":
		text, err := c.monitor.Exporter().ExportPrometheus()
		if err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, &APIResponse{Status: 1, Msg: "导出失败: " + err.Error()})
			return
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(text))
	default:
		data, err := c.monitor.Exporter().ExportJSON()
		if err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, &APIResponse{Status: 1, Msg: "导出失败: " + err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
