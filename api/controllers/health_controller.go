/*
 * @module api/controllers/health_controller
 * @description 健康检查控制器，基于监控引擎的健康聚合提供存活和就绪探针
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow HTTP请求处理流程
 * @rules 存活探针始终返回200；就绪探针在整体健康为unhealthy时返回503，用于流量摘除
 * @dependencies net/http
 * @refs service/monitoring/health_checker.go
 */

package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"tradewatch-service/service/monitoring"
)

// HealthController 健康检查控制器
type HealthController struct {
	monitor *monitoring.MonitorService
}

// NewHealthController 创建健康检查控制器实例
func NewHealthController(monitor *monitoring.MonitorService) *HealthController {
	return &HealthController{monitor: monitor}
}

// HealthResponse 健康检查响应结构
type HealthResponse struct {
	Status    string    `json:"status" example:"ok"`
	Overall   string    `json:"overall" example:"healthy"`
	Timestamp time.Time `json:"timestamp" example:"2024-01-01T00:00:00Z"`
	Service   string    `json:"service" example:"tradewatch-service"`
}

// Health 健康检查
// @Summary 健康检查
// @Description 检查服务健康状态，始终返回200
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, HealthResponse{
		Status:    "ok",
		Overall:   string(c.monitor.Health().Overall()),
		Timestamp: time.Now(),
		Service:   "tradewatch-service",
	})
}

// Ready 就绪检查
// @Summary 就绪检查
// @Description 检查服务是否就绪，整体健康为unhealthy时返回503
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /ready [get]
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	overall := c.monitor.Health().Overall()

	response := HealthResponse{
		Status:    "ready",
		Overall:   string(overall),
		Timestamp: time.Now(),
		Service:   "tradewatch-service",
	}

	if overall == monitoring.HealthUnhealthy {
		response.Status = "not_ready"
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, response)
}
