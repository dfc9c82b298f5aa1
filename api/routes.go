/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers
 */

package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"tradewatch-service/api/controllers"
	"tradewatch-service/service"
)

// InitRoute 初始化所有API路由，监控引擎实例由组装根注入
func InitRoute(r *chi.Mux, app *service.App) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController(app.Monitor)
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// SSE事件推送
	eventController := controllers.NewEventController(app.Monitor)
	r.Get("/sse", eventController.HandleSSE)

	// 监控告警
	r.Route("/monitoring", func(r chi.Router) {
		monitoringController := controllers.NewMonitoringController(app.Monitor)
		r.Get("/health", monitoringController.GetHealthStatus)
		r.Get("/metrics", monitoringController.GetMetrics)
		r.Get("/alerts", monitoringController.GetAlerts)
		r.Post("/alerts/{id}/resolve", monitoringController.ResolveAlert)
		r.Get("/thresholds", monitoringController.GetThresholds)
		r.Put("/thresholds", monitoringController.UpdateThresholds)
		r.Get("/export", monitoringController.ExportMetrics)
	})

	// 仪表板
	r.Route("/dashboard", func(r chi.Router) {
		dashboardController := controllers.NewDashboardController(app.Monitor)
		r.Get("/summary", dashboardController.GetSummary)
	})
}
