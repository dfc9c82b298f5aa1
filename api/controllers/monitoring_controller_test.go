/*
 * @module api/controllers/monitoring_controller_test
 * @description 监控控制器单元测试，覆盖健康快照、告警管理、阈值配置和导出接口
 * @architecture 测试层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 测试准备 -> 请求构建 -> 响应验证
 * @rules 通过桩适配器驱动引擎，不依赖真实数据库和缓存
 * @dependencies testing, net/http/httptest, stretchr/testify
 * @refs monitoring_controller.go
 */

package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradewatch-service/service/monitoring"
	"tradewatch-service/testutil"
)

// newMonitoringRouter 构建挂载监控路由的测试路由器
func newMonitoringRouter(monitor *monitoring.MonitorService) *chi.Mux {
	controller := NewMonitoringController(monitor)

	r := chi.NewRouter()
	r.Route("/monitoring", func(r chi.Router) {
		r.Get("/health", controller.GetHealthStatus)
		r.Get("/metrics", controller.GetMetrics)
		r.Get("/alerts", controller.GetAlerts)
		r.Post("/alerts/{id}/resolve", controller.ResolveAlert)
		r.Get("/thresholds", controller.GetThresholds)
		r.Put("/thresholds", controller.UpdateThresholds)
		r.Get("/export", controller.ExportMetrics)
	})
	return r
}

// TestGetHealthStatusEndpoint 测试健康快照接口
func TestGetHealthStatusEndpoint(t *testing.T) {
	monitor := testutil.NewTestMonitor()
	monitor.CollectOnce()
	router := newMonitoringRouter(monitor)

	recorder := testutil.PerformRequest(router, http.MethodGet, "/monitoring/health", nil)

	var response APIResponse
	testutil.AssertJSONResponse(t, recorder, http.StatusOK, &response)
	assert.Equal(t, 0, response.Status)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "healthy", data["overall"])
	assert.NotNil(t, data["metrics"])

	services, ok := data["services"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "healthy", services["database"])
	assert.Equal(t, "healthy", services["cache"])
	assert.Equal(t, "healthy", services["trading"])
	assert.Equal(t, "healthy", services["risk"])
}

// TestGetHealthStatusBeforeFirstCollection 测试尚未采集时返回默认快照
func TestGetHealthStatusBeforeFirstCollection(t *testing.T) {
	router := newMonitoringRouter(testutil.NewTestMonitor())

	recorder := testutil.PerformRequest(router, http.MethodGet, "/monitoring/health", nil)

	var response APIResponse
	testutil.AssertJSONResponse(t, recorder, http.StatusOK, &response)

	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "healthy", data["overall"])
	assert.Nil(t, data["metrics"])
}

// TestGetMetricsEndpoint 测试指标历史接口
func TestGetMetricsEndpoint(t *testing.T) {
	monitor := testutil.NewTestMonitor()
	monitor.CollectOnce()
	monitor.CollectOnce()
	router := newMonitoringRouter(monitor)

	recorder := testutil.PerformRequest(router, http.MethodGet, "/monitoring/metrics?hours=2", nil)

	var response APIResponse
	testutil.AssertJSONResponse(t, recorder, http.StatusOK, &response)

	data, ok := response.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 2)

	// 非法参数回退为默认1小时
	recorder = testutil.PerformRequest(router, http.MethodGet, "/monitoring/metrics?hours=abc", nil)
	testutil.AssertJSONResponse(t, recorder, http.StatusOK, &response)
}

// TestGetAlertsEndpoint 测试告警查询接口
func TestGetAlertsEndpoint(t *testing.T) {
	monitor := testutil.NewTestMonitor()
	router := newMonitoringRouter(monitor)

	for i := 0; i < 3; i++ {
		require.NotNil(t, monitor.Raise(monitoring.AlertWarn, monitoring.ServiceSystem,
			fmt.Sprintf("event %d", i), nil))
	}

	recorder := testutil.PerformRequest(router, http.MethodGet, "/monitoring/alerts", nil)

	var response APIResponse
	testutil.AssertJSONResponse(t, recorder, http.StatusOK, &response)

	data, ok := response.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 3)

	// 数量限制
	recorder = testutil.PerformRequest(router, http.MethodGet, "/monitoring/alerts?limit=1", nil)
	testutil.AssertJSONResponse(t, recorder, http.StatusOK, &response)
	data, ok = response.Data.([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 1)

	// 已解决过滤，当前没有已解决告警
	recorder = testutil.PerformRequest(router, http.MethodGet, "/monitoring/alerts?resolved=true", nil)
	testutil.AssertJSONResponse(t, recorder, http.StatusOK, &response)
	assert.Empty(t, response.Data)
}

// TestResolveAlertEndpoint 测试告警解决接口
func TestResolveAlertEndpoint(t *testing.T) {
	monitor := testutil.NewTestMonitor()
	router := newMonitoringRouter(monitor)

	alert := monitor.Raise(monitoring.AlertError, monitoring.ServiceDatabase, "db down", nil)
	require.NotNil(t, alert)

	body := bytes.NewBufferString(`{"reason":"connection restored"}`)
	recorder := testutil.PerformRequest(router, http.MethodPost,
		"/monitoring/alerts/"+alert.ID+"/resolve", body)

	var response APIResponse
	testutil.AssertJSONResponse(t, recorder, http.StatusOK, &response)
	assert.Equal(t, 0, response.Status)
	assert.Empty(t, monitor.Alerts().Unresolved(""))

	// 解决原因进入元数据
	resolved := monitor.GetAlerts(true, 0)
	require.Len(t, resolved, 1)
	assert.Equal(t, "connection restored", resolved[0].Metadata["resolve_reason"])
}

// TestResolveAlertNotFound 测试解决未知告警返回404
func TestResolveAlertNotFound(t *testing.T) {
	router := newMonitoringRouter(testutil.NewTestMonitor())

	recorder := testutil.PerformRequest(router, http.MethodPost,
		"/monitoring/alerts/alert_unknown/resolve", nil)

	var response APIResponse
	testutil.AssertJSONResponse(t, recorder, http.StatusNotFound, &response)
	assert.Equal(t, 1, response.Status)
}

// TestThresholdEndpoints 测试阈值查询与合并更新接口
func TestThresholdEndpoints(t *testing.T) {
	monitor := testutil.NewTestMonitor()
	router := newMonitoringRouter(monitor)

	recorder := testutil.PerformRequest(router, http.MethodGet, "/monitoring/thresholds", nil)

	var response APIResponse
	testutil.AssertJSONResponse(t, recorder, http.StatusOK, &response)
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 80.0, data["cpu_usage"])

	// 合并更新
	body := bytes.NewBufferString(`{"cpu_usage": 90, "query_time": 500}`)
	recorder = testutil.PerformRequest(router, http.MethodPut, "/monitoring/thresholds", body)
	testutil.AssertJSONResponse(t, recorder, http.StatusOK, &response)
	data, ok = response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 90.0, data["cpu_usage"])
	assert.Equal(t, 500.0, data["query_time"])
	assert.Equal(t, 85.0, data["memory_usage"])

	updated := monitor.GetThresholds()
	assert.Equal(t, 90.0, updated.CPUUsage)
}

// TestUpdateThresholdsBadRequest 测试请求体格式错误返回400
func TestUpdateThresholdsBadRequest(t *testing.T) {
	router := newMonitoringRouter(testutil.NewTestMonitor())

	body := bytes.NewBufferString(`{"cpu_usage": "ninety"}`)
	recorder := testutil.PerformRequest(router, http.MethodPut, "/monitoring/thresholds", body)

	var response APIResponse
	testutil.AssertJSONResponse(t, recorder, http.StatusBadRequest, &response)
	assert.Equal(t, 1, response.Status)
}

// TestExportMetricsPrometheus 测试Prometheus文本格式导出接口
func TestExportMetricsPrometheus(t *testing.T) {
	monitor := testutil.NewTestMonitor()
	monitor.CollectOnce()
	router := newMonitoringRouter(monitor)

	recorder := testutil.PerformRequest(router, http.MethodGet, "/monitoring/export?format=prometheus", nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, strings.HasPrefix(recorder.Header().Get("Content-Type"), "text/plain"))

	output := recorder.Body.String()
	assert.Contains(t, output, "cpu_usage_percent")
	assert.Contains(t, output, "cache_hit_rate_percent 95\n")
	assert.Contains(t, output, "active_orders_count 2\n")
}

// TestExportMetricsJSON 测试JSON导出接口
func TestExportMetricsJSON(t *testing.T) {
	monitor := testutil.NewTestMonitor()
	monitor.CollectOnce()
	router := newMonitoringRouter(monitor)

	recorder := testutil.PerformRequest(router, http.MethodGet, "/monitoring/export", nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var dump map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &dump))
	assert.Equal(t, float64(1), dump["count"])
}
