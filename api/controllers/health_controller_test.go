/*
 * @module api/controllers/health_controller_test
 * @description 健康检查控制器单元测试，覆盖存活与就绪探针
 * @architecture 测试层
 * @documentReference dev_docs/monitoring_requirements.md
 * @stateFlow 测试准备 -> 请求构建 -> 响应验证
 * @rules 存活探针始终200，就绪探针在整体不健康时503
 * @dependencies testing, net/http/httptest, stretchr/testify
 * @refs health_controller.go
 */

package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradewatch-service/service/monitoring"
	"tradewatch-service/testutil"
)

// TestHealthEndpoint 测试存活探针
func TestHealthEndpoint(t *testing.T) {
	controller := NewHealthController(testutil.NewTestMonitor())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	controller.Health(recorder, req)

	var response HealthResponse
	testutil.AssertJSONResponse(t, recorder, http.StatusOK, &response)
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "healthy", response.Overall)
	assert.Equal(t, "tradewatch-service", response.Service)
}

// TestHealthEndpointAlwaysOK 测试整体不健康时存活探针仍返回200
func TestHealthEndpointAlwaysOK(t *testing.T) {
	monitor := testutil.NewTestMonitor()
	require.NotNil(t, monitor.Raise(monitoring.AlertCritical, monitoring.ServiceSystem, "out of memory", nil))

	controller := NewHealthController(monitor)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	controller.Health(recorder, req)

	var response HealthResponse
	testutil.AssertJSONResponse(t, recorder, http.StatusOK, &response)
	assert.Equal(t, "unhealthy", response.Overall)
}

// TestReadyEndpoint 测试就绪探针的健康与不健康分支
func TestReadyEndpoint(t *testing.T) {
	monitor := testutil.NewTestMonitor()
	controller := NewHealthController(monitor)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	recorder := httptest.NewRecorder()
	controller.Ready(recorder, req)

	var response HealthResponse
	testutil.AssertJSONResponse(t, recorder, http.StatusOK, &response)
	assert.Equal(t, "ready", response.Status)

	// 整体不健康时返回503并摘除流量
	require.NotNil(t, monitor.Raise(monitoring.AlertCritical, monitoring.ServiceSystem, "out of memory", nil))
	recorder = httptest.NewRecorder()
	controller.Ready(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))

	testutil.AssertJSONResponse(t, recorder, http.StatusServiceUnavailable, &response)
	assert.Equal(t, "not_ready", response.Status)
	assert.Equal(t, "unhealthy", response.Overall)
}
