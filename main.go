package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	daprd "github.com/dapr/go-sdk/service/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"tradewatch-service/api"
	_ "tradewatch-service/docs"
	"tradewatch-service/logger"
	"tradewatch-service/service"
	"tradewatch-service/service/config"
)

var (
	PORT         = 80
	BASE_CONTEXT = ""
)

func init() {
	if val := os.Getenv("LISTEN_PORT"); val != "" {
		PORT, _ = strconv.Atoi(val)
	}

	if val := os.Getenv("BASE_CONTEXT"); val != "" {
		BASE_CONTEXT = val
	}
}

// @title 交易平台监控告警服务 API
// @version 1.0
// @description 交易机器人与数据管道的监控告警后台服务，提供指标采集、阈值告警、健康聚合和指标导出功能
// @BasePath /
func main() {
	logger.InitLogger()

	cfg := config.Load()
	app := service.NewApp(cfg)

	if err := app.Start(); err != nil {
		log.Fatalf("启动监控引擎失败: %v", err)
	}

	mux := chi.NewRouter()

	// 如果有BASE_CONTEXT，则在该路径下挂载所有路由
	if BASE_CONTEXT != "" {
		mux.Route(BASE_CONTEXT, func(r chi.Router) {
			subMux := r.(*chi.Mux)
			api.InitRoute(subMux, app)
			r.Handle("/metrics", promhttp.Handler())
			r.Handle("/swagger*", httpSwagger.WrapHandler)
		})
	} else {
		api.InitRoute(mux, app)
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/swagger*", httpSwagger.WrapHandler)
	}

	s := daprd.NewServiceWithMux(":"+strconv.Itoa(PORT), mux)
	if err := s.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("error: %v", err)
	}
}
