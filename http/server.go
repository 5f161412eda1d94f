// Package http 提供HTTP服务器功能
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"strokeserve/monitoring"
	"strokeserve/report"
)

// Server HTTP服务器
type Server struct {
	server *http.Server
	config ServerConfig
	logger *zap.Logger
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port           int
	Timeout        time.Duration
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// Dependencies 处理器依赖，由 main 构造后注入
type Dependencies struct {
	Predictor Predictor
	Accuracy  report.Source
	Logger    *zap.Logger
	Metrics   *monitoring.MetricsCollector
}

// DefaultServerConfig 默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:           5000,
		Timeout:        30 * time.Second,
		AllowedOrigins: []string{"*"},
		MaxBodyBytes:   1 << 20,
	}
}

// NewHandler 构建带中间件的路由
func NewHandler(config ServerConfig, deps Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = monitoring.NewMetricsCollector()
	}
	describeMetrics(deps.Metrics)

	mux := http.NewServeMux()
	RegisterHandlers(mux, &Handlers{
		predictor: deps.Predictor,
		accuracy:  deps.Accuracy,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	})

	chain := Chain(
		LoggerMiddleware(deps.Logger, deps.Metrics), // 1. 日志中间件（最外层，记录请求ID与状态码）
		RecoveryMiddleware(deps.Logger),             // 2. 恢复中间件（捕获panic）
		SecurityHeadersMiddleware,                   // 3. 安全头中间件
		CORSMiddleware(config.AllowedOrigins),       // 4. CORS中间件
		RequestSizeMiddleware(config.MaxBodyBytes),  // 5. 请求大小限制
	)
	return chain(mux)
}

// NewServer 创建HTTP服务器
func NewServer(config ServerConfig, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      NewHandler(config, deps),
			ReadTimeout:  config.Timeout,
			WriteTimeout: config.Timeout,
			IdleTimeout:  120 * time.Second,
		},
		config: config,
		logger: deps.Logger,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}

// Addr 返回服务器地址
func (s *Server) Addr() string {
	return s.server.Addr
}

func describeMetrics(metrics *monitoring.MetricsCollector) {
	metrics.Describe("strokeserve_http_requests_total", "HTTP requests by method and status")
	metrics.Describe("strokeserve_http_request_duration_seconds", "HTTP request latency")
	metrics.Describe("strokeserve_predictions_total", "Predictions by model and outcome")
}
