package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/BaSui01/agentweave/agent"
	"github.com/BaSui01/agentweave/api/handlers"
	"github.com/BaSui01/agentweave/config"
	"github.com/BaSui01/agentweave/internal/metrics"
	"github.com/BaSui01/agentweave/internal/server"
	"github.com/BaSui01/agentweave/internal/telemetry"
	"github.com/BaSui01/agentweave/orchestration"
	"github.com/BaSui01/agentweave/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 AgentWeave 的主服务器
type Server struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger

	invoker  agent.Invoker
	promReg  prometheus.Registerer
	gatherer prometheus.Gatherer

	registry  *registry.Registry
	store     *definitionStore
	engine    *orchestration.Engine
	collector *metrics.Collector
	telemetry *telemetry.Providers
	reloader  *config.Reloader

	runHandler *handlers.RunHandler
	handler    http.Handler

	httpManager    *server.Manager
	metricsManager *server.Manager
}

// ServerOption 配置 Server
type ServerOption func(*Server)

// withInvoker 替换默认的 echo invoker
func withInvoker(inv agent.Invoker) ServerOption {
	return func(s *Server) { s.invoker = inv }
}

// withPrometheus 使用独立的指标注册表，测试中避免全局冲突
func withPrometheus(reg *prometheus.Registry) ServerOption {
	return func(s *Server) {
		s.promReg = reg
		s.gatherer = reg
	}
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, configPath string, logger *zap.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:        cfg,
		configPath: configPath,
		logger:     logger,
		invoker:    agent.EchoInvoker{},
		promReg:    prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// 🚀 启动流程
// =============================================================================

// Init 初始化存储、注册表、引擎与 HTTP 路由，但不开始监听
func (s *Server) Init(ctx context.Context) error {
	// 1. 遥测
	tp, err := telemetry.Init(ctx, s.cfg.Telemetry, s.logger)
	if err != nil {
		s.logger.Warn("failed to initialize telemetry", zap.Error(err))
	} else {
		s.telemetry = tp
	}

	// 2. 指标
	s.collector = metrics.NewCollector("agentweave", s.promReg, s.logger)

	// 3. 存储与注册表
	if err := s.initRegistry(ctx); err != nil {
		return fmt.Errorf("failed to init registry: %w", err)
	}

	// 4. 引擎
	engineOpts := []orchestration.EngineOption{
		orchestration.WithLogger(s.logger),
		orchestration.WithObserver(s.collector),
		orchestration.WithDefaultOptions(s.cfg.Engine.Options()),
		orchestration.WithTracerProvider(s.telemetry.TracerProvider()),
	}
	invoker := agent.Chain(s.invoker, agent.WithLogging(s.logger))
	s.engine = orchestration.New(s.registry, invoker, engineOpts...)

	// 5. HTTP
	s.handler = s.buildHandler()
	s.httpManager = server.NewManager(s.handler, server.ConfigFrom(s.cfg.Server.HTTPPort, s.cfg.Server), s.logger)

	if s.cfg.Server.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", s.metricsHandler())
		s.metricsManager = server.NewManager(mux, server.ConfigFrom(s.cfg.Server.MetricsPort, s.cfg.Server), s.logger)
	}

	// 6. 热更新
	if err := s.initReloader(ctx); err != nil {
		return fmt.Errorf("failed to init config reloader: %w", err)
	}
	return nil
}

// initRegistry 打开存储并按配置预加载定义
func (s *Server) initRegistry(ctx context.Context) error {
	store, err := openStore(ctx, s.cfg, s.logger)
	if err != nil {
		return err
	}
	s.store = store
	reg := registry.New(s.logger)

	if store.persistent() && s.cfg.Storage.LoadOnStart {
		// 加载失败时不设置 s.registry，Shutdown 不会用空注册表覆盖存储
		if err := reg.Load(ctx, store.source); err != nil {
			return err
		}
		agents, workflows := reg.Len()
		s.logger.Info("definitions loaded",
			zap.String("backend", store.backend),
			zap.Int("agents", agents),
			zap.Int("workflows", workflows),
		)
	}
	s.registry = reg
	return nil
}

// buildHandler 注册路由并构建中间件链
func (s *Server) buildHandler() http.Handler {
	var onChange handlers.ChangeHook
	if s.store.persistent() && s.cfg.Storage.SaveOnChange {
		onChange = func(ctx context.Context) error {
			return s.registry.Save(ctx, s.store.sink)
		}
	}

	var limiter *rate.Limiter
	if s.cfg.Server.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst)
	}
	s.runHandler = handlers.NewRunHandler(s.engine, limiter, s.cfg.Engine.Options(), s.logger)

	health := handlers.NewHealthHandler(Version, s.logger)
	for _, check := range s.store.checks {
		health.RegisterCheck(check)
	}

	mux := handlers.NewRouter(handlers.Routes{
		Definitions: handlers.NewDefinitionHandler(s.registry, onChange, s.logger),
		Runs:        s.runHandler,
		Health:      health,
	})
	if s.cfg.Server.MetricsPort == 0 {
		mux.Handle("GET /metrics", s.metricsHandler())
	}

	return Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		OTelTracing(s.telemetry.TracerProvider()),
		MetricsMiddleware(s.collector),
	)
}

func (s *Server) metricsHandler() http.Handler {
	return promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
}

// initReloader 监听配置文件，引擎参数变化时立即生效
func (s *Server) initReloader(ctx context.Context) error {
	if s.configPath == "" {
		return nil
	}
	loader := config.NewLoader().WithConfigPath(s.configPath)
	s.reloader = config.NewReloader(loader, s.cfg, s.logger)
	s.reloader.OnReload(func(_, next *config.Config, changes []config.ConfigChange) {
		restart := 0
		for _, c := range changes {
			if c.RequiresRestart {
				restart++
			}
		}
		s.runHandler.SetDefaults(next.Engine.Options())
		s.logger.Info("configuration reloaded",
			zap.Int("changes", len(changes)),
			zap.Int("requires_restart", restart),
		)
	})
	return s.reloader.Start(ctx)
}

// =============================================================================
// 🌐 运行与关闭
// =============================================================================

// Run 启动 HTTP 与 Metrics 服务器并阻塞到 ctx 结束
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.httpManager.Run(gctx) })
	if s.metricsManager != nil {
		g.Go(func() error { return s.metricsManager.Run(gctx) })
	}

	s.logger.Info("all servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.String("storage", s.store.backend),
		zap.Bool("hot_reload_enabled", s.reloader != nil),
	)
	return g.Wait()
}

// Shutdown 释放 Run 之外的资源：热更新、注册表、存储与遥测
func (s *Server) Shutdown(ctx context.Context) {
	s.logger.Info("starting graceful shutdown")

	if s.reloader != nil {
		if err := s.reloader.Stop(); err != nil {
			s.logger.Error("config reloader shutdown error", zap.Error(err))
		}
	}
	if s.registry != nil {
		if s.store != nil && s.store.persistent() && s.cfg.Storage.SaveOnChange {
			if err := s.registry.Save(ctx, s.store.sink); err != nil {
				s.logger.Error("final registry save failed", zap.Error(err))
			}
		}
		_ = s.registry.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("definition store close error", zap.Error(err))
		}
	}
	if s.telemetry != nil {
		if err := s.telemetry.Shutdown(ctx); err != nil {
			s.logger.Error("telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("graceful shutdown completed")
}
