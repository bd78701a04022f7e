package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/checkout-service/internal/api/handlers"
	"github.com/wms-platform/checkout-service/internal/bootstrap"
	"github.com/wms-platform/checkout-service/internal/config"
	"github.com/wms-platform/checkout-service/pkg/logging"
	"github.com/wms-platform/checkout-service/pkg/metrics"
	"github.com/wms-platform/checkout-service/pkg/middleware"
	"github.com/wms-platform/checkout-service/pkg/tracing"
)

const serviceName = "checkout-service"

func main() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(context.Background(), nil, appDependencies{}, signalCh); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type appDependencies struct {
	loadConfig    func() (*config.Config, error)
	initTracing   func(ctx context.Context, cfg *tracing.Config) (*tracing.TracerProvider, error)
	newMetrics    func(cfg *metrics.Config) *metrics.Metrics
	newHTTPServer func(addr string, handler http.Handler) httpServer
}

func defaultDependencies() appDependencies {
	return appDependencies{
		loadConfig: func() (*config.Config, error) {
			return config.Load("")
		},
		initTracing: tracing.Initialize,
		newMetrics:  metrics.New,
		newHTTPServer: func(addr string, handler http.Handler) httpServer {
			return &http.Server{
				Addr:         addr,
				Handler:      handler,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
			}
		},
	}
}

func (d appDependencies) withDefaults() appDependencies {
	def := defaultDependencies()
	if d.loadConfig == nil {
		d.loadConfig = def.loadConfig
	}
	if d.initTracing == nil {
		d.initTracing = def.initTracing
	}
	if d.newMetrics == nil {
		d.newMetrics = def.newMetrics
	}
	if d.newHTTPServer == nil {
		d.newHTTPServer = def.newHTTPServer
	}
	return d
}

// startTracing never fails the service; without a provider spans go to the
// global no-op tracer.
func startTracing(ctx context.Context, deps appDependencies, cfg *config.Config, logger *logging.Logger) (*tracing.TracerProvider, func()) {
	provider, err := deps.initTracing(ctx, cfg.TracingSettings(serviceName))
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing, continuing without it")
		return nil, func() {}
	}
	logger.Info("Tracing initialized", "enabled", cfg.Tracing.Enabled, "endpoint", cfg.Tracing.Endpoint)

	return provider, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shutdown tracer")
		}
	}
}

func newRouter(ctx context.Context, cfg *config.Config, engine *bootstrap.Engine, m *metrics.Metrics, logger *logging.Logger) *gin.Engine {
	router := gin.New()

	mwConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	mwConfig.Metrics = m
	mwConfig.EnableTracing = cfg.Tracing.Enabled
	middleware.Setup(router, mwConfig)

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, map[string]func() error{
		"paymentGateway": func() error {
			if status := engine.Gateway.Status(); status.State == gobreaker.StateOpen.String() {
				return fmt.Errorf("circuit %s is open", status.Name)
			}
			return engine.Sandbox.Ping(ctx)
		},
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	handlers.NewCheckoutHandler(engine.Service, logger).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func run(ctx context.Context, cfg *config.Config, deps appDependencies, signalCh <-chan os.Signal) error {
	deps = deps.withDefaults()
	if cfg == nil {
		loaded, err := deps.loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.ParseLevel(cfg.LogLevel)
	logConfig.Environment = cfg.Environment
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting checkout API", "environment", cfg.Environment, "addr", cfg.ServerAddr)

	provider, stopTracing := startTracing(ctx, deps, cfg, logger)
	defer stopTracing()

	m := deps.newMetrics(metrics.DefaultConfig(serviceName))

	var tracer trace.Tracer
	if provider != nil {
		tracer = provider.Tracer()
	}
	engine := bootstrap.Build(cfg, m, tracer, logger)
	router := newRouter(ctx, cfg, engine, m, logger)

	srv := deps.newHTTPServer(cfg.ServerAddr, router)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", cfg.ServerAddr)

	if signalCh == nil {
		signalCh = make(chan os.Signal, 1)
	}
	select {
	case <-signalCh:
	case <-ctx.Done():
	}
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
	return nil
}
