package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"

	"github.com/wms-platform/checkout-service/internal/activities"
	"github.com/wms-platform/checkout-service/internal/bootstrap"
	"github.com/wms-platform/checkout-service/internal/config"
	"github.com/wms-platform/checkout-service/pkg/logging"
	"github.com/wms-platform/checkout-service/pkg/metrics"
	"github.com/wms-platform/checkout-service/pkg/temporal"
	"github.com/wms-platform/checkout-service/pkg/tracing"
)

const serviceName = "checkout-worker"

func main() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(context.Background(), nil, workerDependencies{}, signalCh); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type activityWorker interface {
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
	Start() error
	Stop()
}

type temporalClient interface {
	NewWorker(options worker.Options) activityWorker
	Close()
}

type workerDependencies struct {
	loadConfig        func() (*config.Config, error)
	initTracing       func(ctx context.Context, cfg *tracing.Config) (*tracing.TracerProvider, error)
	newTemporalClient func(ctx context.Context, cfg *temporal.Config, logger *logging.Logger) (temporalClient, error)
}

type sdkClient struct {
	*temporal.Client
}

func (c sdkClient) NewWorker(options worker.Options) activityWorker {
	return c.Client.NewWorker(options)
}

func (d workerDependencies) withDefaults() workerDependencies {
	if d.loadConfig == nil {
		d.loadConfig = func() (*config.Config, error) { return config.Load("") }
	}
	if d.initTracing == nil {
		d.initTracing = tracing.Initialize
	}
	if d.newTemporalClient == nil {
		d.newTemporalClient = func(ctx context.Context, cfg *temporal.Config, logger *logging.Logger) (temporalClient, error) {
			c, err := temporal.NewClient(ctx, cfg, logger.Logger)
			if err != nil {
				return nil, err
			}
			return sdkClient{c}, nil
		}
	}
	return d
}

func run(ctx context.Context, cfg *config.Config, deps workerDependencies, signalCh <-chan os.Signal) error {
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

	logger.Info("Starting checkout worker")

	tp, err := deps.initTracing(ctx, cfg.TracingSettings(serviceName))
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		tp = nil
	}
	if tp != nil {
		defer tp.Shutdown(context.Background())
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))
	var engine *bootstrap.Engine
	if tp != nil {
		engine = bootstrap.Build(cfg, m, tp.Tracer(), logger)
	} else {
		engine = bootstrap.Build(cfg, m, nil, logger)
	}

	temporalConfig := cfg.TemporalSettings()
	c, err := deps.newTemporalClient(ctx, temporalConfig, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to create Temporal client")
		return err
	}
	defer c.Close()
	logger.Info("Connected to Temporal", "hostPort", temporalConfig.HostPort, "namespace", temporalConfig.Namespace)

	w := c.NewWorker(worker.Options{})
	activities.NewCheckoutActivities(engine.Service, m).Register(w)
	logger.Info("Registered activities")

	if err := w.Start(); err != nil {
		logger.WithError(err).Error("Worker failed to start")
		return fmt.Errorf("failed to start worker: %w", err)
	}
	logger.Info("Worker started", "taskQueue", temporalConfig.TaskQueue)

	if signalCh == nil {
		signalCh = make(chan os.Signal, 1)
	}
	select {
	case <-signalCh:
	case <-ctx.Done():
	}
	logger.Info("Shutting down worker...")

	w.Stop()
	logger.Info("Worker stopped")
	return nil
}
