package main

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"

	"github.com/wms-platform/checkout-service/internal/config"
	"github.com/wms-platform/checkout-service/pkg/logging"
	"github.com/wms-platform/checkout-service/pkg/temporal"
)

type fakeWorker struct {
	activities []string
	startErr   error
	started    bool
	stopped    bool
}

func (f *fakeWorker) RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions) {
	f.activities = append(f.activities, options.Name)
}

func (f *fakeWorker) Start() error {
	f.started = true
	return f.startErr
}

func (f *fakeWorker) Stop() {
	f.stopped = true
}

type fakeClient struct {
	worker *fakeWorker
	closed bool
}

func (f *fakeClient) NewWorker(options worker.Options) activityWorker {
	return f.worker
}

func (f *fakeClient) Close() {
	f.closed = true
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.LogLevel = "error"
	cfg.Temporal.TaskQueue = "checkout-test"
	return cfg
}

func stopped() chan os.Signal {
	ch := make(chan os.Signal, 1)
	ch <- syscall.SIGTERM
	return ch
}

func TestRunRegistersActivities(t *testing.T) {
	client := &fakeClient{worker: &fakeWorker{}}
	var dialed *temporal.Config
	deps := workerDependencies{
		newTemporalClient: func(ctx context.Context, cfg *temporal.Config, logger *logging.Logger) (temporalClient, error) {
			dialed = cfg
			return client, nil
		},
	}

	require.NoError(t, run(context.Background(), testConfig(), deps, stopped()))

	require.NotNil(t, dialed)
	assert.Equal(t, "checkout-test", dialed.TaskQueue)
	assert.ElementsMatch(t, []string{"QuoteShipping", "ValidateOrder", "ProcessPayment", "RefundPayment"}, client.worker.activities)
	assert.True(t, client.worker.started)
	assert.True(t, client.worker.stopped)
	assert.True(t, client.closed)
}

func TestRunFailsWhenTemporalUnreachable(t *testing.T) {
	deps := workerDependencies{
		newTemporalClient: func(ctx context.Context, cfg *temporal.Config, logger *logging.Logger) (temporalClient, error) {
			return nil, errors.New("failed to create Temporal client: connection refused")
		},
	}

	err := run(context.Background(), testConfig(), deps, stopped())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRunFailsWhenWorkerCannotStart(t *testing.T) {
	client := &fakeClient{worker: &fakeWorker{startErr: errors.New("task queue poller failed")}}
	deps := workerDependencies{
		newTemporalClient: func(ctx context.Context, cfg *temporal.Config, logger *logging.Logger) (temporalClient, error) {
			return client, nil
		},
	}

	err := run(context.Background(), testConfig(), deps, stopped())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start worker")
	assert.True(t, client.closed)
}
