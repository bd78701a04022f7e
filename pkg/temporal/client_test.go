package temporal

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/checkout-service/pkg/resilience"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, "localhost:7233", config.HostPort)
	assert.Equal(t, TaskQueue, config.TaskQueue)
	require.NotNil(t, config.DialRetry)

	options := config.ClientOptions(slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, "default", options.Namespace)
	assert.Equal(t, "checkout-worker", options.Identity)
	assert.NotNil(t, options.Logger)

	assert.Nil(t, config.ClientOptions(nil).Logger)
}

func TestNewClient_GivesUpWhenContextDone(t *testing.T) {
	config := DefaultConfig()
	config.HostPort = "127.0.0.1:1"
	config.DialRetry = &resilience.RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond,
		BackoffFactor: 1,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(ctx, config, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create Temporal client")
}
