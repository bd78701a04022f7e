package resilience

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCallerMistake = errors.New("caller mistake")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBreaker(onChange func(name string, from, to gobreaker.State)) *CircuitBreaker {
	config := DefaultCircuitBreakerConfig("test-gateway")
	config.FailureThreshold = 2
	config.MinRequestsToTrip = 0
	config.Timeout = time.Hour
	config.IsFailure = func(err error) bool { return !errors.Is(err, errCallerMistake) }
	config.OnStateChange = onChange
	return NewCircuitBreaker(config, testLogger())
}

func TestCircuitBreaker_TripsOnConsecutiveFailures(t *testing.T) {
	var transitions []gobreaker.State
	cb := newTestBreaker(func(name string, from, to gobreaker.State) {
		transitions = append(transitions, to)
	})
	ctx := context.Background()
	boom := errors.New("gateway down")

	for i := 0; i < 2; i++ {
		_, err := cb.Execute(ctx, func(context.Context) (any, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	called := false
	_, err := cb.Execute(ctx, func(context.Context) (any, error) {
		called = true
		return "ok", nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_NonFailureResetsConsecutiveFailures(t *testing.T) {
	cb := newTestBreaker(nil)
	ctx := context.Background()
	boom := errors.New("gateway down")

	_, err := cb.Execute(ctx, func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	_, err = cb.Execute(ctx, func(context.Context) (any, error) { return nil, errCallerMistake })
	assert.ErrorIs(t, err, errCallerMistake)
	_, err = cb.Execute(ctx, func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.Counts().ConsecutiveFailures)
	assert.Equal(t, uint32(2), cb.Counts().TotalFailures)
}

func TestCircuitBreaker_IgnoresNonFailures(t *testing.T) {
	cb := newTestBreaker(nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := cb.Execute(ctx, func(context.Context) (any, error) { return nil, errCallerMistake })
		assert.Nil(t, result)
		assert.ErrorIs(t, err, errCallerMistake)
	}

	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, uint32(0), cb.Counts().TotalFailures)
	assert.Equal(t, uint32(5), cb.Counts().TotalSuccesses)

	result, err := cb.Execute(ctx, func(context.Context) (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, "closed", cb.Status().State)
}

func TestRetryWithResult(t *testing.T) {
	config := &RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffFactor: 2}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		attempts := 0
		result, err := RetryWithResult(context.Background(), config, func() (int, error) {
			attempts++
			if attempts < 3 {
				return 0, errors.New("not yet")
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, result)
		assert.Equal(t, 3, attempts)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		_, err := RetryWithResult(context.Background(), config, func() (int, error) {
			return 0, errors.New("still down")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max retries (3) exceeded")
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		strict := *config
		strict.RetryableErrors = func(error) bool { return false }
		attempts := 0
		_, err := RetryWithResult(context.Background(), &strict, func() (int, error) {
			attempts++
			return 0, errCallerMistake
		})
		assert.ErrorIs(t, err, errCallerMistake)
		assert.Equal(t, 1, attempts)
	})
}
