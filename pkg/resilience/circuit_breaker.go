// Package resilience guards outbound calls with a circuit breaker and
// retries startup dials with backoff.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Gateway breaker defaults
const (
	DefaultMaxRequests           uint32        = 1
	DefaultInterval              time.Duration = time.Minute
	DefaultTimeout               time.Duration = 30 * time.Second
	DefaultFailureThreshold      uint32        = 5
	DefaultFailureRatioThreshold float64       = 0.5
	DefaultMinRequestsToTrip     uint32        = 10
)

// ErrCircuitOpen is returned while the breaker rejects calls
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitBreakerConfig configures a breaker. The circuit opens on
// FailureThreshold consecutive failures, or once MinRequestsToTrip calls
// have been seen with a failure ratio of at least FailureRatioThreshold.
type CircuitBreakerConfig struct {
	Name                  string
	MaxRequests           uint32 // probes allowed while half-open
	Interval              time.Duration
	Timeout               time.Duration // time spent open before probing
	FailureThreshold      uint32
	FailureRatioThreshold float64
	MinRequestsToTrip     uint32

	// IsFailure reports whether err counts against the circuit; nil counts all.
	IsFailure     func(error) bool
	OnStateChange func(name string, from, to gobreaker.State)
}

func DefaultCircuitBreakerConfig(name string) *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Name:                  name,
		MaxRequests:           DefaultMaxRequests,
		Interval:              DefaultInterval,
		Timeout:               DefaultTimeout,
		FailureThreshold:      DefaultFailureThreshold,
		FailureRatioThreshold: DefaultFailureRatioThreshold,
		MinRequestsToTrip:     DefaultMinRequestsToTrip,
	}
}

func (c *CircuitBreakerConfig) readyToTrip(counts gobreaker.Counts) bool {
	if c.FailureThreshold > 0 && counts.ConsecutiveFailures >= c.FailureThreshold {
		return true
	}
	if c.MinRequestsToTrip == 0 || counts.Requests < c.MinRequestsToTrip {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= c.FailureRatioThreshold
}

// CircuitBreaker is a gobreaker instance that can return some errors
// without counting them as failures.
type CircuitBreaker struct {
	cb        *gobreaker.CircuitBreaker
	name      string
	isFailure func(error) bool
	logger    *slog.Logger
}

func NewCircuitBreaker(config *CircuitBreakerConfig, logger *slog.Logger) *CircuitBreaker {
	if logger == nil {
		logger = slog.Default()
	}

	onChange := func(name string, from, to gobreaker.State) {
		logger.Warn("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		if config.OnStateChange != nil {
			config.OnStateChange(name, from, to)
		}
	}

	c := &CircuitBreaker{
		name:      config.Name,
		isFailure: config.IsFailure,
		logger:    logger,
	}
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:          config.Name,
		MaxRequests:   config.MaxRequests,
		Interval:      config.Interval,
		Timeout:       config.Timeout,
		ReadyToTrip:   config.readyToTrip,
		OnStateChange: onChange,
		IsSuccessful: func(err error) bool {
			return err == nil || !c.counts(err)
		},
	})
	return c
}

func (c *CircuitBreaker) counts(err error) bool {
	return c.isFailure == nil || c.isFailure(err)
}

// Execute runs fn under the breaker. Errors that do not count are still
// returned to the caller. A rejected call returns an error wrapping
// ErrCircuitOpen.
func (c *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	result, err := c.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Warn("Circuit breaker rejected call", "name", c.name, "reason", err.Error())
		return nil, fmt.Errorf("%s: %w", c.name, ErrCircuitOpen)
	}
	return result, err
}

func (c *CircuitBreaker) State() gobreaker.State   { return c.cb.State() }
func (c *CircuitBreaker) Counts() gobreaker.Counts { return c.cb.Counts() }

// CircuitBreakerStatus is the JSON view of a breaker
type CircuitBreakerStatus struct {
	Name                 string `json:"name"`
	State                string `json:"state"`
	Requests             uint32 `json:"requests"`
	TotalSuccesses       uint32 `json:"totalSuccesses"`
	TotalFailures        uint32 `json:"totalFailures"`
	ConsecutiveSuccesses uint32 `json:"consecutiveSuccesses"`
	ConsecutiveFailures  uint32 `json:"consecutiveFailures"`
}

func (c *CircuitBreaker) Status() CircuitBreakerStatus {
	counts := c.cb.Counts()
	return CircuitBreakerStatus{
		Name:                 c.name,
		State:                c.cb.State().String(),
		Requests:             counts.Requests,
		TotalSuccesses:       counts.TotalSuccesses,
		TotalFailures:        counts.TotalFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
		ConsecutiveFailures:  counts.ConsecutiveFailures,
	}
}
