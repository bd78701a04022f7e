package gateway

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/wms-platform/checkout-service/internal/domain"
	"github.com/wms-platform/checkout-service/internal/payment"
	apperrors "github.com/wms-platform/checkout-service/pkg/errors"
	"github.com/wms-platform/checkout-service/pkg/metrics"
	"github.com/wms-platform/checkout-service/pkg/resilience"
)

// ResilientAdapter guards a gateway with a circuit breaker. It never
// retries: a payment is attempted at most once per call.
type ResilientAdapter struct {
	next    payment.GatewayAdapter
	breaker *resilience.CircuitBreaker
}

// NewResilientAdapter wraps next. Caller mistakes (validation) and unknown
// transactions do not count against the circuit. m may be nil.
func NewResilientAdapter(next payment.GatewayAdapter, config *resilience.CircuitBreakerConfig, m *metrics.Metrics, logger *slog.Logger) *ResilientAdapter {
	if config == nil {
		config = resilience.DefaultCircuitBreakerConfig("payment-gateway-" + next.Name())
	}
	cfg := *config
	cfg.IsFailure = isGatewayFailure
	if m != nil {
		m.SetCircuitBreakerState(cfg.Name, stateValue(gobreaker.StateClosed))
		callerHook := config.OnStateChange
		cfg.OnStateChange = func(name string, from, to gobreaker.State) {
			m.SetCircuitBreakerState(name, stateValue(to))
			if to == gobreaker.StateOpen {
				m.RecordCircuitBreakerTrip(name)
			}
			if callerHook != nil {
				callerHook(name, from, to)
			}
		}
	}

	return &ResilientAdapter{
		next:    next,
		breaker: resilience.NewCircuitBreaker(&cfg, logger),
	}
}

func isGatewayFailure(err error) bool {
	return !apperrors.IsValidation(err) && !apperrors.IsNotFound(err)
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Name returns the wrapped gateway name
func (a *ResilientAdapter) Name() string {
	return a.next.Name()
}

// Status returns the breaker snapshot
func (a *ResilientAdapter) Status() resilience.CircuitBreakerStatus {
	return a.breaker.Status()
}

// PreparePaymentParameters is local translation and bypasses the breaker
func (a *ResilientAdapter) PreparePaymentParameters(ctx context.Context, order *domain.Order, method payment.Method, card *payment.CardDetails) (payment.Parameters, error) {
	return a.next.PreparePaymentParameters(ctx, order, method, card)
}

// PrepareRefundParameters is local translation and bypasses the breaker
func (a *ResilientAdapter) PrepareRefundParameters(ctx context.Context, order *domain.Order, originalTransactionID string, amount decimal.Decimal, reason string) (payment.Parameters, error) {
	return a.next.PrepareRefundParameters(ctx, order, originalTransactionID, amount, reason)
}

// ProcessPayment submits a payment through the breaker
func (a *ResilientAdapter) ProcessPayment(ctx context.Context, params payment.Parameters) (payment.Response, error) {
	return a.call(ctx, func(ctx context.Context) (payment.Response, error) {
		return a.next.ProcessPayment(ctx, params)
	})
}

// ProcessRefund submits a refund through the breaker
func (a *ResilientAdapter) ProcessRefund(ctx context.Context, params payment.Parameters) (payment.Response, error) {
	return a.call(ctx, func(ctx context.Context) (payment.Response, error) {
		return a.next.ProcessRefund(ctx, params)
	})
}

func (a *ResilientAdapter) call(ctx context.Context, fn func(ctx context.Context) (payment.Response, error)) (payment.Response, error) {
	result, err := a.breaker.Execute(ctx, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return nil, apperrors.ErrPaymentFailed("payment gateway temporarily unavailable").
				WithDetail("reason", "gateway_unavailable").
				Wrap(err)
		}
		return nil, err
	}

	resp, _ := result.(payment.Response)
	return resp, nil
}
