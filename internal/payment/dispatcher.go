package payment

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/wms-platform/checkout-service/internal/domain"
	apperrors "github.com/wms-platform/checkout-service/pkg/errors"
	"github.com/wms-platform/checkout-service/pkg/logging"
)

// Dispatcher routes a payment to the strategy registered for its method
type Dispatcher struct {
	strategies map[Method]Strategy
}

// NewDispatcher creates a dispatcher from explicit strategies
func NewDispatcher(strategies ...Strategy) *Dispatcher {
	d := &Dispatcher{strategies: make(map[Method]Strategy, len(strategies))}
	for _, s := range strategies {
		d.strategies[s.Method()] = s
	}
	return d
}

// NewGatewayDispatcher registers every supported method against one gateway
func NewGatewayDispatcher(adapter GatewayAdapter, logger *logging.Logger) *Dispatcher {
	return NewDispatcher(
		NewCreditCardStrategy(adapter, logger),
		NewDomesticCardStrategy(adapter, logger),
	)
}

// Strategy returns the strategy for method
func (d *Dispatcher) Strategy(method Method) (Strategy, error) {
	s, ok := d.strategies[method]
	if !ok {
		return nil, apperrors.ErrValidation(fmt.Sprintf("unsupported payment method %q", method)).
			WithDetail("field", "paymentMethod")
	}
	return s, nil
}

// Methods lists the registered methods in lexical order
func (d *Dispatcher) Methods() []Method {
	methods := make([]Method, 0, len(d.strategies))
	for m := range d.strategies {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })
	return methods
}

// ProcessPayment dispatches a payment
func (d *Dispatcher) ProcessPayment(ctx context.Context, method Method, order *domain.Order, clientParams map[string]string) (Response, error) {
	s, err := d.Strategy(method)
	if err != nil {
		return nil, err
	}
	return s.ProcessPayment(ctx, order, clientParams)
}

// ProcessRefund dispatches a refund
func (d *Dispatcher) ProcessRefund(ctx context.Context, method Method, originalTransactionID string, order *domain.Order, amount decimal.Decimal, reason string) (Response, error) {
	s, err := d.Strategy(method)
	if err != nil {
		return nil, err
	}
	return s.ProcessRefund(ctx, originalTransactionID, order, amount, reason)
}
