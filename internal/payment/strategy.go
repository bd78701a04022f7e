package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wms-platform/checkout-service/internal/domain"
	apperrors "github.com/wms-platform/checkout-service/pkg/errors"
	"github.com/wms-platform/checkout-service/pkg/logging"
)

// Strategy handles one payment-method category
type Strategy interface {
	// Method returns the category this strategy handles
	Method() Method

	// ProcessPayment builds gateway parameters for the order, merges
	// clientParams over them and submits the payment.
	ProcessPayment(ctx context.Context, order *domain.Order, clientParams map[string]string) (Response, error)

	// ProcessRefund refunds part or all of a captured transaction
	ProcessRefund(ctx context.Context, originalTransactionID string, order *domain.Order, amount decimal.Decimal, reason string) (Response, error)
}

// sensitiveParams are consumed into CardDetails and never forwarded raw
var sensitiveParams = map[string]struct{}{
	ParamCardNumber: {},
	ParamCardHolder: {},
	ParamCardExpiry: {},
}

// gatewayStrategy is the shared parameter-merge and delegation logic
type gatewayStrategy struct {
	method  Method
	adapter GatewayAdapter
	logger  *logging.Logger
}

func newGatewayStrategy(method Method, adapter GatewayAdapter, logger *logging.Logger) gatewayStrategy {
	if logger == nil {
		logger = logging.Discard()
	}
	return gatewayStrategy{
		method:  method,
		adapter: adapter,
		logger:  logger.WithComponent("payment-strategy"),
	}
}

func (s gatewayStrategy) Method() Method {
	return s.method
}

// logged runs call and emits exactly one PaymentCall entry for it,
// precondition failures included.
func (s gatewayStrategy) logged(ctx context.Context, operation string, order *domain.Order, call func() (Response, error)) (resp Response, err error) {
	start := time.Now()
	defer func() {
		s.logger.PaymentCall(ctx, string(s.method), operation, orderID(order), time.Since(start), err)
	}()
	return call()
}

func (s gatewayStrategy) pay(ctx context.Context, order *domain.Order, clientParams map[string]string, card *CardDetails) (Response, error) {
	params, err := s.adapter.PreparePaymentParameters(ctx, order, s.method, card)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = Parameters{}
	}
	for key, value := range clientParams {
		if _, sensitive := sensitiveParams[key]; sensitive {
			continue
		}
		params[key] = value
	}

	return s.adapter.ProcessPayment(ctx, params)
}

func (s gatewayStrategy) ProcessRefund(ctx context.Context, originalTransactionID string, order *domain.Order, amount decimal.Decimal, reason string) (Response, error) {
	return s.logged(ctx, "refund", order, func() (Response, error) {
		return s.refund(ctx, originalTransactionID, order, amount, reason)
	})
}

func (s gatewayStrategy) refund(ctx context.Context, originalTransactionID string, order *domain.Order, amount decimal.Decimal, reason string) (Response, error) {
	if order == nil {
		return nil, apperrors.ErrRequiredField("order")
	}
	if strings.TrimSpace(originalTransactionID) == "" {
		return nil, apperrors.ErrRequiredField("originalTransactionId")
	}
	if !amount.IsPositive() {
		return nil, apperrors.ErrValidation("refund amount must be positive").
			WithDetail("field", "amount")
	}
	if order.TotalAmount.IsPositive() && amount.GreaterThan(order.TotalAmount) {
		return nil, apperrors.ErrValidation(
			fmt.Sprintf("refund amount %s exceeds order total %s", amount, order.TotalAmount),
		).WithDetail("field", "amount")
	}

	params, err := s.adapter.PrepareRefundParameters(ctx, order, originalTransactionID, amount, reason)
	if err != nil {
		return nil, err
	}
	return s.adapter.ProcessRefund(ctx, params)
}

func orderID(order *domain.Order) string {
	if order == nil {
		return ""
	}
	return order.ID
}

// CreditCardStrategy pays with an international credit card. Card fields
// are optional since the gateway may collect them on its hosted page.
type CreditCardStrategy struct {
	gatewayStrategy
}

// NewCreditCardStrategy creates a credit card strategy
func NewCreditCardStrategy(adapter GatewayAdapter, logger *logging.Logger) *CreditCardStrategy {
	return &CreditCardStrategy{gatewayStrategy: newGatewayStrategy(MethodCreditCard, adapter, logger)}
}

// ProcessPayment submits a credit card payment
func (s *CreditCardStrategy) ProcessPayment(ctx context.Context, order *domain.Order, clientParams map[string]string) (Response, error) {
	return s.logged(ctx, "payment", order, func() (Response, error) {
		return s.processPayment(ctx, order, clientParams)
	})
}

func (s *CreditCardStrategy) processPayment(ctx context.Context, order *domain.Order, clientParams map[string]string) (Response, error) {
	if order == nil {
		return nil, apperrors.ErrRequiredField("order")
	}

	var card *CardDetails
	if number := strings.TrimSpace(clientParams[ParamCardNumber]); number != "" {
		card = &CardDetails{
			Number:     number,
			HolderName: strings.TrimSpace(clientParams[ParamCardHolder]),
			Expiry:     strings.TrimSpace(clientParams[ParamCardExpiry]),
		}
	}

	return s.pay(ctx, order, clientParams, card)
}

// DomesticCardStrategy pays with a domestic debit card through the
// customer's bank. A bank code is required.
type DomesticCardStrategy struct {
	gatewayStrategy
}

// NewDomesticCardStrategy creates a domestic debit card strategy
func NewDomesticCardStrategy(adapter GatewayAdapter, logger *logging.Logger) *DomesticCardStrategy {
	return &DomesticCardStrategy{gatewayStrategy: newGatewayStrategy(MethodDomesticDebitCard, adapter, logger)}
}

// ProcessPayment submits a domestic card payment
func (s *DomesticCardStrategy) ProcessPayment(ctx context.Context, order *domain.Order, clientParams map[string]string) (Response, error) {
	return s.logged(ctx, "payment", order, func() (Response, error) {
		return s.processPayment(ctx, order, clientParams)
	})
}

func (s *DomesticCardStrategy) processPayment(ctx context.Context, order *domain.Order, clientParams map[string]string) (Response, error) {
	if order == nil {
		return nil, apperrors.ErrRequiredField("order")
	}
	if strings.TrimSpace(clientParams[ParamBankCode]) == "" {
		return nil, apperrors.ErrValidation("bankCode is required for domestic debit card payments").
			WithDetail("field", ParamBankCode)
	}

	return s.pay(ctx, order, clientParams, nil)
}
