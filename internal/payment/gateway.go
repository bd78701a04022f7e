package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wms-platform/checkout-service/internal/domain"
	apperrors "github.com/wms-platform/checkout-service/pkg/errors"
)

// Method is a payment-method category
type Method string

const (
	MethodCreditCard        Method = "CREDIT_CARD"
	MethodDomesticDebitCard Method = "DOMESTIC_DEBIT_CARD"
)

// IsValid checks if the method is known
func (m Method) IsValid() bool {
	switch m {
	case MethodCreditCard, MethodDomesticDebitCard:
		return true
	}
	return false
}

// ParseMethod parses a method name case-insensitively
func ParseMethod(raw string) (Method, error) {
	method := Method(strings.ToUpper(strings.TrimSpace(raw)))
	if !method.IsValid() {
		return "", apperrors.ErrValidation(fmt.Sprintf("unsupported payment method %q", raw)).
			WithDetail("field", "paymentMethod")
	}
	return method, nil
}

// Client parameter keys understood by the strategies
const (
	ParamBankCode   = "bankCode"
	ParamCardNumber = "cardNumber"
	ParamCardHolder = "cardHolder"
	ParamCardExpiry = "cardExpiry"
)

// Gateway response keys
const (
	ResponseCode          = "responseCode"
	ResponseMessage       = "message"
	ResponseTransactionID = "transactionId"
	ResponseRedirectURL   = "redirectUrl"
	ResponseAmount        = "amount"
	ResponseStatus        = "status"
)

// Parameters is a gateway-native parameter set
type Parameters map[string]any

// Response is a gateway reply: status code, message, transaction id and
// an optional redirect URL.
type Response map[string]string

// CardDetails carries card data a strategy hands to the gateway
type CardDetails struct {
	Number     string
	HolderName string
	Expiry     string
}

// Masked returns the card number with all but the last four digits hidden
func (c *CardDetails) Masked() string {
	if c == nil {
		return ""
	}
	digits := strings.ReplaceAll(c.Number, " ", "")
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}

// GatewayAdapter translates orders into a settlement gateway's protocol.
// Implementations must be safe for concurrent use. Failures are PaymentFailure,
// or NotFound for unknown transactions.
type GatewayAdapter interface {
	// Name identifies the gateway
	Name() string

	// PreparePaymentParameters builds the gateway's native payment parameters
	PreparePaymentParameters(ctx context.Context, order *domain.Order, method Method, card *CardDetails) (Parameters, error)

	// ProcessPayment submits a payment
	ProcessPayment(ctx context.Context, params Parameters) (Response, error)

	// PrepareRefundParameters builds the gateway's native refund parameters
	PrepareRefundParameters(ctx context.Context, order *domain.Order, originalTransactionID string, amount decimal.Decimal, reason string) (Parameters, error)

	// ProcessRefund submits a refund
	ProcessRefund(ctx context.Context, params Parameters) (Response, error)
}
