package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms-platform/checkout-service/internal/domain"
	"github.com/wms-platform/checkout-service/internal/payment"
	apperrors "github.com/wms-platform/checkout-service/pkg/errors"
)

// Native parameter names of the sandbox gateway
const (
	paramMerchantID    = "merchantId"
	paramTxnRef        = "txnRef"
	paramAmount        = "amount"
	paramCurrency      = "currency"
	paramOrderInfo     = "orderInfo"
	paramReturnURL     = "returnUrl"
	paramBankCode      = "bankCode"
	paramPaymentMethod = "paymentMethod"
	paramCardMasked    = "cardNumberMasked"
	paramCardHolder    = "cardHolder"
	paramTransactionID = "transactionId"
	paramReason        = "reason"
)

const responseApproved = "00"

// SandboxConfig configures the sandbox gateway
type SandboxConfig struct {
	MerchantID   string
	ReturnURL    string
	PaymentURL   string
	DeclineBanks []string // bank codes that are always declined
	DeclineCards []string // last four digits of cards that are always declined
}

// SandboxAdapter is an in-process settlement gateway. It translates orders
// into the gateway's native parameters and keeps captured transactions so
// refunds can be checked against them.
type SandboxAdapter struct {
	config SandboxConfig
	now    func() time.Time

	mu           sync.Mutex
	transactions map[string]*transaction
}

type transaction struct {
	id       string
	txnRef   string
	amount   decimal.Decimal
	refunded decimal.Decimal
	currency string
	at       time.Time
}

// NewSandboxAdapter creates a sandbox gateway adapter
func NewSandboxAdapter(config SandboxConfig) *SandboxAdapter {
	if config.PaymentURL == "" {
		config.PaymentURL = "https://sandbox.gateway.local/pay"
	}
	return &SandboxAdapter{
		config:       config,
		now:          time.Now,
		transactions: make(map[string]*transaction),
	}
}

// Name returns the gateway name
func (a *SandboxAdapter) Name() string {
	return "sandbox"
}

// PreparePaymentParameters translates an order into sandbox payment parameters
func (a *SandboxAdapter) PreparePaymentParameters(ctx context.Context, order *domain.Order, method payment.Method, card *payment.CardDetails) (payment.Parameters, error) {
	if order == nil {
		return nil, apperrors.ErrRequiredField("order")
	}

	params := payment.Parameters{
		paramMerchantID:    a.config.MerchantID,
		paramTxnRef:        order.ID,
		paramAmount:        order.TotalAmount.StringFixed(0),
		paramCurrency:      order.SettlementCurrency(),
		paramOrderInfo:     fmt.Sprintf("Payment for order %s", order.ID),
		paramReturnURL:     a.config.ReturnURL,
		paramPaymentMethod: string(method),
	}
	if card != nil {
		params[paramCardMasked] = card.Masked()
		params[paramCardHolder] = card.HolderName
	}
	return params, nil
}

// ProcessPayment approves the payment unless the bank or card is configured
// to decline. Approved payments are recorded as captured transactions.
func (a *SandboxAdapter) ProcessPayment(ctx context.Context, params payment.Parameters) (payment.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.ErrPaymentFailed("payment gateway call cancelled").Wrap(err)
	}

	txnRef := stringParam(params, paramTxnRef)
	amount, err := decimal.NewFromString(stringParam(params, paramAmount))
	if err != nil || !amount.IsPositive() {
		return nil, apperrors.ErrPaymentFailed(fmt.Sprintf("invalid amount %q", stringParam(params, paramAmount))).
			WithDetail("responseCode", "03")
	}

	if bank := stringParam(params, paramBankCode); contains(a.config.DeclineBanks, bank) {
		return nil, apperrors.ErrPaymentFailed(fmt.Sprintf("bank %s declined the transaction", bank)).
			WithDetail("responseCode", "51").
			WithDetail("txnRef", txnRef)
	}
	if masked := stringParam(params, paramCardMasked); len(masked) >= 4 && contains(a.config.DeclineCards, masked[len(masked)-4:]) {
		return nil, apperrors.ErrPaymentFailed("card declined by issuer").
			WithDetail("responseCode", "05").
			WithDetail("txnRef", txnRef)
	}

	txn := &transaction{
		id:       uuid.New().String(),
		txnRef:   txnRef,
		amount:   amount,
		refunded: decimal.Zero,
		currency: stringParam(params, paramCurrency),
		at:       a.now().UTC(),
	}

	a.mu.Lock()
	a.transactions[txn.id] = txn
	a.mu.Unlock()

	return payment.Response{
		payment.ResponseCode:          responseApproved,
		payment.ResponseMessage:       "Approved",
		payment.ResponseTransactionID: txn.id,
		payment.ResponseAmount:        amount.String(),
		payment.ResponseStatus:        "CAPTURED",
		payment.ResponseRedirectURL:   a.redirectURL(txnRef, txn.id),
	}, nil
}

// PrepareRefundParameters translates a refund request into sandbox parameters
func (a *SandboxAdapter) PrepareRefundParameters(ctx context.Context, order *domain.Order, originalTransactionID string, amount decimal.Decimal, reason string) (payment.Parameters, error) {
	if order == nil {
		return nil, apperrors.ErrRequiredField("order")
	}
	return payment.Parameters{
		paramMerchantID:    a.config.MerchantID,
		paramTxnRef:        order.ID,
		paramTransactionID: originalTransactionID,
		paramAmount:        amount.String(),
		paramCurrency:      order.SettlementCurrency(),
		paramReason:        reason,
	}, nil
}

// ProcessRefund refunds a captured transaction. Unknown transactions are
// NotFound; refunding more than remains captured is a PaymentFailure.
func (a *SandboxAdapter) ProcessRefund(ctx context.Context, params payment.Parameters) (payment.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.ErrPaymentFailed("refund gateway call cancelled").Wrap(err)
	}

	txnID := stringParam(params, paramTransactionID)
	amount, err := decimal.NewFromString(stringParam(params, paramAmount))
	if err != nil || !amount.IsPositive() {
		return nil, apperrors.ErrPaymentFailed(fmt.Sprintf("invalid refund amount %q", stringParam(params, paramAmount)))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	txn, ok := a.transactions[txnID]
	if !ok {
		return nil, apperrors.ErrNotFoundWithID("transaction", txnID)
	}

	remaining := txn.amount.Sub(txn.refunded)
	if amount.GreaterThan(remaining) {
		return nil, apperrors.ErrPaymentFailed(
			fmt.Sprintf("refund %s exceeds remaining captured amount %s", amount, remaining),
		).WithDetail("transactionId", txnID)
	}
	txn.refunded = txn.refunded.Add(amount)

	status := "PARTIALLY_REFUNDED"
	if txn.refunded.Equal(txn.amount) {
		status = "REFUNDED"
	}

	return payment.Response{
		payment.ResponseCode:          responseApproved,
		payment.ResponseMessage:       "Refund accepted",
		payment.ResponseTransactionID: "RF-" + uuid.New().String(),
		payment.ResponseAmount:        amount.String(),
		payment.ResponseStatus:        status,
		"originalTransactionId":       txnID,
	}, nil
}

// Captured returns the captured and refunded amounts of a transaction
func (a *SandboxAdapter) Captured(transactionID string) (captured, refunded decimal.Decimal, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	txn, ok := a.transactions[transactionID]
	if !ok {
		return decimal.Zero, decimal.Zero, false
	}
	return txn.amount, txn.refunded, true
}

// Ping reports gateway readiness
func (a *SandboxAdapter) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (a *SandboxAdapter) redirectURL(txnRef, txnID string) string {
	q := url.Values{}
	q.Set(paramTxnRef, txnRef)
	q.Set(paramTransactionID, txnID)
	if a.config.ReturnURL != "" {
		q.Set(paramReturnURL, a.config.ReturnURL)
	}
	return a.config.PaymentURL + "?" + q.Encode()
}

func stringParam(params payment.Parameters, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func contains(values []string, v string) bool {
	if v == "" {
		return false
	}
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}
