package activities

import (
	"context"
	"time"

	"go.temporal.io/sdk/activity"
	sdktemporal "go.temporal.io/sdk/temporal"

	"github.com/wms-platform/checkout-service/internal/application"
	"github.com/wms-platform/checkout-service/internal/validation"
	apperrors "github.com/wms-platform/checkout-service/pkg/errors"
	"github.com/wms-platform/checkout-service/pkg/metrics"
	"github.com/wms-platform/checkout-service/pkg/temporal"
)

// CheckoutService is the application port the activities drive
type CheckoutService interface {
	QuoteShipping(ctx context.Context, cmd application.QuoteShippingCommand) (*application.ShippingQuoteDTO, error)
	ProcessPayment(ctx context.Context, cmd application.ProcessPaymentCommand) (*application.PaymentResultDTO, error)
	RefundPayment(ctx context.Context, cmd application.RefundPaymentCommand) (*application.PaymentResultDTO, error)
	ValidateOrder(ctx context.Context, cmd application.ValidateOrderCommand) (*validation.DetailedValidationReport, error)
}

// ValidateOrderInput asks for a validation report
type ValidateOrderInput struct {
	Command application.ValidateOrderCommand `json:"command"`
	Detail  bool                             `json:"detail"`
}

// CheckoutActivities exposes the checkout use cases to workflows
type CheckoutActivities struct {
	service CheckoutService
	metrics *metrics.Metrics
}

// NewCheckoutActivities creates a new CheckoutActivities instance. m may be nil.
func NewCheckoutActivities(service CheckoutService, m *metrics.Metrics) *CheckoutActivities {
	return &CheckoutActivities{service: service, metrics: m}
}

// Registry is the part of a Temporal worker activities register on
type Registry interface {
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register registers every activity under its public name
func (a *CheckoutActivities) Register(r Registry) {
	r.RegisterActivityWithOptions(a.QuoteShipping, activity.RegisterOptions{Name: temporal.ActivityNames.QuoteShipping})
	r.RegisterActivityWithOptions(a.ValidateOrder, activity.RegisterOptions{Name: temporal.ActivityNames.ValidateOrder})
	r.RegisterActivityWithOptions(a.ProcessPayment, activity.RegisterOptions{Name: temporal.ActivityNames.ProcessPayment})
	r.RegisterActivityWithOptions(a.RefundPayment, activity.RegisterOptions{Name: temporal.ActivityNames.RefundPayment})
}

// QuoteShipping quotes the delivery fee of an order
func (a *CheckoutActivities) QuoteShipping(ctx context.Context, cmd application.QuoteShippingCommand) (*application.ShippingQuoteDTO, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Quoting shipping", "orderId", cmd.OrderID, "mode", cmd.Mode)

	done := a.track(temporal.ActivityNames.QuoteShipping)
	quote, err := a.service.QuoteShipping(ctx, cmd)
	done(err)
	if err != nil {
		logger.Warn("Shipping quote failed", "orderId", cmd.OrderID, "error", err)
		return nil, toActivityError(err)
	}

	logger.Info("Shipping quoted", "orderId", cmd.OrderID, "fee", quote.TotalFee.String())
	return quote, nil
}

// ValidateOrder returns the validation report of an order. An invalid order
// is a successful activity whose report says so.
func (a *CheckoutActivities) ValidateOrder(ctx context.Context, input ValidateOrderInput) (*validation.ReportView, error) {
	logger := activity.GetLogger(ctx)

	done := a.track(temporal.ActivityNames.ValidateOrder)
	report, err := a.service.ValidateOrder(ctx, input.Command)
	done(err)
	if err != nil {
		return nil, toActivityError(err)
	}

	view := report.View(input.Detail)
	logger.Info("Order validated", "orderId", view.OrderID, "valid", view.Valid, "severity", view.Severity.String())
	return &view, nil
}

// ProcessPayment pays an order. Payments are never retried by Temporal:
// every failure is returned as non-retryable.
func (a *CheckoutActivities) ProcessPayment(ctx context.Context, cmd application.ProcessPaymentCommand) (*application.PaymentResultDTO, error) {
	logger := activity.GetLogger(ctx)
	orderID := ""
	if cmd.Order != nil {
		orderID = cmd.Order.ID
	}
	logger.Info("Processing payment", "orderId", orderID, "paymentMethod", cmd.Method)

	done := a.track(temporal.ActivityNames.ProcessPayment)
	result, err := a.service.ProcessPayment(ctx, cmd)
	done(err)
	if err != nil {
		logger.Error("Payment failed", "orderId", orderID, "error", err)
		return nil, nonRetryable(err)
	}

	logger.Info("Payment processed", "orderId", orderID, "transactionId", result.TransactionID)
	return result, nil
}

// RefundPayment refunds a captured payment; failures are non-retryable
func (a *CheckoutActivities) RefundPayment(ctx context.Context, cmd application.RefundPaymentCommand) (*application.PaymentResultDTO, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Refunding payment", "transactionId", cmd.OriginalTransactionID, "amount", cmd.Amount.String())

	done := a.track(temporal.ActivityNames.RefundPayment)
	result, err := a.service.RefundPayment(ctx, cmd)
	done(err)
	if err != nil {
		logger.Error("Refund failed", "transactionId", cmd.OriginalTransactionID, "error", err)
		return nil, nonRetryable(err)
	}

	return result, nil
}

func (a *CheckoutActivities) track(activityType string) func(error) {
	if a.metrics == nil {
		return func(error) {}
	}
	a.metrics.RecordActivityStarted(activityType)
	start := time.Now()
	return func(err error) {
		a.metrics.RecordActivityCompleted(activityType, err == nil, time.Since(start))
	}
}

// toActivityError keeps caller mistakes and gateway refusals out of the
// retry loop; anything else is left to the activity retry policy.
func toActivityError(err error) error {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		return err
	}
	switch appErr.Code {
	case apperrors.CodeValidationError, apperrors.CodePaymentFailed, apperrors.CodeNotFound:
		return sdktemporal.NewNonRetryableApplicationError(appErr.Message, appErr.Code, err, appErr.Details)
	}
	return err
}

func nonRetryable(err error) error {
	code := apperrors.CodeInternalError
	message := err.Error()
	var details map[string]string
	if appErr, ok := apperrors.AsAppError(err); ok {
		code = appErr.Code
		message = appErr.Message
		details = appErr.Details
	}
	return sdktemporal.NewNonRetryableApplicationError(message, code, err, details)
}
