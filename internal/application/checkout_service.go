package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/checkout-service/internal/domain"
	"github.com/wms-platform/checkout-service/internal/payment"
	"github.com/wms-platform/checkout-service/internal/shipping"
	"github.com/wms-platform/checkout-service/internal/validation"
	"github.com/wms-platform/checkout-service/pkg/errors"
	"github.com/wms-platform/checkout-service/pkg/logging"
	"github.com/wms-platform/checkout-service/pkg/metrics"
	"github.com/wms-platform/checkout-service/pkg/tracing"
)

// CheckoutService handles the fee, payment and validation use cases
type CheckoutService struct {
	fees      *shipping.Registry
	payments  *payment.Dispatcher
	validator *validation.Validator
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	logger    *logging.Logger
}

// NewCheckoutService creates a new CheckoutService. m and tracer may be nil.
func NewCheckoutService(
	fees *shipping.Registry,
	payments *payment.Dispatcher,
	validator *validation.Validator,
	m *metrics.Metrics,
	tracer trace.Tracer,
	logger *logging.Logger,
) *CheckoutService {
	if tracer == nil {
		tracer = otel.Tracer("checkout-service")
	}
	return &CheckoutService{
		fees:      fees,
		payments:  payments,
		validator: validator,
		metrics:   m,
		tracer:    tracer,
		logger:    logger.WithComponent("checkout-service"),
	}
}

// QuoteShipping prices delivery of the given lines
func (s *CheckoutService) QuoteShipping(ctx context.Context, cmd QuoteShippingCommand) (*ShippingQuoteDTO, error) {
	delivery := ToDomainDelivery(cmd.Delivery)

	mode := shipping.DefaultMode(delivery)
	if cmd.Mode != "" {
		parsed, err := shipping.ParseMode(cmd.Mode)
		if err != nil {
			return nil, err
		}
		mode = parsed
	}

	lines := ToDomainLines(cmd.Lines)
	quote, err := tracing.TracedOperation(ctx, s.tracer, "checkout.QuoteShipping", func(ctx context.Context) (*shipping.Quote, error) {
		return s.fees.Quote(mode, lines, delivery)
	}, tracing.ShippingSpanAttributes(cmd.OrderID, len(lines), string(mode))...)

	if s.metrics != nil {
		fee := 0.0
		if quote != nil {
			fee = quote.TotalFee.InexactFloat64()
		}
		s.metrics.RecordShippingFee(string(mode), err == nil, fee)
	}
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Shipping quote rejected", "orderId", cmd.OrderID, "mode", mode)
		return nil, err
	}

	s.logger.WithContext(ctx).Info("Shipping quoted",
		"orderId", cmd.OrderID,
		"mode", mode,
		"region", quote.Region,
		"chargeableWeightKg", quote.ChargeableWeightKg.String(),
		"fee", quote.TotalFee.String(),
	)
	return ToShippingQuoteDTO(cmd.OrderID, quote), nil
}

// ProcessPayment pays an order through the strategy for its method
func (s *CheckoutService) ProcessPayment(ctx context.Context, cmd ProcessPaymentCommand) (*PaymentResultDTO, error) {
	method, err := payment.ParseMethod(cmd.Method)
	if err != nil {
		return nil, err
	}
	order := ToDomainOrder(cmd.Order)
	if order == nil {
		return nil, errors.ErrRequiredField("order")
	}

	start := time.Now()
	resp, err := tracing.TracedOperation(ctx, s.tracer, "checkout.ProcessPayment", func(ctx context.Context) (payment.Response, error) {
		return s.payments.ProcessPayment(ctx, method, order, cmd.Params)
	}, tracing.PaymentSpanAttributes(order.ID, len(order.Lines), string(method))...)
	s.recordPayment(method, "payment", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	return ToPaymentResultDTO(order.ID, method, resp), nil
}

// RefundPayment refunds part or all of a captured payment
func (s *CheckoutService) RefundPayment(ctx context.Context, cmd RefundPaymentCommand) (*PaymentResultDTO, error) {
	method, err := payment.ParseMethod(cmd.Method)
	if err != nil {
		return nil, err
	}
	order := ToDomainOrder(cmd.Order)
	if order == nil {
		return nil, errors.ErrRequiredField("order")
	}

	start := time.Now()
	resp, err := tracing.TracedOperation(ctx, s.tracer, "checkout.RefundPayment", func(ctx context.Context) (payment.Response, error) {
		return s.payments.ProcessRefund(ctx, method, cmd.OriginalTransactionID, order, cmd.Amount, cmd.Reason)
	}, tracing.PaymentSpanAttributes(order.ID, len(order.Lines), string(method))...)
	s.recordPayment(method, "refund", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	return ToPaymentResultDTO(order.ID, method, resp), nil
}

func (s *CheckoutService) recordPayment(method payment.Method, operation string, err error, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordPaymentOperation(string(method), operation, err == nil, d)
	}
}

// ValidateOrder builds the detailed validation report of an order. Problems
// with the order are findings in the report, never errors.
func (s *CheckoutService) ValidateOrder(ctx context.Context, cmd ValidateOrderCommand) (*validation.DetailedValidationReport, error) {
	order := ToDomainOrder(cmd.Order)
	if order == nil {
		return nil, errors.ErrRequiredField("order")
	}

	ctx, span := s.tracer.Start(ctx, "checkout.ValidateOrder",
		trace.WithAttributes(tracing.OrderSpanAttributes(order.ID, len(order.Lines))...))
	defer span.End()

	expected := cmd.ExpectedFee
	if expected == nil && cmd.ShippingMode != "" {
		expected = s.expectedFee(ctx, order, cmd.ShippingMode)
	}

	report := s.validator.Validate(order, expected)
	verdict := report.Verdict()
	span.SetAttributes(
		attribute.Bool("checkout.validation.valid", verdict.Valid),
		attribute.String("checkout.validation.severity", verdict.Severity.String()),
	)
	tracing.RecordResult(span, nil)

	if s.metrics != nil {
		s.metrics.RecordValidationReport(verdict.Severity.String(), verdict.Valid)
		for name, section := range report.Sections() {
			for sev, count := range validation.CountBySeverity(section.Issues()) {
				s.metrics.RecordValidationIssues(name, sev.String(), count)
			}
		}
	}

	stats := report.Statistics()
	s.logger.WithContext(ctx).Info("Order validated",
		"orderId", order.ID,
		"valid", verdict.Valid,
		"severity", verdict.Severity.String(),
		"issues", stats.TotalIssues,
		"invalidSections", stats.InvalidSections,
	)
	return report, nil
}

// expectedFee quotes the order for the pricing check. A quote that cannot
// be produced leaves the check out; the other sections report the cause.
func (s *CheckoutService) expectedFee(ctx context.Context, order *domain.Order, rawMode string) *decimal.Decimal {
	mode, err := shipping.ParseMode(rawMode)
	if err != nil {
		return nil
	}
	quote, err := s.fees.Quote(mode, order.Lines, order.Delivery)
	if err != nil {
		s.logger.WithContext(ctx).Debug("Expected fee unavailable", "orderId", order.ID, "mode", mode, "error", err)
		return nil
	}
	fee := quote.TotalFee
	return &fee
}
