package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/checkout-service/internal/domain"
	"github.com/wms-platform/checkout-service/internal/payment"
	"github.com/wms-platform/checkout-service/internal/shipping"
	"github.com/wms-platform/checkout-service/internal/validation"
	apperrors "github.com/wms-platform/checkout-service/pkg/errors"
	"github.com/wms-platform/checkout-service/pkg/logging"
	"github.com/wms-platform/checkout-service/pkg/metrics"
)

type fakeGateway struct {
	processPaymentFn func(context.Context, payment.Parameters) (payment.Response, error)
	processRefundFn  func(context.Context, payment.Parameters) (payment.Response, error)
}

func (f *fakeGateway) Name() string { return "fake" }

func (f *fakeGateway) PreparePaymentParameters(ctx context.Context, order *domain.Order, method payment.Method, card *payment.CardDetails) (payment.Parameters, error) {
	return payment.Parameters{"txnRef": order.ID, "amount": order.TotalAmount.String()}, nil
}

func (f *fakeGateway) ProcessPayment(ctx context.Context, params payment.Parameters) (payment.Response, error) {
	if f.processPaymentFn != nil {
		return f.processPaymentFn(ctx, params)
	}
	return payment.Response{
		payment.ResponseCode:          "00",
		payment.ResponseMessage:       "Approved",
		payment.ResponseTransactionID: "TXN-1",
		payment.ResponseStatus:        "CAPTURED",
	}, nil
}

func (f *fakeGateway) PrepareRefundParameters(ctx context.Context, order *domain.Order, originalTransactionID string, amount decimal.Decimal, reason string) (payment.Parameters, error) {
	return payment.Parameters{"transactionId": originalTransactionID, "amount": amount.String()}, nil
}

func (f *fakeGateway) ProcessRefund(ctx context.Context, params payment.Parameters) (payment.Response, error) {
	if f.processRefundFn != nil {
		return f.processRefundFn(ctx, params)
	}
	return payment.Response{payment.ResponseCode: "00", payment.ResponseStatus: "REFUNDED"}, nil
}

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testLogger() *logging.Logger {
	return logging.Discard()
}

func newService(gw payment.GatewayAdapter, m *metrics.Metrics, tp *sdktrace.TracerProvider) *CheckoutService {
	schedule := shipping.DefaultFeeSchedule()
	validator := validation.NewValidator(validation.DefaultConfig(), schedule).
		WithClock(func() time.Time { return fixedNow })

	var tracer trace.Tracer
	if tp != nil {
		tracer = tp.Tracer("test")
	}
	return NewCheckoutService(shipping.NewRegistry(schedule), payment.NewGatewayDispatcher(gw, testLogger()), validator, m, tracer, testLogger())
}

func orderDTO() *OrderDTO {
	return &OrderDTO{
		ID: "ORD-100",
		Lines: []OrderLineDTO{
			{
				ProductID:    "P1",
				Product:      &ProductDTO{ID: "P1", Title: "Kettle", WeightKg: 1.2, Dimensions: "30x20x20"},
				Quantity:     2,
				UnitPrice:    decimal.NewFromInt(150000),
				RushEligible: true,
			},
			{
				Product:   &ProductDTO{ID: "P2", Title: "Mug", WeightKg: 0.3},
				Quantity:  1,
				UnitPrice: decimal.NewFromInt(50000),
			},
		},
		Delivery: &DeliveryDTO{
			RecipientName: "Tran Thi B",
			Phone:         "0912345678",
			Email:         "b@example.com",
			ProvinceCity:  "Hanoi",
			Address:       "12 Hang Bai",
		},
		SubtotalExclVAT: decimal.NewFromInt(350000),
		SubtotalInclVAT: decimal.NewFromInt(385000),
		DeliveryFee:     decimal.NewFromInt(22000),
		TotalAmount:     decimal.NewFromInt(407000),
		Currency:        "VND",
	}
}

func TestToDomainOrder(t *testing.T) {
	order := ToDomainOrder(orderDTO())
	require.NotNil(t, order)
	assert.Equal(t, "P2", order.Lines[1].ProductID, "product id falls back to the nested product")
	assert.Equal(t, 1, order.RushEligibleLines())
	assert.True(t, order.LinesSubtotal().Equal(decimal.NewFromInt(350000)))
	assert.Nil(t, ToDomainOrder(nil))
	assert.Nil(t, ToDomainDelivery(nil))
}

func TestCheckoutService_QuoteShipping(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("checkout-test"))
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	svc := newService(&fakeGateway{}, m, tp)
	dto := orderDTO()

	t.Run("default mode is standard", func(t *testing.T) {
		quote, err := svc.QuoteShipping(context.Background(), QuoteShippingCommand{OrderID: "ORD-100", Lines: dto.Lines, Delivery: dto.Delivery})
		require.NoError(t, err)
		assert.Equal(t, shipping.ModeStandard, quote.Mode)
		assert.Equal(t, shipping.RegionInnerCity, quote.Region)
		assert.True(t, quote.TotalFee.Equal(decimal.NewFromInt(22000)), quote.TotalFee.String())
	})

	t.Run("rush delivery defaults to rush mode", func(t *testing.T) {
		delivery := *dto.Delivery
		delivery.Rush = true
		quote, err := svc.QuoteShipping(context.Background(), QuoteShippingCommand{Lines: dto.Lines, Delivery: &delivery})
		require.NoError(t, err)
		assert.Equal(t, shipping.ModeRush, quote.Mode)
		assert.Equal(t, 1, quote.RushEligibleLines)
		assert.True(t, quote.TotalFee.Equal(decimal.NewFromInt(32000)), quote.TotalFee.String())
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := svc.QuoteShipping(context.Background(), QuoteShippingCommand{Mode: "teleport", Lines: dto.Lines, Delivery: dto.Delivery})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("missing province", func(t *testing.T) {
		_, err := svc.QuoteShipping(context.Background(), QuoteShippingCommand{Mode: "volumetric", Lines: dto.Lines, Delivery: &DeliveryDTO{}})
		assert.True(t, apperrors.IsValidation(err))
	})

	spans := recorder.Ended()
	require.Len(t, spans, 3, "mode parse failures never start a span")
	assert.Equal(t, "checkout.QuoteShipping", spans[0].Name())
}

func TestCheckoutService_ProcessPayment(t *testing.T) {
	t.Run("approved", func(t *testing.T) {
		svc := newService(&fakeGateway{}, nil, nil)
		result, err := svc.ProcessPayment(context.Background(), ProcessPaymentCommand{
			Method: "credit_card",
			Order:  orderDTO(),
		})
		require.NoError(t, err)
		assert.Equal(t, "ORD-100", result.OrderID)
		assert.Equal(t, "CREDIT_CARD", result.Method)
		assert.Equal(t, "TXN-1", result.TransactionID)
		assert.Equal(t, "00", result.ResponseCode)
		assert.Equal(t, "Approved", result.Gateway[payment.ResponseMessage])
	})

	t.Run("domestic card requires bank code", func(t *testing.T) {
		svc := newService(&fakeGateway{}, nil, nil)
		_, err := svc.ProcessPayment(context.Background(), ProcessPaymentCommand{
			Method: "DOMESTIC_DEBIT_CARD",
			Order:  orderDTO(),
		})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("gateway failure", func(t *testing.T) {
		svc := newService(&fakeGateway{
			processPaymentFn: func(context.Context, payment.Parameters) (payment.Response, error) {
				return nil, apperrors.ErrPaymentFailed("card declined by issuer")
			},
		}, nil, nil)
		_, err := svc.ProcessPayment(context.Background(), ProcessPaymentCommand{Method: "CREDIT_CARD", Order: orderDTO()})
		assert.True(t, apperrors.IsPaymentFailure(err))
	})

	t.Run("unsupported method", func(t *testing.T) {
		svc := newService(&fakeGateway{}, nil, nil)
		_, err := svc.ProcessPayment(context.Background(), ProcessPaymentCommand{Method: "CASH", Order: orderDTO()})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("missing order", func(t *testing.T) {
		svc := newService(&fakeGateway{}, nil, nil)
		_, err := svc.ProcessPayment(context.Background(), ProcessPaymentCommand{Method: "CREDIT_CARD"})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestCheckoutService_RefundPayment(t *testing.T) {
	svc := newService(&fakeGateway{}, nil, nil)

	result, err := svc.RefundPayment(context.Background(), RefundPaymentCommand{
		Method:                "CREDIT_CARD",
		OriginalTransactionID: "TXN-1",
		Order:                 orderDTO(),
		Amount:                decimal.NewFromInt(407000),
		Reason:                "customer return",
	})
	require.NoError(t, err)
	assert.Equal(t, "REFUNDED", result.Status)

	_, err = svc.RefundPayment(context.Background(), RefundPaymentCommand{
		Method:                "CREDIT_CARD",
		OriginalTransactionID: "TXN-1",
		Order:                 orderDTO(),
		Amount:                decimal.NewFromInt(500000),
	})
	assert.True(t, apperrors.IsValidation(err), "refund above the order total")

	notFound := newService(&fakeGateway{
		processRefundFn: func(context.Context, payment.Parameters) (payment.Response, error) {
			return nil, apperrors.ErrNotFoundWithID("transaction", "TXN-X")
		},
	}, nil, nil)
	_, err = notFound.RefundPayment(context.Background(), RefundPaymentCommand{
		Method:                "CREDIT_CARD",
		OriginalTransactionID: "TXN-X",
		Order:                 orderDTO(),
		Amount:                decimal.NewFromInt(1000),
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCheckoutService_ValidateOrder(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("checkout-test"))
	svc := newService(&fakeGateway{}, m, nil)

	t.Run("valid order with quoted fee", func(t *testing.T) {
		report, err := svc.ValidateOrder(context.Background(), ValidateOrderCommand{Order: orderDTO(), ShippingMode: "STANDARD"})
		require.NoError(t, err)
		assert.True(t, report.IsValid(), report.Summary())
		assert.Equal(t, []string{validation.RecommendReady}, report.GenerateRecommendations())
	})

	t.Run("delivery fee disagrees with the quote", func(t *testing.T) {
		dto := orderDTO()
		dto.DeliveryFee = decimal.NewFromInt(30000)
		dto.TotalAmount = decimal.NewFromInt(415000)

		report, err := svc.ValidateOrder(context.Background(), ValidateOrderCommand{Order: dto, ShippingMode: "standard"})
		require.NoError(t, err)
		assert.False(t, report.IsValid())
		pricing, ok := report.Section(validation.SectionPricing)
		require.True(t, ok)
		assert.False(t, pricing.Verdict().Valid)
	})

	t.Run("explicit expected fee wins", func(t *testing.T) {
		fee := decimal.NewFromInt(22000)
		report, err := svc.ValidateOrder(context.Background(), ValidateOrderCommand{Order: orderDTO(), ExpectedFee: &fee, ShippingMode: "VOLUMETRIC"})
		require.NoError(t, err)
		assert.True(t, report.IsValid())
	})

	t.Run("broken order is a report, not an error", func(t *testing.T) {
		report, err := svc.ValidateOrder(context.Background(), ValidateOrderCommand{Order: &OrderDTO{}})
		require.NoError(t, err)
		assert.False(t, report.IsValid())
		assert.NotEmpty(t, report.Issues())
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := svc.ValidateOrder(context.Background(), ValidateOrderCommand{})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestCheckoutService_MetricsRecorded(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("checkout-test"))
	svc := newService(&fakeGateway{
		processPaymentFn: func(context.Context, payment.Parameters) (payment.Response, error) {
			return nil, errors.New("connection reset")
		},
	}, m, nil)

	_, err := svc.ProcessPayment(context.Background(), ProcessPaymentCommand{Method: "CREDIT_CARD", Order: orderDTO()})
	require.Error(t, err)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	found := false
	for _, f := range families {
		if f.GetName() == "checkout_payment_operations_total" {
			for _, metric := range f.GetMetric() {
				for _, label := range metric.GetLabel() {
					if label.GetName() == "status" && label.GetValue() == "error" {
						found = true
					}
				}
			}
		}
	}
	assert.True(t, found)
}
