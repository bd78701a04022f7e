package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/checkout-service/internal/application"
	"github.com/wms-platform/checkout-service/internal/shipping"
	"github.com/wms-platform/checkout-service/internal/validation"
	"github.com/wms-platform/checkout-service/pkg/errors"
	"github.com/wms-platform/checkout-service/pkg/logging"
	"github.com/wms-platform/checkout-service/pkg/middleware"
)

type mockCheckoutService struct {
	quoteShippingFn  func(ctx context.Context, cmd application.QuoteShippingCommand) (*application.ShippingQuoteDTO, error)
	processPaymentFn func(ctx context.Context, cmd application.ProcessPaymentCommand) (*application.PaymentResultDTO, error)
	refundPaymentFn  func(ctx context.Context, cmd application.RefundPaymentCommand) (*application.PaymentResultDTO, error)
	validateOrderFn  func(ctx context.Context, cmd application.ValidateOrderCommand) (*validation.DetailedValidationReport, error)
}

func (m *mockCheckoutService) QuoteShipping(ctx context.Context, cmd application.QuoteShippingCommand) (*application.ShippingQuoteDTO, error) {
	if m.quoteShippingFn == nil {
		panic("QuoteShipping not implemented")
	}
	return m.quoteShippingFn(ctx, cmd)
}

func (m *mockCheckoutService) ProcessPayment(ctx context.Context, cmd application.ProcessPaymentCommand) (*application.PaymentResultDTO, error) {
	if m.processPaymentFn == nil {
		panic("ProcessPayment not implemented")
	}
	return m.processPaymentFn(ctx, cmd)
}

func (m *mockCheckoutService) RefundPayment(ctx context.Context, cmd application.RefundPaymentCommand) (*application.PaymentResultDTO, error) {
	if m.refundPaymentFn == nil {
		panic("RefundPayment not implemented")
	}
	return m.refundPaymentFn(ctx, cmd)
}

func (m *mockCheckoutService) ValidateOrder(ctx context.Context, cmd application.ValidateOrderCommand) (*validation.DetailedValidationReport, error) {
	if m.validateOrderFn == nil {
		panic("ValidateOrder not implemented")
	}
	return m.validateOrderFn(ctx, cmd)
}

func setupRouter(svc CheckoutService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.InitValidator()

	router := gin.New()
	router.Use(middleware.RequestID())
	NewCheckoutHandler(svc, logging.Discard()).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func makeRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.APIErrorResponse {
	t.Helper()
	var resp middleware.APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func orderBody() map[string]any {
	return map[string]any{
		"id": "ORD-100",
		"lines": []map[string]any{
			{"productId": "P1", "quantity": 2, "unitPrice": "150000", "rushEligible": true},
		},
		"delivery": map[string]any{
			"recipientName": "Tran Thi B",
			"phone":         "0912345678",
			"provinceCity":  "Hanoi",
			"address":       "12 Hang Bai",
		},
		"totalAmount": "407000",
	}
}

func TestQuoteShipping(t *testing.T) {
	svc := &mockCheckoutService{
		quoteShippingFn: func(ctx context.Context, cmd application.QuoteShippingCommand) (*application.ShippingQuoteDTO, error) {
			assert.Equal(t, "rush", cmd.Mode)
			require.Len(t, cmd.Lines, 1)
			return &application.ShippingQuoteDTO{
				OrderID:  cmd.OrderID,
				Mode:     shipping.ModeRush,
				TotalFee: decimal.NewFromInt(32000),
				Currency: "VND",
			}, nil
		},
	}
	router := setupRouter(svc)

	w := makeRequest(router, http.MethodPost, "/api/v1/shipping/quotes", map[string]any{
		"orderId":  "ORD-100",
		"mode":     "rush",
		"lines":    orderBody()["lines"],
		"delivery": orderBody()["delivery"],
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data application.ShippingQuoteDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ORD-100", resp.Data.OrderID)
	assert.True(t, resp.Data.TotalFee.Equal(decimal.NewFromInt(32000)))
}

func TestQuoteShipping_InvalidRequest(t *testing.T) {
	router := setupRouter(&mockCheckoutService{})

	tests := []struct {
		name  string
		body  any
		field string
	}{
		{"unknown mode", map[string]any{"mode": "drone", "lines": orderBody()["lines"], "delivery": orderBody()["delivery"]}, "mode"},
		{"no lines", map[string]any{"lines": []any{}, "delivery": orderBody()["delivery"]}, "lines"},
		{"no delivery", map[string]any{"lines": orderBody()["lines"]}, "delivery"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := makeRequest(router, http.MethodPost, "/api/v1/shipping/quotes", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			resp := decodeError(t, w)
			assert.Equal(t, errors.CodeValidationError, resp.Code)
			assert.Contains(t, resp.Details, tt.field)
		})
	}

	w := makeRequest(router, http.MethodPost, "/api/v1/shipping/quotes", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessPayment(t *testing.T) {
	svc := &mockCheckoutService{
		processPaymentFn: func(ctx context.Context, cmd application.ProcessPaymentCommand) (*application.PaymentResultDTO, error) {
			return &application.PaymentResultDTO{
				OrderID:       cmd.Order.ID,
				Method:        "CREDIT_CARD",
				TransactionID: "TXN-1",
				ResponseCode:  "00",
			}, nil
		},
	}
	router := setupRouter(svc)

	w := makeRequest(router, http.MethodPost, "/api/v1/payments", map[string]any{
		"paymentMethod": "credit_card",
		"order":         orderBody(),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data application.PaymentResultDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "TXN-1", resp.Data.TransactionID)
	assert.Equal(t, "ORD-100", resp.Data.OrderID)
}

func TestProcessPayment_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]any
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unsupported method",
			body:       map[string]any{"paymentMethod": "bitcoin", "order": orderBody()},
			wantStatus: http.StatusBadRequest,
			wantCode:   errors.CodeValidationError,
		},
		{
			name:       "declined",
			body:       map[string]any{"paymentMethod": "CREDIT_CARD", "order": orderBody()},
			serviceErr: errors.ErrPaymentFailed("card declined by issuer"),
			wantStatus: http.StatusPaymentRequired,
			wantCode:   errors.CodePaymentFailed,
		},
		{
			name:       "gateway unavailable",
			body:       map[string]any{"paymentMethod": "CREDIT_CARD", "order": orderBody()},
			serviceErr: errors.ErrServiceUnavailable("payment gateway"),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   errors.CodeServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCheckoutService{
				processPaymentFn: func(ctx context.Context, cmd application.ProcessPaymentCommand) (*application.PaymentResultDTO, error) {
					return nil, tt.serviceErr
				},
			}
			w := makeRequest(setupRouter(svc), http.MethodPost, "/api/v1/payments", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestRefundPayment(t *testing.T) {
	svc := &mockCheckoutService{
		refundPaymentFn: func(ctx context.Context, cmd application.RefundPaymentCommand) (*application.PaymentResultDTO, error) {
			if cmd.OriginalTransactionID == "missing" {
				return nil, errors.ErrNotFoundWithID("transaction", "missing")
			}
			return &application.PaymentResultDTO{TransactionID: "RF-1", Status: "PARTIALLY_REFUNDED", Amount: cmd.Amount.String()}, nil
		},
	}
	router := setupRouter(svc)

	body := map[string]any{
		"paymentMethod":         "DOMESTIC_DEBIT_CARD",
		"originalTransactionId": "TXN-1",
		"order":                 orderBody(),
		"amount":                "7000",
	}
	w := makeRequest(router, http.MethodPost, "/api/v1/payments/refunds", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "PARTIALLY_REFUNDED")

	body["originalTransactionId"] = "missing"
	w = makeRequest(router, http.MethodPost, "/api/v1/payments/refunds", body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	body["amount"] = "0"
	w = makeRequest(router, http.MethodPost, "/api/v1/payments/refunds", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Details, "amount")
}

func invalidPhoneReport(orderID string) *validation.DetailedValidationReport {
	report := validation.NewDetailedValidationReport(orderID)
	delivery := validation.NewSectionResult("delivery")
	delivery.Add("delivery.phone", "INVALID_PHONE", "phone number is malformed", validation.SeverityError)
	report.AddSection("delivery", delivery)
	report.AddSection("pricing", validation.NewSectionResult("pricing"))
	return report
}

func TestValidateOrder(t *testing.T) {
	svc := &mockCheckoutService{
		validateOrderFn: func(ctx context.Context, cmd application.ValidateOrderCommand) (*validation.DetailedValidationReport, error) {
			return invalidPhoneReport(cmd.Order.ID), nil
		},
	}
	router := setupRouter(svc)

	type response struct {
		Data struct {
			OrderID  string `json:"orderId"`
			Valid    bool   `json:"valid"`
			Severity string `json:"severity"`
			Sections []struct {
				Name   string            `json:"name"`
				Valid  bool              `json:"valid"`
				Issues []json.RawMessage `json:"issues"`
			} `json:"sections"`
		} `json:"data"`
	}

	w := makeRequest(router, http.MethodPost, "/api/v1/orders/validate", map[string]any{"order": orderBody()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ORD-100", resp.Data.OrderID)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, "ERROR", resp.Data.Severity)
	require.Len(t, resp.Data.Sections, 2)
	for _, s := range resp.Data.Sections {
		assert.Empty(t, s.Issues)
	}

	w = makeRequest(router, http.MethodPost, "/api/v1/orders/validate?detail=true", map[string]any{"order": orderBody()})
	require.Equal(t, http.StatusOK, w.Code)
	resp = response{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	issues := 0
	for _, s := range resp.Data.Sections {
		issues += len(s.Issues)
	}
	assert.Equal(t, 1, issues)

	w = makeRequest(router, http.MethodPost, "/api/v1/orders/validate?detail=maybe", map[string]any{"order": orderBody()})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = makeRequest(router, http.MethodPost, "/api/v1/orders/validate", map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Details, "order")
}
