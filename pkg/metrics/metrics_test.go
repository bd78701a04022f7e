package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestMetrics_Recorders(t *testing.T) {
	m := New(DefaultConfig("checkout-test"))

	m.RecordShippingFee("STANDARD", true, 24500)
	m.RecordShippingFee("RUSH", false, 0)
	m.RecordPaymentOperation("CREDIT_CARD", "payment", true, 20*time.Millisecond)
	m.RecordValidationReport("WARNING", true)
	m.RecordValidationIssues("items", "WARNING", 2)
	m.RecordValidationIssues("items", "ERROR", 0)
	m.RecordCircuitBreakerTrip("payment-gateway")
	m.SetCircuitBreakerState("payment-gateway", 2)

	body := scrape(t, m)

	assert.Contains(t, body, `checkout_shipping_fee_calculations_total{service="checkout-test",status="success",strategy="STANDARD"} 1`)
	assert.Contains(t, body, `checkout_shipping_fee_calculations_total{service="checkout-test",status="error",strategy="RUSH"} 1`)
	assert.Contains(t, body, `checkout_payment_operations_total{method="CREDIT_CARD",operation="payment",service="checkout-test",status="success"} 1`)
	assert.Contains(t, body, `checkout_validation_reports_total{service="checkout-test",severity="WARNING",valid="true"} 1`)
	assert.Contains(t, body, `checkout_validation_issues_total{section="items",service="checkout-test",severity="WARNING"} 2`)
	assert.NotContains(t, body, `severity="ERROR"`)
	assert.Contains(t, body, `checkout_circuit_breaker_state{name="payment-gateway",service="checkout-test"} 2`)
	assert.Contains(t, body, `checkout_circuit_breaker_trips_total{name="payment-gateway",service="checkout-test"} 1`)
}

func TestMetrics_HTTPRequests(t *testing.T) {
	m := New(DefaultConfig("checkout-test"))
	m.RecordHTTPRequest("POST", "/api/v1/shipping/quotes", 200, 5*time.Millisecond)

	assert.Contains(t, scrape(t, m), "checkout_http_requests_total")
}
