package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the checkout service's collector set
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Temporal activity metrics
	ActivitiesStarted   *prometheus.CounterVec
	ActivitiesCompleted *prometheus.CounterVec
	ActivityDuration    *prometheus.HistogramVec

	// Shipping metrics
	ShippingFeeCalculations *prometheus.CounterVec
	ShippingFeeAmount       *prometheus.HistogramVec

	// Payment metrics
	PaymentOperations        *prometheus.CounterVec
	PaymentOperationDuration *prometheus.HistogramVec

	// Validation metrics
	ValidationReports *prometheus.CounterVec
	ValidationIssues  *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "checkout",
	}
}

type factory struct {
	namespace string
	registry  *prometheus.Registry
}

func (f factory) counter(name, help string, labels ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: f.namespace, Name: name, Help: help}, append([]string{"service"}, labels...))
	f.registry.MustRegister(c)
	return c
}

func (f factory) histogram(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: f.namespace, Name: name, Help: help, Buckets: buckets}, append([]string{"service"}, labels...))
	f.registry.MustRegister(h)
	return h
}

var (
	latencyBuckets     = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	activityBuckets    = []float64{.01, .05, .1, .5, 1, 5, 10, 30}
	gatewayBuckets     = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	shippingFeeBuckets = []float64{0, 22000, 30000, 40000, 60000, 100000, 200000, 500000}
)

// New builds every collector on a private registry that also carries the
// Go runtime and process collectors. Every vector is labelled by service.
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := factory{namespace: config.Namespace, registry: registry}

	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   config.Namespace,
		Name:        "http_requests_in_flight",
		Help:        "HTTP requests currently being served",
		ConstLabels: prometheus.Labels{"service": config.ServiceName},
	})
	breakerState := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"service", "name"})
	registry.MustRegister(inFlight, breakerState)

	return &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,

		HTTPRequestsTotal:    f.counter("http_requests_total", "HTTP requests served", "method", "path", "status"),
		HTTPRequestDuration:  f.histogram("http_request_duration_seconds", "HTTP request latency", latencyBuckets, "method", "path"),
		HTTPRequestsInFlight: inFlight,

		ActivitiesStarted:   f.counter("temporal_activities_started_total", "Checkout activities started", "activity_type"),
		ActivitiesCompleted: f.counter("temporal_activities_completed_total", "Checkout activities finished", "activity_type", "status"),
		ActivityDuration:    f.histogram("temporal_activity_duration_seconds", "Checkout activity latency", activityBuckets, "activity_type"),

		ShippingFeeCalculations: f.counter("shipping_fee_calculations_total", "Shipping fee calculations", "strategy", "status"),
		ShippingFeeAmount:       f.histogram("shipping_fee_amount", "Calculated shipping fee in settlement currency units", shippingFeeBuckets, "strategy"),

		PaymentOperations:        f.counter("payment_operations_total", "Payment gateway calls", "method", "operation", "status"),
		PaymentOperationDuration: f.histogram("payment_operation_duration_seconds", "Payment gateway call latency", gatewayBuckets, "method", "operation"),

		ValidationReports: f.counter("validation_reports_total", "Order validation reports", "severity", "valid"),
		ValidationIssues:  f.counter("validation_issues_total", "Validation issues by section", "section", "severity"),

		CircuitBreakerState: breakerState,
		CircuitBreakerTrips: f.counter("circuit_breaker_trips_total", "Circuit breaker transitions to open", "name"),
	}
}

// Handler serves the registry, OpenMetrics when the scraper asks for it
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

func (m *Metrics) IncrementHTTPRequestsInFlight() { m.HTTPRequestsInFlight.Inc() }
func (m *Metrics) DecrementHTTPRequestsInFlight() { m.HTTPRequestsInFlight.Dec() }

func (m *Metrics) RecordActivityStarted(activityType string) {
	m.ActivitiesStarted.WithLabelValues(m.serviceName, activityType).Inc()
}

// RecordActivityCompleted counts the outcome and observes latency
func (m *Metrics) RecordActivityCompleted(activityType string, success bool, duration time.Duration) {
	m.ActivitiesCompleted.WithLabelValues(m.serviceName, activityType, statusLabel(success)).Inc()
	m.ActivityDuration.WithLabelValues(m.serviceName, activityType).Observe(duration.Seconds())
}

// RecordShippingFee records a fee calculation; fee is only observed on success
func (m *Metrics) RecordShippingFee(strategy string, success bool, fee float64) {
	m.ShippingFeeCalculations.WithLabelValues(m.serviceName, strategy, statusLabel(success)).Inc()
	if success {
		m.ShippingFeeAmount.WithLabelValues(m.serviceName, strategy).Observe(fee)
	}
}

// RecordPaymentOperation records a payment or refund call
func (m *Metrics) RecordPaymentOperation(method, operation string, success bool, duration time.Duration) {
	m.PaymentOperations.WithLabelValues(m.serviceName, method, operation, statusLabel(success)).Inc()
	m.PaymentOperationDuration.WithLabelValues(m.serviceName, method, operation).Observe(duration.Seconds())
}

// RecordValidationReport records a report verdict
func (m *Metrics) RecordValidationReport(severity string, valid bool) {
	m.ValidationReports.WithLabelValues(m.serviceName, severity, strconv.FormatBool(valid)).Inc()
}

// RecordValidationIssues adds issue counts for a section and severity
func (m *Metrics) RecordValidationIssues(section, severity string, count int) {
	if count <= 0 {
		return
	}
	m.ValidationIssues.WithLabelValues(m.serviceName, section, severity).Add(float64(count))
}

// SetCircuitBreakerState sets the circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}
