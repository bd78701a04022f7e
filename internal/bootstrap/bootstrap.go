// Package bootstrap assembles the checkout engine from configuration.
package bootstrap

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/checkout-service/internal/application"
	"github.com/wms-platform/checkout-service/internal/config"
	"github.com/wms-platform/checkout-service/internal/infrastructure/gateway"
	"github.com/wms-platform/checkout-service/internal/payment"
	"github.com/wms-platform/checkout-service/internal/shipping"
	"github.com/wms-platform/checkout-service/internal/validation"
	"github.com/wms-platform/checkout-service/pkg/logging"
	"github.com/wms-platform/checkout-service/pkg/metrics"
)

// Engine is the assembled checkout engine
type Engine struct {
	Service *application.CheckoutService
	Fees    *shipping.Registry
	Sandbox *gateway.SandboxAdapter
	Gateway *gateway.ResilientAdapter
}

// Build wires fee strategies, the guarded sandbox gateway and the order
// validator into a CheckoutService. m and tracer may be nil.
func Build(cfg *config.Config, m *metrics.Metrics, tracer trace.Tracer, logger *logging.Logger) *Engine {
	schedule := cfg.FeeSchedule()
	fees := shipping.NewRegistry(schedule)

	sandbox := gateway.NewSandboxAdapter(cfg.SandboxConfig())
	guarded := gateway.NewResilientAdapter(sandbox, cfg.CircuitBreakerConfig(), m, logger.Logger)
	payments := payment.NewGatewayDispatcher(guarded, logger)

	validator := validation.NewValidator(cfg.ValidationRules(), schedule)

	return &Engine{
		Service: application.NewCheckoutService(fees, payments, validator, m, tracer, logger),
		Fees:    fees,
		Sandbox: sandbox,
		Gateway: guarded,
	}
}
