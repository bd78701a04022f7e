package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/checkout-service/internal/application"
	"github.com/wms-platform/checkout-service/internal/validation"
	"github.com/wms-platform/checkout-service/pkg/errors"
	"github.com/wms-platform/checkout-service/pkg/logging"
	"github.com/wms-platform/checkout-service/pkg/middleware"
)

// CheckoutService is the application service behind the checkout routes
type CheckoutService interface {
	QuoteShipping(ctx context.Context, cmd application.QuoteShippingCommand) (*application.ShippingQuoteDTO, error)
	ProcessPayment(ctx context.Context, cmd application.ProcessPaymentCommand) (*application.PaymentResultDTO, error)
	RefundPayment(ctx context.Context, cmd application.RefundPaymentCommand) (*application.PaymentResultDTO, error)
	ValidateOrder(ctx context.Context, cmd application.ValidateOrderCommand) (*validation.DetailedValidationReport, error)
}

// CheckoutHandler handles fee, payment and validation requests
type CheckoutHandler struct {
	service CheckoutService
	logger  *logging.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(service CheckoutService, logger *logging.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers checkout routes on the router
func (h *CheckoutHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/shipping/quotes", h.QuoteShipping)

	payments := router.Group("/payments")
	{
		payments.POST("", h.ProcessPayment)
		payments.POST("/refunds", h.RefundPayment)
	}

	router.POST("/orders/validate", h.ValidateOrder)
}

// QuoteShipping handles POST /shipping/quotes
func (h *CheckoutHandler) QuoteShipping(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.QuoteShippingCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]any{
		"order.id":      cmd.OrderID,
		"shipping.mode": cmd.Mode,
	})

	quote, err := h.service.QuoteShipping(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": quote})
}

// ProcessPayment handles POST /payments
func (h *CheckoutHandler) ProcessPayment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.ProcessPaymentCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]any{
		"order.id":       cmd.Order.ID,
		"payment.method": cmd.Method,
	})

	result, err := h.service.ProcessPayment(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// RefundPayment handles POST /payments/refunds
func (h *CheckoutHandler) RefundPayment(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var cmd application.RefundPaymentCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}
	if !cmd.Amount.IsPositive() {
		responder.RespondValidationError("request validation failed", map[string]string{"amount": "must be greater than 0"})
		return
	}

	middleware.AddSpanAttributes(c, map[string]any{
		"payment.transaction_id": cmd.OriginalTransactionID,
	})

	result, err := h.service.RefundPayment(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(responder, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ValidateOrder handles POST /orders/validate. An invalid order is still a
// 200 response; the report carries the verdict. ?detail=true adds raw issues.
func (h *CheckoutHandler) ValidateOrder(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	detail, err := strconv.ParseBool(c.DefaultQuery("detail", "false"))
	if err != nil {
		responder.RespondBadRequest("detail must be a boolean")
		return
	}

	var cmd application.ValidateOrderCommand
	if appErr := middleware.BindAndValidate(c, &cmd); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	report, err := h.service.ValidateOrder(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(responder, err)
		return
	}

	view := report.View(detail)
	middleware.AddSpanAttributes(c, map[string]any{
		"order.id":            view.OrderID,
		"validation.valid":    view.Valid,
		"validation.severity": view.Severity.String(),
	})

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (h *CheckoutHandler) respondError(responder *middleware.ErrorResponder, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		responder.RespondWithAppError(appErr)
		return
	}
	responder.RespondInternalError(err)
}
