package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wms-platform/checkout-service/internal/shipping"
)

// ProductDTO is the catalog data carried on a line
type ProductDTO struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	WeightKg   float64 `json:"weightKg"`
	Dimensions string  `json:"dimensions,omitempty"`
}

// OrderLineDTO is one order line
type OrderLineDTO struct {
	ProductID    string          `json:"productId"`
	Product      *ProductDTO     `json:"product,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	RushEligible bool            `json:"rushEligible"`
}

// DeliveryDTO is the delivery information of an order
type DeliveryDTO struct {
	RecipientName    string     `json:"recipientName"`
	Phone            string     `json:"phone"`
	Email            string     `json:"email"`
	ProvinceCity     string     `json:"provinceCity"`
	Address          string     `json:"address"`
	Instructions     string     `json:"instructions,omitempty"`
	Rush             bool       `json:"rush"`
	RushDeliveryTime *time.Time `json:"rushDeliveryTime,omitempty"`
}

// OrderDTO is an order snapshot. Its fields are unconstrained
// so malformed orders reach the validator and come back as a report.
type OrderDTO struct {
	ID              string          `json:"id"`
	Lines           []OrderLineDTO  `json:"lines"`
	Delivery        *DeliveryDTO    `json:"delivery,omitempty"`
	SubtotalExclVAT decimal.Decimal `json:"subtotalExclVat"`
	SubtotalInclVAT decimal.Decimal `json:"subtotalInclVat"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Currency        string          `json:"currency,omitempty"`
}

// QuoteShippingCommand asks for a delivery fee. An empty mode picks RUSH
// for rush deliveries and STANDARD otherwise.
type QuoteShippingCommand struct {
	OrderID  string         `json:"orderId" binding:"omitempty,order_id"`
	Mode     string         `json:"mode" binding:"omitempty,shipping_mode"`
	Lines    []OrderLineDTO `json:"lines" binding:"required,min=1,dive"`
	Delivery *DeliveryDTO   `json:"delivery" binding:"required"`
}

// ProcessPaymentCommand pays an order through a payment method
type ProcessPaymentCommand struct {
	Method string            `json:"paymentMethod" binding:"required,payment_method"`
	Order  *OrderDTO         `json:"order" binding:"required"`
	Params map[string]string `json:"params,omitempty"`
}

// RefundPaymentCommand refunds part or all of a captured payment
type RefundPaymentCommand struct {
	Method                string          `json:"paymentMethod" binding:"required,payment_method"`
	OriginalTransactionID string          `json:"originalTransactionId" binding:"required"`
	Order                 *OrderDTO       `json:"order" binding:"required"`
	Amount                decimal.Decimal `json:"amount"`
	Reason                string          `json:"reason,omitempty"`
}

// ValidateOrderCommand validates an order. When ExpectedFee is absent and
// ShippingMode is set, the expected fee is quoted with that mode.
type ValidateOrderCommand struct {
	Order        *OrderDTO        `json:"order" binding:"required"`
	ExpectedFee  *decimal.Decimal `json:"expectedFee,omitempty"`
	ShippingMode string           `json:"shippingMode,omitempty" binding:"omitempty,shipping_mode"`
}

// DTOs

// ShippingQuoteDTO is a quoted delivery fee
type ShippingQuoteDTO struct {
	OrderID            string          `json:"orderId,omitempty"`
	Mode               shipping.Mode   `json:"mode"`
	Region             shipping.Region `json:"region"`
	ActualWeightKg     decimal.Decimal `json:"actualWeightKg"`
	ChargeableWeightKg decimal.Decimal `json:"chargeableWeightKg"`
	BaseFee            decimal.Decimal `json:"baseFee"`
	RushSurcharge      decimal.Decimal `json:"rushSurcharge"`
	RushEligibleLines  int             `json:"rushEligibleLines"`
	TotalFee           decimal.Decimal `json:"totalFee"`
	Currency           string          `json:"currency"`
}

// PaymentResultDTO is the gateway outcome of a payment or refund
type PaymentResultDTO struct {
	OrderID       string            `json:"orderId"`
	Method        string            `json:"paymentMethod"`
	TransactionID string            `json:"transactionId,omitempty"`
	ResponseCode  string            `json:"responseCode,omitempty"`
	Message       string            `json:"message,omitempty"`
	Status        string            `json:"status,omitempty"`
	Amount        string            `json:"amount,omitempty"`
	RedirectURL   string            `json:"redirectUrl,omitempty"`
	Gateway       map[string]string `json:"gateway,omitempty"`
}
