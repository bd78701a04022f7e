package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the settlement currency for orders that do not carry one
const DefaultCurrency = "VND"

// Product is the catalog view the engine needs: weight and packed geometry.
type Product struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	WeightKg float64 `json:"weightKg"`
	// Dimensions is "LxWxH" in centimeters, empty when unknown
	Dimensions string `json:"dimensions,omitempty"`
}

// HasDimensions reports whether the product carries a dimensions string
func (p *Product) HasDimensions() bool {
	return p != nil && strings.TrimSpace(p.Dimensions) != ""
}

// OrderLine is a single product line of an order with its price at order time
type OrderLine struct {
	ProductID    string          `json:"productId"`
	Product      *Product        `json:"product,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	RushEligible bool            `json:"rushEligible"`
}

// LineTotal returns quantity × unit price
func (l OrderLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// DeliveryInfo describes where and how an order is delivered
type DeliveryInfo struct {
	RecipientName    string     `json:"recipientName"`
	Phone            string     `json:"phone"`
	Email            string     `json:"email"`
	ProvinceCity     string     `json:"provinceCity"`
	Address          string     `json:"address"`
	Instructions     string     `json:"instructions,omitempty"`
	Rush             bool       `json:"rush"`
	RushDeliveryTime *time.Time `json:"rushDeliveryTime,omitempty"`
}

// Order is the read-only order snapshot fed into the engine
type Order struct {
	ID              string          `json:"id"`
	Lines           []OrderLine     `json:"lines"`
	Delivery        *DeliveryInfo   `json:"delivery,omitempty"`
	SubtotalExclVAT decimal.Decimal `json:"subtotalExclVat"`
	SubtotalInclVAT decimal.Decimal `json:"subtotalInclVat"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Currency        string          `json:"currency"`
}

// LinesSubtotal returns the sum of all line totals
func (o *Order) LinesSubtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// VATAmount returns price-incl minus price-excl
func (o *Order) VATAmount() decimal.Decimal {
	return o.SubtotalInclVAT.Sub(o.SubtotalExclVAT)
}

// RushEligibleLines counts lines flagged for expedited delivery
func (o *Order) RushEligibleLines() int {
	return CountRushEligible(o.Lines)
}

// SettlementCurrency returns the order currency or the default
func (o *Order) SettlementCurrency() string {
	if o.Currency == "" {
		return DefaultCurrency
	}
	return o.Currency
}

// CountRushEligible counts lines flagged for expedited delivery
func CountRushEligible(lines []OrderLine) int {
	count := 0
	for _, line := range lines {
		if line.RushEligible {
			count++
		}
	}
	return count
}
