package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/wms-platform/checkout-service/internal/domain"
)

// Issue codes
const (
	CodeOrderMissing         = "ORDER_MISSING"
	CodeOrderIDMissing       = "ORDER_ID_MISSING"
	CodeNoLines              = "NO_LINES"
	CodeDeliveryMissing      = "DELIVERY_MISSING"
	CodeCurrencyDefaulted    = "CURRENCY_DEFAULTED"
	CodeProductMissing       = "PRODUCT_MISSING"
	CodeInvalidQuantity      = "INVALID_QUANTITY"
	CodeQuantityExceedsLimit = "QUANTITY_EXCEEDS_LIMIT"
	CodeInvalidUnitPrice     = "INVALID_UNIT_PRICE"
	CodeMissingWeight        = "MISSING_WEIGHT"
	CodeInvalidDimensions    = "INVALID_DIMENSIONS"
	CodeRequired             = "REQUIRED"
	CodeInvalidPhone         = "INVALID_PHONE"
	CodeInvalidEmail         = "INVALID_EMAIL"
	CodeInstructionsTooLong  = "INSTRUCTIONS_TOO_LONG"
	CodeNegativeAmount       = "NEGATIVE_AMOUNT"
	CodeSubtotalMismatch     = "SUBTOTAL_MISMATCH"
	CodeVATMismatch          = "VAT_MISMATCH"
	CodeTotalMismatch        = "TOTAL_MISMATCH"
	CodeDeliveryFeeMismatch  = "DELIVERY_FEE_MISMATCH"
	CodeRushZoneIneligible   = "RUSH_ZONE_INELIGIBLE"
	CodeNoRushEligibleLines  = "NO_RUSH_ELIGIBLE_LINES"
	CodePartialRush          = "PARTIAL_RUSH_ELIGIBILITY"
	CodeRushTimeMissing      = "RUSH_TIME_MISSING"
	CodeRushTimeInPast       = "RUSH_TIME_IN_PAST"
)

var phonePattern = regexp.MustCompile(`^(\+84|0)[0-9]{9,10}$`)

// RushZone decides whether a province/city supports rush delivery
type RushZone interface {
	IsRushZone(province string) bool
}

// Config holds the business-rule thresholds
type Config struct {
	VATRate               decimal.Decimal
	Tolerance             decimal.Decimal
	MaxQuantityPerLine    int
	MaxInstructionsLength int
}

// DefaultConfig returns 10% VAT, 0.01 tolerance, 100 units per line and
// 500 characters of delivery instructions.
func DefaultConfig() Config {
	return Config{
		VATRate:               decimal.RequireFromString("0.10"),
		Tolerance:             DefaultTolerance,
		MaxQuantityPerLine:    100,
		MaxInstructionsLength: 500,
	}
}

// Validator runs every section check over an order. Section checks never
// fail; they only record issues.
type Validator struct {
	config   Config
	rushZone RushZone
	validate *validator.Validate
	now      func() time.Time
}

// NewValidator creates a validator
func NewValidator(config Config, rushZone RushZone) *Validator {
	return &Validator{
		config:   config,
		rushZone: rushZone,
		validate: validator.New(),
		now:      time.Now,
	}
}

// WithClock overrides the time source used for rush delivery checks
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate runs all sections. The rush section is only added when the
// delivery asks for rush. expectedFee, when set, is compared with the
// order's delivery fee.
func (v *Validator) Validate(order *domain.Order, expectedFee *decimal.Decimal) *DetailedValidationReport {
	if order == nil {
		report := NewDetailedValidationReport("")
		report.AddSection(SectionOrder, v.ValidateOrder(nil))
		return report
	}

	report := NewDetailedValidationReport(order.ID)
	report.AddSection(SectionOrder, v.ValidateOrder(order))
	report.AddSection(SectionItems, v.ValidateItems(order.Lines))
	report.AddSection(SectionDelivery, v.ValidateDelivery(order.Delivery))
	report.AddSection(SectionPricing, v.ValidatePricing(order, expectedFee))
	if order.Delivery != nil && order.Delivery.Rush {
		report.AddSection(SectionRushDelivery, v.ValidateRushDelivery(order))
	}
	return report
}

// ValidateOrder checks order identity and completeness
func (v *Validator) ValidateOrder(order *domain.Order) *OrderValidationResult {
	if order == nil {
		result := NewOrderValidationResult("")
		result.Add("order", CodeOrderMissing, "order is missing", SeverityCritical,
			WithUserMessage("We could not find your order"))
		result.AddRecoverySuggestion("Reload the cart and start checkout again")
		return result
	}

	result := NewOrderValidationResult(order.ID)
	if strings.TrimSpace(order.ID) == "" {
		result.Add("id", CodeOrderIDMissing, "order id is required", SeverityError)
	}
	if len(order.Lines) == 0 {
		result.Add("lines", CodeNoLines, "order has no lines", SeverityError,
			WithUserMessage("Your cart is empty"),
			WithSuggestions("Add at least one product to the cart"))
	}
	if order.Delivery == nil {
		result.Add("delivery", CodeDeliveryMissing, "delivery information has not been provided", SeverityError,
			WithUserMessage("Please enter your delivery details"))
	}
	if strings.TrimSpace(order.Currency) == "" {
		result.Add("currency", CodeCurrencyDefaulted,
			fmt.Sprintf("currency not set, defaulting to %s", domain.DefaultCurrency), SeverityInfo)
	}
	return result
}

// ValidateItems checks each order line
func (v *Validator) ValidateItems(lines []domain.OrderLine) *OrderItemValidationResult {
	result := NewOrderItemValidationResult()

	for i, line := range lines {
		result.MarkChecked()
		field := fmt.Sprintf("lines[%d]", i)

		if line.Product == nil {
			result.Add(field+".product", CodeProductMissing,
				fmt.Sprintf("product %q is not available", line.ProductID), SeverityError,
				WithSuggestions("Remove unavailable products from the cart"))
		}

		switch {
		case line.Quantity <= 0:
			result.Add(field+".quantity", CodeInvalidQuantity, "quantity must be positive", SeverityError,
				WithValues(line.Quantity, "> 0"))
		case v.config.MaxQuantityPerLine > 0 && line.Quantity > v.config.MaxQuantityPerLine:
			result.Add(field+".quantity", CodeQuantityExceedsLimit,
				fmt.Sprintf("quantity %d exceeds the per-line limit of %d", line.Quantity, v.config.MaxQuantityPerLine),
				SeverityWarning, WithValues(line.Quantity, v.config.MaxQuantityPerLine))
		}

		if !line.UnitPrice.IsPositive() {
			result.Add(field+".unitPrice", CodeInvalidUnitPrice, "unit price must be positive", SeverityError,
				WithValues(line.UnitPrice.String(), "> 0"))
		}

		if line.Product == nil {
			continue
		}
		if line.Product.WeightKg <= 0 {
			result.Add(field+".product.weightKg", CodeMissingWeight,
				fmt.Sprintf("product %q has no weight, shipping fee may be understated", line.ProductID), SeverityWarning)
		}
		if line.Product.HasDimensions() {
			if _, err := domain.ParseDimensions(line.Product.Dimensions); err != nil {
				result.Add(field+".product.dimensions", CodeInvalidDimensions, err.Error(), SeverityWarning,
					WithValues(line.Product.Dimensions, "LxWxH"))
			}
		}
	}

	return result
}

// ValidateDelivery checks recipient and address data
func (v *Validator) ValidateDelivery(delivery *domain.DeliveryInfo) *DeliveryValidationResult {
	result := NewDeliveryValidationResult()
	if delivery == nil {
		result.Add("delivery", CodeDeliveryMissing, "delivery information has not been provided", SeverityError)
		result.AddRecoverySuggestion("Complete the delivery information step")
		return result
	}

	required := []struct {
		field string
		value string
	}{
		{"recipientName", delivery.RecipientName},
		{"phone", delivery.Phone},
		{"provinceCity", delivery.ProvinceCity},
		{"address", delivery.Address},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			result.Add(r.field, CodeRequired, fmt.Sprintf("%s is required", r.field), SeverityError)
		}
	}

	if phone := strings.TrimSpace(delivery.Phone); phone != "" && !phonePattern.MatchString(phone) {
		result.Add("phone", CodeInvalidPhone, "phone number format is invalid", SeverityError,
			WithValues(phone, "0XXXXXXXXX or +84XXXXXXXXX"),
			WithSuggestions("Enter a 10 or 11 digit phone number"))
	}

	if email := strings.TrimSpace(delivery.Email); email != "" {
		if err := v.validate.Var(email, "email"); err != nil {
			result.Add("email", CodeInvalidEmail, "email address format is invalid", SeverityWarning,
				WithValues(email, "name@example.com"))
		}
	}

	if limit := v.config.MaxInstructionsLength; limit > 0 && len([]rune(delivery.Instructions)) > limit {
		result.Add("instructions", CodeInstructionsTooLong,
			fmt.Sprintf("delivery instructions exceed %d characters", limit), SeverityWarning,
			WithSuggestions("Shorten the delivery instructions"))
	}

	return result
}

// ValidatePricing checks that the order totals are internally consistent
func (v *Validator) ValidatePricing(order *domain.Order, expectedFee *decimal.Decimal) *PricingValidationResult {
	result := NewPricingValidationResult(v.config.Tolerance)
	if order == nil {
		return result
	}

	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"subtotalExclVat", order.SubtotalExclVAT},
		{"subtotalInclVat", order.SubtotalInclVAT},
		{"deliveryFee", order.DeliveryFee},
		{"totalAmount", order.TotalAmount},
	}
	negative := false
	for _, a := range amounts {
		if a.value.IsNegative() {
			negative = true
			result.Add(a.field, CodeNegativeAmount, fmt.Sprintf("%s is negative", a.field), SeverityCritical,
				WithValues(a.value.String(), ">= 0"))
		}
	}
	if negative {
		result.AddRecoverySuggestion("Contact support to recalculate the order totals")
	}

	result.CheckAmount("subtotalExclVat", CodeSubtotalMismatch,
		"subtotal does not match the sum of line totals",
		order.SubtotalExclVAT, order.LinesSubtotal(), SeverityError)

	expectedVAT := order.SubtotalExclVAT.Mul(v.config.VATRate)
	result.CheckAmount("subtotalInclVat", CodeVATMismatch,
		fmt.Sprintf("VAT amount does not match the %s%% rate", v.config.VATRate.Shift(2).String()),
		order.VATAmount(), expectedVAT, SeverityError)

	result.CheckAmount("totalAmount", CodeTotalMismatch,
		"total does not equal subtotal including VAT plus delivery fee",
		order.TotalAmount, order.SubtotalInclVAT.Add(order.DeliveryFee), SeverityError)

	if expectedFee != nil {
		result.CheckAmount("deliveryFee", CodeDeliveryFeeMismatch,
			"delivery fee does not match the current shipping quote",
			order.DeliveryFee, *expectedFee, SeverityError,
			WithUserMessage("The delivery fee has changed, please review your order"),
			WithSuggestions("Recalculate the delivery fee"))
	}

	return result
}

// ValidateRushDelivery checks rush eligibility of the order
func (v *Validator) ValidateRushDelivery(order *domain.Order) *RushDeliveryValidationResult {
	result := NewRushDeliveryValidationResult()
	if order == nil || order.Delivery == nil {
		result.Add("delivery", CodeDeliveryMissing, "rush delivery requires delivery information", SeverityError)
		return result
	}

	delivery := order.Delivery
	if v.rushZone != nil && !v.rushZone.IsRushZone(delivery.ProvinceCity) {
		result.Add("provinceCity", CodeRushZoneIneligible,
			fmt.Sprintf("rush delivery is not available for %q", delivery.ProvinceCity), SeverityError,
			WithUserMessage("Rush delivery is not available for your address"))
		result.AddRecoverySuggestion("Switch to standard delivery")
	}

	eligible := order.RushEligibleLines()
	result.SetEligibleLines(eligible)
	switch {
	case eligible == 0:
		result.Add("lines", CodeNoRushEligibleLines, "no product in the order supports rush delivery", SeverityError,
			WithSuggestions("Switch to standard delivery"))
	case eligible < len(order.Lines):
		result.Add("lines", CodePartialRush,
			fmt.Sprintf("only %d of %d lines support rush delivery", eligible, len(order.Lines)), SeverityWarning,
			WithUserMessage("Some products will arrive with standard delivery"))
	}

	switch {
	case delivery.RushDeliveryTime == nil:
		result.Add("rushDeliveryTime", CodeRushTimeMissing, "rush delivery time is required", SeverityError)
	case !delivery.RushDeliveryTime.After(v.now()):
		result.Add("rushDeliveryTime", CodeRushTimeInPast, "rush delivery time must be in the future", SeverityError,
			WithValues(delivery.RushDeliveryTime.Format(time.RFC3339), "future time"))
	}

	return result
}
