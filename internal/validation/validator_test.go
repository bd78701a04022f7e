package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/checkout-service/internal/domain"
)

type fakeRushZone struct {
	isRushZoneFunc func(province string) bool
}

func (f *fakeRushZone) IsRushZone(province string) bool {
	if f.isRushZoneFunc != nil {
		return f.isRushZoneFunc(province)
	}
	return strings.Contains(strings.ToLower(province), "hanoi")
}

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestValidator() *Validator {
	return NewValidator(DefaultConfig(), &fakeRushZone{}).WithClock(func() time.Time { return fixedNow })
}

func validOrder() *domain.Order {
	lines := []domain.OrderLine{
		{
			ProductID:    "P1",
			Product:      &domain.Product{ID: "P1", Title: "Kettle", WeightKg: 1.2, Dimensions: "30x20x20"},
			Quantity:     2,
			UnitPrice:    decimal.NewFromInt(150000),
			RushEligible: true,
		},
		{
			ProductID: "P2",
			Product:   &domain.Product{ID: "P2", Title: "Mug", WeightKg: 0.3},
			Quantity:  1,
			UnitPrice: decimal.NewFromInt(50000),
		},
	}

	return &domain.Order{
		ID:    "ORD-100",
		Lines: lines,
		Delivery: &domain.DeliveryInfo{
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

func TestValidator_ValidOrder(t *testing.T) {
	fee := decimal.NewFromInt(22000)
	report := newTestValidator().Validate(validOrder(), &fee)

	assert.True(t, report.IsValid())
	assert.Empty(t, report.Issues())
	assert.Equal(t, []string{RecommendReady}, report.GenerateRecommendations())
	assert.Equal(t, []string{SectionDelivery, SectionItems, SectionOrder, SectionPricing}, report.SectionNames())
}

func TestValidator_NilOrder(t *testing.T) {
	report := newTestValidator().Validate(nil, nil)

	assert.False(t, report.IsValid())
	assert.Equal(t, SeverityCritical, report.Severity())
	assert.Equal(t, CodeOrderMissing, report.Issues()[0].Code())
}

func TestValidator_ValidateOrder(t *testing.T) {
	order := &domain.Order{}
	result := newTestValidator().ValidateOrder(order)

	codes := issueCodes(result.Issues())
	assert.ElementsMatch(t, []string{CodeOrderIDMissing, CodeNoLines, CodeDeliveryMissing, CodeCurrencyDefaulted}, codes)
	assert.False(t, result.IsValid())
}

func TestValidator_ValidateItems(t *testing.T) {
	lines := []domain.OrderLine{
		{ProductID: "GONE", Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
		{ProductID: "P1", Product: &domain.Product{WeightKg: 1}, Quantity: 0, UnitPrice: decimal.NewFromInt(10)},
		{ProductID: "P2", Product: &domain.Product{WeightKg: 1}, Quantity: 150, UnitPrice: decimal.NewFromInt(10)},
		{ProductID: "P3", Product: &domain.Product{WeightKg: 0, Dimensions: "10x0x5"}, Quantity: 1, UnitPrice: decimal.Zero},
	}

	result := newTestValidator().ValidateItems(lines)

	assert.Equal(t, 4, result.CheckedLines())
	assert.ElementsMatch(t, []string{
		CodeProductMissing,
		CodeInvalidQuantity,
		CodeQuantityExceedsLimit,
		CodeInvalidUnitPrice,
		CodeMissingWeight,
		CodeInvalidDimensions,
	}, issueCodes(result.Issues()))
	assert.Equal(t, StateInvalid, result.State())
}

func TestValidator_ValidateItems_WarningsOnly(t *testing.T) {
	lines := []domain.OrderLine{
		{ProductID: "P1", Product: &domain.Product{WeightKg: 0}, Quantity: 101, UnitPrice: decimal.NewFromInt(10)},
	}

	result := newTestValidator().ValidateItems(lines)

	assert.True(t, result.IsValid())
	assert.Equal(t, SeverityWarning, result.Severity())
}

func TestValidator_ValidateDelivery(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(d *domain.DeliveryInfo)
		code     string
		severity Severity
	}{
		{"blank recipient", func(d *domain.DeliveryInfo) { d.RecipientName = " " }, CodeRequired, SeverityError},
		{"short phone", func(d *domain.DeliveryInfo) { d.Phone = "12345" }, CodeInvalidPhone, SeverityError},
		{"bad email", func(d *domain.DeliveryInfo) { d.Email = "not-an-email" }, CodeInvalidEmail, SeverityWarning},
		{"blank province", func(d *domain.DeliveryInfo) { d.ProvinceCity = "" }, CodeRequired, SeverityError},
		{"long instructions", func(d *domain.DeliveryInfo) { d.Instructions = strings.Repeat("a", 501) }, CodeInstructionsTooLong, SeverityWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delivery := *validOrder().Delivery
			tt.mutate(&delivery)

			result := newTestValidator().ValidateDelivery(&delivery)
			require.Equal(t, 1, result.IssueCount())
			assert.Equal(t, tt.code, result.Issues()[0].Code())
			assert.Equal(t, tt.severity, result.Severity())
		})
	}

	t.Run("international phone format", func(t *testing.T) {
		delivery := *validOrder().Delivery
		delivery.Phone = "+84912345678"
		assert.False(t, newTestValidator().ValidateDelivery(&delivery).HasIssues())
	})

	t.Run("missing delivery", func(t *testing.T) {
		result := newTestValidator().ValidateDelivery(nil)
		assert.False(t, result.IsValid())
		assert.NotEmpty(t, result.RecoverySuggestions())
	})
}

func TestValidator_ValidatePricing(t *testing.T) {
	v := newTestValidator()

	t.Run("rounding within tolerance", func(t *testing.T) {
		order := validOrder()
		order.TotalAmount = decimal.RequireFromString("407000.01")
		assert.False(t, v.ValidatePricing(order, nil).HasIssues())
	})

	t.Run("subtotal mismatch", func(t *testing.T) {
		order := validOrder()
		order.SubtotalExclVAT = decimal.NewFromInt(340000)
		order.SubtotalInclVAT = decimal.NewFromInt(374000)
		order.TotalAmount = decimal.NewFromInt(396000)

		result := v.ValidatePricing(order, nil)
		assert.Equal(t, []string{CodeSubtotalMismatch}, issueCodes(result.Issues()))
	})

	t.Run("VAT and total mismatch", func(t *testing.T) {
		order := validOrder()
		order.SubtotalInclVAT = decimal.NewFromInt(380000)

		result := v.ValidatePricing(order, nil)
		assert.ElementsMatch(t, []string{CodeVATMismatch, CodeTotalMismatch}, issueCodes(result.Issues()))
	})

	t.Run("stale delivery fee", func(t *testing.T) {
		expected := decimal.NewFromInt(24500)
		result := v.ValidatePricing(validOrder(), &expected)

		require.Equal(t, []string{CodeDeliveryFeeMismatch}, issueCodes(result.Issues()))
		assert.Equal(t, "The delivery fee has changed, please review your order", result.Issues()[0].UserMessage())
	})

	t.Run("negative amount is critical", func(t *testing.T) {
		order := validOrder()
		order.DeliveryFee = decimal.NewFromInt(-1)

		result := v.ValidatePricing(order, nil)
		assert.Equal(t, SeverityCritical, result.Severity())
		assert.Equal(t, StateBlocked, result.State())
	})
}

func TestValidator_ValidateRushDelivery(t *testing.T) {
	v := newTestValidator()
	future := fixedNow.Add(2 * time.Hour)
	past := fixedNow.Add(-time.Minute)

	t.Run("partial eligibility is a warning", func(t *testing.T) {
		order := validOrder()
		order.Delivery.Rush = true
		order.Delivery.RushDeliveryTime = &future

		result := v.ValidateRushDelivery(order)
		assert.True(t, result.IsValid())
		assert.Equal(t, 1, result.EligibleLines())
		assert.Equal(t, []string{CodePartialRush}, issueCodes(result.Issues()))
	})

	t.Run("ineligible zone and no eligible lines", func(t *testing.T) {
		order := validOrder()
		order.Lines[0].RushEligible = false
		order.Delivery.ProvinceCity = "Ho Chi Minh"
		order.Delivery.Rush = true
		order.Delivery.RushDeliveryTime = &past

		result := v.ValidateRushDelivery(order)
		assert.False(t, result.IsValid())
		assert.ElementsMatch(t, []string{CodeRushZoneIneligible, CodeNoRushEligibleLines, CodeRushTimeInPast}, issueCodes(result.Issues()))
		assert.Contains(t, result.RecoverySuggestions(), "Switch to standard delivery")
	})

	t.Run("missing rush time", func(t *testing.T) {
		order := validOrder()
		order.Delivery.Rush = true

		result := v.ValidateRushDelivery(order)
		assert.Contains(t, issueCodes(result.Issues()), CodeRushTimeMissing)
	})

	t.Run("section only added for rush orders", func(t *testing.T) {
		order := validOrder()
		report := v.Validate(order, nil)
		_, ok := report.Section(SectionRushDelivery)
		assert.False(t, ok)

		order.Delivery.Rush = true
		order.Delivery.RushDeliveryTime = &future
		report = v.Validate(order, nil)
		_, ok = report.Section(SectionRushDelivery)
		assert.True(t, ok)
		assert.True(t, report.IsValid())
		assert.Equal(t, SeverityWarning, report.Severity())
	})
}

func issueCodes(issues []Issue) []string {
	codes := make([]string, 0, len(issues))
	for _, issue := range issues {
		codes = append(codes, issue.Code())
	}
	return codes
}
