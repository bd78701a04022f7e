package shipping

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// FeeSchedule holds the regional pricing table and surcharges.
// All money amounts are in Currency; weights are kilograms.
type FeeSchedule struct {
	Currency string

	InnerCityBaseFee        decimal.Decimal
	InnerCityBaseWeightKg   decimal.Decimal
	OtherRegionBaseFee      decimal.Decimal
	OtherRegionBaseWeightKg decimal.Decimal
	IncrementWeightKg       decimal.Decimal
	IncrementFee            decimal.Decimal

	InnerCityKeywords []string
	RushZoneKeywords  []string

	RushSurchargePerLine decimal.Decimal
	VolumetricDivisor    decimal.Decimal
}

// DefaultFeeSchedule returns the domestic VND schedule
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		Currency:                "VND",
		InnerCityBaseFee:        decimal.NewFromInt(22000),
		InnerCityBaseWeightKg:   decimal.NewFromInt(3),
		OtherRegionBaseFee:      decimal.NewFromInt(30000),
		OtherRegionBaseWeightKg: decimal.RequireFromString("0.5"),
		IncrementWeightKg:       decimal.RequireFromString("0.5"),
		IncrementFee:            decimal.NewFromInt(2500),
		InnerCityKeywords:       []string{"hanoi", "ho chi minh"},
		RushZoneKeywords:        []string{"hanoi"},
		RushSurchargePerLine:    decimal.NewFromInt(10000),
		VolumetricDivisor:       decimal.NewFromInt(6000),
	}
}

// Validate checks the schedule is usable for pricing
func (s FeeSchedule) Validate() error {
	var errs []error

	if s.InnerCityBaseFee.IsNegative() || s.OtherRegionBaseFee.IsNegative() {
		errs = append(errs, errors.New("base fees must not be negative"))
	}
	if s.IncrementFee.IsNegative() || s.RushSurchargePerLine.IsNegative() {
		errs = append(errs, errors.New("increment fee and rush surcharge must not be negative"))
	}
	if s.InnerCityBaseWeightKg.IsNegative() || s.OtherRegionBaseWeightKg.IsNegative() {
		errs = append(errs, errors.New("base weight thresholds must not be negative"))
	}
	if !s.IncrementWeightKg.IsPositive() {
		errs = append(errs, errors.New("increment weight must be positive"))
	}
	if !s.VolumetricDivisor.IsPositive() {
		errs = append(errs, errors.New("volumetric divisor must be positive"))
	}
	if len(s.RushZoneKeywords) == 0 {
		errs = append(errs, errors.New("at least one rush zone keyword is required"))
	}

	return errors.Join(errs...)
}

func containsAny(province string, keywords []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(province))
	for _, keyword := range keywords {
		k := strings.ToLower(strings.TrimSpace(keyword))
		if k != "" && strings.Contains(normalized, k) {
			return true
		}
	}
	return false
}

// IsRushZone reports whether the province/city is eligible for rush delivery.
// This is a substring match on the configured keywords, not a district list.
func (s FeeSchedule) IsRushZone(province string) bool {
	return containsAny(province, s.RushZoneKeywords)
}
