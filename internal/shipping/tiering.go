package shipping

import (
	"github.com/shopspring/decimal"
)

// Region is the pricing tier a delivery address falls into
type Region string

const (
	RegionInnerCity Region = "inner-city"
	RegionOther     Region = "other"
)

// Tiering is the one place regional weight pricing is computed. Every
// strategy that needs a weight-based fee goes through it.
type Tiering struct {
	schedule FeeSchedule
}

// NewTiering creates a tiering calculator for a schedule
func NewTiering(schedule FeeSchedule) Tiering {
	return Tiering{schedule: schedule}
}

// Classify maps a province/city to its tier
func (t Tiering) Classify(province string) Region {
	if containsAny(province, t.schedule.InnerCityKeywords) {
		return RegionInnerCity
	}
	return RegionOther
}

// Fee prices a chargeable weight for a region: the base fee covers weights up
// to the region threshold, each started increment above it is charged in full.
func (t Tiering) Fee(region Region, weightKg decimal.Decimal) decimal.Decimal {
	if !weightKg.IsPositive() {
		return decimal.Zero
	}

	baseFee, threshold := t.schedule.OtherRegionBaseFee, t.schedule.OtherRegionBaseWeightKg
	if region == RegionInnerCity {
		baseFee, threshold = t.schedule.InnerCityBaseFee, t.schedule.InnerCityBaseWeightKg
	}

	if weightKg.LessThanOrEqual(threshold) {
		return baseFee
	}

	increments := weightKg.Sub(threshold).Div(t.schedule.IncrementWeightKg).Ceil()
	return baseFee.Add(increments.Mul(t.schedule.IncrementFee))
}
