package shipping

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wms-platform/checkout-service/internal/domain"
	apperrors "github.com/wms-platform/checkout-service/pkg/errors"
)

// RushStrategy adds a flat surcharge per rush-eligible line on top of a base
// strategy. The surcharge is counted per line, not per unit of quantity.
type RushStrategy struct {
	base      Strategy
	schedule  FeeSchedule
	surcharge decimal.Decimal
}

// NewRushStrategy wraps base with the rush surcharge policy
func NewRushStrategy(base Strategy, schedule FeeSchedule) *RushStrategy {
	return &RushStrategy{
		base:      base,
		schedule:  schedule,
		surcharge: schedule.RushSurchargePerLine,
	}
}

// Mode returns ModeRush
func (s *RushStrategy) Mode() Mode {
	return ModeRush
}

// CalculateFee returns base fee + surcharge × rush-eligible lines
func (s *RushStrategy) CalculateFee(lines []domain.OrderLine, delivery *domain.DeliveryInfo) (decimal.Decimal, error) {
	return feeOf(s.Quote(lines, delivery))
}

// Quote returns the rush fee breakdown
func (s *RushStrategy) Quote(lines []domain.OrderLine, delivery *domain.DeliveryInfo) (*Quote, error) {
	if err := validateInputs(lines, delivery); err != nil {
		return nil, err
	}

	if !s.schedule.IsRushZone(delivery.ProvinceCity) {
		return nil, apperrors.ErrValidation(
			fmt.Sprintf("rush delivery is not available for %q", delivery.ProvinceCity),
		).WithDetail("field", "provinceCity").WithDetail("reason", "rush_zone_ineligible")
	}

	baseQuote, err := s.base.Quote(lines, delivery)
	if err != nil {
		return nil, err
	}

	eligible := domain.CountRushEligible(lines)
	surcharge := s.surcharge.Mul(decimal.NewFromInt(int64(eligible)))

	return &Quote{
		Mode:               ModeRush,
		Region:             baseQuote.Region,
		ActualWeightKg:     baseQuote.ActualWeightKg,
		ChargeableWeightKg: baseQuote.ChargeableWeightKg,
		BaseFee:            baseQuote.TotalFee,
		RushSurcharge:      surcharge,
		RushEligibleLines:  eligible,
		TotalFee:           baseQuote.TotalFee.Add(surcharge),
		Currency:           baseQuote.Currency,
	}, nil
}
