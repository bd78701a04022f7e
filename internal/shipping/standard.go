package shipping

import (
	"github.com/shopspring/decimal"

	"github.com/wms-platform/checkout-service/internal/domain"
)

// StandardStrategy prices the total actual weight with regional tiering
type StandardStrategy struct {
	tiering  Tiering
	currency string
}

// NewStandardStrategy creates a standard weight-tiered strategy
func NewStandardStrategy(schedule FeeSchedule) *StandardStrategy {
	return &StandardStrategy{tiering: NewTiering(schedule), currency: schedule.Currency}
}

// Mode returns ModeStandard
func (s *StandardStrategy) Mode() Mode {
	return ModeStandard
}

// CalculateFee returns the tiered fee for Σ(weight × quantity)
func (s *StandardStrategy) CalculateFee(lines []domain.OrderLine, delivery *domain.DeliveryInfo) (decimal.Decimal, error) {
	return feeOf(s.Quote(lines, delivery))
}

// Quote returns the standard fee breakdown
func (s *StandardStrategy) Quote(lines []domain.OrderLine, delivery *domain.DeliveryInfo) (*Quote, error) {
	if err := validateInputs(lines, delivery); err != nil {
		return nil, err
	}

	region := s.tiering.Classify(delivery.ProvinceCity)
	weight := domain.TotalActualWeightKg(lines)
	fee := s.tiering.Fee(region, weight)

	return &Quote{
		Mode:               ModeStandard,
		Region:             region,
		ActualWeightKg:     weight,
		ChargeableWeightKg: weight,
		BaseFee:            fee,
		RushSurcharge:      decimal.Zero,
		TotalFee:           fee,
		Currency:           s.currency,
	}, nil
}
