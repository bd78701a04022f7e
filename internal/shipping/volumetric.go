package shipping

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wms-platform/checkout-service/internal/domain"
	apperrors "github.com/wms-platform/checkout-service/pkg/errors"
)

// VolumetricStrategy bills each unit on max(actual, dimensional) weight and
// then applies the same regional tiering as StandardStrategy.
type VolumetricStrategy struct {
	tiering  Tiering
	divisor  decimal.Decimal
	currency string
}

// NewVolumetricStrategy creates a dimensional-weight strategy
func NewVolumetricStrategy(schedule FeeSchedule) *VolumetricStrategy {
	return &VolumetricStrategy{
		tiering:  NewTiering(schedule),
		divisor:  schedule.VolumetricDivisor,
		currency: schedule.Currency,
	}
}

// Mode returns ModeVolumetric
func (s *VolumetricStrategy) Mode() Mode {
	return ModeVolumetric
}

// CalculateFee returns the tiered fee for the summed chargeable weight
func (s *VolumetricStrategy) CalculateFee(lines []domain.OrderLine, delivery *domain.DeliveryInfo) (decimal.Decimal, error) {
	return feeOf(s.Quote(lines, delivery))
}

// Quote returns the volumetric fee breakdown
func (s *VolumetricStrategy) Quote(lines []domain.OrderLine, delivery *domain.DeliveryInfo) (*Quote, error) {
	if err := validateInputs(lines, delivery); err != nil {
		return nil, err
	}

	actualTotal := decimal.Zero
	chargeableTotal := decimal.Zero
	for i, line := range lines {
		chargeable, err := s.lineChargeableWeight(i, line)
		if err != nil {
			return nil, err
		}
		actualTotal = actualTotal.Add(domain.ActualWeightKg(line))
		chargeableTotal = chargeableTotal.Add(chargeable)
	}

	region := s.tiering.Classify(delivery.ProvinceCity)
	fee := s.tiering.Fee(region, chargeableTotal)

	return &Quote{
		Mode:               ModeVolumetric,
		Region:             region,
		ActualWeightKg:     actualTotal,
		ChargeableWeightKg: chargeableTotal,
		BaseFee:            fee,
		RushSurcharge:      decimal.Zero,
		TotalFee:           fee,
		Currency:           s.currency,
	}, nil
}

// lineChargeableWeight returns max(unit actual, unit volumetric) × quantity
func (s *VolumetricStrategy) lineChargeableWeight(index int, line domain.OrderLine) (decimal.Decimal, error) {
	if !line.Product.HasDimensions() {
		return decimal.Zero, apperrors.ErrValidation(
			fmt.Sprintf("line %d (product %q) has no dimensions for volumetric pricing", index, line.ProductID),
		).WithDetail("field", "dimensions").WithDetail("productId", line.ProductID)
	}

	dims, err := domain.ParseDimensions(line.Product.Dimensions)
	if err != nil {
		return decimal.Zero, fmt.Errorf("line %d (product %q): %w", index, line.ProductID, err)
	}

	if line.Quantity <= 0 {
		return decimal.Zero, nil
	}

	perUnit := domain.ChargeableWeightKg(domain.UnitWeightKg(line), domain.VolumetricWeightKg(dims, s.divisor))
	return perUnit.Mul(decimal.NewFromInt(int64(line.Quantity))), nil
}
