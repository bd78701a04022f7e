package shipping

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wms-platform/checkout-service/internal/domain"
	apperrors "github.com/wms-platform/checkout-service/pkg/errors"
)

// Mode identifies a delivery pricing policy
type Mode string

const (
	ModeStandard   Mode = "STANDARD"
	ModeVolumetric Mode = "VOLUMETRIC"
	ModeRush       Mode = "RUSH"
)

// IsValid checks if the mode is known
func (m Mode) IsValid() bool {
	switch m {
	case ModeStandard, ModeVolumetric, ModeRush:
		return true
	}
	return false
}

// ParseMode parses a mode name case-insensitively
func ParseMode(raw string) (Mode, error) {
	mode := Mode(strings.ToUpper(strings.TrimSpace(raw)))
	if !mode.IsValid() {
		return "", apperrors.ErrValidation(fmt.Sprintf("unsupported shipping mode %q", raw)).
			WithDetail("field", "mode")
	}
	return mode, nil
}

// Strategy calculates the delivery fee for a set of order lines
type Strategy interface {
	// CalculateFee returns a non-negative fee or a validation failure
	CalculateFee(lines []domain.OrderLine, delivery *domain.DeliveryInfo) (decimal.Decimal, error)

	// Quote returns the fee together with how it was derived
	Quote(lines []domain.OrderLine, delivery *domain.DeliveryInfo) (*Quote, error)

	// Mode returns the pricing policy this strategy implements
	Mode() Mode
}

// Quote is a fee with its derivation
type Quote struct {
	Mode               Mode            `json:"mode"`
	Region             Region          `json:"region"`
	ActualWeightKg     decimal.Decimal `json:"actualWeightKg"`
	ChargeableWeightKg decimal.Decimal `json:"chargeableWeightKg"`
	BaseFee            decimal.Decimal `json:"baseFee"`
	RushSurcharge      decimal.Decimal `json:"rushSurcharge"`
	RushEligibleLines  int             `json:"rushEligibleLines"`
	TotalFee           decimal.Decimal `json:"totalFee"`
	Currency           string          `json:"currency"`
}

func validateInputs(lines []domain.OrderLine, delivery *domain.DeliveryInfo) error {
	if len(lines) == 0 {
		return apperrors.ErrRequiredField("lines")
	}
	if delivery == nil {
		return apperrors.ErrRequiredField("delivery")
	}
	if strings.TrimSpace(delivery.ProvinceCity) == "" {
		return apperrors.ErrRequiredField("provinceCity")
	}
	return nil
}

func feeOf(q *Quote, err error) (decimal.Decimal, error) {
	if err != nil {
		return decimal.Zero, err
	}
	return q.TotalFee, nil
}
