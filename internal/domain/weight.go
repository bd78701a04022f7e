package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	apperrors "github.com/wms-platform/checkout-service/pkg/errors"
)

// DefaultVolumetricDivisor converts cm³ to dimensional kilograms
const DefaultVolumetricDivisor = 6000

// Dimensions is a parsed "LxWxH" measurement in centimeters
type Dimensions struct {
	LengthCm decimal.Decimal `json:"lengthCm"`
	WidthCm  decimal.Decimal `json:"widthCm"`
	HeightCm decimal.Decimal `json:"heightCm"`
}

var dimensionSeparators = strings.NewReplacer("×", "x", "X", "x", "*", "x")

// ParseDimensions parses "LxWxH" into three positive numbers
func ParseDimensions(raw string) (Dimensions, error) {
	normalized := dimensionSeparators.Replace(strings.TrimSpace(raw))
	if normalized == "" {
		return Dimensions{}, apperrors.ErrValidation("dimensions are required").
			WithDetail("field", "dimensions")
	}

	parts := strings.Split(normalized, "x")
	if len(parts) != 3 {
		return Dimensions{}, invalidDimensions(raw, "expected LxWxH")
	}

	values := make([]decimal.Decimal, 3)
	for i, part := range parts {
		v, err := decimal.NewFromString(strings.TrimSpace(part))
		if err != nil {
			return Dimensions{}, invalidDimensions(raw, fmt.Sprintf("%q is not a number", strings.TrimSpace(part)))
		}
		if !v.IsPositive() {
			return Dimensions{}, invalidDimensions(raw, "every side must be positive")
		}
		values[i] = v
	}

	return Dimensions{LengthCm: values[0], WidthCm: values[1], HeightCm: values[2]}, nil
}

func invalidDimensions(raw, reason string) error {
	return apperrors.ErrValidation(fmt.Sprintf("invalid dimensions %q: %s", raw, reason)).
		WithDetail("field", "dimensions").
		WithDetail("value", raw)
}

// VolumeCm3 returns L × W × H
func (d Dimensions) VolumeCm3() decimal.Decimal {
	return d.LengthCm.Mul(d.WidthCm).Mul(d.HeightCm)
}

// String formats the dimensions back to "LxWxH"
func (d Dimensions) String() string {
	return d.LengthCm.String() + "x" + d.WidthCm.String() + "x" + d.HeightCm.String()
}

// VolumetricWeightKg returns volume / divisor
func VolumetricWeightKg(d Dimensions, divisor decimal.Decimal) decimal.Decimal {
	if !divisor.IsPositive() {
		divisor = decimal.NewFromInt(DefaultVolumetricDivisor)
	}
	return d.VolumeCm3().Div(divisor)
}

// ChargeableWeightKg is the greater of actual and volumetric weight
func ChargeableWeightKg(actual, volumetric decimal.Decimal) decimal.Decimal {
	return decimal.Max(actual, volumetric)
}

// UnitWeightKg returns the product weight of a single unit, zero when unknown
func UnitWeightKg(line OrderLine) decimal.Decimal {
	if line.Product == nil || line.Product.WeightKg <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(line.Product.WeightKg)
}

// ActualWeightKg returns unit weight × quantity for a line
func ActualWeightKg(line OrderLine) decimal.Decimal {
	if line.Quantity <= 0 {
		return decimal.Zero
	}
	return UnitWeightKg(line).Mul(decimal.NewFromInt(int64(line.Quantity)))
}

// TotalActualWeightKg sums the actual weight of every line
func TotalActualWeightKg(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(ActualWeightKg(line))
	}
	return total
}
