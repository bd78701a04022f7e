package shipping

import (
	"fmt"

	"github.com/wms-platform/checkout-service/internal/domain"
	apperrors "github.com/wms-platform/checkout-service/pkg/errors"
)

// Registry is the dispatch table from Mode to Strategy
type Registry struct {
	strategies map[Mode]Strategy
}

// NewRegistry builds the standard, volumetric and rush strategies for a
// schedule. Rush composes the standard strategy.
func NewRegistry(schedule FeeSchedule) *Registry {
	standard := NewStandardStrategy(schedule)
	return NewRegistryWith(
		standard,
		NewVolumetricStrategy(schedule),
		NewRushStrategy(standard, schedule),
	)
}

// NewRegistryWith builds a registry from explicit strategies
func NewRegistryWith(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[Mode]Strategy, len(strategies))}
	for _, s := range strategies {
		r.strategies[s.Mode()] = s
	}
	return r
}

// Strategy returns the strategy registered for mode
func (r *Registry) Strategy(mode Mode) (Strategy, error) {
	s, ok := r.strategies[mode]
	if !ok {
		return nil, apperrors.ErrValidation(fmt.Sprintf("no shipping strategy for mode %q", mode)).
			WithDetail("field", "mode")
	}
	return s, nil
}

// Quote dispatches to the strategy for mode
func (r *Registry) Quote(mode Mode, lines []domain.OrderLine, delivery *domain.DeliveryInfo) (*Quote, error) {
	s, err := r.Strategy(mode)
	if err != nil {
		return nil, err
	}
	return s.Quote(lines, delivery)
}

// DefaultMode picks RUSH when the delivery asks for it, STANDARD otherwise
func DefaultMode(delivery *domain.DeliveryInfo) Mode {
	if delivery != nil && delivery.Rush {
		return ModeRush
	}
	return ModeStandard
}
