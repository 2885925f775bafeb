package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vbonduro/larder/internal/domain"
	"github.com/vbonduro/larder/internal/expiryml"
	"github.com/vbonduro/larder/internal/recipeml"
)

// NewWaste is a manual waste record: food thrown away for a reason other
// than DiscardExpired's, or never tracked in the inventory at all.
type NewWaste struct {
	Name     string  `validate:"required,max=100"`
	Quantity float64 `validate:"gt=0"`
	Unit     string  `validate:"max=32"`
	Reason   string  `validate:"required"`
	Cost     float64 `validate:"gte=0"`
	// DiscardedOn defaults to today.
	DiscardedOn time.Time `validate:"-"`
}

func (s *KitchenService) LogWaste(ctx context.Context, in NewWaste) (*domain.WasteEntry, error) {
	in.Name = recipeml.NormalizeName(in.Name)

	if err := validate.Struct(in); err != nil {
		return nil, validationError(err, "")
	}
	reason, ok := domain.ParseWasteReason(in.Reason)
	if !ok {
		return nil, fmt.Errorf("%w: unknown waste reason %q", domain.ErrInvalidInput, in.Reason)
	}

	now := s.opts.Now()
	on := in.DiscardedOn
	if on.IsZero() {
		on = now
	}
	if _, err := expiryml.DaysSince(on, now); err != nil {
		return nil, err
	}

	entry := domain.WasteEntry{
		Name:        in.Name,
		Quantity:    in.Quantity,
		Unit:        in.Unit,
		Reason:      reason,
		Cost:        in.Cost,
		DiscardedOn: on,
	}
	id, err := s.waste.Create(ctx, entry)
	if err != nil {
		return nil, err
	}
	entry.ID = id

	s.logger.Info("waste logged", "id", id, "name", entry.Name, "reason", reason, "cost", entry.Cost)
	return &entry, nil
}

func (s *KitchenService) DeleteWaste(ctx context.Context, id int64) error {
	return s.waste.Delete(ctx, id)
}

func (s *KitchenService) ListWaste(ctx context.Context) ([]domain.WasteEntry, error) {
	return s.waste.List(ctx)
}
