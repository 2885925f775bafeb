package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vbonduro/larder/internal/domain"
	"github.com/vbonduro/larder/internal/expiryml"
	"github.com/vbonduro/larder/internal/recipeml"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewItem is an intake request. Category may be left empty to have the
// configured categorizer resolve it from Name; AcquiredOn defaults to today.
// ExpiresOn is the printed date, if any, and may already have passed.
type NewItem struct {
	Name       string     `validate:"required,max=100"`
	Quantity   float64    `validate:"gt=0"`
	Unit       string     `validate:"max=32"`
	Storage    string     `validate:"required"`
	Category   string     `validate:"omitempty,max=64"`
	Cost       float64    `validate:"gte=0"`
	AcquiredOn time.Time  `validate:"-"`
	ExpiresOn  *time.Time `validate:"-"`
}

func (s *KitchenService) AddItem(ctx context.Context, in NewItem) (*domain.InventoryItem, error) {
	in.Name = recipeml.NormalizeName(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	in.Storage = strings.TrimSpace(in.Storage)
	in.Category = strings.TrimSpace(in.Category)

	if err := validate.Struct(in); err != nil {
		return nil, validationError(err, in.Storage)
	}
	if _, err := s.opts.Encoder.EncodeStorage(in.Storage); err != nil {
		return nil, err
	}

	category := domain.Category(in.Category)
	if category == "" {
		if s.categorizer == nil {
			return nil, &domain.UnknownCategoryError{Category: in.Name}
		}
		var err error
		if category, err = s.categorizer.Categorize(ctx, in.Name); err != nil {
			return nil, err
		}
	}
	if _, err := s.opts.Encoder.EncodeCategory(string(category)); err != nil {
		return nil, err
	}

	now := s.opts.Now()
	acquired := in.AcquiredOn
	if acquired.IsZero() {
		acquired = now
	}
	if _, err := expiryml.DaysSince(acquired, now); err != nil {
		return nil, err
	}
	if in.ExpiresOn != nil {
		if _, err := expiryml.DaysSince(acquired, *in.ExpiresOn); err != nil {
			return nil, fmt.Errorf("%w: expiry date before acquisition date", domain.ErrInvalidInput)
		}
	}

	item, err := s.inventory.Create(ctx, domain.InventoryItem{
		Name:       in.Name,
		Quantity:   in.Quantity,
		Unit:       in.Unit,
		Storage:    domain.StorageLocation(in.Storage),
		Category:   category,
		Cost:       in.Cost,
		AcquiredOn: acquired,
		ExpiresOn:  in.ExpiresOn,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("item added",
		"id", item.ID,
		"name", item.Name,
		"category", item.Category,
		"storage", item.Storage,
	)
	return item, nil
}

// validationError maps validator failures onto the domain's input errors.
func validationError(err error, storage string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate input: %w", err)
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Quantity":
		return domain.ErrInvalidQuantity
	case "Storage":
		return &domain.UnknownStorageError{Storage: storage}
	default:
		return fmt.Errorf("%w: %s failed %q", domain.ErrInvalidInput, strings.ToLower(fe.Field()), fe.Tag())
	}
}

// UseItem takes amount off an item. An item used up entirely is removed and
// nil is returned.
func (s *KitchenService) UseItem(ctx context.Context, id int64, amount float64) (*domain.InventoryItem, error) {
	if !(amount > 0) {
		return nil, domain.ErrInvalidQuantity
	}
	item, err := s.inventory.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}

	remaining := item.Quantity - amount
	if remaining <= 1e-9 {
		if err := s.inventory.Delete(ctx, id); err != nil {
			return nil, err
		}
		s.logger.Info("item used up", "id", id, "name", item.Name)
		return nil, nil
	}

	if err := s.inventory.UpdateQuantity(ctx, id, remaining); err != nil {
		return nil, err
	}
	item.Quantity = remaining
	return item, nil
}

func (s *KitchenService) GetItem(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	item, err := s.inventory.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", id, domain.ErrNotFound)
	}
	return item, nil
}

func (s *KitchenService) RemoveItem(ctx context.Context, id int64) error {
	return s.inventory.Delete(ctx, id)
}

func (s *KitchenService) ListItems(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.inventory.List(ctx)
}
