package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vbonduro/larder/internal/domain"
	"github.com/vbonduro/larder/internal/expiryml"
	"github.com/vbonduro/larder/internal/metrics"
	"github.com/vbonduro/larder/internal/recipeml"
)

// ClassifyInventoryExpiry labels every stocked item as of asOf and groups
// them by freshness. One bad item fails the whole request.
func (s *KitchenService) ClassifyInventoryExpiry(ctx context.Context, asOf time.Time) (expiryml.Buckets, error) {
	items, err := s.inventory.List(ctx)
	if err != nil {
		return expiryml.Buckets{}, fmt.Errorf("failed to load inventory: %w", err)
	}
	preds, err := s.classify(ctx, items, asOf)
	if err != nil {
		return expiryml.Buckets{}, err
	}
	return expiryml.Group(preds), nil
}

// ClassifySingleExpiry labels one item that need not be in the inventory.
func (s *KitchenService) ClassifySingleExpiry(ctx context.Context, item domain.InventoryItem, asOf time.Time) (expiryml.Prediction, error) {
	model, err := s.expiryModelFor(ctx)
	if err != nil {
		return expiryml.Prediction{}, fmt.Errorf("failed to prepare expiry model: %w", err)
	}
	pred, err := model.PredictOne(item, asOf)
	if err != nil {
		return expiryml.Prediction{}, err
	}
	metrics.RecordPrediction(metrics.ModelExpiry, string(pred.Label))
	return pred, nil
}

func (s *KitchenService) classify(ctx context.Context, items []domain.InventoryItem, asOf time.Time) ([]expiryml.Prediction, error) {
	model, err := s.expiryModelFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare expiry model: %w", err)
	}
	metrics.RecordBatch(len(items))

	preds, err := model.PredictBatch(ctx, items, asOf)
	if err != nil {
		return nil, err
	}
	for _, p := range preds {
		metrics.RecordPrediction(metrics.ModelExpiry, string(p.Label))
	}
	s.logger.Debug("inventory classified", "items", len(items), "as_of", asOf.Format(time.DateOnly))
	return preds, nil
}

// DiscardExpired removes every item classified Expired as of asOf and logs
// each one to the waste table. Each removal and its waste entry commit
// together; it returns the items discarded before any failure.
func (s *KitchenService) DiscardExpired(ctx context.Context, asOf time.Time) ([]domain.InventoryItem, error) {
	buckets, err := s.ClassifyInventoryExpiry(ctx, asOf)
	if err != nil {
		return nil, err
	}

	discarded := make([]domain.InventoryItem, 0, len(buckets.Expired))
	for _, p := range buckets.Expired {
		if _, err := s.inventory.Discard(ctx, p.Item.ID, domain.WasteEntry{
			Name:        p.Item.Name,
			Quantity:    p.Item.Quantity,
			Unit:        p.Item.Unit,
			Reason:      domain.WasteExpired,
			Cost:        p.Item.Cost,
			DiscardedOn: asOf,
		}); err != nil {
			return discarded, fmt.Errorf("failed to discard %q: %w", p.Item.Name, err)
		}
		discarded = append(discarded, p.Item)
	}

	if len(discarded) > 0 {
		s.logger.Info("expired items discarded", "count", len(discarded))
	}
	return discarded, nil
}

// ExpiryByDate checks every item carrying a printed expiry date against
// asOf, most urgent first. Items without a date are left to the classifier.
func (s *KitchenService) ExpiryByDate(ctx context.Context, asOf time.Time) ([]expiryml.DateStatus, error) {
	items, err := s.inventory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	return expiryml.CheckDates(items, asOf), nil
}

// ItemExpiry reports every stocked item called name. A dated item is judged
// by its date; an undated one is classified by the expiry model.
func (s *KitchenService) ItemExpiry(ctx context.Context, name string, asOf time.Time) ([]ItemStatus, error) {
	items, err := s.inventory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}

	want := recipeml.NormalizeName(name)
	var out []ItemStatus
	for _, it := range items {
		if !strings.EqualFold(it.Name, want) {
			continue
		}
		if st, ok := expiryml.CheckDate(it, asOf); ok {
			out = append(out, ItemStatus{Item: it, Label: st.Label, DaysLeft: &st.DaysLeft, Source: StatusFromDate})
			continue
		}
		pred, err := s.ClassifySingleExpiry(ctx, it, asOf)
		if err != nil {
			return nil, err
		}
		out = append(out, ItemStatus{Item: it, Label: pred.Label, Confidence: pred.Confidence, Source: StatusFromModel})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("item %q: %w", name, domain.ErrNotFound)
	}
	return out, nil
}

const (
	StatusFromDate  = "date"
	StatusFromModel = "model"
)

// ItemStatus is one item's freshness, from whichever source could judge it.
type ItemStatus struct {
	Item       domain.InventoryItem
	Label      domain.Freshness
	Confidence float64
	DaysLeft   *int
	Source     string
}
