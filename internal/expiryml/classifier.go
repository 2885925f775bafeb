package expiryml

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/larder/internal/domain"
	"github.com/vbonduro/larder/internal/tree"
)

// DefaultParams is shallower than the recipe tree; there are only three
// features to split on.
var DefaultParams = tree.Params{MaxDepth: 5, MinSamplesSplit: 3, Seed: 42}

// Model is a trained freshness classifier together with the encoder that
// produced its training rows.
type Model struct {
	encoder  Encoder
	tree     *tree.Classifier
	accuracy float64
	rows     int
}

// Prediction pairs an item with its freshness label.
type Prediction struct {
	Item       domain.InventoryItem
	DaysSince  int
	Label      domain.Freshness
	Confidence float64
}

// Train fits a model on labelled observations encoded with enc.
func Train(observations []domain.ExpiryObservation, enc Encoder, params tree.Params) (*Model, error) {
	if len(observations) == 0 {
		return nil, domain.ErrInsufficientData
	}

	X := make([][]float64, 0, len(observations))
	y := make([]string, 0, len(observations))
	for i, o := range observations {
		if !o.Status.Valid() {
			return nil, fmt.Errorf("observation %d: invalid freshness label %q", i, o.Status)
		}
		if o.DaysSince < 0 {
			return nil, fmt.Errorf("observation %d: negative days since acquisition", i)
		}
		row, err := enc.row(string(o.Category), o.DaysSince, string(o.Storage))
		if err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
		X = append(X, row)
		y = append(y, string(o.Status))
	}

	clf, err := tree.Fit(X, y, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fit expiry tree: %w", err)
	}
	acc, err := clf.Accuracy(X, y)
	if err != nil {
		return nil, fmt.Errorf("failed to score expiry tree: %w", err)
	}

	return &Model{encoder: enc, tree: clf, accuracy: acc, rows: len(observations)}, nil
}

func (m *Model) Encoder() Encoder { return m.encoder }

func (m *Model) TrainingAccuracy() float64 { return m.accuracy }

// TrainingRows is the number of observations the model was fitted on.
func (m *Model) TrainingRows() int { return m.rows }

// PredictOne classifies a single item as of asOf.
func (m *Model) PredictOne(item domain.InventoryItem, asOf time.Time) (Prediction, error) {
	days, err := DaysSince(item.AcquiredOn, asOf)
	if err != nil {
		return Prediction{}, err
	}
	row, err := m.encoder.row(string(item.Category), days, string(item.Storage))
	if err != nil {
		return Prediction{}, err
	}
	label, conf, err := m.tree.Predict(row)
	if err != nil {
		var we *tree.WidthError
		if errors.As(err, &we) {
			return Prediction{}, &domain.FeatureMismatchError{Want: we.Want, Got: we.Got}
		}
		return Prediction{}, err
	}
	return Prediction{Item: item, DaysSince: days, Label: domain.Freshness(label), Confidence: conf}, nil
}

// PredictBatch classifies every item concurrently. Results come back in
// input order; any failure fails the whole batch.
func (m *Model) PredictBatch(ctx context.Context, items []domain.InventoryItem, asOf time.Time) ([]Prediction, error) {
	if len(items) == 0 {
		return nil, nil
	}

	keys := make([]uuid.UUID, len(items))
	for i := range items {
		keys[i] = uuid.New()
	}

	var mu sync.Mutex
	results := make(map[uuid.UUID]Prediction, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, item := range items {
		key := keys[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := m.PredictOne(item, asOf)
			if err != nil {
				return fmt.Errorf("item %q: %w", item.Name, err)
			}
			mu.Lock()
			results[key] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Prediction, len(items))
	for i, key := range keys {
		out[i] = results[key]
	}
	return out, nil
}

// Buckets splits predictions by label for safe / use soon / discard views.
type Buckets struct {
	Safe       []Prediction
	ExpireSoon []Prediction
	Expired    []Prediction
}

func (b Buckets) Len() int { return len(b.Safe) + len(b.ExpireSoon) + len(b.Expired) }

// Group partitions predictions by label, keeping their relative order.
func Group(predictions []Prediction) Buckets {
	var b Buckets
	for _, p := range predictions {
		switch p.Label {
		case domain.FreshnessSafe:
			b.Safe = append(b.Safe, p)
		case domain.FreshnessExpireSoon:
			b.ExpireSoon = append(b.ExpireSoon, p)
		case domain.FreshnessExpired:
			b.Expired = append(b.Expired, p)
		}
	}
	return b
}
