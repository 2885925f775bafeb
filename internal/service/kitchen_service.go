package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vbonduro/larder/internal/categorize"
	"github.com/vbonduro/larder/internal/domain"
	"github.com/vbonduro/larder/internal/expiryml"
	"github.com/vbonduro/larder/internal/metrics"
	"github.com/vbonduro/larder/internal/recipeml"
	"github.com/vbonduro/larder/internal/tree"
)

// ErrTrainingTimeout is returned when a model does not finish fitting within
// the configured budget. The fit keeps running and later callers reuse it.
var ErrTrainingTimeout = errors.New("model training exceeded time budget")

// recipeRepository is the subset of store.RecipeStore that KitchenService requires.
type recipeRepository interface {
	Create(ctx context.Context, name, ingredientsText string) (*domain.RecipeRecord, error)
	GetByName(ctx context.Context, name string) (*domain.RecipeRecord, error)
	List(ctx context.Context) ([]domain.RecipeRecord, error)
	Delete(ctx context.Context, name string) error
}

// inventoryRepository is the subset of store.InventoryStore that KitchenService requires.
type inventoryRepository interface {
	Create(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error)
	GetByID(ctx context.Context, id int64) (*domain.InventoryItem, error)
	List(ctx context.Context) ([]domain.InventoryItem, error)
	UpdateQuantity(ctx context.Context, id int64, quantity float64) error
	Delete(ctx context.Context, id int64) error
	Discard(ctx context.Context, id int64, entry domain.WasteEntry) (int64, error)
}

// observationRepository is the subset of store.ObservationStore that KitchenService requires.
type observationRepository interface {
	List(ctx context.Context) ([]domain.ExpiryObservation, error)
}

// wasteRepository is the subset of store.WasteStore that KitchenService requires.
type wasteRepository interface {
	Create(ctx context.Context, e domain.WasteEntry) (int64, error)
	List(ctx context.Context) ([]domain.WasteEntry, error)
	Delete(ctx context.Context, id int64) error
}

type Options struct {
	RecipeParams tree.Params
	ExpiryParams tree.Params
	Encoder      expiryml.Encoder
	// TrainTimeout bounds a single training run; zero means no budget.
	TrainTimeout time.Duration
	Now          func() time.Time
}

// DefaultOptions mirrors the tuning of the shipped models.
func DefaultOptions() Options {
	return Options{
		RecipeParams: recipeml.DefaultParams,
		ExpiryParams: expiryml.DefaultParams,
		Encoder:      expiryml.NewEncoder(nil, nil),
		TrainTimeout: 10 * time.Second,
		Now:          time.Now,
	}
}

// KitchenService is the entry point the presentation layer talks to. It
// loads records through the repositories, keeps the trained models until
// their training data changes, and never touches storage from inside the
// encoders or classifiers.
type KitchenService struct {
	recipes      recipeRepository
	inventory    inventoryRepository
	observations observationRepository
	waste        wasteRepository
	categorizer  categorize.Categorizer
	opts         Options
	logger       *slog.Logger

	// mu guards the cached models; training collapses concurrent fits of
	// the same data into one run.
	mu          sync.Mutex
	recipeModel *recipeml.Model
	expiryModel *expiryml.Model
	expiryKey   string
	training    singleflight.Group
}

func NewKitchenService(
	recipes recipeRepository,
	inventory inventoryRepository,
	observations observationRepository,
	waste wasteRepository,
	categorizer categorize.Categorizer,
	opts Options,
	logger *slog.Logger,
) *KitchenService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Encoder.Categories == nil || opts.Encoder.Storage == nil {
		opts.Encoder = expiryml.NewEncoder(opts.Encoder.Categories, opts.Encoder.Storage)
	}
	return &KitchenService{
		recipes:      recipes,
		inventory:    inventory,
		observations: observations,
		waste:        waste,
		categorizer:  categorizer,
		opts:         opts,
		logger:       logger,
	}
}

// loadCatalog reads the recipe records and parses their ingredient text.
// Records whose text parses to nothing are skipped.
func (s *KitchenService) loadCatalog(ctx context.Context) ([]domain.Recipe, error) {
	records, err := s.recipes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	catalog := make([]domain.Recipe, 0, len(records))
	for _, rec := range records {
		r := toRecipe(rec)
		if len(r.Ingredients) == 0 {
			s.logger.Warn("skipping recipe without ingredients", "recipe", rec.Name)
			continue
		}
		catalog = append(catalog, r)
	}
	return catalog, nil
}

func toRecipe(rec domain.RecipeRecord) domain.Recipe {
	return domain.Recipe{
		ID:          rec.ID,
		Name:        rec.Name,
		Ingredients: recipeml.ParseIngredients(rec.IngredientsText),
		CreatedAt:   rec.CreatedAt,
	}
}

// recipeModelFor returns a model trained on exactly catalog, reusing the
// cached one while the catalog fingerprint is unchanged.
func (s *KitchenService) recipeModelFor(ctx context.Context, catalog []domain.Recipe) (*recipeml.Model, error) {
	fp := recipeml.Fingerprint(catalog)

	s.mu.Lock()
	cached := s.recipeModel
	s.mu.Unlock()
	if cached != nil && cached.Fingerprint() == fp {
		return cached, nil
	}

	return awaitTraining(ctx, &s.training, "recipe:"+fp, s.opts.TrainTimeout, func() (*recipeml.Model, error) {
		start := time.Now()
		model, err := recipeml.Train(catalog, s.opts.RecipeParams)
		if err != nil {
			metrics.RecordTraining(metrics.ModelRecipe, time.Since(start), 0, err)
			return nil, err
		}
		metrics.RecordTraining(metrics.ModelRecipe, time.Since(start), model.TrainingAccuracy(), nil)

		s.logger.Info("recipe model trained",
			"recipes", len(catalog),
			"vocabulary", model.Vocabulary().Len(),
			"accuracy", model.TrainingAccuracy(),
			"fingerprint", fp[:12],
			"duration_ms", time.Since(start).Milliseconds(),
		)
		s.mu.Lock()
		s.recipeModel = model
		s.mu.Unlock()
		return model, nil
	})
}

// expiryModelFor trains on the current observations, reusing the cached model
// while the observation set is unchanged.
func (s *KitchenService) expiryModelFor(ctx context.Context) (*expiryml.Model, error) {
	obs, err := s.observations.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load expiry observations: %w", err)
	}
	key := observationKey(obs)

	s.mu.Lock()
	cached, cachedKey := s.expiryModel, s.expiryKey
	s.mu.Unlock()
	if cached != nil && cachedKey == key {
		return cached, nil
	}

	return awaitTraining(ctx, &s.training, "expiry:"+key, s.opts.TrainTimeout, func() (*expiryml.Model, error) {
		start := time.Now()
		model, err := expiryml.Train(obs, s.opts.Encoder, s.opts.ExpiryParams)
		if err != nil {
			metrics.RecordTraining(metrics.ModelExpiry, time.Since(start), 0, err)
			return nil, err
		}
		metrics.RecordTraining(metrics.ModelExpiry, time.Since(start), model.TrainingAccuracy(), nil)

		s.logger.Info("expiry model trained",
			"observations", len(obs),
			"accuracy", model.TrainingAccuracy(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		s.mu.Lock()
		s.expiryModel = model
		s.expiryKey = key
		s.mu.Unlock()
		return model, nil
	})
}

func observationKey(obs []domain.ExpiryObservation) string {
	var maxID int64
	for _, o := range obs {
		maxID = max(maxID, o.ID)
	}
	return fmt.Sprintf("%d:%d", len(obs), maxID)
}

func (s *KitchenService) invalidateRecipeModel() {
	s.mu.Lock()
	s.recipeModel = nil
	s.mu.Unlock()
}

// awaitTraining runs fn at most once per key at a time. Callers arriving
// while a run for the same key is in flight wait on that run instead of
// starting another. A caller stops waiting once budget elapses or ctx ends;
// the run itself carries on and publishes its model when it completes.
func awaitTraining[T any](ctx context.Context, g *singleflight.Group, key string, budget time.Duration, fn func() (T, error)) (T, error) {
	done := g.DoChan(key, func() (any, error) {
		return fn()
	})

	var timeout <-chan time.Time
	if budget > 0 {
		timer := time.NewTimer(budget)
		defer timer.Stop()
		timeout = timer.C
	}

	var zero T
	select {
	case r := <-done:
		if r.Err != nil {
			return zero, r.Err
		}
		return r.Val.(T), nil
	case <-timeout:
		return zero, ErrTrainingTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
