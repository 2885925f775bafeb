package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/vbonduro/larder/internal/domain"
	"github.com/vbonduro/larder/internal/metrics"
	"github.com/vbonduro/larder/internal/recipeml"
)

// Suggestion is the classifier's best guess. It is not a promise the recipe
// can be cooked; Missing lists what is still needed.
type Suggestion struct {
	Name       string
	Confidence float64
	Missing    []string
}

// SuggestRecipe predicts the single most likely recipe for available. A nil
// available list means "whatever is in stock".
func (s *KitchenService) SuggestRecipe(ctx context.Context, available []string) (*Suggestion, error) {
	available, err := s.resolveAvailable(ctx, available)
	if err != nil {
		return nil, err
	}
	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	model, err := s.recipeModelFor(ctx, catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare recipe model: %w", err)
	}

	sug, err := model.Suggest(available)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest recipe: %w", err)
	}
	metrics.RecordPrediction(metrics.ModelRecipe, "suggested")

	s.logger.Debug("recipe suggested",
		"recipe", sug.Name,
		"confidence", sug.Confidence,
		"missing", len(sug.Missing),
	)
	return &Suggestion{Name: sug.Name, Confidence: sug.Confidence, Missing: sug.Missing}, nil
}

// ListMakeableRecipes returns every recipe whose ingredients are all in
// available. A nil list means "whatever is in stock".
func (s *KitchenService) ListMakeableRecipes(ctx context.Context, available []string) ([]domain.Recipe, error) {
	available, err := s.resolveAvailable(ctx, available)
	if err != nil {
		return nil, err
	}
	catalog, err := s.loadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return recipeml.FindMakeable(recipeml.NewAvailableSet(available), catalog), nil
}

// MissingIngredients reports what recipeName still needs.
func (s *KitchenService) MissingIngredients(ctx context.Context, recipeName string, available []string) ([]string, error) {
	available, err := s.resolveAvailable(ctx, available)
	if err != nil {
		return nil, err
	}
	rec, err := s.recipes.GetByName(ctx, recipeml.NormalizeName(recipeName))
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("recipe %q: %w", recipeName, domain.ErrNotFound)
	}
	return recipeml.MissingFor(toRecipe(*rec), recipeml.NewAvailableSet(available)), nil
}

func (s *KitchenService) resolveAvailable(ctx context.Context, available []string) ([]string, error) {
	if available != nil {
		return available, nil
	}
	items, err := s.inventory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory: %w", err)
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		if it.Quantity > 0 {
			names = append(names, it.Name)
		}
	}
	return names, nil
}

func (s *KitchenService) ListRecipes(ctx context.Context) ([]domain.Recipe, error) {
	return s.loadCatalog(ctx)
}

// AddRecipe stores a recipe under its whitespace-normalised name. The
// cached recipe model is dropped since the vocabulary may have changed.
func (s *KitchenService) AddRecipe(ctx context.Context, name, ingredientsText string) (*domain.Recipe, error) {
	name = recipeml.NormalizeName(name)
	if name == "" {
		return nil, fmt.Errorf("%w: recipe name required", domain.ErrInvalidInput)
	}
	ingredients := recipeml.ParseIngredients(ingredientsText)
	if len(ingredients) == 0 {
		return nil, fmt.Errorf("%w: recipe needs at least one ingredient", domain.ErrInvalidInput)
	}

	existing, err := s.recipes.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: recipe %q already exists", domain.ErrInvalidInput, existing.Name)
	}

	rec, err := s.recipes.Create(ctx, name, strings.Join(ingredients, ","))
	if err != nil {
		return nil, err
	}
	s.invalidateRecipeModel()

	s.logger.Info("recipe added", "recipe", rec.Name, "ingredients", len(ingredients))
	r := toRecipe(*rec)
	return &r, nil
}

func (s *KitchenService) DeleteRecipe(ctx context.Context, name string) error {
	if err := s.recipes.Delete(ctx, recipeml.NormalizeName(name)); err != nil {
		return err
	}
	s.invalidateRecipeModel()
	return nil
}
