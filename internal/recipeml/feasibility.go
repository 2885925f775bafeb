package recipeml

import (
	"slices"

	"github.com/vbonduro/larder/internal/domain"
)

// AvailableSet holds normalised ingredient names on hand.
type AvailableSet map[string]struct{}

func NewAvailableSet(names []string) AvailableSet {
	set := make(AvailableSet, len(names))
	for _, n := range names {
		if n = NormalizeName(n); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func (s AvailableSet) Has(name string) bool {
	_, ok := s[NormalizeName(name)]
	return ok
}

// FindMakeable returns, in catalog order, every recipe whose ingredients are
// all present in available. Matching is exact.
func FindMakeable(available AvailableSet, recipes []domain.Recipe) []domain.Recipe {
	var out []domain.Recipe
	for _, r := range recipes {
		if len(r.Ingredients) > 0 && len(MissingFor(r, available)) == 0 {
			out = append(out, r)
		}
	}
	return out
}

// MissingFor lists the recipe's ingredients absent from available, sorted.
func MissingFor(recipe domain.Recipe, available AvailableSet) []string {
	var missing []string
	for _, ing := range recipe.Ingredients {
		name := NormalizeName(ing)
		if name == "" || available.Has(name) || slices.Contains(missing, name) {
			continue
		}
		missing = append(missing, name)
	}
	slices.Sort(missing)
	return missing
}
