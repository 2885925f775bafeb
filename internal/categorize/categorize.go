// Package categorize resolves an ingredient name to its inventory category
// at intake. Resolution never guesses: a name no source recognises is
// reported as an UnknownCategoryError.
package categorize

import (
	"context"
	"errors"
	"strings"

	"github.com/vbonduro/larder/internal/domain"
)

type Categorizer interface {
	Categorize(ctx context.Context, name string) (domain.Category, error)
}

// Table is a case-insensitive lookup from ingredient name to category.
type Table struct {
	entries map[string]domain.Category
}

func NewTable(entries map[string]domain.Category) *Table {
	t := &Table{entries: make(map[string]domain.Category, len(entries))}
	for name, cat := range entries {
		t.entries[key(name)] = cat
	}
	return t
}

// DefaultTable knows the staples a household usually stocks.
func DefaultTable() *Table {
	return NewTable(map[string]domain.Category{
		"Tomato":  domain.CategoryVegetables,
		"Onion":   domain.CategoryVegetables,
		"Garlic":  domain.CategoryVegetables,
		"Lemon":   domain.CategoryVegetables,
		"Potato":  domain.CategoryVegetables,
		"Carrot":  domain.CategoryVegetables,
		"Spinach": domain.CategoryVegetables,
		"Cheese":  domain.CategoryDairy,
		"Milk":    domain.CategoryDairy,
		"Butter":  domain.CategoryDairy,
		"Rice":    domain.CategoryGrains,
		"Bread":   domain.CategoryGrains,
	})
}

func (t *Table) Categorize(_ context.Context, name string) (domain.Category, error) {
	if cat, ok := t.entries[key(name)]; ok {
		return cat, nil
	}
	return "", &domain.UnknownCategoryError{Category: name}
}

func key(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// Chain asks each categorizer in turn and returns the first answer. Only an
// UnknownCategoryError moves on to the next one; other errors stop the chain.
type Chain []Categorizer

func (c Chain) Categorize(ctx context.Context, name string) (domain.Category, error) {
	var unknown *domain.UnknownCategoryError
	for _, next := range c {
		cat, err := next.Categorize(ctx, name)
		if err == nil {
			return cat, nil
		}
		if !errors.As(err, &unknown) {
			return "", err
		}
	}
	return "", &domain.UnknownCategoryError{Category: name}
}

// Match finds answer among allowed, ignoring case and surrounding
// punctuation.
func Match(answer string, allowed []string) (domain.Category, bool) {
	cleaned := strings.Trim(strings.TrimSpace(answer), ".\"'`*")
	for _, a := range allowed {
		if strings.EqualFold(cleaned, a) {
			return domain.Category(a), true
		}
	}
	return "", false
}
