// Package expiryml encodes inventory items into (category, days, storage)
// features and classifies their freshness with a shallow decision tree.
package expiryml

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/vbonduro/larder/internal/domain"
)

// CodeTable maps enumeration names to the integer codes used as features.
// Lookups are exact after trimming; there is no fallback code.
type CodeTable map[string]int

var (
	DefaultCategories = CodeTable{
		string(domain.CategoryVegetables): 1,
		string(domain.CategoryDairy):      2,
		string(domain.CategoryGrains):     3,
	}
	DefaultStorage = CodeTable{
		string(domain.StorageFridge):  1,
		string(domain.StorageFreezer): 2,
		string(domain.StoragePantry):  3,
	}
)

func (t CodeTable) lookup(name string) (int, bool) {
	code, ok := t[strings.TrimSpace(name)]
	return code, ok
}

// Names returns the table's keys in code order.
func (t CodeTable) Names() []string {
	names := slices.Collect(maps.Keys(t))
	slices.SortFunc(names, func(a, b string) int { return t[a] - t[b] })
	return names
}

// Encoder turns item attributes into a feature row. A model keeps the
// encoder it was trained with, so inference always uses the same tables.
type Encoder struct {
	Categories CodeTable
	Storage    CodeTable
}

// NewEncoder copies the given tables; nil tables fall back to the defaults.
func NewEncoder(categories, storage CodeTable) Encoder {
	if categories == nil {
		categories = DefaultCategories
	}
	if storage == nil {
		storage = DefaultStorage
	}
	return Encoder{Categories: maps.Clone(categories), Storage: maps.Clone(storage)}
}

func (e Encoder) EncodeCategory(name string) (int, error) {
	code, ok := e.Categories.lookup(name)
	if !ok {
		return 0, &domain.UnknownCategoryError{Category: name}
	}
	return code, nil
}

func (e Encoder) EncodeStorage(location string) (int, error) {
	code, ok := e.Storage.lookup(location)
	if !ok {
		return 0, &domain.UnknownStorageError{Storage: location}
	}
	return code, nil
}

// DaysSince counts whole calendar days between the civil dates of acquired
// and asOf, each read in its own location. An acquisition after asOf is
// rejected rather than clamped.
func DaysSince(acquired, asOf time.Time) (int, error) {
	a, b := civilDate(acquired), civilDate(asOf)
	if a.After(b) {
		return 0, &domain.InvalidDateError{Acquired: acquired, AsOf: asOf}
	}
	return max(int(b.Sub(a).Hours()/24), 0), nil
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Row builds the feature vector for item as of asOf.
func (e Encoder) Row(item domain.InventoryItem, asOf time.Time) ([]float64, error) {
	days, err := DaysSince(item.AcquiredOn, asOf)
	if err != nil {
		return nil, err
	}
	return e.row(string(item.Category), days, string(item.Storage))
}

func (e Encoder) row(category string, days int, storage string) ([]float64, error) {
	cat, err := e.EncodeCategory(category)
	if err != nil {
		return nil, err
	}
	st, err := e.EncodeStorage(storage)
	if err != nil {
		return nil, err
	}
	return []float64{float64(cat), float64(days), float64(st)}, nil
}
