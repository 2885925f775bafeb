package domain

import (
	"strings"
	"time"
)

type StorageLocation string

const (
	StorageFridge  StorageLocation = "fridge"
	StorageFreezer StorageLocation = "freezer"
	StoragePantry  StorageLocation = "pantry"
)

type Category string

const (
	CategoryVegetables Category = "Vegetables"
	CategoryDairy      Category = "Dairy"
	CategoryGrains     Category = "Grains"
)

// Freshness is the label produced by the expiry classifier.
type Freshness string

const (
	FreshnessSafe       Freshness = "Safe"
	FreshnessExpireSoon Freshness = "Expire Soon"
	FreshnessExpired    Freshness = "Expired"
)

// Valid reports whether f is one of the three trained labels.
func (f Freshness) Valid() bool {
	switch f {
	case FreshnessSafe, FreshnessExpireSoon, FreshnessExpired:
		return true
	}
	return false
}

type Recipe struct {
	ID          int64
	Name        string
	Ingredients []string
	CreatedAt   time.Time
}

type InventoryItem struct {
	ID         int64
	Name       string
	Quantity   float64
	Unit       string
	Storage    StorageLocation
	Category   Category
	Cost       float64
	AcquiredOn time.Time
	// ExpiresOn is the printed best-before date, when the item has one.
	ExpiresOn *time.Time
	CreatedAt time.Time
}

// ExpiryObservation is one labelled training row for the expiry model.
type ExpiryObservation struct {
	ID        int64
	Category  Category
	DaysSince int
	Storage   StorageLocation
	Status    Freshness
}

// WasteReason says why food was thrown away.
type WasteReason string

const (
	WasteExpired    WasteReason = "expired"
	WasteSpoiled    WasteReason = "spoiled"
	WasteLeftover   WasteReason = "leftover"
	WasteOvercooked WasteReason = "overcooked"
	WasteBurnt      WasteReason = "burnt"
)

// ParseWasteReason accepts a reason in any case.
func ParseWasteReason(s string) (WasteReason, bool) {
	r := WasteReason(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case WasteExpired, WasteSpoiled, WasteLeftover, WasteOvercooked, WasteBurnt:
		return r, true
	}
	return "", false
}

type WasteEntry struct {
	ID          int64
	Name        string
	Quantity    float64
	Unit        string
	Reason      WasteReason
	Cost        float64
	DiscardedOn time.Time
}

// RecipeRecord is a recipe as persisted: the ingredient list is raw,
// comma-delimited text.
type RecipeRecord struct {
	ID              int64
	Name            string
	IngredientsText string
	CreatedAt       time.Time
}
