package expiryml

import (
	"cmp"
	"slices"
	"time"

	"github.com/vbonduro/larder/internal/domain"
)

// SoonWindow is how many days before its printed date an item counts as
// Expire Soon. An item due today is Expire Soon; one past its date is Expired.
const SoonWindow = 2

// DateStatus is an item's standing against its printed expiry date. Unlike
// Prediction it involves no model.
type DateStatus struct {
	Item     domain.InventoryItem
	DaysLeft int
	Label    domain.Freshness
}

// CheckDate reports false for an item without an expiry date.
func CheckDate(item domain.InventoryItem, asOf time.Time) (DateStatus, bool) {
	if item.ExpiresOn == nil {
		return DateStatus{}, false
	}
	left := int(civilDate(*item.ExpiresOn).Sub(civilDate(asOf)).Hours() / 24)

	label := domain.FreshnessSafe
	switch {
	case left < 0:
		label = domain.FreshnessExpired
	case left <= SoonWindow:
		label = domain.FreshnessExpireSoon
	}
	return DateStatus{Item: item, DaysLeft: left, Label: label}, true
}

// CheckDates returns the dated items most urgent first. Items without a
// date are skipped.
func CheckDates(items []domain.InventoryItem, asOf time.Time) []DateStatus {
	out := make([]DateStatus, 0, len(items))
	for _, it := range items {
		if st, ok := CheckDate(it, asOf); ok {
			out = append(out, st)
		}
	}
	slices.SortStableFunc(out, func(a, b DateStatus) int { return cmp.Compare(a.DaysLeft, b.DaysLeft) })
	return out
}
