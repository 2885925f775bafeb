package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/singleflight"

	"github.com/vbonduro/larder/internal/categorize"
	"github.com/vbonduro/larder/internal/db"
	"github.com/vbonduro/larder/internal/domain"
	"github.com/vbonduro/larder/internal/expiryml"
	"github.com/vbonduro/larder/internal/store"
)

var today = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// stubObservations serves a fixed, age-only training set and counts reads.
type stubObservations struct {
	obs   []domain.ExpiryObservation
	err   error
	reads atomic.Int32
}

func (s *stubObservations) List(_ context.Context) ([]domain.ExpiryObservation, error) {
	s.reads.Add(1)
	return s.obs, s.err
}

func ageObservations() []domain.ExpiryObservation {
	var out []domain.ExpiryObservation
	var id int64
	add := func(cat domain.Category, st domain.StorageLocation, days int, status domain.Freshness) {
		id++
		out = append(out, domain.ExpiryObservation{ID: id, Category: cat, Storage: st, DaysSince: days, Status: status})
	}
	for _, cat := range []domain.Category{domain.CategoryVegetables, domain.CategoryDairy, domain.CategoryGrains} {
		for _, st := range []domain.StorageLocation{domain.StorageFridge, domain.StoragePantry} {
			add(cat, st, 0, domain.FreshnessSafe)
			add(cat, st, 2, domain.FreshnessSafe)
			add(cat, st, 5, domain.FreshnessExpireSoon)
			add(cat, st, 6, domain.FreshnessExpireSoon)
			add(cat, st, 9, domain.FreshnessExpired)
			add(cat, st, 15, domain.FreshnessExpired)
		}
	}
	return out
}

type testEnv struct {
	svc          *KitchenService
	observations *stubObservations
	db           *sql.DB
}

func newTestService(t *testing.T) testEnv {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	obs := &stubObservations{obs: ageObservations()}
	opts := DefaultOptions()
	opts.Now = func() time.Time { return today }

	svc := NewKitchenService(
		store.NewRecipeStore(d),
		store.NewInventoryStore(d),
		obs,
		store.NewWasteStore(d),
		categorize.DefaultTable(),
		opts,
		slog.Default(),
	)
	return testEnv{svc: svc, observations: obs, db: d}
}

func seedRecipes(t *testing.T, svc *KitchenService) {
	t.Helper()
	ctx := context.Background()
	for _, r := range [][2]string{
		{"Tomato Soup", "Tomato, Onion, Salt"},
		{"Cheese Toast", "Bread,Cheese,Butter"},
		{"Fried Rice", "Rice, Onion, Garlic, Salt"},
		{"Mashed Potato", "Potato,Butter,Milk,Salt"},
	} {
		_, err := svc.AddRecipe(ctx, r[0], r[1])
		require.NoError(t, err)
	}
}

func addItem(t *testing.T, svc *KitchenService, name string, qty float64, storage string, daysAgo int) *domain.InventoryItem {
	t.Helper()
	item, err := svc.AddItem(context.Background(), NewItem{
		Name:       name,
		Quantity:   qty,
		Unit:       "pc",
		Storage:    storage,
		AcquiredOn: today.AddDate(0, 0, -daysAgo),
	})
	require.NoError(t, err)
	return item
}

func TestKitchenServiceAddRecipe(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	r, err := env.svc.AddRecipe(ctx, "  Tomato   Soup ", "Tomato,, Onion , Tomato")
	require.NoError(t, err)
	assert.NotZero(t, r.ID)
	assert.Equal(t, "Tomato Soup", r.Name)
	assert.Equal(t, []string{"Tomato", "Onion"}, r.Ingredients)

	_, err = env.svc.AddRecipe(ctx, "tomato soup", "Tomato")
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "names are unique regardless of case")

	_, err = env.svc.AddRecipe(ctx, "Air", " , ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.svc.AddRecipe(ctx, "  ", "Bread")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestKitchenServiceSuggestRecipe(t *testing.T) {
	env := newTestService(t)
	seedRecipes(t, env.svc)

	sug, err := env.svc.SuggestRecipe(context.Background(), []string{"Bread", "Cheese", "Butter"})
	require.NoError(t, err)
	assert.Equal(t, "Cheese Toast", sug.Name)
	assert.Equal(t, 1.0, sug.Confidence)
	assert.Empty(t, sug.Missing)
}

func TestKitchenServiceSuggestRecipe_EmptyCatalog(t *testing.T) {
	env := newTestService(t)

	_, err := env.svc.SuggestRecipe(context.Background(), []string{"Bread"})
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestKitchenServiceSuggestRecipe_DefaultsToInventory(t *testing.T) {
	env := newTestService(t)
	seedRecipes(t, env.svc)
	for _, name := range []string{"Bread", "Cheese", "Butter"} {
		addItem(t, env.svc, name, 1, "fridge", 0)
	}

	sug, err := env.svc.SuggestRecipe(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Cheese Toast", sug.Name)
}

func TestKitchenServiceRecipeModelCached(t *testing.T) {
	env := newTestService(t)
	seedRecipes(t, env.svc)
	ctx := context.Background()

	_, err := env.svc.SuggestRecipe(ctx, []string{"Rice"})
	require.NoError(t, err)
	first := env.svc.recipeModel
	require.NotNil(t, first)

	_, err = env.svc.SuggestRecipe(ctx, []string{"Milk"})
	require.NoError(t, err)
	assert.Same(t, first, env.svc.recipeModel)

	_, err = env.svc.AddRecipe(ctx, "Garlic Bread", "Bread, Garlic, Butter")
	require.NoError(t, err)
	assert.Nil(t, env.svc.recipeModel)

	sug, err := env.svc.SuggestRecipe(ctx, []string{"Bread", "Garlic", "Butter"})
	require.NoError(t, err)
	assert.Equal(t, "Garlic Bread", sug.Name)
	assert.NotSame(t, first, env.svc.recipeModel)
}

func TestKitchenServiceListMakeableRecipes(t *testing.T) {
	env := newTestService(t)
	seedRecipes(t, env.svc)
	ctx := context.Background()

	got, err := env.svc.ListMakeableRecipes(ctx, []string{"Tomato", "Onion", "Salt", "Rice", "Garlic"})
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, r := range got {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Tomato Soup", "Fried Rice"}, names)

	got, err = env.svc.ListMakeableRecipes(ctx, []string{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestKitchenServiceMissingIngredients(t *testing.T) {
	env := newTestService(t)
	seedRecipes(t, env.svc)
	ctx := context.Background()

	missing, err := env.svc.MissingIngredients(ctx, "fried rice", []string{"Rice", "Salt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Garlic", "Onion"}, missing)

	_, err = env.svc.MissingIngredients(ctx, "Pancakes", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestKitchenServiceDeleteRecipe(t *testing.T) {
	env := newTestService(t)
	seedRecipes(t, env.svc)
	ctx := context.Background()

	require.NoError(t, env.svc.DeleteRecipe(ctx, "Cheese Toast"))
	recipes, err := env.svc.ListRecipes(ctx)
	require.NoError(t, err)
	assert.Len(t, recipes, 3)

	assert.ErrorIs(t, env.svc.DeleteRecipe(ctx, "Cheese Toast"), domain.ErrNotFound)
}

func TestKitchenServiceAddItem(t *testing.T) {
	env := newTestService(t)

	item := addItem(t, env.svc, " Milk ", 2, "fridge", 3)
	assert.NotZero(t, item.ID)
	assert.Equal(t, "Milk", item.Name)
	assert.Equal(t, domain.CategoryDairy, item.Category, "category resolved from the table")
	assert.Equal(t, domain.StorageFridge, item.Storage)
	assert.Equal(t, "2026-03-11", item.AcquiredOn.Format(time.DateOnly))
}

func TestKitchenServiceAddItem_DefaultsAcquiredToToday(t *testing.T) {
	env := newTestService(t)

	item, err := env.svc.AddItem(context.Background(), NewItem{Name: "Rice", Quantity: 1, Storage: "pantry"})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14", item.AcquiredOn.Format(time.DateOnly))
}

func TestKitchenServiceAddItem_Rejects(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	_, err := env.svc.AddItem(ctx, NewItem{Name: "Milk", Quantity: 0, Storage: "fridge"})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = env.svc.AddItem(ctx, NewItem{Name: "Milk", Quantity: 1, Storage: "cellar"})
	var storageErr *domain.UnknownStorageError
	assert.ErrorAs(t, err, &storageErr)

	_, err = env.svc.AddItem(ctx, NewItem{Name: "", Quantity: 1, Storage: "fridge"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.svc.AddItem(ctx, NewItem{Name: "Saffron", Quantity: 1, Storage: "pantry"})
	var catErr *domain.UnknownCategoryError
	assert.ErrorAs(t, err, &catErr, "no silent default category")

	_, err = env.svc.AddItem(ctx, NewItem{Name: "Saffron", Quantity: 1, Storage: "pantry", Category: "Spices"})
	assert.ErrorAs(t, err, &catErr, "category must be one the expiry model knows")

	_, err = env.svc.AddItem(ctx, NewItem{Name: "Milk", Quantity: 1, Storage: "fridge", AcquiredOn: today.AddDate(0, 0, 1)})
	var dateErr *domain.InvalidDateError
	assert.ErrorAs(t, err, &dateErr)

	items, err := env.svc.ListItems(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestKitchenServiceAddItem_ExplicitCategory(t *testing.T) {
	env := newTestService(t)

	item, err := env.svc.AddItem(context.Background(), NewItem{
		Name: "Saffron", Quantity: 1, Storage: "pantry", Category: "Grains",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryGrains, item.Category)
}

func TestKitchenServiceUseItem(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	item := addItem(t, env.svc, "Milk", 2, "fridge", 0)

	left, err := env.svc.UseItem(ctx, item.ID, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, left.Quantity, 1e-9)

	_, err = env.svc.UseItem(ctx, item.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	left, err = env.svc.UseItem(ctx, item.ID, 5)
	require.NoError(t, err)
	assert.Nil(t, left, "used-up item is removed")

	_, err = env.svc.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.svc.UseItem(ctx, item.ID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestKitchenServiceRemoveItem(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	item := addItem(t, env.svc, "Bread", 1, "pantry", 0)

	require.NoError(t, env.svc.RemoveItem(ctx, item.ID))
	assert.ErrorIs(t, env.svc.RemoveItem(ctx, item.ID), domain.ErrNotFound)
}

func TestKitchenServiceClassifyInventoryExpiry(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	addItem(t, env.svc, "Milk", 1, "fridge", 1)
	addItem(t, env.svc, "Spinach", 1, "fridge", 6)
	addItem(t, env.svc, "Bread", 1, "pantry", 20)
	addItem(t, env.svc, "Rice", 1, "pantry", 0)

	buckets, err := env.svc.ClassifyInventoryExpiry(ctx, today)
	require.NoError(t, err)
	require.Equal(t, 4, buckets.Len())

	var safe, soon, expired []string
	for _, p := range buckets.Safe {
		safe = append(safe, p.Item.Name)
	}
	for _, p := range buckets.ExpireSoon {
		soon = append(soon, p.Item.Name)
	}
	for _, p := range buckets.Expired {
		expired = append(expired, p.Item.Name)
	}
	assert.ElementsMatch(t, []string{"Milk", "Rice"}, safe)
	assert.Equal(t, []string{"Spinach"}, soon)
	assert.Equal(t, []string{"Bread"}, expired)
}

func TestKitchenServiceClassifyInventoryExpiry_Empty(t *testing.T) {
	env := newTestService(t)

	buckets, err := env.svc.ClassifyInventoryExpiry(context.Background(), today)
	require.NoError(t, err)
	assert.Zero(t, buckets.Len())
}

func TestKitchenServiceClassifySingleExpiry(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	pred, err := env.svc.ClassifySingleExpiry(ctx, domain.InventoryItem{
		Name:       "Yogurt",
		Category:   domain.CategoryDairy,
		Storage:    domain.StorageFridge,
		AcquiredOn: today.AddDate(0, 0, -12),
	}, today)
	require.NoError(t, err)
	assert.Equal(t, domain.FreshnessExpired, pred.Label)
	assert.Equal(t, 12, pred.DaysSince)

	_, err = env.svc.ClassifySingleExpiry(ctx, domain.InventoryItem{
		Name:       "Yogurt",
		Category:   domain.CategoryDairy,
		Storage:    "cellar",
		AcquiredOn: today,
	}, today)
	var storageErr *domain.UnknownStorageError
	assert.ErrorAs(t, err, &storageErr)
}

func TestKitchenServiceExpiryModelCached(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	item := domain.InventoryItem{Name: "Rice", Category: domain.CategoryGrains, Storage: domain.StoragePantry, AcquiredOn: today}

	_, err := env.svc.ClassifySingleExpiry(ctx, item, today)
	require.NoError(t, err)
	first := env.svc.expiryModel

	_, err = env.svc.ClassifySingleExpiry(ctx, item, today)
	require.NoError(t, err)
	assert.Same(t, first, env.svc.expiryModel)

	env.observations.obs = append(env.observations.obs, domain.ExpiryObservation{
		ID: 999, Category: domain.CategoryGrains, Storage: domain.StoragePantry, DaysSince: 1, Status: domain.FreshnessSafe,
	})
	_, err = env.svc.ClassifySingleExpiry(ctx, item, today)
	require.NoError(t, err)
	assert.NotSame(t, first, env.svc.expiryModel)
}

func TestKitchenServiceExpiry_NoObservations(t *testing.T) {
	env := newTestService(t)
	env.observations.obs = nil

	_, err := env.svc.ClassifyInventoryExpiry(context.Background(), today)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestKitchenServiceDiscardExpired(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	addItem(t, env.svc, "Milk", 1, "fridge", 1)
	addItem(t, env.svc, "Bread", 2, "pantry", 20)

	discarded, err := env.svc.DiscardExpired(ctx, today)
	require.NoError(t, err)
	require.Len(t, discarded, 1)
	assert.Equal(t, "Bread", discarded[0].Name)

	items, err := env.svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Milk", items[0].Name)

	waste, err := env.svc.ListWaste(ctx)
	require.NoError(t, err)
	require.Len(t, waste, 1)
	assert.Equal(t, "Bread", waste[0].Name)
	assert.Equal(t, domain.WasteExpired, waste[0].Reason)
	assert.InDelta(t, 2.0, waste[0].Quantity, 1e-9)
}

func TestKitchenServiceDiscardExpired_AtomicPerItem(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	addItem(t, env.svc, "Milk", 1, "fridge", 20)

	_, err := env.db.Exec("DROP TABLE waste_entries")
	require.NoError(t, err)

	discarded, err := env.svc.DiscardExpired(ctx, today)
	assert.Error(t, err)
	assert.Empty(t, discarded)

	items, err := env.svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1, "item is kept when its waste entry cannot be written")
	assert.Equal(t, "Milk", items[0].Name)
}

func TestKitchenServiceInnerWhitespaceMatches(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	_, err := env.svc.AddRecipe(ctx, "Dressing", "Olive  Oil, Garlic")
	require.NoError(t, err)
	_, err = env.svc.AddItem(ctx, NewItem{Name: "Olive  Oil", Quantity: 1, Storage: "pantry", Category: "Vegetables"})
	require.NoError(t, err)
	addItem(t, env.svc, "Garlic", 1, "pantry", 0)

	makeable, err := env.svc.ListMakeableRecipes(ctx, nil)
	require.NoError(t, err)
	require.Len(t, makeable, 1)
	assert.Equal(t, "Dressing", makeable[0].Name)

	missing, err := env.svc.MissingIngredients(ctx, "Dressing", nil)
	require.NoError(t, err)
	assert.Empty(t, missing)

	missing, err = env.svc.MissingIngredients(ctx, "Dressing", []string{"Olive \t Oil"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Garlic"}, missing)

	sug, err := env.svc.SuggestRecipe(ctx, []string{"Olive   Oil", "Garlic"})
	require.NoError(t, err)
	assert.Equal(t, "Dressing", sug.Name)
	assert.Empty(t, sug.Missing)
}

func TestKitchenServiceAddItem_CostAndExpiry(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	expires := today.AddDate(0, 0, 4)

	item, err := env.svc.AddItem(ctx, NewItem{Name: "Milk", Quantity: 1, Storage: "fridge", Cost: 1.99, ExpiresOn: &expires})
	require.NoError(t, err)
	assert.InDelta(t, 1.99, item.Cost, 1e-9)
	require.NotNil(t, item.ExpiresOn)
	assert.Equal(t, "2026-03-18", item.ExpiresOn.Format(time.DateOnly))

	_, err = env.svc.AddItem(ctx, NewItem{Name: "Milk", Quantity: 1, Storage: "fridge", Cost: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	before := today.AddDate(0, 0, -5)
	_, err = env.svc.AddItem(ctx, NewItem{Name: "Milk", Quantity: 1, Storage: "fridge", AcquiredOn: today.AddDate(0, 0, -1), ExpiresOn: &before})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestKitchenServiceExpiryByDate(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	add := func(name string, expiresIn int) {
		exp := today.AddDate(0, 0, expiresIn)
		_, err := env.svc.AddItem(ctx, NewItem{
			Name: name, Quantity: 1, Storage: "fridge", AcquiredOn: today.AddDate(0, 0, -10), ExpiresOn: &exp,
		})
		require.NoError(t, err)
	}
	add("Yogurt", 6)
	add("Cream", -1)
	add("Milk", 0)
	addItem(t, env.svc, "Rice", 1, "pantry", 0)

	got, err := env.svc.ExpiryByDate(ctx, today)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Cream", got[0].Item.Name)
	assert.Equal(t, domain.FreshnessExpired, got[0].Label)
	assert.Equal(t, "Milk", got[1].Item.Name)
	assert.Equal(t, domain.FreshnessExpireSoon, got[1].Label)
	assert.Equal(t, "Yogurt", got[2].Item.Name)
	assert.Equal(t, domain.FreshnessSafe, got[2].Label)
}

func TestKitchenServiceItemExpiry(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()
	exp := today.AddDate(0, 0, 1)
	_, err := env.svc.AddItem(ctx, NewItem{Name: "Milk", Quantity: 1, Storage: "fridge", ExpiresOn: &exp})
	require.NoError(t, err)
	addItem(t, env.svc, "Bread", 1, "pantry", 20)

	got, err := env.svc.ItemExpiry(ctx, "milk", today)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, StatusFromDate, got[0].Source)
	assert.Equal(t, domain.FreshnessExpireSoon, got[0].Label)
	require.NotNil(t, got[0].DaysLeft)
	assert.Equal(t, 1, *got[0].DaysLeft)

	got, err = env.svc.ItemExpiry(ctx, "Bread", today)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, StatusFromModel, got[0].Source)
	assert.Equal(t, domain.FreshnessExpired, got[0].Label)
	assert.Nil(t, got[0].DaysLeft)

	_, err = env.svc.ItemExpiry(ctx, "Caviar", today)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestKitchenServiceLogWaste(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	entry, err := env.svc.LogWaste(ctx, NewWaste{Name: " Roast  Chicken ", Quantity: 0.5, Unit: "kg", Reason: "Burnt", Cost: 6.5})
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)
	assert.Equal(t, "Roast Chicken", entry.Name)
	assert.Equal(t, domain.WasteBurnt, entry.Reason)
	assert.Equal(t, "2026-03-14", entry.DiscardedOn.Format(time.DateOnly))

	_, err = env.svc.LogWaste(ctx, NewWaste{Name: "Soup", Quantity: 1, Reason: "boring"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.svc.LogWaste(ctx, NewWaste{Name: "Soup", Quantity: 0, Reason: "leftover"})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = env.svc.LogWaste(ctx, NewWaste{Name: "Soup", Quantity: 1, Reason: "leftover", Cost: -2})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.svc.LogWaste(ctx, NewWaste{Name: "Soup", Quantity: 1, Reason: "leftover", DiscardedOn: today.AddDate(0, 0, 2)})
	var dateErr *domain.InvalidDateError
	assert.ErrorAs(t, err, &dateErr)

	waste, err := env.svc.ListWaste(ctx)
	require.NoError(t, err)
	require.Len(t, waste, 1)
	assert.InDelta(t, 6.5, waste[0].Cost, 1e-9)

	require.NoError(t, env.svc.DeleteWaste(ctx, entry.ID))
	assert.ErrorIs(t, env.svc.DeleteWaste(ctx, entry.ID), domain.ErrNotFound)
}

func TestKitchenServiceAddItem_InjectedStorageTable(t *testing.T) {
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	opts := DefaultOptions()
	opts.Now = func() time.Time { return today }
	opts.Encoder = expiryml.NewEncoder(nil, expiryml.CodeTable{
		"fridge": 1, "freezer": 2, "pantry": 3, "cellar": 4,
	})
	svc := NewKitchenService(
		store.NewRecipeStore(d),
		store.NewInventoryStore(d),
		&stubObservations{},
		store.NewWasteStore(d),
		categorize.DefaultTable(),
		opts,
		slog.Default(),
	)

	item, err := svc.AddItem(context.Background(), NewItem{Name: "Potato", Quantity: 5, Storage: "cellar", Category: "Vegetables"})
	require.NoError(t, err)
	assert.Equal(t, domain.StorageLocation("cellar"), item.Storage)

	env := newTestService(t)
	_, err = env.svc.AddItem(context.Background(), NewItem{Name: "Potato", Quantity: 5, Storage: "cellar", Category: "Vegetables"})
	var storageErr *domain.UnknownStorageError
	assert.ErrorAs(t, err, &storageErr)
}

func TestAwaitTraining(t *testing.T) {
	var g singleflight.Group
	ctx := context.Background()

	v, err := awaitTraining(ctx, &g, "ok", time.Second, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	boom := errors.New("boom")
	_, err = awaitTraining(ctx, &g, "fail", 0, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	block := make(chan struct{})
	_, err = awaitTraining(cancelled, &g, "cancel", 0, func() (int, error) {
		<-block
		return 1, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	close(block)
}

func TestAwaitTraining_TimeoutsShareOneRun(t *testing.T) {
	var (
		g       singleflight.Group
		calls   atomic.Int32
		release = make(chan struct{})
	)
	slow := func() (int, error) {
		calls.Add(1)
		<-release
		return 3, nil
	}
	ctx := context.Background()

	for range 3 {
		_, err := awaitTraining(ctx, &g, "slow", 5*time.Millisecond, slow)
		assert.ErrorIs(t, err, ErrTrainingTimeout)
	}
	assert.Equal(t, int32(1), calls.Load(), "timed-out callers do not start new runs")

	close(release)
	v, err := awaitTraining(ctx, &g, "slow", time.Second, slow)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}
