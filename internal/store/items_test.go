package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/spajza/internal/db"
	"github.com/erazemk/spajza/internal/model"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func insert(t *testing.T, database *db.DB, name, category string, price model.Price, qty int, updated time.Time) *model.Item {
	t.Helper()
	item, err := CreateItem(context.Background(), database, model.Item{
		Name:      name,
		Price:     price,
		Quantity:  qty,
		Category:  category,
		CreatedAt: updated,
		UpdatedAt: updated,
	})
	if err != nil {
		t.Fatalf("CreateItem(%q): %v", name, err)
	}
	return item
}

func names(items []model.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name
	}
	return out
}

func equalNames(t *testing.T, got []model.Item, want ...string) {
	t.Helper()
	g := names(got)
	if len(g) != len(want) {
		t.Fatalf("expected %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, g)
		}
	}
}

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	desc, unit := "Fresh yellow bananas", "LB"
	created, err := CreateItem(ctx, database, model.Item{
		Name:        "Bananas",
		Description: &desc,
		Price:       model.NewPrice(2, 99),
		Quantity:    50,
		Category:    "FRUITS",
		Unit:        &unit,
		CreatedAt:   base,
		UpdatedAt:   base,
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected assigned id")
	}

	got, err := GetItem(ctx, database, created.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Name != "Bananas" || got.Price != 299 || got.Quantity != 50 || got.Category != "FRUITS" {
		t.Errorf("unexpected item: %+v", got)
	}
	if got.Description == nil || *got.Description != desc {
		t.Errorf("expected description %q, got %v", desc, got.Description)
	}
	if got.Unit == nil || *got.Unit != unit {
		t.Errorf("expected unit %q, got %v", unit, got.Unit)
	}
	if !got.CreatedAt.Equal(base) || !got.UpdatedAt.Equal(base) {
		t.Errorf("expected timestamps %v, got %v / %v", base, got.CreatedAt, got.UpdatedAt)
	}
}

func TestGetMissingItem(t *testing.T) {
	database := db.NewTestDB(t)

	got, err := GetItem(context.Background(), database, 99)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing item, got %+v", got)
	}
}

func TestOptionalFieldsStayNull(t *testing.T) {
	database := db.NewTestDB(t)
	item := insert(t, database, "Rice", "GRAINS", 499, 10, base)
	if item.Description != nil || item.Unit != nil {
		t.Errorf("expected nil description and unit, got %v / %v", item.Description, item.Unit)
	}
}

func TestItemNameExists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	milk := insert(t, database, "Milk", "DAIRY", 399, 15, base)

	exists, err := ItemNameExists(ctx, database, "mILK", 0)
	if err != nil {
		t.Fatalf("ItemNameExists: %v", err)
	}
	if !exists {
		t.Error("expected case-insensitive match")
	}

	exists, _ = ItemNameExists(ctx, database, "MILK", milk.ID)
	if exists {
		t.Error("expected excluded item not to count")
	}

	exists, _ = ItemNameExists(ctx, database, "Cheese", 0)
	if exists {
		t.Error("expected no match for Cheese")
	}

	insert(t, database, "Crème Fraîche", "DAIRY", 299, 6, base)
	exists, _ = ItemNameExists(ctx, database, "CRÈME FRAÎCHE", 0)
	if !exists {
		t.Error("expected non-ASCII names to match ignoring case")
	}
}

func TestCreateItemRejectsFoldedDuplicate(t *testing.T) {
	database := db.NewTestDB(t)
	insert(t, database, "Crème Fraîche", "DAIRY", 299, 6, base)

	_, err := CreateItem(context.Background(), database, model.Item{
		Name: "CRÈME FRAÎCHE", Price: 199, Quantity: 1, Category: "DAIRY", CreatedAt: base, UpdatedAt: base,
	})
	if !db.IsDuplicateKey(err) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestUpdateItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := insert(t, database, "Bread", "GRAINS", 299, 20, base)

	item.Quantity = 5
	item.UpdatedAt = base.Add(time.Hour)
	if err := UpdateItem(ctx, database, *item); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", got.Quantity)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("expected created_at unchanged, got %v", got.CreatedAt)
	}
	if !got.UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("expected updated_at advanced, got %v", got.UpdatedAt)
	}

	item.ID = 999
	if err := UpdateItem(ctx, database, *item); !db.IsNotFound(err) {
		t.Errorf("expected ErrNotFound for missing item, got %v", err)
	}
}

func TestDeleteItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	item := insert(t, database, "Salmon", "MEAT", 1299, 5, base)

	if err := DeleteItem(ctx, database, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if got, _ := GetItem(ctx, database, item.ID); got != nil {
		t.Error("expected item to be gone")
	}
	if err := DeleteItem(ctx, database, item.ID); !db.IsNotFound(err) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListOrdering(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	insert(t, database, "Apples", "FRUITS", 349, 30, base)
	insert(t, database, "Carrots", "VEGETABLES", 199, 40, base.Add(2*time.Minute))
	insert(t, database, "Oranges", "FRUITS", 499, 25, base.Add(time.Minute))

	all, err := ListItems(ctx, database)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	equalNames(t, all, "Carrots", "Oranges", "Apples")

	fruits, err := ListItemsByCategory(ctx, database, "FRUITS")
	if err != nil {
		t.Fatalf("ListItemsByCategory: %v", err)
	}
	equalNames(t, fruits, "Oranges", "Apples")

	none, _ := ListItemsByCategory(ctx, database, "fruits")
	if len(none) != 0 {
		t.Errorf("expected case-sensitive category match, got %v", names(none))
	}
}

func TestPriceRangeQueries(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	insert(t, database, "Bananas", "FRUITS", 299, 50, base)
	insert(t, database, "Oranges", "FRUITS", 499, 25, base.Add(time.Minute))
	insert(t, database, "Cheese", "DAIRY", 599, 12, base.Add(2*time.Minute))
	insert(t, database, "Grapes", "FRUITS", 500, 12, base.Add(3*time.Minute))

	ranged, err := ListItemsByPriceRange(ctx, database, 299, 500)
	if err != nil {
		t.Fatalf("ListItemsByPriceRange: %v", err)
	}
	equalNames(t, ranged, "Grapes", "Oranges", "Bananas")

	filtered, err := ListItemsByCategoryAndPriceRange(ctx, database, "FRUITS", 300, 500)
	if err != nil {
		t.Fatalf("ListItemsByCategoryAndPriceRange: %v", err)
	}
	equalNames(t, filtered, "Grapes", "Oranges")
}

func TestSearchItemsByName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	insert(t, database, "Chicken Breast", "MEAT", 799, 8, base)
	insert(t, database, "Ground Beef", "MEAT", 699, 10, base)
	insert(t, database, "100% Juice", "BEVERAGES", 399, 10, base)
	insert(t, database, "Whole_Milk", "DAIRY", 399, 10, base)

	got, err := SearchItemsByName(ctx, database, "BEE")
	if err != nil {
		t.Fatalf("SearchItemsByName: %v", err)
	}
	equalNames(t, got, "Ground Beef")

	got, _ = SearchItemsByName(ctx, database, "%")
	equalNames(t, got, "100% Juice")

	got, _ = SearchItemsByName(ctx, database, "e_m")
	equalNames(t, got, "Whole_Milk")

	insert(t, database, "Crème Brûlée", "DAIRY", 499, 4, base)
	got, _ = SearchItemsByName(ctx, database, "CRÈME")
	equalNames(t, got, "Crème Brûlée")

	got, _ = SearchItemsByName(ctx, database, "")
	if len(got) != 5 {
		t.Errorf("expected empty search to match all, got %v", names(got))
	}
}

func TestLowStockAndCategories(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	insert(t, database, "Salmon", "MEAT", 1299, 5, base)
	insert(t, database, "Chicken Breast", "MEAT", 799, 8, base)
	insert(t, database, "Rice", "GRAINS", 499, 10, base)
	insert(t, database, "Apples", "FRUITS", 349, 30, base)

	low, err := ListLowStockItems(ctx, database, 10)
	if err != nil {
		t.Fatalf("ListLowStockItems: %v", err)
	}
	equalNames(t, low, "Salmon", "Chicken Breast")

	categories, err := ListCategories(ctx, database)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	want := []string{"FRUITS", "GRAINS", "MEAT"}
	if len(categories) != len(want) {
		t.Fatalf("expected %v, got %v", want, categories)
	}
	for i := range want {
		if categories[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, categories)
		}
	}

	n, err := CountItemsByCategory(ctx, database, "MEAT")
	if err != nil {
		t.Fatalf("CountItemsByCategory: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 MEAT items, got %d", n)
	}

	total, _ := CountItems(ctx, database)
	if total != 4 {
		t.Errorf("expected 4 items, got %d", total)
	}
}

func TestCheckConstraints(t *testing.T) {
	database := db.NewTestDB(t)
	_, err := CreateItem(context.Background(), database, model.Item{
		Name: "Free", Price: 0, Quantity: 1, Category: "OTHER", CreatedAt: base, UpdatedAt: base,
	})
	if err == nil {
		t.Error("expected CHECK constraint to reject zero price")
	}
}
