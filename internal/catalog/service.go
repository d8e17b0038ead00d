// Package catalog implements the grocery catalog: uniqueness of item names,
// partial updates and composed queries over the item store.
package catalog

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/erazemk/spajza/internal/db"
	"github.com/erazemk/spajza/internal/model"
	"github.com/erazemk/spajza/internal/store"
)

// DefaultLowStockThreshold is used when no threshold is given.
const DefaultLowStockThreshold = 10

// Bounds substituted by Filter for a missing price. Items priced above
// PriceCeiling are never returned by a Filter call with only a lower bound.
const (
	PriceFloor   model.Price = 0
	PriceCeiling model.Price = 999999 * 100
)

// Service mediates all reads and writes of catalog items.
type Service struct {
	db  *db.DB
	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used for item timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a catalog service backed by database.
func New(database *db.DB, opts ...Option) *Service {
	s := &Service{db: database, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks that the item store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Create validates and stores a new item.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Item, error) {
	if err := check(req); err != nil {
		return nil, err
	}

	exists, err := store.ItemNameExists(ctx, s.db, req.Name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &DuplicateNameError{Name: req.Name}
	}

	now := s.timestamp(time.Time{})
	item, err := store.CreateItem(ctx, s.db, model.Item{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    *req.Quantity,
		Category:    req.Category,
		Unit:        req.Unit,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if db.IsDuplicateKey(err) {
			return nil, &DuplicateNameError{Name: req.Name}
		}
		return nil, err
	}

	slog.Info("item created", "id", item.ID, "name", item.Name)
	return item, nil
}

// Get returns the item with the given ID, or nil if there is none.
func (s *Service) Get(ctx context.Context, id int64) (*model.Item, error) {
	return store.GetItem(ctx, s.db, id)
}

// Update applies the non-nil fields of req to an existing item. The updated
// timestamp is refreshed even when no field changes.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*model.Item, error) {
	if err := check(req); err != nil {
		return nil, err
	}

	item, err := store.GetItem(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotFound
	}

	if req.Name != nil && model.NameKey(*req.Name) != model.NameKey(item.Name) {
		exists, err := store.ItemNameExists(ctx, s.db, *req.Name, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, &DuplicateNameError{Name: *req.Name}
		}
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.Unit != nil {
		item.Unit = req.Unit
	}
	item.UpdatedAt = s.timestamp(item.UpdatedAt)

	if err := store.UpdateItem(ctx, s.db, *item); err != nil {
		if db.IsNotFound(err) {
			return nil, ErrNotFound
		}
		if db.IsDuplicateKey(err) {
			return nil, &DuplicateNameError{Name: item.Name}
		}
		return nil, err
	}

	slog.Info("item updated", "id", item.ID, "name", item.Name)
	return item, nil
}

// Delete permanently removes an item.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := store.DeleteItem(ctx, s.db, id); err != nil {
		if db.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	slog.Info("item deleted", "id", id)
	return nil
}

// List returns all items, most recently updated first.
func (s *Service) List(ctx context.Context) ([]model.Item, error) {
	return store.ListItems(ctx, s.db)
}

// SearchByName returns items whose name contains substr, ignoring case, most
// recently updated first.
func (s *Service) SearchByName(ctx context.Context, substr string) ([]model.Item, error) {
	items, err := store.SearchItemsByName(ctx, s.db, substr)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(items, func(a, b model.Item) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return items, nil
}

// ByCategory returns items in exactly the given category.
func (s *Service) ByCategory(ctx context.Context, category string) ([]model.Item, error) {
	return store.ListItemsByCategory(ctx, s.db, category)
}

// ByPriceRange returns items priced within [minPrice, maxPrice].
func (s *Service) ByPriceRange(ctx context.Context, minPrice, maxPrice model.Price) ([]model.Item, error) {
	return store.ListItemsByPriceRange(ctx, s.db, minPrice, maxPrice)
}

// Filter composes the category and price queries. A missing price bound is
// replaced by PriceFloor or PriceCeiling; with no parameters it is List.
func (s *Service) Filter(ctx context.Context, p FilterParams) ([]model.Item, error) {
	if p.MinPrice == nil && p.MaxPrice == nil {
		if p.Category != nil {
			return s.ByCategory(ctx, *p.Category)
		}
		return s.List(ctx)
	}

	lo, hi := PriceFloor, PriceCeiling
	if p.MinPrice != nil {
		lo = *p.MinPrice
	}
	if p.MaxPrice != nil {
		hi = *p.MaxPrice
	}

	if p.Category != nil {
		return store.ListItemsByCategoryAndPriceRange(ctx, s.db, *p.Category, lo, hi)
	}
	return s.ByPriceRange(ctx, lo, hi)
}

// LowStock returns items with quantity strictly below threshold, lowest
// quantity first and then by name.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]model.Item, error) {
	return store.ListLowStockItems(ctx, s.db, threshold)
}

// Categories returns the distinct categories in alphabetical order.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return store.ListCategories(ctx, s.db)
}

// Count returns the number of items in the catalog.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return store.CountItems(ctx, s.db)
}

// CountByCategory returns the number of items in exactly the given category.
func (s *Service) CountByCategory(ctx context.Context, category string) (int64, error) {
	return store.CountItemsByCategory(ctx, s.db, category)
}

// timestamp returns the current time at storage precision, strictly after prev.
func (s *Service) timestamp(prev time.Time) time.Time {
	now := s.now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}
