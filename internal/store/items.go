package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/spajza/internal/db"
	"github.com/erazemk/spajza/internal/model"
)

const itemColumns = `id, name, description, price, quantity, category, unit, created_at, updated_at`

// likeEscape is the escape character used in LIKE patterns. Backslash is
// avoided because MySQL and standard SQL disagree on its meaning in literals.
const likeEscape = "!"

// CreateItem inserts a new item and returns the stored record. The ID field
// of item is ignored; timestamps are stored as given.
func CreateItem(ctx context.Context, database *db.DB, item model.Item) (*model.Item, error) {
	const insert = `INSERT INTO items (name, name_key, description, price, quantity, category, unit, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	args := []any{
		item.Name, model.NameKey(item.Name), nullString(item.Description), item.Price.Cents(), item.Quantity,
		item.Category, nullString(item.Unit), toMicros(item.CreatedAt), toMicros(item.UpdatedAt),
	}

	var id int64
	if database.Dialect().Returning {
		if err := database.QueryRowContext(ctx, insert+` RETURNING id`, args...).Scan(&id); err != nil {
			return nil, fmt.Errorf("creating item: %w", err)
		}
	} else {
		result, err := database.ExecContext(ctx, insert, args...)
		if err != nil {
			return nil, fmt.Errorf("creating item: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting item id: %w", err)
		}
	}

	created, err := GetItem(ctx, database, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("reading created item %d: %w", id, db.ErrNotFound)
	}
	return created, nil
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, database *db.DB, id int64) (*model.Item, error) {
	item, err := scanItem(database.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if db.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ItemNameExists reports whether another item has the same name under Unicode
// case folding. The item with excludeID is not considered; pass 0 to check all items.
func ItemNameExists(ctx context.Context, database *db.DB, name string, excludeID int64) (bool, error) {
	var exists bool
	err := database.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM items WHERE name_key = ? AND id <> ?)`,
		model.NameKey(name), excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking item name: %w", err)
	}
	return exists, nil
}

// UpdateItem overwrites all mutable columns of an item. It returns
// db.ErrNotFound if no row has the item's ID.
func UpdateItem(ctx context.Context, database *db.DB, item model.Item) error {
	result, err := database.ExecContext(ctx,
		`UPDATE items SET name = ?, name_key = ?, description = ?, price = ?, quantity = ?, category = ?, unit = ?,
		 updated_at = ? WHERE id = ?`,
		item.Name, model.NameKey(item.Name), nullString(item.Description), item.Price.Cents(), item.Quantity,
		item.Category, nullString(item.Unit), toMicros(item.UpdatedAt), item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return expectAffected(result, "updating item")
}

// DeleteItem permanently removes an item. It returns db.ErrNotFound if no row
// has the given ID.
func DeleteItem(ctx context.Context, database *db.DB, id int64) error {
	result, err := database.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return expectAffected(result, "deleting item")
}

// ListItems returns all items, most recently updated first.
func ListItems(ctx context.Context, database *db.DB) ([]model.Item, error) {
	return queryItems(ctx, database, "listing items",
		`SELECT `+itemColumns+` FROM items ORDER BY updated_at DESC, id DESC`,
	)
}

// SearchItemsByName returns items whose name contains substr under Unicode
// case folding.
// LIKE wildcards in substr match literally. The result is unordered.
func SearchItemsByName(ctx context.Context, database *db.DB, substr string) ([]model.Item, error) {
	return queryItems(ctx, database, "searching items",
		`SELECT `+itemColumns+` FROM items WHERE name_key LIKE ? ESCAPE '`+likeEscape+`'`,
		"%"+escapeLike(model.NameKey(substr))+"%",
	)
}

// ListItemsByCategory returns items in exactly the given category, most
// recently updated first.
func ListItemsByCategory(ctx context.Context, database *db.DB, category string) ([]model.Item, error) {
	return queryItems(ctx, database, "listing items by category",
		`SELECT `+itemColumns+` FROM items WHERE category = ? ORDER BY updated_at DESC, id DESC`,
		category,
	)
}

// ListItemsByPriceRange returns items priced within [minPrice, maxPrice], most recently
// updated first.
func ListItemsByPriceRange(ctx context.Context, database *db.DB, minPrice, maxPrice model.Price) ([]model.Item, error) {
	return queryItems(ctx, database, "listing items by price range",
		`SELECT `+itemColumns+` FROM items WHERE price BETWEEN ? AND ? ORDER BY updated_at DESC, id DESC`,
		minPrice.Cents(), maxPrice.Cents(),
	)
}

// ListItemsByCategoryAndPriceRange returns items in exactly the given category
// priced within [minPrice, maxPrice], most recently updated first.
func ListItemsByCategoryAndPriceRange(ctx context.Context, database *db.DB, category string, minPrice, maxPrice model.Price) ([]model.Item, error) {
	return queryItems(ctx, database, "filtering items",
		`SELECT `+itemColumns+` FROM items WHERE category = ? AND price BETWEEN ? AND ?
		 ORDER BY updated_at DESC, id DESC`,
		category, minPrice.Cents(), maxPrice.Cents(),
	)
}

// ListLowStockItems returns items with quantity strictly below threshold,
// lowest quantity first.
func ListLowStockItems(ctx context.Context, database *db.DB, threshold int) ([]model.Item, error) {
	return queryItems(ctx, database, "listing low stock items",
		`SELECT `+itemColumns+` FROM items WHERE quantity < ? ORDER BY quantity, name`,
		threshold,
	)
}

// ListCategories returns the distinct categories in alphabetical order.
func ListCategories(ctx context.Context, database *db.DB) ([]string, error) {
	rows, err := database.QueryContext(ctx, `SELECT DISTINCT category FROM items ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CountItems returns the number of stored items.
func CountItems(ctx context.Context, database *db.DB) (int64, error) {
	var n int64
	if err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

// CountItemsByCategory returns the number of items in exactly the given category.
func CountItemsByCategory(ctx context.Context, database *db.DB, category string) (int64, error) {
	var n int64
	if err := database.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE category = ?`, category,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items by category: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var description, unit sql.NullString
	var price, createdAt, updatedAt int64
	if err := s.Scan(&item.ID, &item.Name, &description, &price, &item.Quantity,
		&item.Category, &unit, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	item.Description = stringPtr(description)
	item.Unit = stringPtr(unit)
	item.Price = model.Price(price)
	item.CreatedAt = fromMicros(createdAt)
	item.UpdatedAt = fromMicros(updatedAt)
	return item, nil
}

func queryItems(ctx context.Context, database *db.DB, op, query string, args ...any) ([]model.Item, error) {
	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

func expectAffected(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, db.ErrNotFound)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func toMicros(t time.Time) int64 { return t.UnixMicro() }

func fromMicros(us int64) time.Time { return time.UnixMicro(us).UTC() }
