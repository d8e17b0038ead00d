package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/erazemk/spajza/internal/model"
)

func starter(name, description string, price model.Price, quantity int, category, unit string) CreateRequest {
	return CreateRequest{
		Name:        name,
		Description: &description,
		Price:       price,
		Quantity:    &quantity,
		Category:    category,
		Unit:        &unit,
	}
}

// starterItems is the catalog inserted into an empty store.
var starterItems = []CreateRequest{
	starter("Bananas", "Fresh yellow bananas", model.NewPrice(2, 99), 50, "FRUITS", "LB"),
	starter("Apples", "Red delicious apples", model.NewPrice(3, 49), 30, "FRUITS", "LB"),
	starter("Oranges", "Juicy navel oranges", model.NewPrice(4, 99), 25, "FRUITS", "LB"),

	starter("Carrots", "Fresh organic carrots", model.NewPrice(1, 99), 40, "VEGETABLES", "LB"),
	starter("Broccoli", "Fresh green broccoli", model.NewPrice(2, 49), 20, "VEGETABLES", "LB"),
	starter("Tomatoes", "Roma tomatoes", model.NewPrice(3, 99), 35, "VEGETABLES", "LB"),

	starter("Milk", "Whole milk 1 gallon", model.NewPrice(3, 99), 15, "DAIRY", "GALLON"),
	starter("Cheese", "Cheddar cheese block", model.NewPrice(5, 99), 12, "DAIRY", "LB"),
	starter("Yogurt", "Greek yogurt", model.NewPrice(1, 99), 25, "DAIRY", "CONTAINER"),

	starter("Bread", "Whole wheat bread", model.NewPrice(2, 99), 20, "GRAINS", "LOAF"),
	starter("Rice", "Jasmine rice", model.NewPrice(4, 99), 10, "GRAINS", "BAG"),
	starter("Pasta", "Spaghetti pasta", model.NewPrice(1, 49), 30, "GRAINS", "BOX"),

	starter("Chicken Breast", "Boneless chicken breast", model.NewPrice(7, 99), 8, "MEAT", "LB"),
	starter("Ground Beef", "85% lean ground beef", model.NewPrice(6, 99), 10, "MEAT", "LB"),
	starter("Salmon", "Fresh Atlantic salmon", model.NewPrice(12, 99), 5, "MEAT", "LB"),
}

// Seed fills an empty catalog with the starter items and returns how many
// were inserted. A catalog that already has items is left alone.
func (s *Service) Seed(ctx context.Context) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	for i, req := range starterItems {
		if _, err := s.Create(ctx, req); err != nil {
			return i, fmt.Errorf("seeding %q: %w", req.Name, err)
		}
	}

	slog.Info("seeded catalog", "items", len(starterItems))
	return len(starterItems), nil
}
