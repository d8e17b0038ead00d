package model

import (
	"time"

	"golang.org/x/text/cases"
)

// Item is a single grocery catalog record.
type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       Price     `json:"price"`
	Quantity    int       `json:"quantity"`
	Category    string    `json:"category"`
	Unit        *string   `json:"unit"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Field limits, in runes.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	MaxCategoryLength    = 50
	MaxUnitLength        = 20
)

// NameKey returns the Unicode case-folded form of an item name. Two names are
// the same item name when their keys are equal.
func NameKey(name string) string {
	return cases.Fold().String(name)
}
