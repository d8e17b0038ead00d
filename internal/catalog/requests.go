package catalog

import "github.com/erazemk/spajza/internal/model"

// CreateRequest describes a new item.
type CreateRequest struct {
	Name        string      `json:"name" validate:"notblank,max=100"`
	Description *string     `json:"description" validate:"omitempty,max=500"`
	Price       model.Price `json:"price" validate:"gt=0"`
	Quantity    *int        `json:"quantity" validate:"required,min=0"`
	Category    string      `json:"category" validate:"notblank,max=50"`
	Unit        *string     `json:"unit" validate:"omitempty,max=20"`
}

// UpdateRequest is a partial update: nil fields keep their stored value.
type UpdateRequest struct {
	Name        *string      `json:"name" validate:"omitempty,notblank,max=100"`
	Description *string      `json:"description" validate:"omitempty,max=500"`
	Price       *model.Price `json:"price" validate:"omitempty,gt=0"`
	Quantity    *int         `json:"quantity" validate:"omitempty,min=0"`
	Category    *string      `json:"category" validate:"omitempty,notblank,max=50"`
	Unit        *string      `json:"unit" validate:"omitempty,max=20"`
}

// FilterParams selects items for Filter. Nil fields are absent.
type FilterParams struct {
	Category *string
	MinPrice *model.Price
	MaxPrice *model.Price
}
