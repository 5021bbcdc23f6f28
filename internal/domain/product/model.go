// Package product serves the skincare product catalog browsed by patients
// and managed by dermatologists.
package product

import (
	"time"

	"github.com/google/uuid"
)

// Product maps to the products table.
type Product struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Brand                string    `json:"brand"`
	Description          *string   `json:"description,omitempty"`
	Category             string    `json:"category"`
	Price                float64   `json:"price"`
	ImageURL             *string   `json:"imageUrl,omitempty"`
	Ingredients          []string  `json:"ingredients,omitempty"`
	SkinTypes            []string  `json:"skinTypes,omitempty"`
	PrescriptionRequired bool      `json:"prescriptionRequired"`
	IsAvailable          bool      `json:"isAvailable"`
	Rating               *float64  `json:"rating,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Filter narrows the catalog listing.
type Filter struct {
	Category             string
	Search               string
	PrescriptionRequired *bool
}

// CreateRequest is the body of POST /api/products (dermatologist only).
type CreateRequest struct {
	Name                 string   `json:"name" validate:"required,min=2"`
	Brand                string   `json:"brand" validate:"required"`
	Description          *string  `json:"description,omitempty"`
	Category             string   `json:"category" validate:"required"`
	Price                float64  `json:"price" validate:"min=0"`
	ImageURL             *string  `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Ingredients          []string `json:"ingredients,omitempty"`
	SkinTypes            []string `json:"skinTypes,omitempty"`
	PrescriptionRequired bool     `json:"prescriptionRequired"`
}

// UpdateRequest is the body of PATCH /api/products/:id.
type UpdateRequest struct {
	Name                 *string  `json:"name,omitempty" validate:"omitempty,min=2"`
	Brand                *string  `json:"brand,omitempty"`
	Description          *string  `json:"description,omitempty"`
	Category             *string  `json:"category,omitempty"`
	Price                *float64 `json:"price,omitempty" validate:"omitempty,min=0"`
	ImageURL             *string  `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Ingredients          []string `json:"ingredients,omitempty"`
	SkinTypes            []string `json:"skinTypes,omitempty"`
	PrescriptionRequired *bool    `json:"prescriptionRequired,omitempty"`
	IsAvailable          *bool    `json:"isAvailable,omitempty"`
	Rating               *float64 `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
}
