package product

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Product) error
	// GetAvailable returns an available product by id; unavailable products
	// are treated as missing.
	GetAvailable(ctx context.Context, id uuid.UUID) (*Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Update(ctx context.Context, p *Product) error
	// List returns available products matching the filter.
	List(ctx context.Context, f Filter, limit, offset int) ([]*Product, int, error)
	// CategoryCounts returns the number of available products per category.
	CategoryCounts(ctx context.Context) (map[string]int, error)
}
