package product

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clearaf/api/internal/platform/httperr"
)

var errNotFound = httperr.NotFound("PRODUCT_NOT_FOUND", "product not found")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the available catalog slice plus per-category counts for the
// shop's filter sidebar.
func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Product, int, map[string]int, error) {
	items, total, err := s.repo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, nil, err
	}
	counts, err := s.repo.CategoryCounts(ctx)
	if err != nil {
		return nil, 0, nil, err
	}
	return items, total, counts, nil
}

// Get returns an available product. Unavailable products read like missing
// ones so discontinued items drop out of deep links too.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetAvailable(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errNotFound
	}
	return p, err
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Product, error) {
	p := &Product{
		Name:                 req.Name,
		Brand:                req.Brand,
		Description:          req.Description,
		Category:             req.Category,
		Price:                req.Price,
		ImageURL:             req.ImageURL,
		Ingredients:          req.Ingredients,
		SkinTypes:            req.SkinTypes,
		PrescriptionRequired: req.PrescriptionRequired,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Brand != nil {
		p.Brand = *req.Brand
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.ImageURL != nil {
		p.ImageURL = req.ImageURL
	}
	if req.Ingredients != nil {
		p.Ingredients = req.Ingredients
	}
	if req.SkinTypes != nil {
		p.SkinTypes = req.SkinTypes
	}
	if req.PrescriptionRequired != nil {
		p.PrescriptionRequired = *req.PrescriptionRequired
	}
	if req.IsAvailable != nil {
		p.IsAvailable = *req.IsAvailable
	}
	if req.Rating != nil {
		p.Rating = req.Rating
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
