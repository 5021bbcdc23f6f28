package photo

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *SkinPhoto) error
	GetByID(ctx context.Context, id uuid.UUID) (*SkinPhoto, error)
	Update(ctx context.Context, p *SkinPhoto) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListForUser returns the user's photos sorted by the given column,
	// either "capture_date" or "skin_score", newest or highest first.
	ListForUser(ctx context.Context, userID uuid.UUID, sortBy string, limit, offset int) ([]*SkinPhoto, int, error)
	// Recent returns the user's n most recent photos, oldest first.
	Recent(ctx context.Context, userID uuid.UUID, n int) ([]*SkinPhoto, error)
	// Since returns the user's photos captured on or after from, oldest first.
	Since(ctx context.Context, userID uuid.UUID, from time.Time) ([]*SkinPhoto, error)
}
