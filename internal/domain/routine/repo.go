package routine

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Routine) error
	// GetByID returns the routine with its steps in order.
	GetByID(ctx context.Context, id uuid.UUID) (*Routine, error)
	Update(ctx context.Context, r *Routine) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListForUser returns the user's routines with steps, morning before
	// evening.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Routine, error)
	// ReplaceSteps swaps the routine's steps for the given set.
	ReplaceSteps(ctx context.Context, routineID uuid.UUID, steps []Step) error
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error
}
