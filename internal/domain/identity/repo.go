package identity

import (
	"context"

	"github.com/google/uuid"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByEmail(ctx context.Context, email string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	// RecordSkinScore sets currentSkinScore and increments streakCount by one.
	RecordSkinScore(ctx context.Context, id uuid.UUID, score int) error
	AssignDermatologist(ctx context.Context, patientID, dermatologistID uuid.UUID) error
	// ListByDermatologist returns the dermatologist's patients, optionally
	// filtered by a name/email search term.
	ListByDermatologist(ctx context.Context, dermatologistID uuid.UUID, search string, limit, offset int) ([]*Patient, int, error)
	// SummariesByDermatologist returns roster entries with recent-activity
	// aggregates for the dermatologist's patient list view.
	SummariesByDermatologist(ctx context.Context, dermatologistID uuid.UUID, limit, offset int) ([]*PatientSummary, int, error)
	Stats(ctx context.Context, id uuid.UUID) (*PatientStats, error)
}

type DermatologistRepository interface {
	Create(ctx context.Context, d *Dermatologist) error
	GetByID(ctx context.Context, id uuid.UUID) (*Dermatologist, error)
	GetByEmail(ctx context.Context, email string) (*Dermatologist, error)
	Update(ctx context.Context, d *Dermatologist) error
	// FirstAvailable returns the longest-registered available dermatologist.
	FirstAvailable(ctx context.Context) (*Dermatologist, error)
	Stats(ctx context.Context, id uuid.UUID) (*DermatologistStats, error)
}
