package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	ListForPatient(ctx context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error)
	ListForDermatologist(ctx context.Context, dermatologistID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error)
	// HasConflict reports whether the dermatologist has an active appointment
	// within the conflict window around at. exclude skips one appointment,
	// for reschedules.
	HasConflict(ctx context.Context, dermatologistID uuid.UUID, at time.Time, exclude uuid.UUID) (bool, error)
}
