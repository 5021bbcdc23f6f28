// Package appointment manages consultations between patients and their
// dermatologists, including scheduling conflict checks and status lifecycle.
package appointment

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled  = "scheduled"
	StatusConfirmed  = "confirmed"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// ConflictWindow is the interval around an appointment within which the same
// dermatologist cannot take another active appointment.
const ConflictWindow = 30 * time.Minute

const DefaultDuration = 30

// Appointment maps to the appointments table.
type Appointment struct {
	ID              uuid.UUID `json:"id"`
	ScheduledDate   time.Time `json:"scheduledDate"`
	Type            string    `json:"type"`
	Concern         string    `json:"concern"`
	Duration        int       `json:"duration"`
	Status          string    `json:"status"`
	VisitNotes      *string   `json:"visitNotes,omitempty"`
	VideoCallURL    *string   `json:"videoCallUrl,omitempty"`
	PatientID       uuid.UUID `json:"patientId"`
	DermatologistID uuid.UUID `json:"dermatologistId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// CreateRequest is the body of POST /api/appointments.
type CreateRequest struct {
	ScheduledDate   time.Time  `json:"scheduledDate" validate:"required"`
	Type            string     `json:"type" validate:"required,oneof=consultation follow-up treatment emergency"`
	Concern         string     `json:"concern" validate:"required,min=10"`
	Duration        int        `json:"duration" validate:"omitempty,min=15,max=120"`
	DermatologistID *uuid.UUID `json:"dermatologistId,omitempty"`
}

// UpdateRequest is the body of PATCH /api/appointments/:id. Patients may only
// reschedule; the other fields are dermatologist-only.
type UpdateRequest struct {
	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
	Duration      *int       `json:"duration,omitempty" validate:"omitempty,min=15,max=120"`
	Status        *string    `json:"status,omitempty" validate:"omitempty,oneof=scheduled confirmed in-progress completed cancelled"`
	VisitNotes    *string    `json:"visitNotes,omitempty"`
	VideoCallURL  *string    `json:"videoCallUrl,omitempty" validate:"omitempty,url"`
}
