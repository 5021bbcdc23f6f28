// Package prescription manages treatment prescriptions written by
// dermatologists for their patients, optionally linked to a catalog product.
package prescription

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive  = "active"
	StatusExpired = "expired"
)

// Prescription maps to the prescriptions table.
type Prescription struct {
	ID              uuid.UUID  `json:"id"`
	Medication      string     `json:"medication"`
	Dosage          string     `json:"dosage"`
	Frequency       string     `json:"frequency"`
	Instructions    *string    `json:"instructions,omitempty"`
	Refills         int        `json:"refills"`
	Status          string     `json:"status"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	PatientID       uuid.UUID  `json:"patientId"`
	DermatologistID uuid.UUID  `json:"dermatologistId"`
	ProductID       *uuid.UUID `json:"productId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// CreateRequest is the body of POST /api/prescriptions.
type CreateRequest struct {
	PatientID    uuid.UUID  `json:"patientId" validate:"required"`
	Medication   string     `json:"medication" validate:"required,min=2"`
	Dosage       string     `json:"dosage" validate:"required"`
	Frequency    string     `json:"frequency" validate:"required"`
	Instructions *string    `json:"instructions,omitempty"`
	Refills      int        `json:"refills" validate:"min=0,max=12"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	ProductID    *uuid.UUID `json:"productId,omitempty"`
}

// UpdateRequest is the body of PATCH /api/prescriptions/:id.
type UpdateRequest struct {
	Dosage       *string    `json:"dosage,omitempty"`
	Frequency    *string    `json:"frequency,omitempty"`
	Instructions *string    `json:"instructions,omitempty"`
	Refills      *int       `json:"refills,omitempty" validate:"omitempty,min=0,max=12"`
	Status       *string    `json:"status,omitempty" validate:"omitempty,oneof=active expired"`
	EndDate      *time.Time `json:"endDate,omitempty"`
}
