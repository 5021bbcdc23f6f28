// Package routine manages patients' morning and evening skincare routines
// and their ordered steps.
package routine

import (
	"time"

	"github.com/google/uuid"
)

const (
	TimeMorning = "morning"
	TimeEvening = "evening"
)

// Routine maps to the routines table. CompletedToday is derived from
// lastCompletedAt at read time.
type Routine struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"userId"`
	Name            string     `json:"name"`
	TimeOfDay       string     `json:"timeOfDay"`
	IsActive        bool       `json:"isActive"`
	CompletedToday  bool       `json:"completedToday"`
	LastCompletedAt *time.Time `json:"lastCompletedAt,omitempty"`
	Steps           []Step     `json:"steps"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Step maps to the routine_steps table. Steps are ordered by OrderIndex.
type Step struct {
	ID           uuid.UUID `json:"id"`
	RoutineID    uuid.UUID `json:"routineId"`
	ProductName  string    `json:"productName"`
	ProductType  string    `json:"productType"`
	Instructions *string   `json:"instructions,omitempty"`
	Duration     *int      `json:"duration,omitempty"`
	OrderIndex   int       `json:"orderIndex"`
}

// StepInput is one step in a create or update request.
type StepInput struct {
	ProductName  string  `json:"productName" validate:"required"`
	ProductType  string  `json:"productType" validate:"required"`
	Instructions *string `json:"instructions,omitempty"`
	Duration     *int    `json:"duration,omitempty" validate:"omitempty,min=0"`
}

// CreateRequest is the body of POST /api/routines.
type CreateRequest struct {
	Name      string      `json:"name" validate:"required,min=2"`
	TimeOfDay string      `json:"timeOfDay" validate:"required,oneof=morning evening"`
	Steps     []StepInput `json:"steps" validate:"dive"`
}

// UpdateRequest is the body of PATCH /api/routines/:id. A non-nil Steps
// replaces the routine's steps wholesale.
type UpdateRequest struct {
	Name      *string     `json:"name,omitempty" validate:"omitempty,min=2"`
	TimeOfDay *string     `json:"timeOfDay,omitempty" validate:"omitempty,oneof=morning evening"`
	IsActive  *bool       `json:"isActive,omitempty"`
	Steps     []StepInput `json:"steps,omitempty" validate:"omitempty,dive"`
}
