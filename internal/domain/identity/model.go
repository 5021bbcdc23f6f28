// Package identity manages patient and dermatologist accounts: registration,
// login, delegated-auth profile sync, profiles, skin score tracking, and the
// dermatologist's patient roster.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table.
type Patient struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PasswordHash        *string    `json:"-"`
	SkinType            *string    `json:"skinType,omitempty"`
	SkinConcerns        []string   `json:"skinConcerns,omitempty"`
	Allergies           *string    `json:"allergies,omitempty"`
	CurrentMedications  *string    `json:"currentMedications,omitempty"`
	CurrentSkinScore    int        `json:"currentSkinScore"`
	StreakCount         int        `json:"streakCount"`
	OnboardingCompleted bool       `json:"onboardingCompleted"`
	JoinDate            time.Time  `json:"joinDate"`
	DermatologistID     *uuid.UUID `json:"dermatologistId,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// Dermatologist maps to the dermatologists table.
type Dermatologist struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	PasswordHash    *string   `json:"-"`
	Title           *string   `json:"title,omitempty"`
	Specialization  *string   `json:"specialization,omitempty"`
	Phone           *string   `json:"phone,omitempty"`
	ProfileImageURL *string   `json:"profileImageUrl,omitempty"`
	IsAvailable     bool      `json:"isAvailable"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// PatientStats is the patient-side response of GET /api/users/stats.
type PatientStats struct {
	CurrentSkinScore     int `json:"currentSkinScore"`
	StreakCount          int `json:"streakCount"`
	TotalPhotos          int `json:"totalPhotos"`
	UpcomingAppointments int `json:"upcomingAppointments"`
	ActivePrescriptions  int `json:"activePrescriptions"`
}

// DermatologistStats is the dermatologist-side response of GET /api/users/stats.
type DermatologistStats struct {
	TotalPatients     int `json:"totalPatients"`
	TodayAppointments int `json:"todayAppointments"`
	UnreadMessages    int `json:"unreadMessages"`
}

// PatientSummary is a roster entry for GET /api/users/patients: the patient
// plus recent-activity aggregates.
type PatientSummary struct {
	Patient             Patient    `json:"patient"`
	LastPhotoURL        *string    `json:"lastPhotoUrl,omitempty"`
	LastPhotoDate       *time.Time `json:"lastPhotoDate,omitempty"`
	NextAppointment     *time.Time `json:"nextAppointment,omitempty"`
	ActivePrescriptions int        `json:"activePrescriptions"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Name         string   `json:"name" validate:"required,min=2"`
	Email        string   `json:"email" validate:"required,email"`
	Password     string   `json:"password" validate:"required,min=8"`
	UserType     string   `json:"userType" validate:"required,oneof=patient dermatologist"`
	SkinType     *string  `json:"skinType,omitempty"`
	SkinConcerns []string `json:"skinConcerns,omitempty"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdatePatientProfileRequest carries the patient-editable profile fields.
type UpdatePatientProfileRequest struct {
	Name                *string  `json:"name,omitempty" validate:"omitempty,min=2"`
	SkinType            *string  `json:"skinType,omitempty"`
	SkinConcerns        []string `json:"skinConcerns,omitempty"`
	Allergies           *string  `json:"allergies,omitempty"`
	CurrentMedications  *string  `json:"currentMedications,omitempty"`
	OnboardingCompleted *bool    `json:"onboardingCompleted,omitempty"`
}

// UpdateDermatologistProfileRequest carries the dermatologist-editable fields.
type UpdateDermatologistProfileRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=2"`
	Title           *string `json:"title,omitempty"`
	Specialization  *string `json:"specialization,omitempty"`
	Phone           *string `json:"phone,omitempty"`
	ProfileImageURL *string `json:"profileImageUrl,omitempty" validate:"omitempty,url"`
	IsAvailable     *bool   `json:"isAvailable,omitempty"`
}

// SkinScoreRequest is the body of POST /api/users/skin-score.
type SkinScoreRequest struct {
	Score   int        `json:"score" validate:"min=0,max=100"`
	PhotoID *uuid.UUID `json:"photoId,omitempty"`
}

// AssignDermatologistRequest is the body of POST /api/users/assign-dermatologist.
type AssignDermatologistRequest struct {
	PatientID       uuid.UUID `json:"patientId" validate:"required"`
	DermatologistID uuid.UUID `json:"dermatologistId" validate:"required"`
}

// SyncProfileRequest is the body of POST /api/auth/sync-profile, sent by the
// client after a delegated-auth signup.
type SyncProfileRequest struct {
	Name         string   `json:"name" validate:"required,min=2"`
	SkinType     *string  `json:"skinType,omitempty"`
	SkinConcerns []string `json:"skinConcerns,omitempty"`
}
