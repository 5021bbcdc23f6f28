// Package photo manages patient progress photos: uploads into object
// storage, the photo log, and the progress timeline built from it.
package photo

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// SkinPhoto maps to the skin_photos table.
type SkinPhoto struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"userId"`
	PhotoURL      string     `json:"photoUrl"`
	StorageKey    *string    `json:"-"`
	SkinScore     int        `json:"skinScore"`
	Notes         *string    `json:"notes,omitempty"`
	CaptureDate   time.Time  `json:"captureDate"`
	AppointmentID *uuid.UUID `json:"appointmentId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ProgressPoint is one photo reduced to its score for chart rendering.
type ProgressPoint struct {
	Date  time.Time `json:"date"`
	Score int       `json:"score"`
}

// WeeklyProgress aggregates one calendar week of the timeline.
type WeeklyProgress struct {
	WeekStart    time.Time `json:"weekStart"`
	AverageScore float64   `json:"averageScore"`
	PhotoCount   int       `json:"photoCount"`
}

// Timeline is the response of the progress endpoint.
type Timeline struct {
	Weeks        []WeeklyProgress `json:"timeline"`
	AverageScore float64          `json:"averageScore"`
	Trend        string           `json:"trend"`
	TotalPhotos  int              `json:"totalPhotos"`
}

// UploadInput carries a multipart upload into the service.
type UploadInput struct {
	Content       io.Reader
	ContentType   string
	Size          int64
	SkinScore     int
	Notes         *string
	CaptureDate   time.Time
	AppointmentID *uuid.UUID
}

// CreateRequest is the JSON body variant for photos already hosted elsewhere.
type CreateRequest struct {
	PhotoURL      string     `json:"photoUrl" validate:"required,url"`
	SkinScore     int        `json:"skinScore" validate:"min=0,max=100"`
	Notes         *string    `json:"notes,omitempty"`
	CaptureDate   *time.Time `json:"captureDate,omitempty"`
	AppointmentID *uuid.UUID `json:"appointmentId,omitempty"`
}

// UpdateRequest is the body of PATCH /api/photos/:id.
type UpdateRequest struct {
	SkinScore   *int       `json:"skinScore,omitempty" validate:"omitempty,min=0,max=100"`
	Notes       *string    `json:"notes,omitempty"`
	CaptureDate *time.Time `json:"captureDate,omitempty"`
}
