package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clearaf/api/internal/domain/identity"
	"github.com/clearaf/api/internal/platform/auth"
	"github.com/clearaf/api/internal/platform/httperr"
)

// PatientDirectory is the slice of the identity layer this service needs.
type PatientDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
}

// DermatologistDirectory resolves dermatologists for booking.
type DermatologistDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Dermatologist, error)
}

type Service struct {
	repo     Repository
	patients PatientDirectory
	derms    DermatologistDirectory
}

func NewService(repo Repository, patients PatientDirectory, derms DermatologistDirectory) *Service {
	return &Service{repo: repo, patients: patients, derms: derms}
}

var errNotFound = httperr.NotFound("APPOINTMENT_NOT_FOUND", "appointment not found")

// Create books an appointment for the patient. The dermatologist is the one
// named in the request, falling back to the patient's assigned one.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID, req CreateRequest) (*Appointment, error) {
	dermID := req.DermatologistID
	if dermID == nil {
		p, err := s.patients.GetByID(ctx, patientID)
		if err != nil {
			return nil, err
		}
		dermID = p.DermatologistID
	}
	if dermID == nil {
		return nil, httperr.BadRequest("NO_DERMATOLOGIST", "no dermatologist assigned; specify one or contact support")
	}

	derm, err := s.derms.GetByID(ctx, *dermID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httperr.NotFound(httperr.CodeNotFound, "dermatologist not found")
		}
		return nil, err
	}
	if !derm.IsAvailable {
		return nil, httperr.BadRequest("DERMATOLOGIST_UNAVAILABLE", "dermatologist is not accepting appointments")
	}

	conflict, err := s.repo.HasConflict(ctx, derm.ID, req.ScheduledDate, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, httperr.Conflict("TIME_CONFLICT", "dermatologist already has an appointment within 30 minutes of this time")
	}

	duration := req.Duration
	if duration == 0 {
		duration = DefaultDuration
	}

	a := &Appointment{
		ScheduledDate:   req.ScheduledDate,
		Type:            req.Type,
		Concern:         req.Concern,
		Duration:        duration,
		Status:          StatusScheduled,
		PatientID:       patientID,
		DermatologistID: derm.ID,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// List returns the caller's side of the appointment book.
func (s *Service) List(ctx context.Context, id *auth.Identity, status string, limit, offset int) ([]*Appointment, int, error) {
	uid, err := uuid.Parse(id.UserID)
	if err != nil {
		return nil, 0, httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	if id.Role == auth.RoleDermatologist {
		return s.repo.ListForDermatologist(ctx, uid, status, limit, offset)
	}
	return s.repo.ListForPatient(ctx, uid, status, limit, offset)
}

// Get returns one appointment, visible to its participants only.
func (s *Service) Get(ctx context.Context, id *auth.Identity, appointmentID uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, err
	}
	if err := s.authorize(id, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Update applies role-dependent changes: patients may only reschedule,
// dermatologists may also manage status, notes, and the call link.
func (s *Service) Update(ctx context.Context, id *auth.Identity, appointmentID uuid.UUID, req UpdateRequest) (*Appointment, error) {
	a, err := s.Get(ctx, id, appointmentID)
	if err != nil {
		return nil, err
	}

	if id.Role == auth.RolePatient {
		if req.Status != nil || req.VisitNotes != nil || req.VideoCallURL != nil {
			return nil, httperr.Forbidden(httperr.CodeAccessDenied, "patients may only reschedule appointments")
		}
	}

	if req.ScheduledDate != nil && !req.ScheduledDate.Equal(a.ScheduledDate) {
		conflict, err := s.repo.HasConflict(ctx, a.DermatologistID, *req.ScheduledDate, a.ID)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, httperr.Conflict("TIME_CONFLICT", "dermatologist already has an appointment within 30 minutes of this time")
		}
		a.ScheduledDate = *req.ScheduledDate
	}
	if req.Duration != nil {
		a.Duration = *req.Duration
	}
	if req.Status != nil {
		a.Status = *req.Status
	}
	if req.VisitNotes != nil {
		a.VisitNotes = req.VisitNotes
	}
	if req.VideoCallURL != nil {
		a.VideoCallURL = req.VideoCallURL
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Cancel soft-cancels an appointment. Completed appointments cannot be
// cancelled.
func (s *Service) Cancel(ctx context.Context, id *auth.Identity, appointmentID uuid.UUID) (*Appointment, error) {
	a, err := s.Get(ctx, id, appointmentID)
	if err != nil {
		return nil, err
	}
	if a.Status == StatusCompleted {
		return nil, httperr.BadRequest("CANNOT_CANCEL_COMPLETED", "completed appointments cannot be cancelled")
	}
	a.Status = StatusCancelled
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) authorize(id *auth.Identity, a *Appointment) error {
	uid, err := uuid.Parse(id.UserID)
	if err != nil {
		return httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	switch id.Role {
	case auth.RolePatient:
		if a.PatientID == uid {
			return nil
		}
	case auth.RoleDermatologist:
		if a.DermatologistID == uid {
			return nil
		}
	}
	return httperr.Forbidden(httperr.CodeAccessDenied, "not a participant in this appointment")
}
