package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clearaf/api/internal/domain/identity"
	"github.com/clearaf/api/internal/platform/auth"
	"github.com/clearaf/api/internal/platform/httperr"
)

// PatientDirectory confirms prescription subjects exist.
type PatientDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
}

type Service struct {
	repo     Repository
	patients PatientDirectory
}

func NewService(repo Repository, patients PatientDirectory) *Service {
	return &Service{repo: repo, patients: patients}
}

var errNotFound = httperr.NotFound(httperr.CodeNotFound, "prescription not found")

// Create writes a prescription for one of the dermatologist's patients.
func (s *Service) Create(ctx context.Context, dermatologistID uuid.UUID, req CreateRequest) (*Prescription, error) {
	if _, err := s.patients.GetByID(ctx, req.PatientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httperr.NotFound("PATIENT_NOT_FOUND", "patient not found")
		}
		return nil, err
	}

	p := &Prescription{
		Medication:      req.Medication,
		Dosage:          req.Dosage,
		Frequency:       req.Frequency,
		Instructions:    req.Instructions,
		Refills:         req.Refills,
		Status:          StatusActive,
		EndDate:         req.EndDate,
		PatientID:       req.PatientID,
		DermatologistID: dermatologistID,
		ProductID:       req.ProductID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns the caller's side of the prescription book, optionally
// filtered by status.
func (s *Service) List(ctx context.Context, id *auth.Identity, status string, limit, offset int) ([]*Prescription, int, error) {
	uid, err := uuid.Parse(id.UserID)
	if err != nil {
		return nil, 0, httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	if id.Role == auth.RoleDermatologist {
		return s.repo.ListForDermatologist(ctx, uid, status, limit, offset)
	}
	return s.repo.ListForPatient(ctx, uid, status, limit, offset)
}

// Get returns one prescription, visible to its participants only.
func (s *Service) Get(ctx context.Context, id *auth.Identity, prescriptionID uuid.UUID) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, prescriptionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, err
	}
	uid, err := uuid.Parse(id.UserID)
	if err != nil {
		return nil, httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	switch id.Role {
	case auth.RolePatient:
		if p.PatientID != uid {
			return nil, errNotFound
		}
	case auth.RoleDermatologist:
		if p.DermatologistID != uid {
			return nil, errNotFound
		}
	}
	return p, nil
}

// Update modifies a prescription the dermatologist wrote.
func (s *Service) Update(ctx context.Context, dermatologistID, prescriptionID uuid.UUID, req UpdateRequest) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, prescriptionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, err
	}
	if p.DermatologistID != dermatologistID {
		return nil, errNotFound
	}

	if req.Dosage != nil {
		p.Dosage = *req.Dosage
	}
	if req.Frequency != nil {
		p.Frequency = *req.Frequency
	}
	if req.Instructions != nil {
		p.Instructions = req.Instructions
	}
	if req.Refills != nil {
		p.Refills = *req.Refills
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.EndDate != nil {
		p.EndDate = req.EndDate
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
