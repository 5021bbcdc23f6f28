package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clearaf/api/internal/platform/auth"
	"github.com/clearaf/api/internal/platform/httperr"
)

// TokenIssuer signs access tokens for locally authenticated users. Nil in
// delegated-auth mode, where the auth provider issues tokens.
type TokenIssuer interface {
	IssueToken(id auth.Identity) (string, error)
}

type Service struct {
	patients PatientRepository
	derms    DermatologistRepository
	tokens   TokenIssuer
}

func NewService(patients PatientRepository, derms DermatologistRepository, tokens TokenIssuer) *Service {
	return &Service{patients: patients, derms: derms, tokens: tokens}
}

// AuthResponse is the body returned by register and login.
type AuthResponse struct {
	User     interface{} `json:"user"`
	Token    string      `json:"token"`
	UserType string      `json:"userType"`
}

// Register creates a patient or dermatologist account and issues a token.
// Duplicate emails surface as a unique violation and map to 409 downstream.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if s.tokens == nil {
		return nil, httperr.BadRequest(httperr.CodeValidation, "registration is handled by the auth provider")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	var user interface{}
	identity := auth.Identity{Email: req.Email}

	switch req.UserType {
	case string(auth.RolePatient):
		p := &Patient{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: &hash,
			SkinType:     req.SkinType,
			SkinConcerns: req.SkinConcerns,
		}
		if err := s.patients.Create(ctx, p); err != nil {
			return nil, err
		}
		user = p
		identity.UserID = p.ID.String()
		identity.Role = auth.RolePatient
	case string(auth.RoleDermatologist):
		d := &Dermatologist{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: &hash,
		}
		if err := s.derms.Create(ctx, d); err != nil {
			return nil, err
		}
		user = d
		identity.UserID = d.ID.String()
		identity.Role = auth.RoleDermatologist
	default:
		return nil, httperr.BadRequest(httperr.CodeValidation, "userType must be patient or dermatologist")
	}

	token, err := s.tokens.IssueToken(identity)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, Token: token, UserType: string(identity.Role)}, nil
}

// Login checks the credentials against both identity tables, patients first.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if s.tokens == nil {
		return nil, httperr.BadRequest(httperr.CodeValidation, "login is handled by the auth provider")
	}

	invalid := httperr.Unauthorized(httperr.CodeInvalidCreds, "invalid email or password")

	if p, err := s.patients.GetByEmail(ctx, req.Email); err == nil {
		if p.PasswordHash == nil || !auth.CheckPassword(*p.PasswordHash, req.Password) {
			return nil, invalid
		}
		token, err := s.tokens.IssueToken(auth.Identity{
			UserID: p.ID.String(), Email: p.Email, Role: auth.RolePatient,
		})
		if err != nil {
			return nil, err
		}
		return &AuthResponse{User: p, Token: token, UserType: string(auth.RolePatient)}, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	d, err := s.derms.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invalid
		}
		return nil, err
	}
	if d.PasswordHash == nil || !auth.CheckPassword(*d.PasswordHash, req.Password) {
		return nil, invalid
	}
	token, err := s.tokens.IssueToken(auth.Identity{
		UserID: d.ID.String(), Email: d.Email, Role: auth.RoleDermatologist,
	})
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: d, Token: token, UserType: string(auth.RoleDermatologist)}, nil
}

// CurrentUser loads the full record behind a verified identity.
func (s *Service) CurrentUser(ctx context.Context, id *auth.Identity) (interface{}, error) {
	uid, err := uuid.Parse(id.UserID)
	if err != nil {
		return nil, httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}
	switch id.Role {
	case auth.RoleDermatologist:
		return s.derms.GetByID(ctx, uid)
	default:
		return s.patients.GetByID(ctx, uid)
	}
}

// SyncProfile upserts the patient row for a delegated-auth subject. New
// patients are assigned the first available dermatologist when one exists.
func (s *Service) SyncProfile(ctx context.Context, id *auth.Identity, req SyncProfileRequest) (*Patient, error) {
	uid, err := uuid.Parse(id.UserID)
	if err != nil {
		return nil, httperr.Unauthorized(httperr.CodeUserNotFound, "user not found")
	}

	p, err := s.patients.GetByID(ctx, uid)
	if err == nil {
		p.Name = req.Name
		if req.SkinType != nil {
			p.SkinType = req.SkinType
		}
		if req.SkinConcerns != nil {
			p.SkinConcerns = req.SkinConcerns
		}
		if err := s.patients.Update(ctx, p); err != nil {
			return nil, err
		}
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	p = &Patient{
		ID:           uid,
		Name:         req.Name,
		Email:        id.Email,
		SkinType:     req.SkinType,
		SkinConcerns: req.SkinConcerns,
	}
	if d, err := s.derms.FirstAvailable(ctx); err == nil {
		p.DermatologistID = &d.ID
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) UpdatePatientProfile(ctx context.Context, patientID uuid.UUID, req UpdatePatientProfileRequest) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.SkinType != nil {
		p.SkinType = req.SkinType
	}
	if req.SkinConcerns != nil {
		p.SkinConcerns = req.SkinConcerns
	}
	if req.Allergies != nil {
		p.Allergies = req.Allergies
	}
	if req.CurrentMedications != nil {
		p.CurrentMedications = req.CurrentMedications
	}
	if req.OnboardingCompleted != nil {
		p.OnboardingCompleted = *req.OnboardingCompleted
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) UpdateDermatologistProfile(ctx context.Context, dermID uuid.UUID, req UpdateDermatologistProfileRequest) (*Dermatologist, error) {
	d, err := s.derms.GetByID(ctx, dermID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		d.Name = *req.Name
	}
	if req.Title != nil {
		d.Title = req.Title
	}
	if req.Specialization != nil {
		d.Specialization = req.Specialization
	}
	if req.Phone != nil {
		d.Phone = req.Phone
	}
	if req.ProfileImageURL != nil {
		d.ProfileImageURL = req.ProfileImageURL
	}
	if req.IsAvailable != nil {
		d.IsAvailable = *req.IsAvailable
	}
	if err := s.derms.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// RecordSkinScore sets the patient's current score and bumps the streak.
func (s *Service) RecordSkinScore(ctx context.Context, patientID uuid.UUID, req SkinScoreRequest) (*Patient, error) {
	if req.Score < 0 || req.Score > 100 {
		return nil, httperr.BadRequest("INVALID_SKIN_SCORE", "skin score must be between 0 and 100")
	}
	if err := s.patients.RecordSkinScore(ctx, patientID, req.Score); err != nil {
		return nil, err
	}
	return s.patients.GetByID(ctx, patientID)
}

func (s *Service) PatientStats(ctx context.Context, patientID uuid.UUID) (*PatientStats, error) {
	return s.patients.Stats(ctx, patientID)
}

func (s *Service) DermatologistStats(ctx context.Context, dermID uuid.UUID) (*DermatologistStats, error) {
	return s.derms.Stats(ctx, dermID)
}

// AssignDermatologist links a patient to a dermatologist after checking both
// records exist.
func (s *Service) AssignDermatologist(ctx context.Context, req AssignDermatologistRequest) error {
	if _, err := s.derms.GetByID(ctx, req.DermatologistID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return httperr.NotFound(httperr.CodeNotFound, "dermatologist not found")
		}
		return err
	}
	err := s.patients.AssignDermatologist(ctx, req.PatientID, req.DermatologistID)
	if errors.Is(err, pgx.ErrNoRows) {
		return httperr.NotFound("PATIENT_NOT_FOUND", "patient not found")
	}
	return err
}

func (s *Service) ListPatients(ctx context.Context, dermID uuid.UUID, search string, limit, offset int) ([]*Patient, int, error) {
	return s.patients.ListByDermatologist(ctx, dermID, search, limit, offset)
}

func (s *Service) PatientSummaries(ctx context.Context, dermID uuid.UUID, limit, offset int) ([]*PatientSummary, int, error) {
	return s.patients.SummariesByDermatologist(ctx, dermID, limit, offset)
}

// PatientByID returns one of the dermatologist's own patients.
func (s *Service) PatientByID(ctx context.Context, dermID, patientID uuid.UUID) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httperr.NotFound("PATIENT_NOT_FOUND", "patient not found")
		}
		return nil, err
	}
	if p.DermatologistID == nil || *p.DermatologistID != dermID {
		return nil, httperr.NotFound("PATIENT_NOT_FOUND", "patient not found")
	}
	return p, nil
}

// -- auth.Directory implementation --

// ResolveRole classifies a delegated subject whose token carries no role:
// an email present in the dermatologists table means dermatologist,
// otherwise patient.
func (s *Service) ResolveRole(ctx context.Context, email string) (auth.Role, error) {
	_, err := s.derms.GetByEmail(ctx, email)
	if err == nil {
		return auth.RoleDermatologist, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.RolePatient, nil
	}
	return "", err
}

// Exists reports whether the subject still has a row in its identity table.
// Delegated subjects that have not synced a profile yet are treated as
// existing patients so sync-profile itself stays reachable.
func (s *Service) Exists(ctx context.Context, userID string, role auth.Role) (bool, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return false, nil
	}
	switch role {
	case auth.RoleDermatologist:
		_, err = s.derms.GetByID(ctx, uid)
	default:
		_, err = s.patients.GetByID(ctx, uid)
		if errors.Is(err, pgx.ErrNoRows) && s.tokens == nil {
			return true, nil
		}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
