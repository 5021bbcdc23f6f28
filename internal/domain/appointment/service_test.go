package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clearaf/api/internal/domain/identity"
	"github.com/clearaf/api/internal/platform/auth"
	"github.com/clearaf/api/internal/platform/httperr"
)

type memRepo struct {
	appointments map[uuid.UUID]*Appointment
}

func newMemRepo() *memRepo {
	return &memRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (r *memRepo) Create(_ context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	r.appointments[a.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := r.appointments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (r *memRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := r.appointments[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *a
	r.appointments[a.ID] = &cp
	return nil
}

func (r *memRepo) ListForPatient(_ context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	var items []*Appointment
	for _, a := range r.appointments {
		if a.PatientID != patientID {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		cp := *a
		items = append(items, &cp)
	}
	return items, len(items), nil
}

func (r *memRepo) ListForDermatologist(_ context.Context, dermID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	var items []*Appointment
	for _, a := range r.appointments {
		if a.DermatologistID != dermID {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		cp := *a
		items = append(items, &cp)
	}
	return items, len(items), nil
}

func (r *memRepo) HasConflict(_ context.Context, dermID uuid.UUID, at time.Time, exclude uuid.UUID) (bool, error) {
	for _, a := range r.appointments {
		if a.DermatologistID != dermID || a.ID == exclude {
			continue
		}
		switch a.Status {
		case StatusScheduled, StatusConfirmed, StatusInProgress:
		default:
			continue
		}
		diff := a.ScheduledDate.Sub(at)
		if diff < 0 {
			diff = -diff
		}
		if diff <= ConflictWindow {
			return true, nil
		}
	}
	return false, nil
}

type staticPatients struct {
	byID map[uuid.UUID]*identity.Patient
}

func (s staticPatients) GetByID(_ context.Context, id uuid.UUID) (*identity.Patient, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

type staticDerms struct {
	byID map[uuid.UUID]*identity.Dermatologist
}

func (s staticDerms) GetByID(_ context.Context, id uuid.UUID) (*identity.Dermatologist, error) {
	d, ok := s.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return d, nil
}

type fixture struct {
	svc       *Service
	repo      *memRepo
	patientID uuid.UUID
	dermID    uuid.UUID
}

func newFixture(t *testing.T, assigned bool) *fixture {
	t.Helper()
	repo := newMemRepo()
	dermID := uuid.New()
	patientID := uuid.New()

	p := &identity.Patient{ID: patientID, Name: "Alice", Email: "alice@example.com"}
	if assigned {
		p.DermatologistID = &dermID
	}
	patients := staticPatients{byID: map[uuid.UUID]*identity.Patient{patientID: p}}
	derms := staticDerms{byID: map[uuid.UUID]*identity.Dermatologist{
		dermID: {ID: dermID, Name: "Dr. Bob", IsAvailable: true},
	}}

	return &fixture{
		svc:       NewService(repo, patients, derms),
		repo:      repo,
		patientID: patientID,
		dermID:    dermID,
	}
}

func validRequest(at time.Time) CreateRequest {
	return CreateRequest{
		ScheduledDate: at,
		Type:          "consultation",
		Concern:       "persistent breakouts on forehead",
	}
}

func TestCreateUsesAssignedDermatologist(t *testing.T) {
	f := newFixture(t, true)

	a, err := f.svc.Create(context.Background(), f.patientID, validRequest(time.Now().Add(24*time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.DermatologistID != f.dermID {
		t.Errorf("dermatologistId = %s, want assigned %s", a.DermatologistID, f.dermID)
	}
	if a.Status != StatusScheduled || a.Duration != DefaultDuration {
		t.Errorf("status=%s duration=%d", a.Status, a.Duration)
	}
}

func TestCreateNoDermatologist(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.Create(context.Background(), f.patientID, validRequest(time.Now().Add(24*time.Hour)))
	var appErr *httperr.Error
	if !errors.As(err, &appErr) || appErr.Code != "NO_DERMATOLOGIST" {
		t.Errorf("got %v, want NO_DERMATOLOGIST", err)
	}
}

func TestCreateUnavailableDermatologist(t *testing.T) {
	f := newFixture(t, true)
	busyID := uuid.New()
	f.svc.derms = staticDerms{byID: map[uuid.UUID]*identity.Dermatologist{
		busyID: {ID: busyID, Name: "Dr. Off", IsAvailable: false},
	}}

	req := validRequest(time.Now().Add(24 * time.Hour))
	req.DermatologistID = &busyID
	_, err := f.svc.Create(context.Background(), f.patientID, req)
	var appErr *httperr.Error
	if !errors.As(err, &appErr) || appErr.Code != "DERMATOLOGIST_UNAVAILABLE" {
		t.Errorf("got %v, want DERMATOLOGIST_UNAVAILABLE", err)
	}
}

func TestCreateTimeConflict(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	base := time.Now().Add(24 * time.Hour)

	if _, err := f.svc.Create(ctx, f.patientID, validRequest(base)); err != nil {
		t.Fatal(err)
	}

	// 20 minutes later: inside the window.
	_, err := f.svc.Create(ctx, f.patientID, validRequest(base.Add(20*time.Minute)))
	var appErr *httperr.Error
	if !errors.As(err, &appErr) || appErr.Code != "TIME_CONFLICT" || appErr.Status != 409 {
		t.Errorf("got %v, want 409 TIME_CONFLICT", err)
	}

	// 45 minutes later: outside the window.
	if _, err := f.svc.Create(ctx, f.patientID, validRequest(base.Add(45*time.Minute))); err != nil {
		t.Errorf("outside window: %v", err)
	}
}

func TestCancelledAppointmentDoesNotConflict(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	base := time.Now().Add(24 * time.Hour)

	a, err := f.svc.Create(ctx, f.patientID, validRequest(base))
	if err != nil {
		t.Fatal(err)
	}
	id := &auth.Identity{UserID: f.patientID.String(), Role: auth.RolePatient}
	if _, err := f.svc.Cancel(ctx, id, a.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Create(ctx, f.patientID, validRequest(base.Add(10*time.Minute))); err != nil {
		t.Errorf("slot freed by cancellation still conflicts: %v", err)
	}
}

func TestGetParticipantsOnly(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, f.patientID, validRequest(time.Now().Add(24*time.Hour)))
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []*auth.Identity{
		{UserID: f.patientID.String(), Role: auth.RolePatient},
		{UserID: f.dermID.String(), Role: auth.RoleDermatologist},
	} {
		if _, err := f.svc.Get(ctx, id, a.ID); err != nil {
			t.Errorf("participant %s: %v", id.Role, err)
		}
	}

	_, err = f.svc.Get(ctx, &auth.Identity{UserID: uuid.New().String(), Role: auth.RolePatient}, a.ID)
	var appErr *httperr.Error
	if !errors.As(err, &appErr) || appErr.Code != httperr.CodeAccessDenied {
		t.Errorf("outsider: got %v, want ACCESS_DENIED", err)
	}

	_, err = f.svc.Get(ctx, &auth.Identity{UserID: f.patientID.String(), Role: auth.RolePatient}, uuid.New())
	if !errors.As(err, &appErr) || appErr.Code != "APPOINTMENT_NOT_FOUND" {
		t.Errorf("missing: got %v, want APPOINTMENT_NOT_FOUND", err)
	}
}

func TestPatientMayOnlyReschedule(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, f.patientID, validRequest(time.Now().Add(24*time.Hour)))
	if err != nil {
		t.Fatal(err)
	}
	patient := &auth.Identity{UserID: f.patientID.String(), Role: auth.RolePatient}

	status := StatusCompleted
	_, err = f.svc.Update(ctx, patient, a.ID, UpdateRequest{Status: &status})
	var appErr *httperr.Error
	if !errors.As(err, &appErr) || appErr.Code != httperr.CodeAccessDenied {
		t.Errorf("patient status change: got %v, want ACCESS_DENIED", err)
	}

	newDate := a.ScheduledDate.Add(2 * time.Hour)
	updated, err := f.svc.Update(ctx, patient, a.ID, UpdateRequest{ScheduledDate: &newDate})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if !updated.ScheduledDate.Equal(newDate) {
		t.Error("reschedule not applied")
	}

	derm := &auth.Identity{UserID: f.dermID.String(), Role: auth.RoleDermatologist}
	notes := "responding well to treatment"
	updated, err = f.svc.Update(ctx, derm, a.ID, UpdateRequest{Status: &status, VisitNotes: &notes})
	if err != nil {
		t.Fatalf("derm update: %v", err)
	}
	if updated.Status != StatusCompleted || updated.VisitNotes == nil {
		t.Errorf("derm update not applied: %+v", updated)
	}
}

func TestCannotCancelCompleted(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, f.patientID, validRequest(time.Now().Add(24*time.Hour)))
	if err != nil {
		t.Fatal(err)
	}
	derm := &auth.Identity{UserID: f.dermID.String(), Role: auth.RoleDermatologist}
	status := StatusCompleted
	if _, err := f.svc.Update(ctx, derm, a.ID, UpdateRequest{Status: &status}); err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.Cancel(ctx, derm, a.ID)
	var appErr *httperr.Error
	if !errors.As(err, &appErr) || appErr.Code != "CANNOT_CANCEL_COMPLETED" {
		t.Errorf("got %v, want CANNOT_CANCEL_COMPLETED", err)
	}
}
