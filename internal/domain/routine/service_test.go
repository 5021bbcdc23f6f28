package routine

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clearaf/api/internal/platform/httperr"
)

type memRepo struct {
	routines map[uuid.UUID]*Routine
	steps    map[uuid.UUID][]Step
}

func newMemRepo() *memRepo {
	return &memRepo{
		routines: make(map[uuid.UUID]*Routine),
		steps:    make(map[uuid.UUID][]Step),
	}
}

func (r *memRepo) Create(_ context.Context, rt *Routine) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	rt.IsActive = true
	rt.CreatedAt = time.Now()
	cp := *rt
	r.routines[rt.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Routine, error) {
	rt, ok := r.routines[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *rt
	cp.Steps = append([]Step{}, r.steps[id]...)
	if cp.LastCompletedAt != nil {
		y1, m1, d1 := cp.LastCompletedAt.UTC().Date()
		y2, m2, d2 := time.Now().UTC().Date()
		cp.CompletedToday = y1 == y2 && m1 == m2 && d1 == d2
	}
	return &cp, nil
}

func (r *memRepo) Update(_ context.Context, rt *Routine) error {
	stored, ok := r.routines[rt.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	cp := *rt
	cp.LastCompletedAt = stored.LastCompletedAt
	r.routines[rt.ID] = &cp
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.routines, id)
	delete(r.steps, id)
	return nil
}

func (r *memRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Routine, error) {
	var items []*Routine
	for id, rt := range r.routines {
		if rt.UserID != userID {
			continue
		}
		cp, _ := r.GetByID(ctx, id)
		items = append(items, cp)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].TimeOfDay != items[j].TimeOfDay {
			return items[i].TimeOfDay == TimeMorning
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (r *memRepo) ReplaceSteps(_ context.Context, routineID uuid.UUID, steps []Step) error {
	out := make([]Step, len(steps))
	for i, s := range steps {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		s.RoutineID = routineID
		s.OrderIndex = i
		out[i] = s
	}
	r.steps[routineID] = out
	return nil
}

func (r *memRepo) MarkCompleted(_ context.Context, id uuid.UUID, at time.Time) error {
	rt, ok := r.routines[id]
	if !ok {
		return pgx.ErrNoRows
	}
	rt.LastCompletedAt = &at
	return nil
}

func passthroughTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func TestCreateWithSteps(t *testing.T) {
	svc := NewService(newMemRepo(), passthroughTx)
	patientID := uuid.New()

	rt, err := svc.Create(context.Background(), patientID, CreateRequest{
		Name:      "Morning reset",
		TimeOfDay: TimeMorning,
		Steps: []StepInput{
			{ProductName: "Gentle Cleanser", ProductType: "cleanser"},
			{ProductName: "Vitamin C Serum", ProductType: "serum"},
			{ProductName: "Daily SPF 50", ProductType: "sunscreen"},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !rt.IsActive || rt.CompletedToday {
		t.Errorf("routine = %+v", rt)
	}
	if len(rt.Steps) != 3 {
		t.Fatalf("steps = %d", len(rt.Steps))
	}
	for i, s := range rt.Steps {
		if s.OrderIndex != i {
			t.Errorf("step %d orderIndex = %d", i, s.OrderIndex)
		}
	}
}

func TestUpdateReplacesSteps(t *testing.T) {
	svc := NewService(newMemRepo(), passthroughTx)
	patientID := uuid.New()
	ctx := context.Background()

	rt, err := svc.Create(ctx, patientID, CreateRequest{
		Name: "Evening", TimeOfDay: TimeEvening,
		Steps: []StepInput{
			{ProductName: "Cleanser", ProductType: "cleanser"},
			{ProductName: "Retinoid", ProductType: "treatment"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(ctx, patientID, rt.ID, UpdateRequest{
		Steps: []StepInput{{ProductName: "Moisturizer", ProductType: "moisturizer"}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated.Steps) != 1 || updated.Steps[0].ProductName != "Moisturizer" {
		t.Errorf("steps after replace: %+v", updated.Steps)
	}

	// Field-only update leaves steps alone.
	name := "Night repair"
	updated, err = svc.Update(ctx, patientID, rt.ID, UpdateRequest{Name: &name})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Night repair" || len(updated.Steps) != 1 {
		t.Errorf("after rename: name=%q steps=%d", updated.Name, len(updated.Steps))
	}
}

func TestOwnership(t *testing.T) {
	svc := NewService(newMemRepo(), passthroughTx)
	owner := uuid.New()
	ctx := context.Background()

	rt, err := svc.Create(ctx, owner, CreateRequest{Name: "Morning", TimeOfDay: TimeMorning})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Get(ctx, uuid.New(), rt.ID)
	var appErr *httperr.Error
	if !errors.As(err, &appErr) || appErr.Code != "ROUTINE_NOT_FOUND" {
		t.Errorf("foreign get: got %v, want ROUTINE_NOT_FOUND", err)
	}
	if err := svc.Delete(ctx, uuid.New(), rt.ID); err == nil {
		t.Error("foreign delete succeeded")
	}
	if _, err := svc.Get(ctx, owner, rt.ID); err != nil {
		t.Errorf("owner get after foreign delete attempt: %v", err)
	}
}

func TestComplete(t *testing.T) {
	svc := NewService(newMemRepo(), passthroughTx)
	owner := uuid.New()
	ctx := context.Background()

	rt, err := svc.Create(ctx, owner, CreateRequest{Name: "Evening", TimeOfDay: TimeEvening})
	if err != nil {
		t.Fatal(err)
	}
	if rt.CompletedToday {
		t.Error("new routine already completed")
	}

	done, err := svc.Complete(ctx, owner, rt.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !done.CompletedToday || done.LastCompletedAt == nil {
		t.Errorf("after complete: %+v", done)
	}
}

func TestListOrdersMorningFirst(t *testing.T) {
	svc := NewService(newMemRepo(), passthroughTx)
	owner := uuid.New()
	ctx := context.Background()

	if _, err := svc.Create(ctx, owner, CreateRequest{Name: "Evening", TimeOfDay: TimeEvening}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, owner, CreateRequest{Name: "Morning", TimeOfDay: TimeMorning}); err != nil {
		t.Fatal(err)
	}

	routines, err := svc.List(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(routines) != 2 || routines[0].TimeOfDay != TimeMorning {
		t.Errorf("order: %+v", routines)
	}
}
