package routine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clearaf/api/internal/platform/httperr"
)

var errNotFound = httperr.NotFound("ROUTINE_NOT_FOUND", "routine not found")

// TxRunner executes fn inside a database transaction.
type TxRunner func(ctx context.Context, fn func(context.Context) error) error

type Service struct {
	repo Repository
	inTx TxRunner
}

func NewService(repo Repository, inTx TxRunner) *Service {
	return &Service{repo: repo, inTx: inTx}
}

// Create writes the routine and its steps in one transaction.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID, req CreateRequest) (*Routine, error) {
	rt := &Routine{
		UserID:    patientID,
		Name:      req.Name,
		TimeOfDay: req.TimeOfDay,
	}
	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rt); err != nil {
			return err
		}
		return s.repo.ReplaceSteps(ctx, rt.ID, toSteps(req.Steps))
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, rt.ID)
}

func (s *Service) Get(ctx context.Context, patientID, id uuid.UUID) (*Routine, error) {
	rt, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, err
	}
	if rt.UserID != patientID {
		return nil, errNotFound
	}
	return rt, nil
}

func (s *Service) List(ctx context.Context, patientID uuid.UUID) ([]*Routine, error) {
	return s.repo.ListForUser(ctx, patientID)
}

// Update edits routine fields; a non-nil Steps slice replaces the step list
// in the same transaction.
func (s *Service) Update(ctx context.Context, patientID, id uuid.UUID, req UpdateRequest) (*Routine, error) {
	rt, err := s.Get(ctx, patientID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		rt.Name = *req.Name
	}
	if req.TimeOfDay != nil {
		rt.TimeOfDay = *req.TimeOfDay
	}
	if req.IsActive != nil {
		rt.IsActive = *req.IsActive
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, rt); err != nil {
			return err
		}
		if req.Steps != nil {
			return s.repo.ReplaceSteps(ctx, rt.ID, toSteps(req.Steps))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, rt.ID)
}

func (s *Service) Delete(ctx context.Context, patientID, id uuid.UUID) error {
	if _, err := s.Get(ctx, patientID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Complete stamps the routine as done for today.
func (s *Service) Complete(ctx context.Context, patientID, id uuid.UUID) (*Routine, error) {
	if _, err := s.Get(ctx, patientID, id); err != nil {
		return nil, err
	}
	if err := s.repo.MarkCompleted(ctx, id, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func toSteps(in []StepInput) []Step {
	steps := make([]Step, len(in))
	for i, si := range in {
		steps[i] = Step{
			ProductName:  si.ProductName,
			ProductType:  si.ProductType,
			Instructions: si.Instructions,
			Duration:     si.Duration,
			OrderIndex:   i,
		}
	}
	return steps
}
