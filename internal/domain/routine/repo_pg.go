package routine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearaf/api/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const routineCols = `id, user_id, name, time_of_day, is_active,
	last_completed_at IS NOT NULL AND last_completed_at::date = CURRENT_DATE,
	last_completed_at, created_at, updated_at`

func scanRoutine(row pgx.Row) (*Routine, error) {
	var rt Routine
	err := row.Scan(&rt.ID, &rt.UserID, &rt.Name, &rt.TimeOfDay, &rt.IsActive,
		&rt.CompletedToday, &rt.LastCompletedAt, &rt.CreatedAt, &rt.UpdatedAt)
	return &rt, err
}

func (r *repoPG) Create(ctx context.Context, rt *Routine) error {
	if rt.ID == uuid.Nil {
		rt.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO routines (id, user_id, name, time_of_day)
		VALUES ($1,$2,$3,$4)
		RETURNING is_active, created_at, updated_at`,
		rt.ID, rt.UserID, rt.Name, rt.TimeOfDay).
		Scan(&rt.IsActive, &rt.CreatedAt, &rt.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Routine, error) {
	rt, err := scanRoutine(r.conn(ctx).QueryRow(ctx,
		`SELECT `+routineCols+` FROM routines WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	steps, err := r.stepsFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	rt.Steps = steps[id]
	if rt.Steps == nil {
		rt.Steps = []Step{}
	}
	return rt, nil
}

func (r *repoPG) Update(ctx context.Context, rt *Routine) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE routines SET name=$2, time_of_day=$3, is_active=$4, updated_at=NOW()
		WHERE id = $1`,
		rt.ID, rt.Name, rt.TimeOfDay, rt.IsActive)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM routines WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Routine, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+routineCols+` FROM routines WHERE user_id = $1
		ORDER BY CASE time_of_day WHEN 'morning' THEN 0 ELSE 1 END, created_at`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routines []*Routine
	var ids []uuid.UUID
	for rows.Next() {
		rt, err := scanRoutine(rows)
		if err != nil {
			return nil, err
		}
		routines = append(routines, rt)
		ids = append(ids, rt.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return routines, nil
	}

	steps, err := r.stepsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, rt := range routines {
		rt.Steps = steps[rt.ID]
		if rt.Steps == nil {
			rt.Steps = []Step{}
		}
	}
	return routines, nil
}

func (r *repoPG) stepsFor(ctx context.Context, routineIDs []uuid.UUID) (map[uuid.UUID][]Step, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, routine_id, product_name, product_type, instructions,
			duration, order_index
		FROM routine_steps WHERE routine_id = ANY($1)
		ORDER BY routine_id, order_index`,
		routineIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	steps := make(map[uuid.UUID][]Step)
	for rows.Next() {
		var s Step
		if err := rows.Scan(&s.ID, &s.RoutineID, &s.ProductName, &s.ProductType,
			&s.Instructions, &s.Duration, &s.OrderIndex); err != nil {
			return nil, err
		}
		steps[s.RoutineID] = append(steps[s.RoutineID], s)
	}
	return steps, rows.Err()
}

func (r *repoPG) ReplaceSteps(ctx context.Context, routineID uuid.UUID, steps []Step) error {
	q := r.conn(ctx)
	if _, err := q.Exec(ctx,
		`DELETE FROM routine_steps WHERE routine_id = $1`, routineID); err != nil {
		return err
	}
	for i := range steps {
		s := &steps[i]
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		s.RoutineID = routineID
		s.OrderIndex = i
		if _, err := q.Exec(ctx, `
			INSERT INTO routine_steps (id, routine_id, product_name,
				product_type, instructions, duration, order_index)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			s.ID, s.RoutineID, s.ProductName, s.ProductType, s.Instructions,
			s.Duration, s.OrderIndex); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE routines SET last_completed_at=$2, updated_at=NOW() WHERE id = $1`,
		id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
