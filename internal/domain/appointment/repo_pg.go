package appointment

import (
	"context"
	"fmt"
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

const apptCols = `id, scheduled_date, type, concern, duration, status,
	visit_notes, video_call_url, patient_id, dermatologist_id,
	created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.ScheduledDate, &a.Type, &a.Concern, &a.Duration,
		&a.Status, &a.VisitNotes, &a.VideoCallURL, &a.PatientID,
		&a.DermatologistID, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (id, scheduled_date, type, concern, duration,
			status, video_call_url, patient_id, dermatologist_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		a.ID, a.ScheduledDate, a.Type, a.Concern, a.Duration, a.Status,
		a.VideoCallURL, a.PatientID, a.DermatologistID).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET scheduled_date=$2, duration=$3, status=$4,
			visit_notes=$5, video_call_url=$6, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.ScheduledDate, a.Duration, a.Status, a.VisitNotes, a.VideoCallURL)
	return err
}

func (r *repoPG) ListForPatient(ctx context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `patient_id`, patientID, status, limit, offset)
}

func (r *repoPG) ListForDermatologist(ctx context.Context, dermatologistID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `dermatologist_id`, dermatologistID, status, limit, offset)
}

func (r *repoPG) list(ctx context.Context, ownerCol string, ownerID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	where := ownerCol + ` = $1`
	args := []interface{}{ownerID}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT %s FROM appointments WHERE %s ORDER BY scheduled_date DESC LIMIT $%d OFFSET $%d`,
		apptCols, where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) HasConflict(ctx context.Context, dermatologistID uuid.UUID, at time.Time, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE dermatologist_id = $1
			AND id <> $2
			AND status IN ('scheduled','confirmed','in-progress')
			AND scheduled_date BETWEEN $3::timestamptz - interval '30 minutes'
				AND $3::timestamptz + interval '30 minutes'
		)`, dermatologistID, exclude, at).Scan(&exists)
	return exists, err
}
