package photo

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

const photoCols = `id, user_id, photo_url, storage_key, skin_score, notes,
	capture_date, appointment_id, created_at, updated_at`

func scanPhoto(row pgx.Row) (*SkinPhoto, error) {
	var p SkinPhoto
	err := row.Scan(&p.ID, &p.UserID, &p.PhotoURL, &p.StorageKey, &p.SkinScore,
		&p.Notes, &p.CaptureDate, &p.AppointmentID, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *SkinPhoto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO skin_photos (id, user_id, photo_url, storage_key,
			skin_score, notes, capture_date, appointment_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.PhotoURL, p.StorageKey, p.SkinScore, p.Notes,
		p.CaptureDate, p.AppointmentID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*SkinPhoto, error) {
	return scanPhoto(r.conn(ctx).QueryRow(ctx,
		`SELECT `+photoCols+` FROM skin_photos WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *SkinPhoto) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE skin_photos SET skin_score=$2, notes=$3, capture_date=$4,
			updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.SkinScore, p.Notes, p.CaptureDate)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM skin_photos WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListForUser(ctx context.Context, userID uuid.UUID, sortBy string, limit, offset int) ([]*SkinPhoto, int, error) {
	order := `capture_date DESC`
	if sortBy == "skin_score" {
		order = `skin_score DESC, capture_date DESC`
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM skin_photos WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT %s FROM skin_photos WHERE user_id = $1 ORDER BY %s LIMIT $2 OFFSET $3`,
		photoCols, order),
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repoPG) Recent(ctx context.Context, userID uuid.UUID, n int) ([]*SkinPhoto, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+photoCols+` FROM (
			SELECT `+photoCols+` FROM skin_photos
			WHERE user_id = $1 ORDER BY capture_date DESC LIMIT $2
		) recent ORDER BY capture_date`,
		userID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) Since(ctx context.Context, userID uuid.UUID, from time.Time) ([]*SkinPhoto, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+photoCols+` FROM skin_photos
		 WHERE user_id = $1 AND capture_date >= $2 ORDER BY capture_date`,
		userID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func collect(rows pgx.Rows) ([]*SkinPhoto, error) {
	var items []*SkinPhoto
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
