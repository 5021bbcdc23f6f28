package prescription

import (
	"context"
	"fmt"

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

const rxCols = `id, medication, dosage, frequency, instructions, refills,
	status, start_date, end_date, patient_id, dermatologist_id, product_id,
	created_at, updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.Medication, &p.Dosage, &p.Frequency,
		&p.Instructions, &p.Refills, &p.Status, &p.StartDate, &p.EndDate,
		&p.PatientID, &p.DermatologistID, &p.ProductID,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO prescriptions (id, medication, dosage, frequency,
			instructions, refills, status, end_date, patient_id,
			dermatologist_id, product_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING start_date, created_at, updated_at`,
		p.ID, p.Medication, p.Dosage, p.Frequency, p.Instructions, p.Refills,
		p.Status, p.EndDate, p.PatientID, p.DermatologistID, p.ProductID).
		Scan(&p.StartDate, &p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+rxCols+` FROM prescriptions WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Prescription) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE prescriptions SET dosage=$2, frequency=$3, instructions=$4,
			refills=$5, status=$6, end_date=$7, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Dosage, p.Frequency, p.Instructions, p.Refills, p.Status, p.EndDate)
	return err
}

func (r *repoPG) ListForPatient(ctx context.Context, patientID uuid.UUID, status string, limit, offset int) ([]*Prescription, int, error) {
	return r.list(ctx, `patient_id`, patientID, status, limit, offset)
}

func (r *repoPG) ListForDermatologist(ctx context.Context, dermatologistID uuid.UUID, status string, limit, offset int) ([]*Prescription, int, error) {
	return r.list(ctx, `dermatologist_id`, dermatologistID, status, limit, offset)
}

func (r *repoPG) list(ctx context.Context, ownerCol string, ownerID uuid.UUID, status string, limit, offset int) ([]*Prescription, int, error) {
	where := ownerCol + ` = $1`
	args := []interface{}{ownerID}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM prescriptions WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT %s FROM prescriptions WHERE %s ORDER BY start_date DESC LIMIT $%d OFFSET $%d`,
		rxCols, where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
