package identity

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

// -- patients --

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, name, email, password_hash, skin_type, skin_concerns,
	allergies, current_medications, current_skin_score, streak_count,
	onboarding_completed, join_date, dermatologist_id, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.SkinType,
		&p.SkinConcerns, &p.Allergies, &p.CurrentMedications, &p.CurrentSkinScore,
		&p.StreakCount, &p.OnboardingCompleted, &p.JoinDate, &p.DermatologistID,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (id, name, email, password_hash, skin_type,
			skin_concerns, allergies, current_medications, dermatologist_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING join_date, created_at, updated_at`,
		p.ID, p.Name, p.Email, p.PasswordHash, p.SkinType, p.SkinConcerns,
		p.Allergies, p.CurrentMedications, p.DermatologistID).
		Scan(&p.JoinDate, &p.CreatedAt, &p.UpdatedAt)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *patientRepoPG) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE lower(email) = lower($1)`, email))
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET name=$2, skin_type=$3, skin_concerns=$4,
			allergies=$5, current_medications=$6, onboarding_completed=$7,
			dermatologist_id=$8, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.SkinType, p.SkinConcerns, p.Allergies,
		p.CurrentMedications, p.OnboardingCompleted, p.DermatologistID)
	return err
}

func (r *patientRepoPG) RecordSkinScore(ctx context.Context, id uuid.UUID, score int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET current_skin_score=$2, streak_count=streak_count+1,
			updated_at=NOW()
		WHERE id = $1`, id, score)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *patientRepoPG) AssignDermatologist(ctx context.Context, patientID, dermatologistID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET dermatologist_id=$2, updated_at=NOW() WHERE id = $1`,
		patientID, dermatologistID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *patientRepoPG) ListByDermatologist(ctx context.Context, dermatologistID uuid.UUID, search string, limit, offset int) ([]*Patient, int, error) {
	where := `dermatologist_id = $1`
	args := []interface{}{dermatologistID}
	if search != "" {
		where += ` AND (name ILIKE $2 OR email ILIKE $2)`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patients WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM patients WHERE %s ORDER BY name LIMIT %d OFFSET %d`,
		patientCols, where, limit, offset)
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *patientRepoPG) SummariesByDermatologist(ctx context.Context, dermatologistID uuid.UUID, limit, offset int) ([]*PatientSummary, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patients WHERE dermatologist_id = $1`,
		dermatologistID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, p.name, p.email, p.password_hash, p.skin_type,
			p.skin_concerns, p.allergies, p.current_medications,
			p.current_skin_score, p.streak_count, p.onboarding_completed,
			p.join_date, p.dermatologist_id, p.created_at, p.updated_at,
			ph.photo_url, ph.capture_date,
			(SELECT MIN(a.scheduled_date) FROM appointments a
				WHERE a.patient_id = p.id AND a.scheduled_date > NOW()
				AND a.status IN ('scheduled','confirmed')),
			(SELECT COUNT(*) FROM prescriptions rx
				WHERE rx.patient_id = p.id AND rx.status = 'active')
		FROM patients p
		LEFT JOIN LATERAL (
			SELECT photo_url, capture_date FROM skin_photos
			WHERE user_id = p.id ORDER BY capture_date DESC LIMIT 1
		) ph ON true
		WHERE p.dermatologist_id = $1
		ORDER BY p.name LIMIT $2 OFFSET $3`,
		dermatologistID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*PatientSummary
	for rows.Next() {
		var s PatientSummary
		p := &s.Patient
		err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &p.SkinType,
			&p.SkinConcerns, &p.Allergies, &p.CurrentMedications, &p.CurrentSkinScore,
			&p.StreakCount, &p.OnboardingCompleted, &p.JoinDate, &p.DermatologistID,
			&p.CreatedAt, &p.UpdatedAt,
			&s.LastPhotoURL, &s.LastPhotoDate, &s.NextAppointment, &s.ActivePrescriptions)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, &s)
	}
	return items, total, rows.Err()
}

func (r *patientRepoPG) Stats(ctx context.Context, id uuid.UUID) (*PatientStats, error) {
	var s PatientStats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT p.current_skin_score, p.streak_count,
			(SELECT COUNT(*) FROM skin_photos WHERE user_id = p.id),
			(SELECT COUNT(*) FROM appointments WHERE patient_id = p.id
				AND scheduled_date > NOW() AND status IN ('scheduled','confirmed')),
			(SELECT COUNT(*) FROM prescriptions WHERE patient_id = p.id
				AND status = 'active')
		FROM patients p WHERE p.id = $1`, id).
		Scan(&s.CurrentSkinScore, &s.StreakCount, &s.TotalPhotos,
			&s.UpcomingAppointments, &s.ActivePrescriptions)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// -- dermatologists --

type dermatologistRepoPG struct{ pool *pgxpool.Pool }

func NewDermatologistRepoPG(pool *pgxpool.Pool) DermatologistRepository {
	return &dermatologistRepoPG{pool: pool}
}

func (r *dermatologistRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const dermCols = `id, name, email, password_hash, title, specialization,
	phone, profile_image_url, is_available, created_at, updated_at`

func scanDermatologist(row pgx.Row) (*Dermatologist, error) {
	var d Dermatologist
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.PasswordHash, &d.Title,
		&d.Specialization, &d.Phone, &d.ProfileImageURL, &d.IsAvailable,
		&d.CreatedAt, &d.UpdatedAt)
	return &d, err
}

func (r *dermatologistRepoPG) Create(ctx context.Context, d *Dermatologist) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO dermatologists (id, name, email, password_hash, title,
			specialization, phone, profile_image_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING is_available, created_at, updated_at`,
		d.ID, d.Name, d.Email, d.PasswordHash, d.Title, d.Specialization,
		d.Phone, d.ProfileImageURL).
		Scan(&d.IsAvailable, &d.CreatedAt, &d.UpdatedAt)
}

func (r *dermatologistRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Dermatologist, error) {
	return scanDermatologist(r.conn(ctx).QueryRow(ctx,
		`SELECT `+dermCols+` FROM dermatologists WHERE id = $1`, id))
}

func (r *dermatologistRepoPG) GetByEmail(ctx context.Context, email string) (*Dermatologist, error) {
	return scanDermatologist(r.conn(ctx).QueryRow(ctx,
		`SELECT `+dermCols+` FROM dermatologists WHERE lower(email) = lower($1)`, email))
}

func (r *dermatologistRepoPG) Update(ctx context.Context, d *Dermatologist) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE dermatologists SET name=$2, title=$3, specialization=$4,
			phone=$5, profile_image_url=$6, is_available=$7, updated_at=NOW()
		WHERE id = $1`,
		d.ID, d.Name, d.Title, d.Specialization, d.Phone, d.ProfileImageURL,
		d.IsAvailable)
	return err
}

func (r *dermatologistRepoPG) FirstAvailable(ctx context.Context) (*Dermatologist, error) {
	return scanDermatologist(r.conn(ctx).QueryRow(ctx,
		`SELECT `+dermCols+` FROM dermatologists WHERE is_available
		 ORDER BY created_at LIMIT 1`))
}

func (r *dermatologistRepoPG) Stats(ctx context.Context, id uuid.UUID) (*DermatologistStats, error) {
	var s DermatologistStats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM patients WHERE dermatologist_id = $1),
			(SELECT COUNT(*) FROM appointments WHERE dermatologist_id = $1
				AND scheduled_date::date = CURRENT_DATE AND status <> 'cancelled'),
			(SELECT COUNT(*) FROM messages WHERE dermatologist_id = $1
				AND direction = 'patient' AND NOT is_read)`, id).
		Scan(&s.TotalPatients, &s.TodayAppointments, &s.UnreadMessages)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
