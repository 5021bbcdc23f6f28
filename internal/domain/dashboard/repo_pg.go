package dashboard

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Counters(ctx context.Context, dermID uuid.UUID) (patients, appointments, unread int, avgScore float64, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM patients WHERE dermatologist_id = $1),
			(SELECT COUNT(*) FROM appointments
			 WHERE dermatologist_id = $1
			   AND scheduled_date::date = CURRENT_DATE
			   AND status NOT IN ('cancelled')),
			(SELECT COUNT(*) FROM messages
			 WHERE dermatologist_id = $1 AND direction = 'patient' AND NOT is_read),
			(SELECT COALESCE(AVG(current_skin_score), 0) FROM patients
			 WHERE dermatologist_id = $1 AND current_skin_score > 0)`,
		dermID).Scan(&patients, &appointments, &unread, &avgScore)
	return
}

func (r *repoPG) RecentPatients(ctx context.Context, dermID uuid.UUID, n int) ([]RecentPatient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, current_skin_score, join_date
		FROM patients WHERE dermatologist_id = $1
		ORDER BY join_date DESC LIMIT $2`,
		dermID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RecentPatient
	for rows.Next() {
		var p RecentPatient
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.CurrentSkinScore, &p.JoinDate); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repoPG) TodayUpcoming(ctx context.Context, dermID uuid.UUID) ([]UpcomingAppointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.patient_id, p.name, a.scheduled_date, a.type, a.status, a.duration
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.dermatologist_id = $1
		  AND a.scheduled_date::date = CURRENT_DATE
		  AND a.scheduled_date >= NOW()
		  AND a.status IN ('scheduled', 'confirmed', 'in-progress')
		ORDER BY a.scheduled_date`,
		dermID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []UpcomingAppointment
	for rows.Next() {
		var a UpcomingAppointment
		if err := rows.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.ScheduledDate,
			&a.Type, &a.Status, &a.Duration); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
