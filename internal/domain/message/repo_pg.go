package message

import (
	"context"

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

const msgCols = `id, content, message_type, attachment_url, attachment_type,
	direction, is_read, sent_date, patient_id, dermatologist_id`

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.Content, &m.MessageType, &m.AttachmentURL,
		&m.AttachmentType, &m.Direction, &m.IsRead, &m.SentDate,
		&m.PatientID, &m.DermatologistID)
	return &m, err
}

func (r *repoPG) Create(ctx context.Context, m *Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO messages (id, content, message_type, attachment_url,
			attachment_type, direction, patient_id, dermatologist_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING is_read, sent_date`,
		m.ID, m.Content, m.MessageType, m.AttachmentURL, m.AttachmentType,
		m.Direction, m.PatientID, m.DermatologistID).
		Scan(&m.IsRead, &m.SentDate)
}

func (r *repoPG) Conversation(ctx context.Context, patientID, dermatologistID uuid.UUID) ([]*Message, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+msgCols+` FROM messages
		 WHERE patient_id = $1 AND dermatologist_id = $2
		 ORDER BY sent_date ASC`, patientID, dermatologistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *repoPG) MarkRead(ctx context.Context, patientID, dermatologistID uuid.UUID, direction string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE messages SET is_read = true
		WHERE patient_id = $1 AND dermatologist_id = $2
		AND direction = $3 AND NOT is_read`,
		patientID, dermatologistID, direction)
	return err
}

func (r *repoPG) Summaries(ctx context.Context, dermatologistID uuid.UUID) ([]*ConversationSummary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, p.name, p.email,
			m.id, m.content, m.message_type, m.attachment_url, m.attachment_type,
			m.direction, m.is_read, m.sent_date, m.patient_id, m.dermatologist_id,
			(SELECT COUNT(*) FROM messages u
				WHERE u.patient_id = p.id AND u.dermatologist_id = $1
				AND u.direction = 'patient' AND NOT u.is_read)
		FROM patients p
		JOIN LATERAL (
			SELECT * FROM messages
			WHERE patient_id = p.id AND dermatologist_id = $1
			ORDER BY sent_date DESC LIMIT 1
		) m ON true
		ORDER BY m.sent_date DESC`, dermatologistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*ConversationSummary
	for rows.Next() {
		var s ConversationSummary
		var m Message
		err := rows.Scan(&s.PatientID, &s.PatientName, &s.PatientEmail,
			&m.ID, &m.Content, &m.MessageType, &m.AttachmentURL, &m.AttachmentType,
			&m.Direction, &m.IsRead, &m.SentDate, &m.PatientID, &m.DermatologistID,
			&s.UnreadCount)
		if err != nil {
			return nil, err
		}
		s.LastMessage = &m
		items = append(items, &s)
	}
	return items, rows.Err()
}
