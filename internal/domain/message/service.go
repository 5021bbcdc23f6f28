package message

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clearaf/api/internal/domain/identity"
	"github.com/clearaf/api/internal/platform/httperr"
	"github.com/clearaf/api/internal/platform/websocket"
)

// PatientDirectory resolves reply recipients.
type PatientDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
}

// DermatologistDirectory resolves send recipients.
type DermatologistDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*identity.Dermatologist, error)
}

type Service struct {
	repo      Repository
	patients  PatientDirectory
	derms     DermatologistDirectory
	publisher websocket.EventPublisher
}

func NewService(repo Repository, patients PatientDirectory, derms DermatologistDirectory, publisher websocket.EventPublisher) *Service {
	return &Service{repo: repo, patients: patients, derms: derms, publisher: publisher}
}

var errRecipientNotFound = httperr.NotFound("RECIPIENT_NOT_FOUND", "recipient not found")

// Send stores a patient-to-dermatologist message and publishes it to the
// conversation topic.
func (s *Service) Send(ctx context.Context, patientID uuid.UUID, req SendRequest) (*Message, error) {
	if _, err := s.derms.GetByID(ctx, req.RecipientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errRecipientNotFound
		}
		return nil, err
	}

	m := &Message{
		Content:         req.Content,
		MessageType:     messageType(req.MessageType),
		AttachmentURL:   req.AttachmentURL,
		AttachmentType:  req.AttachmentType,
		Direction:       DirectionPatient,
		PatientID:       patientID,
		DermatologistID: req.RecipientID,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, m)
	return m, nil
}

// Reply stores a dermatologist-to-patient message. The direction column
// records the dermatologist as the author.
func (s *Service) Reply(ctx context.Context, dermatologistID uuid.UUID, req ReplyRequest) (*Message, error) {
	if _, err := s.patients.GetByID(ctx, req.PatientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errRecipientNotFound
		}
		return nil, err
	}

	m := &Message{
		Content:         req.Content,
		MessageType:     messageType(req.MessageType),
		AttachmentURL:   req.AttachmentURL,
		AttachmentType:  req.AttachmentType,
		Direction:       DirectionDermatologist,
		PatientID:       req.PatientID,
		DermatologistID: dermatologistID,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, m)
	return m, nil
}

// PatientConversation returns the patient's thread with a dermatologist,
// oldest first, marking inbound messages as read.
func (s *Service) PatientConversation(ctx context.Context, patientID, dermatologistID uuid.UUID) ([]*Message, error) {
	items, err := s.repo.Conversation(ctx, patientID, dermatologistID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkRead(ctx, patientID, dermatologistID, DirectionDermatologist); err != nil {
		return nil, err
	}
	return items, nil
}

// DermatologistConversation is the dermatologist's view of a thread; inbound
// patient messages are marked read.
func (s *Service) DermatologistConversation(ctx context.Context, dermatologistID, patientID uuid.UUID) ([]*Message, error) {
	items, err := s.repo.Conversation(ctx, patientID, dermatologistID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkRead(ctx, patientID, dermatologistID, DirectionPatient); err != nil {
		return nil, err
	}
	return items, nil
}

// Inbox returns the dermatologist's conversation list.
func (s *Service) Inbox(ctx context.Context, dermatologistID uuid.UUID) ([]*ConversationSummary, error) {
	return s.repo.Summaries(ctx, dermatologistID)
}

// publish emits a message.created event to the conversation topic. Delivery
// is best effort; the durable copy is already in the database.
func (s *Service) publish(ctx context.Context, m *Message) {
	if s.publisher == nil {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	_ = s.publisher.Publish(ctx, websocket.Event{
		Type:      "message.created",
		Topic:     websocket.ConversationTopic(m.PatientID.String(), m.DermatologistID.String()),
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

func messageType(t string) string {
	if t == "" {
		return "text"
	}
	return t
}
