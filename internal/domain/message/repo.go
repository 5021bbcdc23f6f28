package message

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Message) error
	// Conversation returns all messages between the pair, oldest first.
	Conversation(ctx context.Context, patientID, dermatologistID uuid.UUID) ([]*Message, error)
	// MarkRead marks the pair's messages authored by direction as read.
	MarkRead(ctx context.Context, patientID, dermatologistID uuid.UUID, direction string) error
	// Summaries returns the dermatologist's inbox, most recent conversation
	// first.
	Summaries(ctx context.Context, dermatologistID uuid.UUID) ([]*ConversationSummary, error)
}
