// Package message implements the patient/dermatologist chat: durable
// messages in Postgres plus a best-effort live event per stored message.
package message

import (
	"time"

	"github.com/google/uuid"
)

// Direction values record which side of the conversation authored a message.
const (
	DirectionPatient       = "patient"
	DirectionDermatologist = "dermatologist"
)

// Message maps to the messages table. A conversation is identified by the
// (patientID, dermatologistID) pair; direction records the author.
type Message struct {
	ID              uuid.UUID `json:"id"`
	Content         string    `json:"content"`
	MessageType     string    `json:"messageType"`
	AttachmentURL   *string   `json:"attachmentUrl,omitempty"`
	AttachmentType  *string   `json:"attachmentType,omitempty"`
	Direction       string    `json:"direction"`
	IsRead          bool      `json:"isRead"`
	SentDate        time.Time `json:"sentDate"`
	PatientID       uuid.UUID `json:"patientId"`
	DermatologistID uuid.UUID `json:"dermatologistId"`
}

// ConversationSummary is one row of the dermatologist's inbox: the patient,
// the latest message, and how many inbound messages are unread.
type ConversationSummary struct {
	PatientID    uuid.UUID `json:"patientId"`
	PatientName  string    `json:"patientName"`
	PatientEmail string    `json:"patientEmail"`
	LastMessage  *Message  `json:"lastMessage"`
	UnreadCount  int       `json:"unreadCount"`
}

// SendRequest is the body of POST /api/messages/send (patient to
// dermatologist).
type SendRequest struct {
	Content        string    `json:"content" validate:"required,min=1"`
	RecipientID    uuid.UUID `json:"recipientId" validate:"required"`
	MessageType    string    `json:"messageType" validate:"omitempty,oneof=text image"`
	AttachmentURL  *string   `json:"attachmentUrl,omitempty" validate:"omitempty,url"`
	AttachmentType *string   `json:"attachmentType,omitempty"`
}

// ReplyRequest is the body of POST /api/messages/reply (dermatologist to
// patient).
type ReplyRequest struct {
	Content        string    `json:"content" validate:"required,min=1"`
	PatientID      uuid.UUID `json:"patientId" validate:"required"`
	MessageType    string    `json:"messageType" validate:"omitempty,oneof=text image"`
	AttachmentURL  *string   `json:"attachmentUrl,omitempty" validate:"omitempty,url"`
	AttachmentType *string   `json:"attachmentType,omitempty"`
}
