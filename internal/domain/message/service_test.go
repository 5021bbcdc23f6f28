package message

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clearaf/api/internal/domain/identity"
	"github.com/clearaf/api/internal/platform/httperr"
	"github.com/clearaf/api/internal/platform/websocket"
)

type memRepo struct {
	messages []*Message
}

func (r *memRepo) Create(_ context.Context, m *Message) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.SentDate.IsZero() {
		m.SentDate = time.Now()
	}
	cp := *m
	r.messages = append(r.messages, &cp)
	return nil
}

func (r *memRepo) Conversation(_ context.Context, patientID, dermID uuid.UUID) ([]*Message, error) {
	var items []*Message
	for _, m := range r.messages {
		if m.PatientID == patientID && m.DermatologistID == dermID {
			cp := *m
			items = append(items, &cp)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SentDate.Before(items[j].SentDate) })
	return items, nil
}

func (r *memRepo) MarkRead(_ context.Context, patientID, dermID uuid.UUID, direction string) error {
	for _, m := range r.messages {
		if m.PatientID == patientID && m.DermatologistID == dermID && m.Direction == direction {
			m.IsRead = true
		}
	}
	return nil
}

func (r *memRepo) Summaries(_ context.Context, dermID uuid.UUID) ([]*ConversationSummary, error) {
	byPatient := make(map[uuid.UUID]*ConversationSummary)
	for _, m := range r.messages {
		if m.DermatologistID != dermID {
			continue
		}
		s, ok := byPatient[m.PatientID]
		if !ok {
			s = &ConversationSummary{PatientID: m.PatientID}
			byPatient[m.PatientID] = s
		}
		if s.LastMessage == nil || m.SentDate.After(s.LastMessage.SentDate) {
			cp := *m
			s.LastMessage = &cp
		}
		if m.Direction == DirectionPatient && !m.IsRead {
			s.UnreadCount++
		}
	}
	var items []*ConversationSummary
	for _, s := range byPatient {
		items = append(items, s)
	}
	return items, nil
}

type staticPatients map[uuid.UUID]*identity.Patient

func (s staticPatients) GetByID(_ context.Context, id uuid.UUID) (*identity.Patient, error) {
	p, ok := s[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

type staticDerms map[uuid.UUID]*identity.Dermatologist

func (s staticDerms) GetByID(_ context.Context, id uuid.UUID) (*identity.Dermatologist, error) {
	d, ok := s[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return d, nil
}

type capturingPublisher struct {
	events []websocket.Event
}

func (p *capturingPublisher) Publish(_ context.Context, e websocket.Event) error {
	p.events = append(p.events, e)
	return nil
}

type fixture struct {
	svc       *Service
	repo      *memRepo
	pub       *capturingPublisher
	patientID uuid.UUID
	dermID    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := &memRepo{}
	pub := &capturingPublisher{}
	patientID := uuid.New()
	dermID := uuid.New()

	svc := NewService(repo,
		staticPatients{patientID: {ID: patientID, Name: "Alice"}},
		staticDerms{dermID: {ID: dermID, Name: "Dr. Bob"}},
		pub)

	return &fixture{svc: svc, repo: repo, pub: pub, patientID: patientID, dermID: dermID}
}

func TestSendPublishesToConversationTopic(t *testing.T) {
	f := newFixture(t)

	m, err := f.svc.Send(context.Background(), f.patientID, SendRequest{
		Content: "my skin is flaring up", RecipientID: f.dermID,
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if m.Direction != DirectionPatient {
		t.Errorf("direction = %q", m.Direction)
	}
	if m.MessageType != "text" {
		t.Errorf("messageType = %q, want default text", m.MessageType)
	}

	if len(f.pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(f.pub.events))
	}
	e := f.pub.events[0]
	want := websocket.ConversationTopic(f.patientID.String(), f.dermID.String())
	if e.Topic != want || e.Type != "message.created" {
		t.Errorf("event = %+v, want topic %s", e, want)
	}
}

func TestSendUnknownRecipient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Send(context.Background(), f.patientID, SendRequest{
		Content: "hello", RecipientID: uuid.New(),
	})
	var appErr *httperr.Error
	if !errors.As(err, &appErr) || appErr.Code != "RECIPIENT_NOT_FOUND" {
		t.Errorf("got %v, want RECIPIENT_NOT_FOUND", err)
	}
}

func TestReplyRecordsDermatologistAuthor(t *testing.T) {
	f := newFixture(t)

	m, err := f.svc.Reply(context.Background(), f.dermID, ReplyRequest{
		Content: "apply twice daily", PatientID: f.patientID,
	})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if m.Direction != DirectionDermatologist {
		t.Errorf("direction = %q, want dermatologist", m.Direction)
	}
	if m.PatientID != f.patientID || m.DermatologistID != f.dermID {
		t.Errorf("participants wrong: %+v", m)
	}

	_, err = f.svc.Reply(context.Background(), f.dermID, ReplyRequest{
		Content: "hello", PatientID: uuid.New(),
	})
	var appErr *httperr.Error
	if !errors.As(err, &appErr) || appErr.Code != "RECIPIENT_NOT_FOUND" {
		t.Errorf("unknown patient: got %v, want RECIPIENT_NOT_FOUND", err)
	}
}

func TestPatientConversationMarksInboundRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Send(ctx, f.patientID, SendRequest{Content: "q1", RecipientID: f.dermID}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Reply(ctx, f.dermID, ReplyRequest{Content: "a1", PatientID: f.patientID}); err != nil {
		t.Fatal(err)
	}

	items, err := f.svc.PatientConversation(ctx, f.patientID, f.dermID)
	if err != nil {
		t.Fatalf("PatientConversation: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d messages, want 2", len(items))
	}
	if !items[0].SentDate.Before(items[1].SentDate) && !items[0].SentDate.Equal(items[1].SentDate) {
		t.Error("messages not in ascending order")
	}

	// The dermatologist's reply is now read; the patient's own message is not
	// affected.
	for _, m := range f.repo.messages {
		if m.Direction == DirectionDermatologist && !m.IsRead {
			t.Error("inbound reply not marked read")
		}
		if m.Direction == DirectionPatient && m.IsRead {
			t.Error("outbound message wrongly marked read")
		}
	}
}

func TestInboxUnreadCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Send(ctx, f.patientID, SendRequest{Content: "ping", RecipientID: f.dermID}); err != nil {
			t.Fatal(err)
		}
	}

	inbox, err := f.svc.Inbox(ctx, f.dermID)
	if err != nil {
		t.Fatalf("Inbox: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("got %d conversations, want 1", len(inbox))
	}
	if inbox[0].UnreadCount != 3 {
		t.Errorf("unread = %d, want 3", inbox[0].UnreadCount)
	}

	if _, err := f.svc.DermatologistConversation(ctx, f.dermID, f.patientID); err != nil {
		t.Fatal(err)
	}
	inbox, err = f.svc.Inbox(ctx, f.dermID)
	if err != nil {
		t.Fatal(err)
	}
	if inbox[0].UnreadCount != 0 {
		t.Errorf("unread after reading = %d, want 0", inbox[0].UnreadCount)
	}
}
