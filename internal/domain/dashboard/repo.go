package dashboard

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Counters returns the dermatologist's patient count, today's
	// appointment count, unread inbound messages and average patient skin
	// score.
	Counters(ctx context.Context, dermID uuid.UUID) (patients, appointments, unread int, avgScore float64, err error)
	// RecentPatients returns the dermatologist's n newest patients.
	RecentPatients(ctx context.Context, dermID uuid.UUID, n int) ([]RecentPatient, error)
	// TodayUpcoming returns the dermatologist's remaining active
	// appointments for today, soonest first.
	TodayUpcoming(ctx context.Context, dermID uuid.UUID) ([]UpcomingAppointment, error)
}
