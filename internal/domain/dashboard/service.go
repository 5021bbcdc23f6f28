package dashboard

import (
	"context"

	"github.com/google/uuid"
)

// recentPatientCount is how many patients the newest-patients widget shows.
const recentPatientCount = 5

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Stats(ctx context.Context, dermID uuid.UUID) (*Stats, error) {
	patients, appointments, unread, avgScore, err := s.repo.Counters(ctx, dermID)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentPatients(ctx, dermID, recentPatientCount)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.repo.TodayUpcoming(ctx, dermID)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []RecentPatient{}
	}
	if upcoming == nil {
		upcoming = []UpcomingAppointment{}
	}
	return &Stats{
		TotalPatients:        patients,
		TodayAppointments:    appointments,
		UnreadMessages:       unread,
		AverageSkinScore:     avgScore,
		RecentPatients:       recent,
		UpcomingAppointments: upcoming,
	}, nil
}
