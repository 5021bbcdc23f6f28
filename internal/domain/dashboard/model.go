// Package dashboard aggregates the dermatologist portal's landing-page stats
// across patients, appointments and messages.
package dashboard

import (
	"time"

	"github.com/google/uuid"
)

// Stats is the response of GET /api/dashboard/stats.
type Stats struct {
	TotalPatients        int                   `json:"totalPatients"`
	TodayAppointments    int                   `json:"todayAppointments"`
	UnreadMessages       int                   `json:"unreadMessages"`
	AverageSkinScore     float64               `json:"averageSkinScore"`
	RecentPatients       []RecentPatient       `json:"recentPatients"`
	UpcomingAppointments []UpcomingAppointment `json:"upcomingAppointments"`
}

// RecentPatient is a roster entry for the newest patients widget.
type RecentPatient struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	CurrentSkinScore int       `json:"currentSkinScore"`
	JoinDate         time.Time `json:"joinDate"`
}

// UpcomingAppointment is one of today's remaining appointments.
type UpcomingAppointment struct {
	ID            uuid.UUID `json:"id"`
	PatientID     uuid.UUID `json:"patientId"`
	PatientName   string    `json:"patientName"`
	ScheduledDate time.Time `json:"scheduledDate"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	Duration      int       `json:"duration"`
}
