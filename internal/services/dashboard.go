package services

import (
	"context"

	"github.com/legalinmo/legal-api/internal/models"
)

type Dashboard struct {
	User                 *models.User          `json:"user"`
	RecentConsultations  []models.Consultation `json:"recentConsultations"`
	UpcomingAppointments []models.Appointment  `json:"upcomingAppointments"`
	Subscription         *SubscriptionView     `json:"subscription"`
}

type DashboardService struct {
	identity  *IdentityService
	intake    *IntakeService
	scheduler *SchedulerService
	billing   *BillingService
}

func NewDashboardService(identity *IdentityService, intake *IntakeService, scheduler *SchedulerService, billing *BillingService) *DashboardService {
	return &DashboardService{identity: identity, intake: intake, scheduler: scheduler, billing: billing}
}

func (s *DashboardService) Get(ctx context.Context, p Principal) (*Dashboard, error) {
	user, err := s.identity.Profile(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	consultations, err := s.intake.Recent(ctx, p, 5)
	if err != nil {
		return nil, err
	}
	appointments, err := s.scheduler.List(ctx, p, true)
	if err != nil {
		return nil, err
	}
	sub, err := s.billing.Subscription(ctx, p)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		User:                 user,
		RecentConsultations:  consultations,
		UpcomingAppointments: appointments,
		Subscription:         sub,
	}, nil
}
