package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/events"
	"github.com/legalinmo/legal-api/internal/logger"
	"github.com/legalinmo/legal-api/internal/models"
	"github.com/legalinmo/legal-api/internal/store"
	"github.com/legalinmo/legal-api/internal/validator"
	"github.com/legalinmo/legal-api/pkg/domain"
)

type SlotAvailability struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type Availability struct {
	Date         string             `json:"date"`
	SpecialistID int                `json:"specialistId"`
	Slots        []SlotAvailability `json:"slots"`
}

type BookResult struct {
	Appointment *models.Appointment `json:"appointment"`
	Message     string              `json:"message"`
}

type SchedulerService struct {
	appointments store.AppointmentStore
	publisher    events.Publisher
	loc          *time.Location
	meetingBase  string
	now          func() time.Time
}

func NewSchedulerService(appointments store.AppointmentStore, publisher events.Publisher, loc *time.Location, publicBaseURL string) *SchedulerService {
	return &SchedulerService{
		appointments: appointments,
		publisher:    publisher,
		loc:          loc,
		meetingBase:  strings.TrimRight(publicBaseURL, "/") + "/meet/",
		now:          time.Now,
	}
}

// Book confirms the slot for the caller. The first confirmed booking of a
// (date, slot, specialist) wins; later ones get ErrSlotTaken.
func (s *SchedulerService) Book(ctx context.Context, p Principal, req domain.BookingRequest) (*BookResult, error) {
	date, err := req.Validate(s.now(), s.loc)
	if err != nil {
		return nil, validator.FromFieldErrors(err)
	}
	specialist, _ := domain.FindSpecialist(req.SpecialistID)
	startsAt, err := domain.SlotStart(date, req.TimeSlot)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	a := &models.Appointment{
		ID:             primitive.NewObjectID(),
		UserID:         p.ID,
		Date:           req.Date,
		TimeSlot:       req.TimeSlot,
		SpecialistID:   specialist.ID,
		SpecialistName: specialist.Name,
		Status:         models.AppointmentConfirmed,
		StartsAt:       startsAt,
		CreatedAt:      s.now(),
	}
	a.MeetingURL = s.meetingBase + a.ID.Hex()

	switch err := s.appointments.CreateAppointment(ctx, a); {
	case errors.Is(err, store.ErrSlotTaken):
		return nil, apperrors.ErrSlotTaken.WithDetails(map[string]string{
			"date": req.Date, "timeSlot": req.TimeSlot,
		})
	case err != nil:
		return nil, apperrors.DatabaseError(err)
	}
	logger.CtxInfo(ctx, "appointment booked",
		"appointment_id", a.ID.Hex(),
		"date", a.Date,
		"slot", a.TimeSlot,
		"specialist_id", a.SpecialistID,
	)
	s.publish(ctx, events.KeyAppointmentBooked, p, a)

	msg := fmt.Sprintf("Cita programada para %s a las %s con %s. Se ha enviado un enlace al correo.",
		a.Date, a.TimeSlot, a.SpecialistName)
	return &BookResult{Appointment: a, Message: msg}, nil
}

// Availability lists the day's slots for a specialist. Days before the
// earliest bookable date report every slot as unavailable.
func (s *SchedulerService) Availability(ctx context.Context, date string, specialistID int) (*Availability, error) {
	fe := domain.FieldErrors{}
	d, err := time.ParseInLocation(domain.DateLayout, date, s.loc)
	if err != nil {
		fe.Add("date", "date must use the YYYY-MM-DD format")
	}
	if _, ok := domain.FindSpecialist(specialistID); !ok {
		fe.Add("specialistId", "unknown specialist")
	}
	if err := fe.Err(); err != nil {
		return nil, validator.FromFieldErrors(err)
	}

	bookable := !d.Before(domain.EarliestBookableDate(s.now(), s.loc))
	taken := map[string]bool{}
	if bookable {
		slots, err := s.appointments.TakenSlots(ctx, date, specialistID)
		if err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		for _, t := range slots {
			taken[t] = true
		}
	}

	out := &Availability{Date: date, SpecialistID: specialistID}
	for _, t := range domain.TimeSlots {
		out.Slots = append(out.Slots, SlotAvailability{Time: t, Available: bookable && !taken[t]})
	}
	return out, nil
}

func (s *SchedulerService) List(ctx context.Context, p Principal, upcoming bool) ([]models.Appointment, error) {
	f := store.AppointmentFilter{UserID: &p.ID}
	if upcoming {
		f.Status = models.AppointmentConfirmed
		f.From = s.now()
	}
	out, err := s.appointments.ListAppointments(ctx, f)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return out, nil
}

// Cancel frees the slot. It is refused within CancellationWindow of the
// start.
func (s *SchedulerService) Cancel(ctx context.Context, p Principal, rawID string) (*models.Appointment, error) {
	id, err := parseID(rawID, apperrors.ErrAppointmentNotFound)
	if err != nil {
		return nil, err
	}
	a, err := s.appointments.GetAppointment(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrAppointmentNotFound)
	}
	if a.UserID != p.ID {
		return nil, apperrors.ErrAppointmentNotFound
	}
	if a.Status != models.AppointmentConfirmed {
		return nil, apperrors.ErrAppointmentNotActive
	}
	now := s.now()
	if !domain.CanCancel(a.StartsAt, now) {
		return nil, apperrors.ErrCancellationWindowClosed
	}

	a, err = s.appointments.CancelAppointment(ctx, id, now)
	if errors.Is(err, store.ErrStateConflict) {
		return nil, apperrors.ErrAppointmentNotActive
	}
	if err != nil {
		return nil, storeErr(err, apperrors.ErrAppointmentNotFound)
	}
	logger.CtxInfo(ctx, "appointment cancelled", "appointment_id", a.ID.Hex())
	s.publish(ctx, events.KeyAppointmentCancelled, p, a)
	return a, nil
}

func (s *SchedulerService) publish(ctx context.Context, key string, p Principal, a *models.Appointment) {
	err := s.publisher.Publish(ctx, key, events.AppointmentEvent{
		Recipient:      p.recipient(),
		AppointmentID:  a.ID.Hex(),
		Date:           a.Date,
		TimeSlot:       a.TimeSlot,
		SpecialistName: a.SpecialistName,
		MeetingURL:     a.MeetingURL,
		StartsAt:       a.StartsAt,
	})
	if err != nil {
		logger.CtxWithError(ctx, "publish "+key, err)
	}
}
