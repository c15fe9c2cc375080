// Package events carries domain events from the services to the
// notification dispatcher, either in-process or over RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/legalinmo/legal-api/internal/logger"
)

const (
	KeyConsultationSubmitted  = "consultation.submitted"
	KeyAppointmentBooked      = "appointment.booked"
	KeyAppointmentCancelled   = "appointment.cancelled"
	KeySubscriptionActivated  = "subscription.activated"
	KeyPasswordResetRequested = "password.reset_requested"
)

// NotificationKeys are the routing keys the notification queue binds.
var NotificationKeys = []string{
	KeyConsultationSubmitted,
	KeyAppointmentBooked,
	KeyAppointmentCancelled,
	KeySubscriptionActivated,
	KeyPasswordResetRequested,
}

const envelopeVersion = 1

type Envelope struct {
	ID         string          `json:"id"`
	Event      string          `json:"event"`
	Version    int             `json:"version"`
	OccurredAt string          `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

func NewEnvelope(key string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", key, err)
	}
	return Envelope{
		ID:         uuid.NewString(),
		Event:      key,
		Version:    envelopeVersion,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
		Data:       raw,
	}, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

type Publisher interface {
	Publish(ctx context.Context, key string, data any) error
}

type Handler interface {
	Handle(ctx context.Context, env Envelope) error
}

type HandlerFunc func(ctx context.Context, env Envelope) error

func (f HandlerFunc) Handle(ctx context.Context, env Envelope) error { return f(ctx, env) }

// Direct hands events to a Handler on a separate goroutine, detached
// from the request context so the response is not held up.
type Direct struct {
	h Handler
}

func NewDirect(h Handler) *Direct { return &Direct{h: h} }

func (d *Direct) Publish(ctx context.Context, key string, data any) error {
	env, err := NewEnvelope(key, data)
	if err != nil {
		return err
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := d.h.Handle(bg, env); err != nil {
			logger.CtxWithError(bg, "event handler failed", err, "event", key)
		}
	}()
	return nil
}

// Recipient identifies who a notification goes to.
type Recipient struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone,omitempty"`
}

type ConsultationSubmitted struct {
	Recipient      Recipient `json:"recipient"`
	ConsultationID string    `json:"consultation_id"`
	Tier           string    `json:"tier"`
	Specialties    []string  `json:"specialties"`
}

type AppointmentEvent struct {
	Recipient      Recipient `json:"recipient"`
	AppointmentID  string    `json:"appointment_id"`
	Date           string    `json:"date"`
	TimeSlot       string    `json:"time_slot"`
	SpecialistName string    `json:"specialist_name"`
	MeetingURL     string    `json:"meeting_url,omitempty"`
	StartsAt       time.Time `json:"starts_at"`
}

type SubscriptionActivated struct {
	Recipient       Recipient  `json:"recipient"`
	PaymentID       string     `json:"payment_id"`
	PlanID          string     `json:"plan_id"`
	PlanName        string     `json:"plan_name"`
	Total           int64      `json:"total"`
	Currency        string     `json:"currency"`
	NextBillingDate *time.Time `json:"next_billing_date,omitempty"`
}

type PasswordResetRequested struct {
	Recipient Recipient `json:"recipient"`
	ResetURL  string    `json:"reset_url"`
	ExpiresAt time.Time `json:"expires_at"`
}
