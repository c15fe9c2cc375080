// Package store persists users, consultations, appointments, payments,
// subscriptions and chat conversations. Mongo backs production; Memory
// backs tests and STORE=memory.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/legalinmo/legal-api/internal/models"
)

var (
	ErrNotFound          = errors.New("store: not found")
	ErrDuplicateEmail    = errors.New("store: duplicate email")
	ErrDuplicateUsername = errors.New("store: duplicate username")
	ErrSlotTaken         = errors.New("store: slot taken")
	// ErrStateConflict is returned by conditional updates whose precondition
	// on the current status does not hold.
	ErrStateConflict = errors.New("store: state conflict")
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id primitive.ObjectID, fullName, phone string) (*models.User, error)
	SetUserPassword(ctx context.Context, id primitive.ObjectID, hash string) error
}

// TokenStore holds revoked credentials and password reset tokens.
type TokenStore interface {
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	CreatePasswordReset(ctx context.Context, r *models.PasswordReset) error
	// ConsumePasswordReset marks an unused, unexpired token as used.
	ConsumePasswordReset(ctx context.Context, token string, now time.Time) (*models.PasswordReset, error)
}

type ConsultationFilter struct {
	UserID   *primitive.ObjectID
	Statuses []string
	Limit    int
}

type ConsultationStore interface {
	CreateConsultation(ctx context.Context, c *models.Consultation) error
	GetConsultation(ctx context.Context, id primitive.ObjectID) (*models.Consultation, error)
	// ListConsultations returns newest first.
	ListConsultations(ctx context.Context, f ConsultationFilter) ([]models.Consultation, error)
	AnswerConsultation(ctx context.Context, id, by primitive.ObjectID, answer string, at time.Time) (*models.Consultation, error)
	// PromoteConsultation moves the user's awaiting_payment draft to pending.
	PromoteConsultation(ctx context.Context, id, userID primitive.ObjectID) error
	DeleteDraftsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type AppointmentFilter struct {
	UserID *primitive.ObjectID
	Status string
	From   time.Time
	Limit  int
}

type AppointmentStore interface {
	// CreateAppointment fails with ErrSlotTaken when a confirmed appointment
	// already holds the same date, slot and specialist.
	CreateAppointment(ctx context.Context, a *models.Appointment) error
	GetAppointment(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error)
	// ListAppointments returns soonest first.
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error)
	TakenSlots(ctx context.Context, date string, specialistID int) ([]string, error)
	CancelAppointment(ctx context.Context, id primitive.ObjectID, at time.Time) (*models.Appointment, error)
}

type BillingStore interface {
	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, id primitive.ObjectID) (*models.Payment, error)
	GetPaymentByProviderRef(ctx context.Context, provider, ref string) (*models.Payment, error)
	ListPayments(ctx context.Context, userID primitive.ObjectID) ([]models.Payment, error)
	SetPaymentProviderRef(ctx context.Context, id primitive.ObjectID, ref, redirectURL string) error
	// SettlePayment moves a pending payment to approved or failed. A payment
	// that is already settled yields ErrStateConflict.
	SettlePayment(ctx context.Context, id primitive.ObjectID, status, reason string, at time.Time) (*models.Payment, error)
	UpsertSubscription(ctx context.Context, s *models.Subscription) error
	GetSubscription(ctx context.Context, userID primitive.ObjectID) (*models.Subscription, error)
}

type ConversationStore interface {
	CreateConversation(ctx context.Context, c *models.Conversation) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	AppendMessages(ctx context.Context, id string, at time.Time, msgs ...models.ChatMessage) (*models.Conversation, error)
	SetConversationFlags(ctx context.Context, id string, open, minimized bool, at time.Time) (*models.Conversation, error)
}

type Store interface {
	UserStore
	TokenStore
	ConsultationStore
	AppointmentStore
	BillingStore
	ConversationStore
	Ping(ctx context.Context) error
}
