package services

import (
	"context"
	"errors"
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

const (
	msgFreeSubmitted = "Tu consulta gratuita ha sido enviada. Responderemos en los próximos 15 minutos."
	msgPaidSubmitted = "Tu consulta ha sido registrada. Completa el pago para enviarla a nuestros especialistas."
	nextPayment      = "/payment"
)

type SubmitConsultationInput struct {
	Tier        domain.Tier        `json:"tier"`
	Specialties []domain.Specialty `json:"specialties"`
	Question    string             `json:"question"`
}

type AnswerConsultationInput struct {
	Answer string `json:"answer" validate:"required,notblank,max=10000"`
}

type SubmitResult struct {
	Consultation *models.Consultation `json:"consultation"`
	Message      string               `json:"message"`
	// Next is the page the client continues to; set for paid submissions.
	Next string `json:"next,omitempty"`
}

type IntakeService struct {
	consultations store.ConsultationStore
	publisher     events.Publisher
	validate      *validator.Validator
	now           func() time.Time
}

func NewIntakeService(consultations store.ConsultationStore, publisher events.Publisher, v *validator.Validator) *IntakeService {
	return &IntakeService{
		consultations: consultations,
		publisher:     publisher,
		validate:      v,
		now:           time.Now,
	}
}

// Submit validates before touching the store. Free consultations go
// straight to the advisors; paid ones wait for a payment that references
// them.
func (s *IntakeService) Submit(ctx context.Context, p Principal, in SubmitConsultationInput) (*SubmitResult, error) {
	if err := domain.ValidateConsultation(in.Tier, in.Specialties, in.Question); err != nil {
		return nil, validator.FromFieldErrors(err)
	}

	c := &models.Consultation{
		ID:          primitive.NewObjectID(),
		UserID:      p.ID,
		Specialties: in.Specialties,
		Tier:        in.Tier,
		Question:    strings.TrimSpace(in.Question),
		Status:      models.ConsultationPending,
		CreatedAt:   s.now(),
	}
	if in.Tier == domain.TierPaid {
		c.Status = models.ConsultationAwaitingPayment
	}
	if err := s.consultations.CreateConsultation(ctx, c); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	logger.CtxInfo(ctx, "consultation submitted",
		"consultation_id", c.ID.Hex(),
		"tier", c.Tier,
		"status", c.Status,
	)

	if in.Tier == domain.TierPaid {
		return &SubmitResult{Consultation: c, Message: msgPaidSubmitted, Next: nextPayment}, nil
	}
	s.announce(ctx, p, c)
	return &SubmitResult{Consultation: c, Message: msgFreeSubmitted}, nil
}

func (s *IntakeService) announce(ctx context.Context, p Principal, c *models.Consultation) {
	specialties := make([]string, len(c.Specialties))
	for i, sp := range c.Specialties {
		specialties[i] = string(sp)
	}
	err := s.publisher.Publish(ctx, events.KeyConsultationSubmitted, events.ConsultationSubmitted{
		Recipient:      p.recipient(),
		ConsultationID: c.ID.Hex(),
		Tier:           string(c.Tier),
		Specialties:    specialties,
	})
	if err != nil {
		logger.CtxWithError(ctx, "publish consultation.submitted", err)
	}
}

// List returns the caller's consultations. Advisors see every user's
// consultations instead. Unpaid drafts are never listed.
func (s *IntakeService) List(ctx context.Context, p Principal, status string) ([]models.Consultation, error) {
	statuses := []string{models.ConsultationPending, models.ConsultationAnswered}
	switch status {
	case "":
	case models.ConsultationPending, models.ConsultationAnswered:
		statuses = []string{status}
	default:
		return nil, apperrors.ValidationError(map[string]string{"status": "Must be one of: pending answered"})
	}

	f := store.ConsultationFilter{Statuses: statuses, Limit: 100}
	if !p.IsAdvisor() {
		f.UserID = &p.ID
	}
	out, err := s.consultations.ListConsultations(ctx, f)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return out, nil
}

// Get is allowed to the owner and to advisors.
func (s *IntakeService) Get(ctx context.Context, p Principal, rawID string) (*models.Consultation, error) {
	id, err := parseID(rawID, apperrors.ErrConsultationNotFound)
	if err != nil {
		return nil, err
	}
	c, err := s.consultations.GetConsultation(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrConsultationNotFound)
	}
	if c.UserID != p.ID && !p.IsAdvisor() {
		return nil, apperrors.ErrConsultationNotFound
	}
	return c, nil
}

func (s *IntakeService) Answer(ctx context.Context, p Principal, rawID string, in AnswerConsultationInput) (*models.Consultation, error) {
	if !p.IsAdvisor() {
		return nil, apperrors.ErrInsufficientPermissions
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	id, err := parseID(rawID, apperrors.ErrConsultationNotFound)
	if err != nil {
		return nil, err
	}
	c, err := s.consultations.AnswerConsultation(ctx, id, p.ID, strings.TrimSpace(in.Answer), s.now())
	if errors.Is(err, store.ErrStateConflict) {
		return nil, apperrors.ErrConsultationNotPending
	}
	if err != nil {
		return nil, storeErr(err, apperrors.ErrConsultationNotFound)
	}
	logger.CtxInfo(ctx, "consultation answered", "consultation_id", c.ID.Hex())
	return c, nil
}

// Recent is the dashboard view of the caller's consultations.
func (s *IntakeService) Recent(ctx context.Context, p Principal, n int) ([]models.Consultation, error) {
	out, err := s.consultations.ListConsultations(ctx, store.ConsultationFilter{
		UserID:   &p.ID,
		Statuses: []string{models.ConsultationPending, models.ConsultationAnswered},
		Limit:    n,
	})
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return out, nil
}
