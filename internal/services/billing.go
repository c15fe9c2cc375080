package services

import (
	"context"
	"errors"
	"fmt"
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
	redirectAfterPayment = "/dashboard"
	redirectDelaySeconds = 3
)

type PayInput struct {
	PlanID         domain.PlanID        `json:"planId"`
	Method         domain.PaymentMethod `json:"paymentMethod"`
	Card           *domain.Card         `json:"card,omitempty"`
	ConsultationID string               `json:"consultationId,omitempty"`
}

func (in PayInput) validate() (domain.Plan, error) {
	fe := domain.FieldErrors{}
	plan, ok := domain.FindPlan(in.PlanID)
	switch {
	case in.PlanID == "":
		fe.Add("planId", "select a plan")
	case !ok:
		fe.Add("planId", "unknown plan")
	case !plan.Purchasable():
		fe.Add("planId", "this plan cannot be purchased")
	}
	if !in.Method.Valid() {
		fe.Add("paymentMethod", "must be creditCard or mercadoPago")
	}
	if in.Method == domain.MethodCreditCard {
		if in.Card == nil {
			fe.Add("card", "complete every card field")
		} else if err := in.Card.Validate(); err != nil {
			var cardErrs domain.FieldErrors
			if errors.As(err, &cardErrs) {
				for f, msg := range cardErrs {
					fe.Add(f, msg)
				}
			}
		}
	}
	if in.ConsultationID != "" && !primitive.IsValidObjectID(in.ConsultationID) {
		fe.Add("consultationId", "unknown consultation")
	}
	return plan, fe.Err()
}

type PlanQuote struct {
	domain.Plan
	Tax   int64 `json:"tax"`
	Total int64 `json:"total"`
}

type PayResult struct {
	Payment              *models.Payment      `json:"payment"`
	Subscription         *models.Subscription `json:"subscription,omitempty"`
	Message              string               `json:"message"`
	Redirect             string               `json:"redirect"`
	RedirectAfterSeconds int                  `json:"redirectAfterSeconds,omitempty"`
}

// Pending reports whether the payer still has to finish on the provider.
func (r *PayResult) Pending() bool { return r.Payment.Status == models.PaymentPending }

type SubscriptionView struct {
	Subscription *models.Subscription `json:"subscription"`
	Plan         domain.Plan          `json:"plan"`
}

type BillingService struct {
	billing       store.BillingStore
	consultations store.ConsultationStore
	users         store.UserStore
	processors    map[domain.PaymentMethod]PaymentProcessor
	publisher     events.Publisher
	currency      string
	now           func() time.Time
}

func NewBillingService(
	billing store.BillingStore,
	consultations store.ConsultationStore,
	users store.UserStore,
	processors map[domain.PaymentMethod]PaymentProcessor,
	publisher events.Publisher,
	currency string,
) *BillingService {
	return &BillingService{
		billing:       billing,
		consultations: consultations,
		users:         users,
		processors:    processors,
		publisher:     publisher,
		currency:      currency,
		now:           time.Now,
	}
}

func (s *BillingService) Plans() []PlanQuote {
	out := make([]PlanQuote, 0, len(domain.Plans))
	for _, p := range domain.Plans {
		out = append(out, PlanQuote{Plan: p, Tax: domain.Tax(p.Price), Total: domain.TotalWithTax(p.Price)})
	}
	return out
}

// Pay charges the plan price plus tax. The payment row is written before
// the processor is called, so every attempt is recorded; on any processor
// failure it ends failed and nothing is activated.
func (s *BillingService) Pay(ctx context.Context, p Principal, in PayInput) (*PayResult, error) {
	plan, err := in.validate()
	if err != nil {
		return nil, validator.FromFieldErrors(err)
	}
	consultationID, err := s.checkDraft(ctx, p, in.ConsultationID)
	if err != nil {
		return nil, err
	}
	proc, ok := s.processors[in.Method]
	if !ok {
		return nil, apperrors.InternalError(fmt.Errorf("no processor for %s", in.Method))
	}

	pay := &models.Payment{
		ID:             primitive.NewObjectID(),
		UserID:         p.ID,
		PlanID:         plan.ID,
		Method:         in.Method,
		Subtotal:       plan.Price,
		Tax:            domain.Tax(plan.Price),
		Total:          domain.TotalWithTax(plan.Price),
		Currency:       s.currency,
		Status:         models.PaymentPending,
		Provider:       proc.Provider(),
		ConsultationID: consultationID,
		CreatedAt:      s.now(),
	}
	if in.Card != nil && in.Method == domain.MethodCreditCard {
		pay.CardLast4 = in.Card.Last4()
	}
	if err := s.billing.CreatePayment(ctx, pay); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	res, err := proc.Charge(ctx, ChargeRequest{
		PaymentID:   pay.ID.Hex(),
		Amount:      pay.Total,
		Currency:    pay.Currency,
		Description: "LegalInmo plan " + plan.Name,
		Email:       p.Email,
		Card:        in.Card,
	})
	if err != nil {
		s.fail(ctx, pay.ID, err.Error())
		return nil, apperrors.ErrPaymentFailed.WithError(err)
	}
	if res.Reference != "" || res.RedirectURL != "" {
		if err := s.billing.SetPaymentProviderRef(ctx, pay.ID, res.Reference, res.RedirectURL); err != nil {
			logger.CtxWithError(ctx, "store provider reference", err, "payment_id", pay.ID.Hex())
		}
		pay.ProviderRef, pay.RedirectURL = res.Reference, res.RedirectURL
	}

	switch res.Status {
	case models.PaymentPending:
		logger.CtxInfo(ctx, "payment awaiting provider", "payment_id", pay.ID.Hex(), "provider", pay.Provider)
		return &PayResult{
			Payment:  pay,
			Message:  "Completa el pago para activar tu plan " + plan.Name + ".",
			Redirect: res.RedirectURL,
		}, nil
	case models.PaymentApproved:
		settled, sub, err := s.settle(ctx, pay.ID, models.PaymentApproved, "")
		if err != nil {
			return nil, err
		}
		return &PayResult{
			Payment:              settled,
			Subscription:         sub,
			Message:              fmt.Sprintf("Tu pago ha sido procesado. Tu plan %s ha sido activado. ¡Gracias por tu compra!", plan.Name),
			Redirect:             redirectAfterPayment,
			RedirectAfterSeconds: redirectDelaySeconds,
		}, nil
	default:
		s.fail(ctx, pay.ID, res.Reason)
		return nil, apperrors.ErrPaymentFailed
	}
}

// checkDraft resolves the optional consultation a payment is for. It must
// be the caller's own unpaid draft.
func (s *BillingService) checkDraft(ctx context.Context, p Principal, raw string) (*primitive.ObjectID, error) {
	if raw == "" {
		return nil, nil
	}
	invalid := apperrors.ValidationError(map[string]string{"consultationId": "unknown consultation"})
	id, _ := primitive.ObjectIDFromHex(raw)
	c, err := s.consultations.GetConsultation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if c.UserID != p.ID || c.Status != models.ConsultationAwaitingPayment {
		return nil, invalid
	}
	return &id, nil
}

func (s *BillingService) fail(ctx context.Context, id primitive.ObjectID, reason string) {
	if _, _, err := s.settle(ctx, id, models.PaymentFailed, reason); err != nil {
		logger.CtxWithError(ctx, "record failed payment", err, "payment_id", id.Hex())
	}
	logger.CtxWarn(ctx, "payment failed", "payment_id", id.Hex(), "reason", reason)
}

// Settle applies a provider notification. Settling a payment twice is a
// no-op that returns the payment as it stands.
func (s *BillingService) Settle(ctx context.Context, provider string, st Settlement) (*models.Payment, error) {
	var (
		pay *models.Payment
		err error
	)
	if id, perr := primitive.ObjectIDFromHex(st.PaymentID); perr == nil {
		pay, err = s.billing.GetPayment(ctx, id)
	} else {
		pay, err = s.billing.GetPaymentByProviderRef(ctx, provider, st.Reference)
	}
	if err != nil {
		return nil, storeErr(err, apperrors.ErrPaymentNotFound)
	}
	if pay.Provider != provider {
		return nil, apperrors.ErrPaymentNotFound
	}
	if st.Status == models.PaymentPending {
		return pay, nil
	}
	settled, _, err := s.settle(ctx, pay.ID, st.Status, st.Reason)
	return settled, err
}

func (s *BillingService) settle(ctx context.Context, id primitive.ObjectID, status, reason string) (*models.Payment, *models.Subscription, error) {
	pay, err := s.billing.SettlePayment(ctx, id, status, reason, s.now())
	if errors.Is(err, store.ErrStateConflict) {
		current, gerr := s.billing.GetPayment(ctx, id)
		if gerr != nil {
			return nil, nil, storeErr(gerr, apperrors.ErrPaymentNotFound)
		}
		logger.CtxDebug(ctx, "payment already settled", "payment_id", id.Hex(), "status", current.Status)
		sub, _ := s.billing.GetSubscription(ctx, current.UserID)
		return current, sub, nil
	}
	if err != nil {
		return nil, nil, storeErr(err, apperrors.ErrPaymentNotFound)
	}
	if pay.Status != models.PaymentApproved {
		return pay, nil, nil
	}
	sub, err := s.activate(ctx, pay)
	if err != nil {
		return nil, nil, err
	}
	return pay, sub, nil
}

func (s *BillingService) activate(ctx context.Context, pay *models.Payment) (*models.Subscription, error) {
	plan, _ := domain.FindPlan(pay.PlanID)
	now := s.now()
	sub := &models.Subscription{
		UserID:          pay.UserID,
		PlanID:          plan.ID,
		Status:          models.SubscriptionActive,
		PaymentID:       pay.ID,
		ActivatedAt:     now,
		NextBillingDate: plan.NextBillingDate(now),
	}
	if err := s.billing.UpsertSubscription(ctx, sub); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	logger.CtxInfo(ctx, "subscription activated",
		"user_id", pay.UserID.Hex(),
		"plan", plan.ID,
		"payment_id", pay.ID.Hex(),
	)

	recipient := s.recipient(ctx, pay.UserID)
	if pay.ConsultationID != nil {
		s.releaseDraft(ctx, recipient, pay)
	}
	err := s.publisher.Publish(ctx, events.KeySubscriptionActivated, events.SubscriptionActivated{
		Recipient:       recipient,
		PaymentID:       pay.ID.Hex(),
		PlanID:          string(plan.ID),
		PlanName:        plan.Name,
		Total:           pay.Total,
		Currency:        pay.Currency,
		NextBillingDate: sub.NextBillingDate,
	})
	if err != nil {
		logger.CtxWithError(ctx, "publish subscription.activated", err)
	}
	return sub, nil
}

// releaseDraft hands a paid consultation to the advisors. A draft the
// sweeper already removed is only logged; the subscription still stands.
func (s *BillingService) releaseDraft(ctx context.Context, recipient events.Recipient, pay *models.Payment) {
	id := *pay.ConsultationID
	if err := s.consultations.PromoteConsultation(ctx, id, pay.UserID); err != nil {
		logger.CtxWarn(ctx, "paid consultation not promoted", "consultation_id", id.Hex(), "error", err.Error())
		return
	}
	c, err := s.consultations.GetConsultation(ctx, id)
	if err != nil {
		return
	}
	specialties := make([]string, len(c.Specialties))
	for i, sp := range c.Specialties {
		specialties[i] = string(sp)
	}
	err = s.publisher.Publish(ctx, events.KeyConsultationSubmitted, events.ConsultationSubmitted{
		Recipient:      recipient,
		ConsultationID: id.Hex(),
		Tier:           string(c.Tier),
		Specialties:    specialties,
	})
	if err != nil {
		logger.CtxWithError(ctx, "publish consultation.submitted", err)
	}
}

func (s *BillingService) recipient(ctx context.Context, userID primitive.ObjectID) events.Recipient {
	r := events.Recipient{UserID: userID.Hex()}
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		logger.CtxWarn(ctx, "payment owner lookup failed", "user_id", userID.Hex(), "error", err.Error())
		return r
	}
	r.Name, r.Email, r.Phone = u.FullName, u.Email, u.Phone
	return r
}

// Subscription reports the free plan for users who never paid.
func (s *BillingService) Subscription(ctx context.Context, p Principal) (*SubscriptionView, error) {
	sub, err := s.billing.GetSubscription(ctx, p.ID)
	if errors.Is(err, store.ErrNotFound) {
		free, _ := domain.FindPlan(domain.PlanFree)
		return &SubscriptionView{Plan: free}, nil
	}
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	plan, _ := domain.FindPlan(sub.PlanID)
	return &SubscriptionView{Subscription: sub, Plan: plan}, nil
}

func (s *BillingService) Payments(ctx context.Context, p Principal) ([]models.Payment, error) {
	out, err := s.billing.ListPayments(ctx, p.ID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return out, nil
}
