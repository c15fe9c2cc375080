package client

import (
	"context"
	"errors"
	"time"

	"github.com/legalinmo/legal-api/pkg/domain"
)

// ErrNotReady is returned by Submit when a form is missing input.
var ErrNotReady = errors.New("client: form is incomplete")

// ConsultationForm is the state of the consultation screen.
type ConsultationForm struct {
	selection *domain.Selection
	Question  string
}

func NewConsultationForm(tier domain.Tier) *ConsultationForm {
	return &ConsultationForm{selection: domain.NewSelection(tier)}
}

func (f *ConsultationForm) Tier() domain.Tier { return f.selection.Tier() }

func (f *ConsultationForm) SetTier(t domain.Tier) { f.selection.SetTier(t) }

// Toggle selects or deselects sp, evicting the oldest choice when the tier
// is already full.
func (f *ConsultationForm) Toggle(sp domain.Specialty) {
	f.selection.Toggle(sp)
}

func (f *ConsultationForm) Selected() []domain.Specialty { return f.selection.Items() }

// Validate runs the same checks the server applies.
func (f *ConsultationForm) Validate() error {
	return domain.ValidateConsultation(f.Tier(), f.Selected(), f.Question)
}

// Submit sends the consultation and clears the form on success.
func (f *ConsultationForm) Submit(ctx context.Context, svc Services) (*ConsultationResult, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	res, err := svc.SubmitConsultation(ctx, f.Tier(), f.Selected(), f.Question)
	if err != nil {
		return nil, err
	}
	f.selection.Clear()
	f.Question = ""
	return res, nil
}

// BookingForm is the state of the appointment screen.
type BookingForm struct {
	date         string
	slot         string
	specialistID int
}

// SetDate picks a day; any slot chosen for the previous day is dropped.
func (f *BookingForm) SetDate(date string) {
	if date != f.date {
		f.slot = ""
	}
	f.date = date
}

func (f *BookingForm) SetSlot(slot string)  { f.slot = slot }
func (f *BookingForm) SetSpecialist(id int) { f.specialistID = id }

func (f *BookingForm) Request() domain.BookingRequest {
	return domain.BookingRequest{Date: f.date, TimeSlot: f.slot, SpecialistID: f.specialistID}
}

// MinDate is the earliest date the date picker offers.
func (f *BookingForm) MinDate(now time.Time, loc *time.Location) string {
	return domain.EarliestBookableDate(now, loc).Format(domain.DateLayout)
}

func (f *BookingForm) Submit(ctx context.Context, svc Services) (*BookingResult, error) {
	req := f.Request()
	if req.Date == "" || req.TimeSlot == "" || req.SpecialistID == 0 {
		return nil, ErrNotReady
	}
	return svc.BookAppointment(ctx, req)
}

// CardForm masks card input as it is typed.
type CardForm struct {
	number string
	Name   string
	expiry string
	cvv    string
}

func (f *CardForm) SetNumber(raw string) { f.number = domain.FormatCardNumber(raw) }
func (f *CardForm) SetExpiry(raw string) { f.expiry = domain.FormatExpiry(raw) }
func (f *CardForm) SetCVV(raw string)    { f.cvv = domain.FormatCVV(raw) }

func (f *CardForm) Number() string { return f.number }
func (f *CardForm) Expiry() string { return f.expiry }

func (f *CardForm) Card() domain.Card {
	return domain.Card{Number: f.number, Name: f.Name, Expiry: f.expiry, CVV: f.cvv}
}

func (f *CardForm) Validate() error { return f.Card().Validate() }

// PaymentForm is the state of the payment screen.
type PaymentForm struct {
	Plan           domain.PlanID
	Method         domain.PaymentMethod
	Card           CardForm
	ConsultationID string
}

// Quote is the amount the payer will be charged for the selected plan.
func (f *PaymentForm) Quote() (subtotal, tax, total int64, ok bool) {
	plan, ok := domain.FindPlan(f.Plan)
	if !ok {
		return 0, 0, 0, false
	}
	return plan.Price, domain.Tax(plan.Price), domain.TotalWithTax(plan.Price), true
}

func (f *PaymentForm) Submit(ctx context.Context, svc Services) (*PaymentResult, error) {
	if f.Plan == "" || !f.Method.Valid() {
		return nil, ErrNotReady
	}
	req := PaymentRequest{PlanID: f.Plan, Method: f.Method, ConsultationID: f.ConsultationID}
	if f.Method == domain.MethodCreditCard {
		if err := f.Card.Validate(); err != nil {
			return nil, err
		}
		card := f.Card.Card()
		req.Card = &card
	}
	return svc.Pay(ctx, req)
}
