package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/legalinmo/legal-api/pkg/domain"
)

// Fake is an in-memory Services for exercising screens without a server.
// It applies the same domain rules as the API but keeps a single user.
type Fake struct {
	mu       sync.Mutex
	Now      func() time.Time
	Location *time.Location
	LoggedIn bool
	seq      int
	booked   map[domain.BookingRequest]bool
	// Calls records the method names in call order.
	Calls []string
}

func NewFake(now func() time.Time, loc *time.Location) *Fake {
	return &Fake{Now: now, Location: loc, booked: map[domain.BookingRequest]bool{}}
}

var _ Services = (*Fake)(nil)

func (f *Fake) record(name string) {
	f.mu.Lock()
	f.Calls = append(f.Calls, name)
	f.mu.Unlock()
}

func (f *Fake) nextID() string {
	f.seq++
	return fmt.Sprintf("fake-%d", f.seq)
}

func (f *Fake) auth(u User) *AuthResponse {
	f.LoggedIn = true
	return &AuthResponse{Token: "fake-token", ExpiresAt: f.Now().Add(24 * time.Hour), User: u}
}

func (f *Fake) Register(_ context.Context, req RegisterRequest) (*AuthResponse, error) {
	f.record("Register")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth(User{ID: f.nextID(), FullName: req.FullName, Email: req.Email, Username: req.Username, Role: "client"}), nil
}

func (f *Fake) Login(_ context.Context, identifier, _ string) (*AuthResponse, error) {
	f.record("Login")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth(User{ID: "fake-user", Username: identifier, Role: "client"}), nil
}

func (f *Fake) Logout(context.Context) error {
	f.record("Logout")
	f.mu.Lock()
	f.LoggedIn = false
	f.mu.Unlock()
	return nil
}

func (f *Fake) SubmitConsultation(_ context.Context, tier domain.Tier, specialties []domain.Specialty, question string) (*ConsultationResult, error) {
	f.record("SubmitConsultation")
	if err := domain.ValidateConsultation(tier, specialties, question); err != nil {
		return nil, &APIError{Status: http.StatusBadRequest, Code: "VALIDATION_FAILED", Message: err.Error()}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	res := &ConsultationResult{Consultation: Consultation{
		ID: f.nextID(), Tier: tier, Specialties: specialties, Question: question, Status: "pending",
	}}
	if tier == domain.TierPaid {
		res.Consultation.Status = "awaiting_payment"
		res.Next = "/payment"
	}
	return res, nil
}

func (f *Fake) Availability(_ context.Context, date string, specialistID int) ([]Slot, error) {
	f.record("Availability")
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Slot, 0, len(domain.TimeSlots))
	for _, t := range domain.TimeSlots {
		taken := f.booked[domain.BookingRequest{Date: date, TimeSlot: t, SpecialistID: specialistID}]
		out = append(out, Slot{Time: t, Available: !taken})
	}
	return out, nil
}

func (f *Fake) BookAppointment(_ context.Context, req domain.BookingRequest) (*BookingResult, error) {
	f.record("BookAppointment")
	date, err := req.Validate(f.Now(), f.Location)
	if err != nil {
		return nil, &APIError{Status: http.StatusBadRequest, Code: "VALIDATION_FAILED", Message: err.Error()}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.booked[req] {
		return nil, &APIError{Status: http.StatusConflict, Code: "SLOT_TAKEN", Message: "This time slot is no longer available"}
	}
	f.booked[req] = true
	sp, _ := domain.FindSpecialist(req.SpecialistID)
	start, _ := domain.SlotStart(date, req.TimeSlot)
	return &BookingResult{Appointment: Appointment{
		ID: f.nextID(), Date: req.Date, TimeSlot: req.TimeSlot, SpecialistID: sp.ID,
		SpecialistName: sp.Name, Status: "confirmed", StartsAt: start,
	}}, nil
}

func (f *Fake) Pay(_ context.Context, req PaymentRequest) (*PaymentResult, error) {
	f.record("Pay")
	plan, ok := domain.FindPlan(req.PlanID)
	if !ok || !plan.Purchasable() {
		return nil, &APIError{Status: http.StatusBadRequest, Code: "VALIDATION_FAILED", Message: "unknown plan"}
	}
	if req.Card != nil && req.Card.Digits() == "4000000000000002" {
		return nil, &APIError{Status: http.StatusBadGateway, Code: "PAYMENT_FAILED", Message: "Error processing the payment, please try again"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	pay := Payment{
		ID: f.nextID(), PlanID: plan.ID, Subtotal: plan.Price,
		Tax: domain.Tax(plan.Price), Total: domain.TotalWithTax(plan.Price), Status: "approved",
	}
	if req.Card != nil {
		pay.CardLast4 = req.Card.Last4()
	}
	return &PaymentResult{Payment: pay, Redirect: "/dashboard", RedirectAfterSeconds: 3}, nil
}
