package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/legalinmo/legal-api/internal/models"
)

// Memory is an in-process Store. It enforces the same uniqueness and
// status preconditions as the Mongo indexes and filters.
type Memory struct {
	mu            sync.Mutex
	users         map[primitive.ObjectID]models.User
	resets        map[string]models.PasswordReset
	revoked       map[string]time.Time
	consultations map[primitive.ObjectID]models.Consultation
	appointments  map[primitive.ObjectID]models.Appointment
	payments      map[primitive.ObjectID]models.Payment
	subscriptions map[primitive.ObjectID]models.Subscription
	conversations map[string]models.Conversation
}

func NewMemory() *Memory {
	return &Memory{
		users:         map[primitive.ObjectID]models.User{},
		resets:        map[string]models.PasswordReset{},
		revoked:       map[string]time.Time{},
		consultations: map[primitive.ObjectID]models.Consultation{},
		appointments:  map[primitive.ObjectID]models.Appointment{},
		payments:      map[primitive.ObjectID]models.Payment{},
		subscriptions: map[primitive.ObjectID]models.Subscription{},
		conversations: map[string]models.Conversation{},
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

// --- users ---

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u.Email = strings.ToLower(u.Email)
	u.UsernameKey = strings.ToLower(u.Username)
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
		if existing.UsernameKey == u.UsernameKey {
			return ErrDuplicateUsername
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) findUser(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	email = strings.ToLower(email)
	return m.findUser(func(u models.User) bool { return u.Email == email })
}

func (m *Memory) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	key := strings.ToLower(username)
	return m.findUser(func(u models.User) bool { return u.UsernameKey == key })
}

func (m *Memory) UpdateUserProfile(_ context.Context, id primitive.ObjectID, fullName, phone string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if fullName != "" {
		u.FullName = fullName
	}
	if phone != "" {
		u.Phone = phone
	}
	m.users[id] = u
	return &u, nil
}

func (m *Memory) SetUserPassword(_ context.Context, id primitive.ObjectID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Password = hash
	m.users[id] = u
	return nil
}

// --- tokens ---

func (m *Memory) RevokeToken(_ context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = expiresAt
	return nil
}

func (m *Memory) IsTokenRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

func (m *Memory) CreatePasswordReset(_ context.Context, r *models.PasswordReset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets[r.Token] = *r
	return nil
}

func (m *Memory) ConsumePasswordReset(_ context.Context, token string, now time.Time) (*models.PasswordReset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resets[token]
	if !ok || r.Used || !now.Before(r.ExpiresAt) {
		return nil, ErrNotFound
	}
	r.Used = true
	m.resets[token] = r
	return &r, nil
}

// --- consultations ---

func (m *Memory) CreateConsultation(_ context.Context, c *models.Consultation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.Specialties = append(c.Specialties[:0:0], c.Specialties...)
	m.consultations[c.ID] = *c
	return nil
}

func (m *Memory) GetConsultation(_ context.Context, id primitive.ObjectID) (*models.Consultation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.consultations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) ListConsultations(_ context.Context, f ConsultationFilter) ([]models.Consultation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Consultation{}
	for _, c := range m.consultations {
		if f.UserID != nil && c.UserID != *f.UserID {
			continue
		}
		if len(f.Statuses) > 0 && !contains(f.Statuses, c.Status) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return limit(out, f.Limit), nil
}

func (m *Memory) AnswerConsultation(_ context.Context, id, by primitive.ObjectID, answer string, at time.Time) (*models.Consultation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.consultations[id]
	if !ok {
		return nil, ErrNotFound
	}
	if c.Status != models.ConsultationPending {
		return nil, ErrStateConflict
	}
	c.Status = models.ConsultationAnswered
	c.Answer = answer
	c.AnsweredBy = &by
	c.AnsweredAt = &at
	m.consultations[id] = c
	return &c, nil
}

func (m *Memory) PromoteConsultation(_ context.Context, id, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.consultations[id]
	if !ok {
		return ErrNotFound
	}
	if c.UserID != userID || c.Status != models.ConsultationAwaitingPayment {
		return ErrStateConflict
	}
	c.Status = models.ConsultationPending
	m.consultations[id] = c
	return nil
}

func (m *Memory) DeleteDraftsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, c := range m.consultations {
		if c.Status == models.ConsultationAwaitingPayment && c.CreatedAt.Before(cutoff) {
			delete(m.consultations, id)
			n++
		}
	}
	return n, nil
}

// --- appointments ---

func (m *Memory) CreateAppointment(_ context.Context, a *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.Status == models.AppointmentConfirmed {
		for _, existing := range m.appointments {
			if existing.Status == models.AppointmentConfirmed &&
				existing.Date == a.Date &&
				existing.TimeSlot == a.TimeSlot &&
				existing.SpecialistID == a.SpecialistID {
				return ErrSlotTaken
			}
		}
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	m.appointments[a.ID] = *a
	return nil
}

func (m *Memory) GetAppointment(_ context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *Memory) ListAppointments(_ context.Context, f AppointmentFilter) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Appointment{}
	for _, a := range m.appointments {
		if f.UserID != nil && a.UserID != *f.UserID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && a.StartsAt.Before(f.From) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return limit(out, f.Limit), nil
}

func (m *Memory) TakenSlots(_ context.Context, date string, specialistID int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for _, a := range m.appointments {
		if a.Status == models.AppointmentConfirmed && a.Date == date && a.SpecialistID == specialistID {
			out = append(out, a.TimeSlot)
		}
	}
	return out, nil
}

func (m *Memory) CancelAppointment(_ context.Context, id primitive.ObjectID, at time.Time) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if a.Status != models.AppointmentConfirmed {
		return nil, ErrStateConflict
	}
	a.Status = models.AppointmentCancelled
	a.CancelledAt = &at
	m.appointments[id] = a
	return &a, nil
}

// --- billing ---

func (m *Memory) CreatePayment(_ context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	m.payments[p.ID] = *p
	return nil
}

func (m *Memory) GetPayment(_ context.Context, id primitive.ObjectID) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) GetPaymentByProviderRef(_ context.Context, provider, ref string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.Provider == provider && p.ProviderRef == ref {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListPayments(_ context.Context, userID primitive.ObjectID) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Payment{}
	for _, p := range m.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) SetPaymentProviderRef(_ context.Context, id primitive.ObjectID, ref, redirectURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return ErrNotFound
	}
	p.ProviderRef = ref
	if redirectURL != "" {
		p.RedirectURL = redirectURL
	}
	m.payments[id] = p
	return nil
}

func (m *Memory) SettlePayment(_ context.Context, id primitive.ObjectID, status, reason string, at time.Time) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Status != models.PaymentPending {
		return nil, ErrStateConflict
	}
	p.Status = status
	p.FailureReason = reason
	p.SettledAt = &at
	m.payments[id] = p
	return &p, nil
}

func (m *Memory) UpsertSubscription(_ context.Context, s *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[s.UserID] = *s
	return nil
}

func (m *Memory) GetSubscription(_ context.Context, userID primitive.ObjectID) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subscriptions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

// --- conversations ---

func (m *Memory) CreateConversation(_ context.Context, c *models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.Messages = append([]models.ChatMessage{}, c.Messages...)
	m.conversations[c.ID] = *c
	return nil
}

func (m *Memory) GetConversation(_ context.Context, id string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneConversation(c), nil
}

func (m *Memory) AppendMessages(_ context.Context, id string, at time.Time, msgs ...models.ChatMessage) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.Messages = append(append([]models.ChatMessage{}, c.Messages...), msgs...)
	c.UpdatedAt = at
	m.conversations[id] = c
	return cloneConversation(c), nil
}

func (m *Memory) SetConversationFlags(_ context.Context, id string, open, minimized bool, at time.Time) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.Open, c.Minimized, c.UpdatedAt = open, minimized, at
	m.conversations[id] = c
	return cloneConversation(c), nil
}

func cloneConversation(c models.Conversation) *models.Conversation {
	c.Messages = append([]models.ChatMessage{}, c.Messages...)
	return &c
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func limit[T any](in []T, n int) []T {
	if n > 0 && len(in) > n {
		return in[:n]
	}
	return in
}
