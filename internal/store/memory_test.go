package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/legalinmo/legal-api/internal/models"
)

var _ Store = (*Memory)(nil)
var _ Store = (*Mongo)(nil)

func TestMemory_UserUniqueness(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.CreateUser(ctx, &models.User{Email: "Ana@Example.com", Username: "ana"}))

	err := m.CreateUser(ctx, &models.User{Email: "ana@example.com", Username: "other"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	err = m.CreateUser(ctx, &models.User{Email: "x@example.com", Username: "ANA"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	u, err := m.GetUserByUsername(ctx, "Ana")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
}

func TestMemory_SlotIsTakenOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var ok, taken atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.CreateAppointment(ctx, &models.Appointment{
				UserID: primitive.NewObjectID(), Date: "2030-01-02", TimeSlot: "09:00",
				SpecialistID: 1, Status: models.AppointmentConfirmed,
			})
			if err == nil {
				ok.Add(1)
			} else if err == ErrSlotTaken {
				taken.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 19, taken.Load())
}

func TestMemory_CancelFreesSlot(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	a := &models.Appointment{Date: "2030-01-02", TimeSlot: "10:00", SpecialistID: 2, Status: models.AppointmentConfirmed}
	require.NoError(t, m.CreateAppointment(ctx, a))

	slots, _ := m.TakenSlots(ctx, "2030-01-02", 2)
	assert.Equal(t, []string{"10:00"}, slots)

	_, err := m.CancelAppointment(ctx, a.ID, time.Now())
	require.NoError(t, err)
	_, err = m.CancelAppointment(ctx, a.ID, time.Now())
	assert.ErrorIs(t, err, ErrStateConflict)

	slots, _ = m.TakenSlots(ctx, "2030-01-02", 2)
	assert.Empty(t, slots)
	require.NoError(t, m.CreateAppointment(ctx, &models.Appointment{
		Date: "2030-01-02", TimeSlot: "10:00", SpecialistID: 2, Status: models.AppointmentConfirmed,
	}))
}

func TestMemory_SettleOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p := &models.Payment{Status: models.PaymentPending}
	require.NoError(t, m.CreatePayment(ctx, p))

	got, err := m.SettlePayment(ctx, p.ID, models.PaymentApproved, "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.PaymentApproved, got.Status)

	_, err = m.SettlePayment(ctx, p.ID, models.PaymentFailed, "late", time.Now())
	assert.ErrorIs(t, err, ErrStateConflict)
}

func TestMemory_PasswordResetSingleUse(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, m.CreatePasswordReset(ctx, &models.PasswordReset{Token: "t1", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, m.CreatePasswordReset(ctx, &models.PasswordReset{Token: "t2", ExpiresAt: now}))

	_, err := m.ConsumePasswordReset(ctx, "t1", now)
	require.NoError(t, err)
	_, err = m.ConsumePasswordReset(ctx, "t1", now)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.ConsumePasswordReset(ctx, "t2", now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_DraftLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	user := primitive.NewObjectID()
	now := time.Now()

	old := &models.Consultation{UserID: user, Status: models.ConsultationAwaitingPayment, CreatedAt: now.Add(-48 * time.Hour)}
	fresh := &models.Consultation{UserID: user, Status: models.ConsultationAwaitingPayment, CreatedAt: now}
	require.NoError(t, m.CreateConsultation(ctx, old))
	require.NoError(t, m.CreateConsultation(ctx, fresh))

	assert.ErrorIs(t, m.PromoteConsultation(ctx, fresh.ID, primitive.NewObjectID()), ErrStateConflict)
	require.NoError(t, m.PromoteConsultation(ctx, fresh.ID, user))

	n, err := m.DeleteDraftsBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	list, _ := m.ListConsultations(ctx, ConsultationFilter{UserID: &user})
	require.Len(t, list, 1)
	assert.Equal(t, models.ConsultationPending, list[0].Status)
}

func TestMemory_ConversationIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateConversation(ctx, &models.Conversation{ID: "c1"}))

	c, err := m.AppendMessages(ctx, "c1", time.Now(), models.ChatMessage{Text: "hola", Sender: models.SenderUser})
	require.NoError(t, err)
	c.Messages[0].Text = "mutated"

	again, _ := m.GetConversation(ctx, "c1")
	assert.Equal(t, "hola", again.Messages[0].Text)
}
