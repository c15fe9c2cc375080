package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/legalinmo/legal-api/internal/events"
	"github.com/legalinmo/legal-api/internal/handlers"
	"github.com/legalinmo/legal-api/internal/services"
	"github.com/legalinmo/legal-api/internal/store"
	"github.com/legalinmo/legal-api/internal/utils"
	"github.com/legalinmo/legal-api/internal/validator"
	"github.com/legalinmo/legal-api/pkg/domain"
)

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.BcryptCost = bcrypt.MinCost

	mem := store.NewMemory()
	rec := &events.Recorder{}
	v := validator.New()
	issuer := utils.NewTokenIssuer("client-test-secret-1234", time.Hour, time.Now)
	offline := map[domain.PaymentMethod]services.PaymentProcessor{
		domain.MethodCreditCard:  services.OfflineProcessor{},
		domain.MethodMercadoPago: services.OfflineProcessor{},
	}
	h := handlers.NewHandler(
		services.NewIdentityService(mem, mem, issuer, rec, v, "http://localhost"),
		services.NewIntakeService(mem, rec, v),
		services.NewSchedulerService(mem, rec, bogota, "http://localhost"),
		services.NewBillingService(mem, mem, mem, offline, rec, "cop"),
		services.NewChatService(mem),
		handlers.Options{},
	)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAgainstAPI(t *testing.T) {
	srv := newAPI(t)
	ctx := context.Background()
	c := New(srv.URL, NewSession(&MemoryTokenStore{}, nil))

	_, err := c.SubmitConsultation(ctx, domain.TierFree, []domain.Specialty{domain.SpecialtyPredial}, "hola")
	require.Error(t, err)
	assert.True(t, IsCode(err, "UNAUTHORIZED"))

	_, err = c.Register(ctx, RegisterRequest{
		FullName: "Ana García", Email: "ana@example.com", Username: "ana",
		Password: "s3cret-pass", ConfirmPassword: "s3cret-pass",
		Phone: "+57 300 123 4567", AcceptPolicy: true,
	})
	require.NoError(t, err)
	require.True(t, c.Session().Authenticated())
	claims, _ := c.Session().Claims()
	assert.Equal(t, "ana", claims.Username)

	require.NoError(t, c.Logout(ctx))
	assert.False(t, c.Session().Authenticated())

	auth, err := c.Login(ctx, "ana@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "ana", auth.User.Username)

	form := NewConsultationForm(domain.TierFree)
	form.Toggle(domain.SpecialtyPredial)
	form.Question = "¿Cómo pago el predial?"
	res, err := form.Submit(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "pending", res.Consultation.Status)

	var booking BookingForm
	booking.SetDate(time.Now().In(bogota).AddDate(0, 0, 3).Format(domain.DateLayout))
	booking.SetSlot("14:00")
	booking.SetSpecialist(3)
	booked, err := booking.Submit(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "Dr. María López", booked.Appointment.SpecialistName)

	slots, err := c.Availability(ctx, booking.Request().Date, 3)
	require.NoError(t, err)
	require.Len(t, slots, len(domain.TimeSlots))

	_, err = booking.Submit(ctx, c)
	assert.True(t, IsCode(err, "SLOT_TAKEN"))

	pay := PaymentForm{Plan: domain.PlanMensual, Method: domain.MethodCreditCard}
	pay.Card.SetNumber("4000000000000002")
	pay.Card.SetExpiry("1234")
	pay.Card.SetCVV("123")
	pay.Card.Name = "ANA"
	_, err = pay.Submit(ctx, c)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)

	pay.Card.SetNumber("4242424242424242")
	paid, err := pay.Submit(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, int64(237881), paid.Payment.Total)
	assert.Equal(t, 3, paid.RedirectAfterSeconds)
}
