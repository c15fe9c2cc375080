package services

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/legalinmo/legal-api/internal/events"
	"github.com/legalinmo/legal-api/internal/store"
	"github.com/legalinmo/legal-api/internal/utils"
	"github.com/legalinmo/legal-api/internal/validator"
	"github.com/legalinmo/legal-api/pkg/domain"
)

func init() {
	utils.BcryptCost = bcrypt.MinCost
}

var bogota = func() *time.Location {
	loc, err := time.LoadLocation("America/Bogota")
	if err != nil {
		panic(err)
	}
	return loc
}()

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) { c.Set(c.Now().Add(d)) }

type testEnv struct {
	store     *store.Memory
	events    *events.Recorder
	clock     *fakeClock
	issuer    *utils.TokenIssuer
	identity  *IdentityService
	intake    *IntakeService
	scheduler *SchedulerService
	billing   *BillingService
	chat      *ChatService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := store.NewMemory()
	rec := &events.Recorder{}
	clock := &fakeClock{t: time.Date(2030, 3, 14, 10, 0, 0, 0, bogota)}
	issuer := utils.NewTokenIssuer("services-test-secret-1234", 24*time.Hour, clock.Now)
	v := validator.New()

	env := &testEnv{
		store:     mem,
		events:    rec,
		clock:     clock,
		issuer:    issuer,
		identity:  NewIdentityService(mem, mem, issuer, rec, v, "https://legalinmo.test"),
		intake:    NewIntakeService(mem, rec, v),
		scheduler: NewSchedulerService(mem, rec, bogota, "https://legalinmo.test"),
		billing: NewBillingService(mem, mem, mem, map[domain.PaymentMethod]PaymentProcessor{
			domain.MethodCreditCard:  OfflineProcessor{},
			domain.MethodMercadoPago: OfflineProcessor{},
		}, rec, "cop"),
		chat: NewChatService(mem),
	}
	env.identity.now = clock.Now
	env.intake.now = clock.Now
	env.scheduler.now = clock.Now
	env.billing.now = clock.Now
	env.chat.now = clock.Now
	return env
}

func registerInput(username string) RegisterInput {
	return RegisterInput{
		FullName:        "Ana García",
		Email:           username + "@example.com",
		Username:        username,
		Password:        "s3cret-pass",
		ConfirmPassword: "s3cret-pass",
		Phone:           "+57 300 123 4567",
		AcceptPolicy:    true,
	}
}

// principal registers a user with the given role and returns the caller
// as the middleware would build it.
func (e *testEnv) principal(t *testing.T, username, role string) Principal {
	t.Helper()
	in := registerInput(username)
	in.Role = role
	if role == "admin" {
		in.Role = ""
	}
	sess, err := e.identity.Register(context.Background(), in)
	require.NoError(t, err)
	claims, err := e.issuer.Validate(sess.Token)
	require.NoError(t, err)
	p, err := PrincipalFromClaims(claims)
	require.NoError(t, err)
	if role == "admin" {
		p.Role = "admin"
	}
	return p
}

func validCard() *domain.Card {
	return &domain.Card{Number: "4242 4242 4242 4242", Name: "ANA GARCIA", Expiry: "12/34", CVV: "123"}
}

func resetTokenFrom(t *testing.T, rec *events.Recorder) string {
	t.Helper()
	for _, env := range rec.Events() {
		if env.Event != events.KeyPasswordResetRequested {
			continue
		}
		var e events.PasswordResetRequested
		require.NoError(t, env.Decode(&e))
		u, err := url.Parse(e.ResetURL)
		require.NoError(t, err)
		return u.Query().Get("token")
	}
	t.Fatal("no password reset event")
	return ""
}
