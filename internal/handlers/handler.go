package handlers

import (
	"context"
	"crypto/subtle"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/middleware"
	"github.com/legalinmo/legal-api/internal/services"
	"github.com/legalinmo/legal-api/internal/utils"
)

// StripeWebhooks verifies and decodes Stripe event deliveries.
type StripeWebhooks interface {
	ParseWebhook(payload []byte, signature string) (*services.Settlement, error)
}

// MercadoPagoResolver looks a MercadoPago payment up by its id.
type MercadoPagoResolver interface {
	Resolve(ctx context.Context, mpPaymentID string) (*services.Settlement, error)
}

// Options are the optional collaborators of a Handler.
type Options struct {
	// MercadoPago and MercadoPagoSecret enable POST /webhooks/mercadopago.
	MercadoPago       MercadoPagoResolver
	MercadoPagoSecret string
	// Stripe enables POST /webhooks/stripe.
	Stripe StripeWebhooks
	// SPADir serves the built front end for page routes when set.
	SPADir        string
	SecureCookies bool
	CORSOrigins   []string
	Health        func(ctx context.Context) error
}

type Handler struct {
	Identity  *services.IdentityService
	Intake    *services.IntakeService
	Scheduler *services.SchedulerService
	Billing   *services.BillingService
	Chat      *services.ChatService
	Dashboard *services.DashboardService
	opts      Options
}

func NewHandler(
	identity *services.IdentityService,
	intake *services.IntakeService,
	scheduler *services.SchedulerService,
	billing *services.BillingService,
	chat *services.ChatService,
	opts Options,
) *Handler {
	return &Handler{
		Identity:  identity,
		Intake:    intake,
		Scheduler: scheduler,
		Billing:   billing,
		Chat:      chat,
		Dashboard: services.NewDashboardService(identity, intake, scheduler, billing),
		opts:      opts,
	}
}

// Router builds the engine with every route and the shared middleware.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Tracing(), middleware.Logging())
	if len(h.opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     h.opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
		}))
	}
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	auth := middleware.AuthMiddleware(h.Identity)

	r.GET("/healthz", h.Healthz)

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", h.RegisterUser)
		authRoutes.POST("/login", h.Login)
		authRoutes.POST("/forgot-password", h.ForgotPassword)
		authRoutes.POST("/reset-password", h.ResetPassword)
		authRoutes.GET("/session", auth, h.GetSession)
		authRoutes.POST("/logout", auth, h.Logout)
	}

	apiRoutes := r.Group("/api")
	apiRoutes.Use(auth)
	{
		apiRoutes.GET("/user/me", h.GetCurrentUser)
		apiRoutes.PUT("/user/me", h.UpdateCurrentUser)
		apiRoutes.GET("/dashboard", h.GetDashboard)

		apiRoutes.GET("/specialties", h.GetSpecialties)
		apiRoutes.POST("/consultations", h.SubmitConsultation)
		apiRoutes.GET("/consultations", h.GetConsultations)
		apiRoutes.GET("/consultations/:id", h.GetConsultation)
		apiRoutes.PATCH("/consultations/:id/answer",
			middleware.RequireRole("asesor", "admin"), h.AnswerConsultation)

		apiRoutes.GET("/specialists", h.GetSpecialists)
		apiRoutes.GET("/appointments/availability", h.GetAvailability)
		apiRoutes.POST("/appointments", h.CreateAppointment)
		apiRoutes.GET("/appointments", h.GetAppointments)
		apiRoutes.PATCH("/appointments/:id/cancel", h.CancelAppointment)

		apiRoutes.GET("/plans", h.GetPlans)
		apiRoutes.POST("/payments", h.CreatePayment)
		apiRoutes.GET("/payments", h.GetPayments)
		apiRoutes.GET("/subscription", h.GetSubscription)
	}

	chatRoutes := r.Group("/chat/conversations")
	{
		chatRoutes.POST("", h.StartConversation)
		chatRoutes.GET("/:id", h.GetConversation)
		chatRoutes.POST("/:id/messages", h.SendChatMessage)
		chatRoutes.PATCH("/:id", h.UpdateConversation)
	}

	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/mercadopago", h.MercadoPagoWebhook)
		webhooks.POST("/stripe", h.StripeWebhook)
	}

	h.registerPages(r)
}

// principal is only called behind AuthMiddleware.
func principal(c *gin.Context) (services.Principal, bool) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authentication required"))
	}
	return p, ok
}

func claims(c *gin.Context) (*utils.Claims, bool) {
	cl, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authentication required"))
	}
	return cl, ok
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		apperrors.HandleBindError(c, err)
		return false
	}
	return true
}

func secretMatches(got, want string) bool {
	return want != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
