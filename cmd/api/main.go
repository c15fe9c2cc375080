package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/config"
	"github.com/legalinmo/legal-api/internal/events"
	"github.com/legalinmo/legal-api/internal/handlers"
	"github.com/legalinmo/legal-api/internal/logger"
	"github.com/legalinmo/legal-api/internal/obs"
	"github.com/legalinmo/legal-api/internal/services"
	"github.com/legalinmo/legal-api/internal/store"
	"github.com/legalinmo/legal-api/internal/utils"
	"github.com/legalinmo/legal-api/internal/validator"
	"github.com/legalinmo/legal-api/pkg/domain"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("configuration", "error", err)
	}
	logger.Init(cfg.Env)
	apperrors.SetDebug(cfg.IsDevelopment())
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.OTLPEndpoint, cfg.Env, version)
	if err != nil {
		logger.Fatal("tracing", "error", err)
	}

	// --- Storage ---
	st, closeStore := openStore(ctx, cfg)

	// --- Events & notifications ---
	notifier := services.NewNotificationService(smsSender(cfg), mailer(cfg))
	publisher, closeEvents := startEvents(ctx, cfg, notifier)

	// --- Services ---
	v := validator.New()
	issuer := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL, time.Now)
	identity := services.NewIdentityService(st, st, issuer, publisher, v, cfg.PublicBaseURL)
	intake := services.NewIntakeService(st, publisher, v)
	scheduler := services.NewSchedulerService(st, publisher, cfg.Location(), cfg.PublicBaseURL)

	opts := handlers.Options{
		MercadoPagoSecret: cfg.MercadoPagoWebhookSecret,
		SPADir:            cfg.SPADir,
		SecureCookies:     !cfg.IsDevelopment(),
		CORSOrigins:       cfg.CORSOrigins,
		Health:            st.Ping,
	}
	processors := map[domain.PaymentMethod]services.PaymentProcessor{
		domain.MethodCreditCard:  services.OfflineProcessor{},
		domain.MethodMercadoPago: services.OfflineProcessor{},
	}
	if cfg.StripeSecretKey != "" {
		stripe := services.NewStripeProcessor(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
		processors[domain.MethodCreditCard] = stripe
		if cfg.StripeWebhookSecret != "" {
			opts.Stripe = stripe
		}
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, card payments are approved offline")
	}
	if cfg.MercadoPagoAccessToken != "" {
		notifyURL := cfg.APIURL("/webhooks/mercadopago?secret=" + url.QueryEscape(cfg.MercadoPagoWebhookSecret))
		mp := services.NewMercadoPagoProcessor(cfg.MercadoPagoAccessToken, cfg.PublicBaseURL, notifyURL)
		processors[domain.MethodMercadoPago] = mp
		opts.MercadoPago = mp
	} else {
		logger.Warn("MERCADOPAGO_ACCESS_TOKEN not set, MercadoPago payments are approved offline")
	}
	billing := services.NewBillingService(st, st, st, processors, publisher, cfg.Currency)
	chat := services.NewChatService(st)

	services.NewDraftSweeper(st, cfg.DraftTTL).Start(ctx)

	// --- HTTP ---
	h := handlers.NewHandler(identity, intake, scheduler, billing, chat, opts)
	srv := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.APIPort, "store", cfg.Store, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	closeEvents()
	closeStore(shutdownCtx)
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("tracer shutdown", "error", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, func(context.Context)) {
	if cfg.Store == "memory" {
		logger.Warn("using in-memory store, data is lost on restart")
		return store.NewMemory(), func(context.Context) {}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	m, err := store.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", "error", err)
	}
	if err := m.EnsureIndexes(connectCtx); err != nil {
		logger.Fatal("failed to create indexes", "error", err)
	}
	logger.Info("connected to MongoDB", "database", cfg.MongoDatabase)
	return m, func(ctx context.Context) {
		if err := m.Close(ctx); err != nil {
			logger.Error("mongo disconnect", "error", err)
		}
	}
}

// startEvents publishes to RabbitMQ and consumes notifications from it when
// RABBIT_URL is set; otherwise events are handled in-process.
func startEvents(ctx context.Context, cfg config.Config, notifier *services.NotificationService) (events.Publisher, func()) {
	if cfg.RabbitURL == "" {
		return events.NewDirect(notifier), func() {}
	}

	pub, err := events.NewRabbitPublisher(cfg.RabbitURL, cfg.EventsExchange)
	if err != nil {
		logger.Fatal("rabbitmq publisher", "error", err)
	}
	consumer, err := events.NewRabbitConsumer(cfg.RabbitURL, cfg.EventsExchange, cfg.NotifyQueue, events.NotificationKeys)
	if err != nil {
		logger.Fatal("rabbitmq consumer", "error", err)
	}
	go func() {
		if err := consumer.Run(ctx, notifier); err != nil && ctx.Err() == nil {
			logger.Error("notification consumer stopped", "error", err)
		}
	}()
	logger.Info("events via rabbitmq", "exchange", cfg.EventsExchange, "queue", cfg.NotifyQueue)

	return pub, func() {
		if err := consumer.Close(); err != nil {
			logger.Error("rabbitmq consumer close", "error", err)
		}
		if err := pub.Close(); err != nil {
			logger.Error("rabbitmq publisher close", "error", err)
		}
	}
}

func smsSender(cfg config.Config) services.SMSSender {
	if cfg.TextbeltAPIKey == "" {
		return nil
	}
	return services.NewTextbeltSender(cfg.TextbeltAPIKey)
}

func mailer(cfg config.Config) services.Mailer {
	if cfg.SMTPHost == "" {
		return nil
	}
	return services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
}
