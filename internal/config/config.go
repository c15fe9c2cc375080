// Package config loads the process configuration from the environment,
// reading a local .env file first when present.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/legalinmo/legal-api/internal/logger"
)

type Config struct {
	Env     string `envconfig:"APP_ENV" default:"development"`
	APIPort string `envconfig:"API_PORT" default:"8080"`

	// Storage
	Store         string `envconfig:"STORE" default:"mongo"`
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"legalinmo"`

	// Sessions
	JWTSecret string        `envconfig:"JWT_SECRET" required:"true"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	// Business rules
	Timezone string        `envconfig:"TIMEZONE" default:"America/Bogota"`
	DraftTTL time.Duration `envconfig:"DRAFT_TTL" default:"24h"`
	Currency string        `envconfig:"CURRENCY" default:"cop"`

	// HTTP surface
	CORSOrigins   []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
	PublicBaseURL string   `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:5173"`
	APIBaseURL    string   `envconfig:"API_BASE_URL" default:"http://localhost:8080"`
	SPADir        string   `envconfig:"SPA_DIR"`

	// Messaging
	RabbitURL      string `envconfig:"RABBIT_URL"`
	EventsExchange string `envconfig:"EVENTS_EXCHANGE" default:"legal.events"`
	NotifyQueue    string `envconfig:"NOTIFY_QUEUE" default:"legal.notifications"`

	// Notifications
	SMTPHost       string `envconfig:"SMTP_HOST"`
	SMTPPort       int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser       string `envconfig:"SMTP_USER"`
	SMTPPassword   string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom       string `envconfig:"SMTP_FROM" default:"LegalInmo <no-reply@legalinmo.co>"`
	TextbeltAPIKey string `envconfig:"TEXTBELT_API_KEY"`

	// Payments
	StripeSecretKey          string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret      string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	MercadoPagoAccessToken   string `envconfig:"MERCADOPAGO_ACCESS_TOKEN"`
	MercadoPagoWebhookSecret string `envconfig:"MERCADOPAGO_WEBHOOK_SECRET"`

	// Tracing
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads .env (if any) and processes the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found, relying on environment variables")
	}
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	switch c.Store {
	case "mongo", "memory":
	default:
		return fmt.Errorf("config: STORE must be mongo or memory, got %q", c.Store)
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("config: JWT_SECRET must be at least 16 characters")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("config: JWT_TTL must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("config: TIMEZONE: %w", err)
	}
	return nil
}

func (c Config) IsDevelopment() bool { return c.Env == "development" }

// Location is the scheduler time zone; validate guarantees it loads.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) PublicURL(path string) string {
	return strings.TrimRight(c.PublicBaseURL, "/") + path
}

// APIURL is where providers reach this API, e.g. for webhooks.
func (c Config) APIURL(path string) string {
	return strings.TrimRight(c.APIBaseURL, "/") + path
}
