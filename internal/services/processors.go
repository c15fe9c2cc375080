package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/legalinmo/legal-api/internal/models"
	"github.com/legalinmo/legal-api/pkg/domain"
)

const (
	ProviderOffline     = "offline"
	ProviderStripe      = "stripe"
	ProviderMercadoPago = "mercadopago"
)

// DeclinedTestCard is refused by the offline processor, like Stripe's
// generic decline test number.
const DeclinedTestCard = "4000000000000002"

type ChargeRequest struct {
	PaymentID   string
	Amount      int64
	Currency    string
	Description string
	Email       string
	Card        *domain.Card
}

// ChargeResult.Status is one of the models.Payment* statuses.
type ChargeResult struct {
	Status      string
	Reference   string
	RedirectURL string
	Reason      string
}

type PaymentProcessor interface {
	Provider() string
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// Settlement is a provider's final word on a payment that was left
// pending. PaymentID may be empty when only the provider reference is
// known.
type Settlement struct {
	PaymentID string
	Reference string
	Status    string
	Reason    string
}

// --- offline ---

// OfflineProcessor approves every charge except DeclinedTestCard. It runs
// when no provider credentials are configured.
type OfflineProcessor struct{}

func (OfflineProcessor) Provider() string { return ProviderOffline }

func (OfflineProcessor) Charge(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	ref := "off_" + uuid.NewString()
	if req.Card != nil && req.Card.Digits() == DeclinedTestCard {
		return &ChargeResult{Status: models.PaymentFailed, Reference: ref, Reason: "card_declined"}, nil
	}
	return &ChargeResult{Status: models.PaymentApproved, Reference: ref}, nil
}

// --- stripe ---

type StripeProcessor struct {
	sc            *client.API
	webhookSecret string
}

func NewStripeProcessor(secretKey, webhookSecret string) *StripeProcessor {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeProcessor{sc: sc, webhookSecret: webhookSecret}
}

func (s *StripeProcessor) Provider() string { return ProviderStripe }

// Charge creates a card PaymentMethod and confirms a PaymentIntent with
// it. Intents that need 3-D Secure stay pending until the webhook.
func (s *StripeProcessor) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if req.Card == nil {
		return nil, errors.New("stripe: card required")
	}
	month, year := req.Card.ExpiryMonthYear()
	pmParams := &stripe.PaymentMethodParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(req.Card.Digits()),
			ExpMonth: stripe.Int64(int64(month)),
			ExpYear:  stripe.Int64(int64(year)),
			CVC:      stripe.String(req.Card.CVV),
		},
		BillingDetails: &stripe.PaymentMethodBillingDetailsParams{
			Name:  stripe.String(req.Card.Name),
			Email: stripe.String(req.Email),
		},
	}
	pmParams.Context = ctx
	pm, err := s.sc.PaymentMethods.New(pmParams)
	if err != nil {
		return stripeFailure(err)
	}

	piParams := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(req.Currency),
		PaymentMethod:      stripe.String(pm.ID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String(req.Description),
	}
	piParams.Context = ctx
	piParams.SetIdempotencyKey(req.PaymentID)
	piParams.AddMetadata("payment_id", req.PaymentID)
	pi, err := s.sc.PaymentIntents.New(piParams)
	if err != nil {
		return stripeFailure(err)
	}
	return intentResult(pi), nil
}

// stripeFailure turns card errors into a failed result and passes other
// errors through.
func stripeFailure(err error) (*ChargeResult, error) {
	var se *stripe.Error
	if errors.As(err, &se) && se.Type == stripe.ErrorTypeCard {
		return &ChargeResult{Status: models.PaymentFailed, Reason: string(se.Code)}, nil
	}
	return nil, fmt.Errorf("stripe: %w", err)
}

func intentResult(pi *stripe.PaymentIntent) *ChargeResult {
	res := &ChargeResult{Reference: pi.ID}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		res.Status = models.PaymentApproved
	case stripe.PaymentIntentStatusProcessing, stripe.PaymentIntentStatusRequiresAction:
		res.Status = models.PaymentPending
		if pi.NextAction != nil && pi.NextAction.RedirectToURL != nil {
			res.RedirectURL = pi.NextAction.RedirectToURL.URL
		}
	default:
		res.Status = models.PaymentFailed
		res.Reason = string(pi.Status)
	}
	return res
}

// ParseWebhook verifies a Stripe signature and extracts the settlement of
// a payment intent event. Other event types yield nil.
func (s *StripeProcessor) ParseWebhook(payload []byte, signature string) (*Settlement, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("stripe webhook: %w", err)
	}
	var status string
	switch ev.Type {
	case "payment_intent.succeeded":
		status = models.PaymentApproved
	case "payment_intent.payment_failed", "payment_intent.canceled":
		status = models.PaymentFailed
	default:
		return nil, nil
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("stripe webhook: decode intent: %w", err)
	}
	st := &Settlement{PaymentID: pi.Metadata["payment_id"], Reference: pi.ID, Status: status}
	if status == models.PaymentFailed && pi.LastPaymentError != nil {
		st.Reason = string(pi.LastPaymentError.Code)
	}
	return st, nil
}

// --- mercadopago ---

const mercadoPagoAPI = "https://api.mercadopago.com"

// MercadoPagoProcessor creates a Checkout Pro preference and leaves the
// payment pending; the payer finishes on MercadoPago and the notification
// webhook settles it.
type MercadoPagoProcessor struct {
	accessToken string
	apiURL      string
	siteURL     string
	notifyURL   string
	client      *http.Client
}

// NewMercadoPagoProcessor: siteURL is where the payer returns to,
// notifyURL is the public address of the notification webhook.
func NewMercadoPagoProcessor(accessToken, siteURL, notifyURL string) *MercadoPagoProcessor {
	return &MercadoPagoProcessor{
		accessToken: accessToken,
		apiURL:      mercadoPagoAPI,
		siteURL:     strings.TrimRight(siteURL, "/"),
		notifyURL:   notifyURL,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *MercadoPagoProcessor) Provider() string { return ProviderMercadoPago }

type mpItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	CurrencyID string  `json:"currency_id"`
	UnitPrice  float64 `json:"unit_price"`
}

type mpPreference struct {
	Items             []mpItem          `json:"items"`
	Payer             map[string]string `json:"payer,omitempty"`
	ExternalReference string            `json:"external_reference"`
	BackURLs          map[string]string `json:"back_urls"`
	AutoReturn        string            `json:"auto_return"`
	NotificationURL   string            `json:"notification_url,omitempty"`
}

func (m *MercadoPagoProcessor) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	pref := mpPreference{
		Items: []mpItem{{
			ID:         req.PaymentID,
			Title:      req.Description,
			Quantity:   1,
			CurrencyID: strings.ToUpper(req.Currency),
			UnitPrice:  float64(req.Amount) / 100,
		}},
		ExternalReference: req.PaymentID,
		BackURLs: map[string]string{
			"success": m.siteURL + "/dashboard",
			"pending": m.siteURL + "/dashboard",
			"failure": m.siteURL + "/payment",
		},
		AutoReturn:      "approved",
		NotificationURL: m.notifyURL,
	}
	if req.Email != "" {
		pref.Payer = map[string]string{"email": req.Email}
	}

	var out struct {
		ID        string `json:"id"`
		InitPoint string `json:"init_point"`
	}
	if err := m.do(ctx, http.MethodPost, "/checkout/preferences", pref, &out); err != nil {
		return nil, err
	}
	return &ChargeResult{Status: models.PaymentPending, Reference: out.ID, RedirectURL: out.InitPoint}, nil
}

// Resolve fetches a MercadoPago payment by its id, as announced in a
// notification, so the notification body itself is never trusted.
func (m *MercadoPagoProcessor) Resolve(ctx context.Context, mpPaymentID string) (*Settlement, error) {
	var out struct {
		ID                json.Number `json:"id"`
		Status            string      `json:"status"`
		StatusDetail      string      `json:"status_detail"`
		ExternalReference string      `json:"external_reference"`
	}
	if err := m.do(ctx, http.MethodGet, "/v1/payments/"+mpPaymentID, nil, &out); err != nil {
		return nil, err
	}
	st := &Settlement{PaymentID: out.ExternalReference, Reference: out.ID.String()}
	switch out.Status {
	case "approved":
		st.Status = models.PaymentApproved
	case "rejected", "cancelled", "refunded", "charged_back":
		st.Status = models.PaymentFailed
		st.Reason = out.StatusDetail
	default:
		st.Status = models.PaymentPending
	}
	return st, nil
}

func (m *MercadoPagoProcessor) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, m.apiURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mercadopago %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mercadopago %s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
