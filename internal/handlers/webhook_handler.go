package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/logger"
	"github.com/legalinmo/legal-api/internal/services"
)

const maxWebhookBody = 64 << 10

type mpNotification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// MercadoPagoWebhook handles payment notifications. The caller must present
// the shared secret; the payment itself is then fetched from MercadoPago.
func (h *Handler) MercadoPagoWebhook(c *gin.Context) {
	if h.opts.MercadoPago == nil {
		apperrors.HandleError(c, apperrors.NewNotFoundError("webhook", "MercadoPago is not configured"))
		return
	}
	secret := c.Query("secret")
	if secret == "" {
		secret = c.GetHeader("X-Webhook-Secret")
	}
	if !secretMatches(secret, h.opts.MercadoPagoSecret) {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Invalid webhook secret"))
		return
	}

	// Notifications come as JSON bodies or, in the legacy IPN form, as
	// ?topic=payment&id=123.
	var n mpNotification
	_ = c.ShouldBindJSON(&n)
	if n.Type == "" {
		n.Type = c.Query("type")
		if n.Type == "" {
			n.Type = c.Query("topic")
		}
	}
	if n.Data.ID == "" {
		n.Data.ID = c.Query("data.id")
		if n.Data.ID == "" {
			n.Data.ID = c.Query("id")
		}
	}
	if n.Type != "payment" || n.Data.ID == "" {
		c.Status(http.StatusOK)
		return
	}

	ctx := c.Request.Context()
	st, err := h.opts.MercadoPago.Resolve(ctx, n.Data.ID)
	if err != nil {
		logger.CtxWithError(ctx, "resolve mercadopago payment", err, "mp_payment_id", n.Data.ID)
		apperrors.HandleError(c, apperrors.ErrPaymentFailed.WithError(err))
		return
	}
	h.settle(c, services.ProviderMercadoPago, st)
}

// StripeWebhook handles payment_intent events signed with the endpoint
// secret.
func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.opts.Stripe == nil {
		apperrors.HandleError(c, apperrors.NewNotFoundError("webhook", "Stripe is not configured"))
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		apperrors.HandleBindError(c, err)
		return
	}
	st, err := h.opts.Stripe.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logger.CtxWarn(c.Request.Context(), "stripe webhook rejected", "error", err.Error())
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid webhook signature"))
		return
	}
	if st == nil {
		c.Status(http.StatusOK)
		return
	}
	h.settle(c, services.ProviderStripe, st)
}

// settle acknowledges notifications about unknown payments so the
// provider stops retrying them.
func (h *Handler) settle(c *gin.Context, provider string, st *services.Settlement) {
	ctx := c.Request.Context()
	pay, err := h.Billing.Settle(ctx, provider, *st)
	if errors.Is(err, apperrors.ErrPaymentNotFound) {
		logger.CtxWarn(ctx, "webhook for unknown payment", "provider", provider, "reference", st.Reference)
		c.Status(http.StatusOK)
		return
	}
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paymentId": pay.ID.Hex(), "status": pay.Status})
}
