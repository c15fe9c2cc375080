package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/services"
)

func (h *Handler) GetPlans(c *gin.Context) {
	c.JSON(http.StatusOK, h.Billing.Plans())
}

// CreatePayment answers 201 for a settled payment and 202 when the payer
// still has to finish on the provider's page.
func (h *Handler) CreatePayment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req services.PayInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Billing.Pay(c.Request.Context(), p, req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	status := http.StatusCreated
	if res.Pending() {
		status = http.StatusAccepted
	}
	c.JSON(status, res)
}

func (h *Handler) GetPayments(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	list, err := h.Billing.Payments(c.Request.Context(), p)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetSubscription(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	sub, err := h.Billing.Subscription(c.Request.Context(), p)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}
