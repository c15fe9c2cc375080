package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/services"
	"github.com/legalinmo/legal-api/pkg/domain"
)

func (h *Handler) GetSpecialties(c *gin.Context) {
	tiers := []gin.H{
		{"id": domain.TierFree, "maxSpecialties": domain.TierFree.MaxSpecialties()},
		{"id": domain.TierPaid, "maxSpecialties": domain.TierPaid.MaxSpecialties()},
	}
	c.JSON(http.StatusOK, gin.H{"specialties": domain.Specialties, "tiers": tiers})
}

func (h *Handler) SubmitConsultation(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req services.SubmitConsultationInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Intake.Submit(c.Request.Context(), p, req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GetConsultations lists the caller's consultations, or the whole queue
// for advisors (/api/consultations?status=pending).
func (h *Handler) GetConsultations(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	list, err := h.Intake.List(c.Request.Context(), p, c.Query("status"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetConsultation(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	cons, err := h.Intake.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cons)
}

func (h *Handler) AnswerConsultation(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req services.AnswerConsultationInput
	if !bindJSON(c, &req) {
		return
	}
	cons, err := h.Intake.Answer(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, cons)
}
