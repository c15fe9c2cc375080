package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/pkg/domain"
)

func (h *Handler) GetSpecialists(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"specialists": domain.Specialists, "timeSlots": domain.TimeSlots})
}

// GetAvailability: /api/appointments/availability?date=2030-03-15&specialistId=1
func (h *Handler) GetAvailability(c *gin.Context) {
	specialistID, err := strconv.Atoi(c.Query("specialistId"))
	if err != nil {
		apperrors.HandleError(c, apperrors.ValidationError(map[string]string{"specialistId": "select a specialist"}))
		return
	}
	av, err := h.Scheduler.Availability(c.Request.Context(), c.Query("date"), specialistID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, av)
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req domain.BookingRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Scheduler.Book(c.Request.Context(), p, req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GetAppointments lists the caller's appointments; ?upcoming=true keeps
// only confirmed ones that have not started.
func (h *Handler) GetAppointments(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	upcoming, _ := strconv.ParseBool(c.DefaultQuery("upcoming", "false"))
	list, err := h.Scheduler.List(c.Request.Context(), p, upcoming)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	a, err := h.Scheduler.Cancel(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
