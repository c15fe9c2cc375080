package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMatchesCopies(t *testing.T) {
	err := fmt.Errorf("booking: %w", ErrSlotTaken.WithDetails(gin.H{"slot": "09:00"}))

	assert.True(t, errors.Is(err, ErrSlotTaken))
	assert.False(t, errors.Is(err, ErrAppointmentNotFound))
	assert.Nil(t, ErrSlotTaken.Details)
}

func TestHandleError_RendersAppError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleError(c, ValidationError(map[string]string{"question": "question is required"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(CodeValidationFailed), body.Error.Code)
	assert.Equal(t, "question is required", body.Error.Details["question"])
}

func TestHandleError_HidesInternalDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetDebug(false)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleError(c, errors.New("connection refused: mongo:27017"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "mongo")
}
