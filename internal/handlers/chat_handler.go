package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legalinmo/legal-api/internal/apperrors"
	"github.com/legalinmo/legal-api/internal/services"
)

// The chat widget is public: a conversation id is its only handle.

func (h *Handler) StartConversation(c *gin.Context) {
	conv, err := h.Chat.Start(c.Request.Context())
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *Handler) GetConversation(c *gin.Context) {
	conv, err := h.Chat.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *Handler) SendChatMessage(c *gin.Context) {
	var req services.SendMessageInput
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Chat.Send(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UpdateConversation(c *gin.Context) {
	var req services.WindowInput
	if !bindJSON(c, &req) {
		return
	}
	conv, err := h.Chat.UpdateWindow(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}
