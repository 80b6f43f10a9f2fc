package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ridgeline-auto/dms-api/internal/middleware"
	"github.com/ridgeline-auto/dms-api/internal/models"
	"github.com/ridgeline-auto/dms-api/internal/service"
	appErrors "github.com/ridgeline-auto/dms-api/pkg/errors"
	"github.com/ridgeline-auto/dms-api/pkg/response"
)

// MessageHandler exposes internal messaging endpoints.
type MessageHandler struct {
	messages *service.MessageService
}

// NewMessageHandler constructs MessageHandler.
func NewMessageHandler(messages *service.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// List godoc
// @Summary List messages sent to or by the current user
// @Tags Messages
// @Produce json
// @Param counterparty_id query string false "Only messages exchanged with this user"
// @Param unread query bool false "Only unread messages"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.MessageFilter
	filter.UserID = claims.UserID
	filter.CounterpartyID = c.Query("counterparty_id")
	filter.UnreadOnly = c.Query("unread") == "true"
	filter.Page, filter.PageSize = pageParams(c, 20)

	messages, pagination, err := h.messages.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, messages, pagination)
}

// Get godoc
// @Summary Read a message
// @Tags Messages
// @Produce json
// @Param id path string true "Message ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /messages/{id} [get]
func (h *MessageHandler) Get(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	msg, err := h.messages.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, msg, nil)
}

// UnreadCount godoc
// @Summary Count unread messages for the current user
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /messages/unread-count [get]
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	count, err := h.messages.UnreadCount(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"unread": count}, nil)
}

// Send godoc
// @Summary Send a message to another staff member
// @Tags Messages
// @Accept json
// @Produce json
// @Param payload body service.SendMessageRequest true "Message payload"
// @Security BearerAuth
// @Success 201 {object} response.Envelope
// @Router /messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	var req service.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	msg, err := h.messages.Send(c.Request.Context(), currentActor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, msg)
}

// Delete godoc
// @Summary Delete a sent message
// @Tags Messages
// @Produce json
// @Param id path string true "Message ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /messages/{id} [delete]
func (h *MessageHandler) Delete(c *gin.Context) {
	if err := h.messages.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
