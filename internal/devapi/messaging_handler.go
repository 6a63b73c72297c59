// internal/devapi/messaging_handler.go
package devapi

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trackpro-client/internal/domain/messaging"
	"trackpro-client/internal/middleware"
	"trackpro-client/internal/pkg/response"
)

const maxMessageLen = 2000

// conversationError maps store errors of participant-only operations.
func conversationError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotAllowed):
		response.Forbidden(c, "forbidden", "not a participant of this conversation")
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "conversation not found")
	default:
		response.Internal(c, fallback)
	}
}

func (h *Handler) ListConversations(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	response.JSON(c, http.StatusOK, h.store.Conversations(id.User.ID))
}

func (h *Handler) CreateConversation(c *gin.Context) {
	id := middleware.MustGetIdentity(c)

	var req messaging.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body")
		return
	}
	if req.UserID <= 0 || req.UserID == id.User.ID {
		response.ValidationError(c, "invalid userId")
		return
	}

	conv, err := h.store.GetOrCreateConversation(id.User.ID, req.UserID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}
	response.JSON(c, http.StatusOK, conv)
}

func (h *Handler) ListMessages(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	convID, ok := pathID(c, "id", "conversation id")
	if !ok {
		return
	}
	cursor, ok := queryCursor(c)
	if !ok {
		return
	}

	thread, err := h.store.Messages(convID, id.User.ID, cursor, queryLimit(c))
	if err != nil {
		conversationError(c, err, "failed to list messages")
		return
	}
	response.JSON(c, http.StatusOK, thread)
}

func (h *Handler) SendMessage(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	convID, ok := pathID(c, "id", "conversation id")
	if !ok {
		return
	}

	var req messaging.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		response.ValidationError(c, "content is required")
		return
	}
	if utf8.RuneCountInString(content) > maxMessageLen {
		response.ValidationError(c, "message content must be at most 2000 characters")
		return
	}

	msg, err := h.store.SendMessage(convID, id.User.ID, content)
	if err != nil {
		conversationError(c, err, "failed to send message")
		return
	}
	h.logger.Debug("message sent", zap.Int64("conversation_id", convID), zap.Int64("message_id", msg.ID))
	response.JSON(c, http.StatusCreated, msg)
}

func (h *Handler) MarkConversationRead(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	convID, ok := pathID(c, "id", "conversation id")
	if !ok {
		return
	}
	if err := h.store.MarkRead(convID, id.User.ID); err != nil {
		conversationError(c, err, "failed to mark as read")
		return
	}
	response.Message(c, http.StatusOK, "marked as read")
}

func (h *Handler) ClearConversation(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	convID, ok := pathID(c, "id", "conversation id")
	if !ok {
		return
	}
	if err := h.store.ClearConversation(convID, id.User.ID); err != nil {
		conversationError(c, err, "failed to clear conversation")
		return
	}
	response.Message(c, http.StatusOK, "conversation cleared")
}

func (h *Handler) DeleteConversation(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	convID, ok := pathID(c, "id", "conversation id")
	if !ok {
		return
	}
	if err := h.store.DeleteConversation(convID, id.User.ID); err != nil {
		conversationError(c, err, "failed to delete conversation")
		return
	}
	response.Message(c, http.StatusOK, "conversation deleted")
}

func (h *Handler) MessageUnreadCount(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	response.JSON(c, http.StatusOK, messaging.CountResponse{Count: h.store.UnreadMessages(id.User.ID)})
}
