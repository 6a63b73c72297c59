// internal/devapi/account_handler.go
package devapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/middleware"
	"trackpro-client/internal/pkg/response"
)

func (h *Handler) MySubscription(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	response.JSON(c, http.StatusOK, h.store.Subscription(id.User.ID))
}

func (h *Handler) ChangeEmail(c *gin.Context) {
	id := middleware.MustGetIdentity(c)

	var req user.ChangeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body")
		return
	}

	err := h.auth.ChangeEmail(c.Request.Context(), id.User.ID, req)
	var input InputError
	switch {
	case err == nil:
		response.Message(c, http.StatusOK, "email updated")
	case errors.As(err, &input):
		response.ValidationError(c, input.Error())
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "incorrect password", "invalid_credentials")
	case errors.Is(err, ErrEmailTaken):
		response.Error(c, http.StatusConflict, "email already in use", "")
	default:
		h.logger.Error("email change failed", zap.Int64("user_id", id.User.ID), zap.Error(err))
		response.Internal(c, "failed to update email")
	}
}

func (h *Handler) ChangePassword(c *gin.Context) {
	id := middleware.MustGetIdentity(c)

	var req user.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body")
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), id.User.ID, req)
	var input InputError
	switch {
	case err == nil:
		response.Message(c, http.StatusOK, "password updated")
	case errors.As(err, &input):
		response.ValidationError(c, input.Error())
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "incorrect current password", "invalid_credentials")
	default:
		h.logger.Error("password change failed", zap.Int64("user_id", id.User.ID), zap.Error(err))
		response.Internal(c, "failed to update password")
	}
}

// GoogleLink has no OAuth client behind it in the dev backend.
func (h *Handler) GoogleLink(c *gin.Context) {
	response.Error(c, http.StatusServiceUnavailable, "Google OAuth not configured", "")
}

func (h *Handler) UnlinkGoogle(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	if err := h.store.UnlinkGoogle(id.User.ID); err != nil {
		response.Internal(c, "failed to unlink google account")
		return
	}
	response.Message(c, http.StatusOK, "google account unlinked")
}

func (h *Handler) UpdateAvatar(c *gin.Context) {
	id := middleware.MustGetIdentity(c)

	var req user.UpdateAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body")
		return
	}
	if err := h.store.UpdateAvatar(id.User.ID, req.AvatarURL); err != nil {
		response.Internal(c, "failed to update avatar")
		return
	}
	response.Message(c, http.StatusOK, "avatar updated")
}

// DeleteAccount removes the caller and ends the current session.
func (h *Handler) DeleteAccount(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	if err := h.store.DeleteAccount(id.User.ID); err != nil {
		h.logger.Error("account delete failed", zap.Int64("user_id", id.User.ID), zap.Error(err))
		response.Internal(c, "failed to delete account")
		return
	}
	h.store.Revoke(id.JTI, id.ExpiresAt)
	h.logger.Info("account deleted", zap.Int64("user_id", id.User.ID))
	response.Message(c, http.StatusOK, "account deleted")
}

// ApprovedUsers feeds the new-conversation picker; the caller is left out.
func (h *Handler) ApprovedUsers(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	response.JSON(c, http.StatusOK, h.store.ApprovedAccounts(id.User.ID))
}
