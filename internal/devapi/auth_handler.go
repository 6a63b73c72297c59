// internal/devapi/auth_handler.go
package devapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/middleware"
	"trackpro-client/internal/pkg/response"
)

// ========== Registration & Login ==========

func (h *Handler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body")
		return
	}

	u, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		var input InputError
		switch {
		case errors.As(err, &input):
			response.ValidationError(c, input.Error())
		case errors.Is(err, ErrEmailTaken):
			response.Error(c, http.StatusConflict, "email already registered", "")
		default:
			h.logger.Error("registration failed", zap.String("email", req.Email), zap.Error(err))
			response.Internal(c, "failed to create user")
		}
		return
	}

	response.JSON(c, http.StatusCreated, user.RegisterResponse{
		Message: "registration successful, waiting for admin approval",
		User:    u,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req user.LoginCredentials
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body")
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req)
	switch {
	case err == nil:
		response.JSON(c, http.StatusOK, result)
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, err.Error(), "invalid_credentials")
	case errors.Is(err, ErrPendingApproval):
		response.Forbidden(c, "pending_approval", err.Error())
	case errors.Is(err, ErrRejectedAccount):
		response.Forbidden(c, "rejected_account", err.Error())
	default:
		h.logger.Error("login failed", zap.String("email", req.Email), zap.Error(err))
		response.Internal(c, "failed to issue token")
	}
}

// Logout accepts any valid token, approved or not.
func (h *Handler) Logout(c *gin.Context) {
	h.auth.Logout(c.Request.Context(), middleware.MustGetIdentity(c))
	response.Message(c, http.StatusOK, "logged out")
}

func (h *Handler) Me(c *gin.Context) {
	response.JSON(c, http.StatusOK, middleware.MustGetIdentity(c).User)
}

// ========== Password Reset ==========

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req user.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		response.ValidationError(c, "email is required")
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.logger.Error("forgot password failed", zap.Error(err))
		response.Internal(c, "failed to send email")
		return
	}

	// Same answer whether or not the address exists.
	response.Message(c, http.StatusOK, "if the email exists you will receive a reset link")
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req user.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body")
		return
	}

	err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password)
	var input InputError
	switch {
	case err == nil:
		response.Message(c, http.StatusOK, "password updated successfully")
	case errors.As(err, &input):
		response.ValidationError(c, input.Error())
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrNotFound):
		response.ValidationError(c, "invalid or expired token")
	default:
		h.logger.Error("password reset failed", zap.Error(err))
		response.Internal(c, "failed to update password")
	}
}
