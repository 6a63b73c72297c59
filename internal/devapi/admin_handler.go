// internal/devapi/admin_handler.go
package devapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trackpro-client/internal/domain/subscription"
	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/middleware"
	"trackpro-client/internal/pkg/response"
)

const adminActionsLimit = 100

// ========== Users ==========

func (h *Handler) AdminListUsers(c *gin.Context) {
	pageNum, pageSize := pageParams(c)
	users := h.store.ListAccounts(c.Query("search"), user.Status(c.Query("status")))
	response.JSON(c, http.StatusOK, paginate(users, pageNum, pageSize))
}

// AdminSetStatus returns the approve or reject handler. The user is told
// about the decision through a notification.
func (h *Handler) AdminSetStatus(status user.Status) gin.HandlerFunc {
	title, body := "Account Rejected", "Your GPX TrackPro account application has been rejected. Contact support for assistance."
	if status == user.StatusApproved {
		title, body = "Account Approved", "Your GPX TrackPro account has been approved. You can now sign in."
	}

	return func(c *gin.Context) {
		admin := middleware.MustGetIdentity(c)
		targetID, ok := pathID(c, "id", "user id")
		if !ok {
			return
		}

		if err := h.store.SetStatus(admin.User.ID, targetID, status); err != nil {
			if errors.Is(err, ErrNotFound) {
				response.NotFound(c, "user not found")
				return
			}
			response.Internal(c, "failed to update user status")
			return
		}
		h.store.Notify(targetID, title, body)

		h.logger.Info("user status changed",
			zap.Int64("admin_id", admin.User.ID),
			zap.Int64("user_id", targetID),
			zap.String("status", string(status)),
		)
		response.Message(c, http.StatusOK, "status updated")
	}
}

func (h *Handler) AdminDeleteUser(c *gin.Context) {
	targetID, ok := pathID(c, "id", "user id")
	if !ok {
		return
	}
	if err := h.store.DeleteAccount(targetID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.Internal(c, "failed to delete user")
		return
	}
	h.logger.Info("user deleted by admin",
		zap.Int64("admin_id", middleware.MustGetIdentity(c).User.ID),
		zap.Int64("user_id", targetID),
	)
	response.Message(c, http.StatusOK, "user deleted")
}

func (h *Handler) AdminActions(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.store.Actions(adminActionsLimit))
}

// ========== Subscriptions ==========

func (h *Handler) AdminListSubscriptions(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.store.ListSubscriptions())
}

func (h *Handler) AdminUpdateSubscription(c *gin.Context) {
	admin := middleware.MustGetIdentity(c)
	userID, ok := pathID(c, "userID", "user id")
	if !ok {
		return
	}

	var req subscription.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body")
		return
	}
	action, err := subscription.ParseAction(string(req.Action))
	if err != nil {
		response.ValidationError(c, "unsupported action: use activate, extend or deactivate")
		return
	}

	if _, err := h.store.ApplySubscription(userID, action, req.Notes, admin.User.Email); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.Internal(c, "failed to update subscription")
		return
	}

	h.logger.Info("subscription updated",
		zap.Int64("admin_id", admin.User.ID),
		zap.Int64("user_id", userID),
		zap.String("action", string(action)),
	)
	response.Message(c, http.StatusOK, "subscription updated")
}
