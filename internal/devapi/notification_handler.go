// internal/devapi/notification_handler.go
package devapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trackpro-client/internal/domain/messaging"
	"trackpro-client/internal/middleware"
	"trackpro-client/internal/pkg/response"
)

const notificationsLimit = 20

func (h *Handler) ListNotifications(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	response.JSON(c, http.StatusOK, h.store.Notifications(id.User.ID, notificationsLimit))
}

func (h *Handler) NotificationUnreadCount(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	response.JSON(c, http.StatusOK, messaging.CountResponse{Count: h.store.UnreadNotifications(id.User.ID)})
}

func (h *Handler) MarkNotificationsRead(c *gin.Context) {
	h.store.MarkNotificationsRead(middleware.MustGetIdentity(c).User.ID)
	response.Message(c, http.StatusOK, "ok")
}

func (h *Handler) ClearNotifications(c *gin.Context) {
	h.store.ClearNotifications(middleware.MustGetIdentity(c).User.ID)
	response.Message(c, http.StatusOK, "ok")
}
