// internal/app/router.go
package app

import (
	"net/http"

	"trackpro-client/internal/devapi"
	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/middleware"

	"github.com/gin-gonic/gin"
)

// authRequestsPerMinute bounds login, register and password reset per IP.
const authRequestsPerMinute = 10

type Handlers struct {
	API            *devapi.Handler
	AuthMiddleware *middleware.AuthMiddleware
	AuthLimiter    *middleware.IPRateLimiter
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	m := h.AuthMiddleware
	api := r.Group("/api")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	authPublic.Use(h.AuthLimiter.Middleware())
	{
		authPublic.POST("/register", h.API.Register)
		authPublic.POST("/login", h.API.Login)
		authPublic.POST("/forgot-password", h.API.ForgotPassword)
		authPublic.POST("/reset-password", h.API.ResetPassword)
	}

	// ==================== Authenticated Auth Routes ====================
	api.POST("/auth/logout", m.Auth(), h.API.Logout)
	api.GET("/auth/me", append(m.Approved(), h.API.Me)...)

	// ==================== Account Settings ====================
	account := api.Group("/account")
	account.Use(m.Approved()...)
	{
		account.GET("/subscription", h.API.MySubscription)
		account.PUT("/email", h.API.ChangeEmail)
		account.PUT("/password", h.API.ChangePassword)
		account.DELETE("/google", h.API.UnlinkGoogle)
	}
	r.GET("/auth/google/link", append(m.Approved(), h.API.GoogleLink)...)

	// ==================== Users ====================
	api.DELETE("/users/me", append(m.Approved(), h.API.DeleteAccount)...)
	users := api.Group("/users")
	users.Use(m.Subscribed()...)
	{
		users.GET("/approved", h.API.ApprovedUsers)
		users.PUT("/avatar", h.API.UpdateAvatar)
	}

	// ==================== Activities ====================
	activities := api.Group("/activities")
	activities.Use(m.Subscribed()...)
	{
		activities.GET("", h.API.ListActivities)
		activities.POST("/upload", h.API.UploadActivity)
		activities.GET("/:id", h.API.GetActivity)
	}

	// ==================== Notifications ====================
	notifications := api.Group("/notifications")
	notifications.Use(m.Subscribed()...)
	{
		notifications.GET("", h.API.ListNotifications)
		notifications.GET("/unread-count", h.API.NotificationUnreadCount)
		notifications.POST("/read-all", h.API.MarkNotificationsRead)
		notifications.DELETE("", h.API.ClearNotifications)
	}

	// ==================== Community ====================
	community := api.Group("/community")
	community.Use(m.Subscribed()...)
	{
		community.GET("/posts", h.API.ListPosts)
		community.POST("/posts", h.API.CreatePost)
		community.GET("/posts/:id", h.API.GetPost)
		community.DELETE("/posts/:id", h.API.DeletePost)
		community.POST("/posts/:id/comments", h.API.AddComment)
		community.POST("/posts/:id/reactions", h.API.ToggleReaction)
		community.DELETE("/comments/:id", h.API.DeleteComment)

		// Moderation
		community.PUT("/posts/:id/pin", m.RequireAdmin(), h.API.PinPost)
		community.POST("/bans", m.RequireAdmin(), h.API.BanUser)
		community.DELETE("/bans/:userID", m.RequireAdmin(), h.API.UnbanUser)
		community.GET("/bans", m.RequireAdmin(), h.API.ListBans)
	}

	// ==================== Messaging ====================
	messages := api.Group("/messages")
	messages.Use(m.Subscribed()...)
	{
		messages.GET("/conversations", h.API.ListConversations)
		messages.POST("/conversations", h.API.CreateConversation)
		messages.GET("/conversations/:id/messages", h.API.ListMessages)
		messages.POST("/conversations/:id/messages", h.API.SendMessage)
		messages.POST("/conversations/:id/read", h.API.MarkConversationRead)
		messages.POST("/conversations/:id/clear", h.API.ClearConversation)
		messages.DELETE("/conversations/:id", h.API.DeleteConversation)
		messages.GET("/unread-count", h.API.MessageUnreadCount)
	}

	// ==================== Admin ====================
	admin := api.Group("/admin")
	admin.Use(m.AdminOnly()...)
	{
		admin.GET("/users", h.API.AdminListUsers)
		admin.PATCH("/users/:id/approve", h.API.AdminSetStatus(user.StatusApproved))
		admin.PATCH("/users/:id/reject", h.API.AdminSetStatus(user.StatusRejected))
		admin.DELETE("/users/:id", h.API.AdminDeleteUser)
		admin.GET("/actions", h.API.AdminActions)
		admin.GET("/subscriptions", h.API.AdminListSubscriptions)
		admin.PUT("/subscriptions/:userID", h.API.AdminUpdateSubscription)
	}
}
