// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"strings"
	"time"

	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Identity is the authenticated caller attached to the request context.
type Identity struct {
	User      user.UserResponse
	JTI       string
	ExpiresAt time.Time
}

// Authenticator resolves a bearer token to the account it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Identity, error)
}

// SubscriptionChecker reports whether a user may use paid features.
type SubscriptionChecker interface {
	HasActiveSubscription(ctx context.Context, userID int64) bool
}

type AuthMiddleware struct {
	auth          Authenticator
	subscriptions SubscriptionChecker
}

func NewAuthMiddleware(auth Authenticator, subscriptions SubscriptionChecker) *AuthMiddleware {
	return &AuthMiddleware{
		auth:          auth,
		subscriptions: subscriptions,
	}
}

// Auth is the base authentication middleware that validates JWT tokens
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "missing bearer token")
			return
		}

		identity, err := m.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireApproved rejects accounts an admin has not approved.
// MUST be used after Auth() middleware
func (m *AuthMiddleware) RequireApproved() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			response.Unauthorized(c, "authentication required")
			return
		}
		if identity.User.Status != user.StatusApproved {
			response.Forbidden(c, "pending_approval", "user is not approved")
			return
		}
		c.Next()
	}
}

// RequireSubscription answers 402 for approved users without an active
// subscription. Admins bypass the check.
// MUST be used after RequireApproved()
func (m *AuthMiddleware) RequireSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			response.Unauthorized(c, "authentication required")
			return
		}
		if identity.User.Role == user.RoleAdmin {
			c.Next()
			return
		}
		if !m.subscriptions.HasActiveSubscription(c.Request.Context(), identity.User.ID) {
			response.PaymentRequired(c, "active subscription required")
			return
		}
		c.Next()
	}
}

// RequireAdmin middleware that requires the admin role
// MUST be used after Auth() middleware
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			response.Forbidden(c, "forbidden", "admin access required")
			return
		}
		c.Next()
	}
}

// Approved returns middlewares for routes any approved account may use.
func (m *AuthMiddleware) Approved() []gin.HandlerFunc {
	return []gin.HandlerFunc{m.Auth(), m.RequireApproved()}
}

// Subscribed returns middlewares for paid routes.
func (m *AuthMiddleware) Subscribed() []gin.HandlerFunc {
	return []gin.HandlerFunc{m.Auth(), m.RequireApproved(), m.RequireSubscription()}
}

// AdminOnly returns middlewares for admin-only routes (Auth + RequireAdmin)
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{m.Auth(), m.RequireAdmin()}
}

// extractToken extracts Bearer token from Authorization header
func extractToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return ""
	}
	parts := strings.Fields(authHeader)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// GetIdentity returns the caller set by Auth().
func GetIdentity(c *gin.Context) (*Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	identity, ok := v.(*Identity)
	return identity, ok
}

// MustGetIdentity gets the caller from context or panics
func MustGetIdentity(c *gin.Context) *Identity {
	identity, ok := GetIdentity(c)
	if !ok {
		panic("identity not found in context")
	}
	return identity
}

// IsAdmin checks if the caller is an admin
func IsAdmin(c *gin.Context) bool {
	identity, ok := GetIdentity(c)
	return ok && identity.User.Role == user.RoleAdmin
}

