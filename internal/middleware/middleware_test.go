package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trackpro-client/internal/domain/user"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth map[string]user.UserResponse

func (f fakeAuth) Authenticate(_ context.Context, token string) (*Identity, error) {
	u, ok := f[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &Identity{User: u, JTI: "jti-" + token, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

type fakeSubs map[int64]bool

func (f fakeSubs) HasActiveSubscription(_ context.Context, userID int64) bool { return f[userID] }

func newRouter() *gin.Engine {
	auth := fakeAuth{
		"admin":    {ID: 1, Role: user.RoleAdmin, Status: user.StatusApproved},
		"paid":     {ID: 2, Role: user.RoleUser, Status: user.StatusApproved},
		"unpaid":   {ID: 3, Role: user.RoleUser, Status: user.StatusApproved},
		"pending":  {ID: 4, Role: user.RoleUser, Status: user.StatusPending},
		"rejected": {ID: 5, Role: user.RoleUser, Status: user.StatusRejected},
	}
	m := NewAuthMiddleware(auth, fakeSubs{2: true})

	r := gin.New()
	r.Use(RequestID(), RecoveryMiddleware(zap.NewNop()))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"id": MustGetIdentity(c).User.ID}) }

	r.GET("/approved", append(m.Approved(), ok)...)
	r.GET("/paid", append(m.Subscribed(), ok)...)
	r.GET("/admin", append(m.AdminOnly(), ok)...)
	r.GET("/panic", func(*gin.Context) { panic("boom") })
	return r
}

func call(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware_Gates(t *testing.T) {
	r := newRouter()

	cases := []struct {
		path, token string
		status      int
		code        string
	}{
		{"/approved", "", http.StatusUnauthorized, "unauthorized"},
		{"/approved", "bogus", http.StatusUnauthorized, "unauthorized"},
		{"/approved", "pending", http.StatusForbidden, "pending_approval"},
		{"/approved", "rejected", http.StatusForbidden, "pending_approval"},
		{"/approved", "unpaid", http.StatusOK, ""},
		{"/paid", "unpaid", http.StatusPaymentRequired, "subscription_required"},
		{"/paid", "paid", http.StatusOK, ""},
		{"/paid", "admin", http.StatusOK, ""},
		{"/admin", "paid", http.StatusForbidden, "forbidden"},
		{"/admin", "admin", http.StatusOK, ""},
	}
	for _, tc := range cases {
		rec := call(r, tc.path, tc.token)
		assert.Equal(t, tc.status, rec.Code, "%s as %q", tc.path, tc.token)
		if tc.code != "" {
			assert.Contains(t, rec.Body.String(), `"code":"`+tc.code+`"`, "%s as %q", tc.path, tc.token)
		}
	}
}

func TestExtractToken_RejectsMalformedHeader(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/approved", nil)
	req.Header.Set("Authorization", "Token paid")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecovery_Returns500WithBody(t *testing.T) {
	rec := call(newRouter(), "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestRequestID_EchoesOrMints(t *testing.T) {
	r := newRouter()

	rec := call(r, "/approved", "")
	assert.Len(t, rec.Header().Get(RequestIDHeader), 26)

	req := httptest.NewRequest(http.MethodGet, "/approved", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}

func TestIPRateLimiter_PerIPBuckets(t *testing.T) {
	l := NewIPRateLimiter(2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"), "buckets are per IP")

	now = now.Add(30 * time.Second)
	assert.True(t, l.Allow("1.1.1.1"), "one token refills every 30s")
}

func TestIPRateLimiter_Middleware429(t *testing.T) {
	l := NewIPRateLimiter(1)
	r := gin.New()
	r.POST("/login", l.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusNoContent, do().Code)
	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
