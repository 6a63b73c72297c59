package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/pkg/apiclient"
	"trackpro-client/internal/pkg/background"
	"trackpro-client/internal/pkg/kvstore"
	"trackpro-client/internal/pkg/session"
)

const adaJSON = `{"id":5,"firstName":"Ada","lastName":"Lovelace","email":"ada@x","role":"user","status":"approved","createdAt":"2025-01-01T00:00:00Z"}`

type harness struct {
	svc    *AuthService
	tokens *session.TokenStore
	users  *session.UserCache
	runner *background.Runner
	kv     kvstore.Store
}

func newHarness(t *testing.T, mux *http.ServeMux, kv kvstore.Store) *harness {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	if kv == nil {
		kv = kvstore.NewMemoryStore()
	}
	tokens := session.NewTokenStore(kv)
	users := session.NewUserCache(kv, nil)
	runner := background.NewRunner(time.Second, nil)
	client := apiclient.New(apiclient.Config{BaseURL: server.URL}, tokens, nil)

	return &harness{
		svc:    NewAuthService(client, tokens, users, runner, zap.NewNop()),
		tokens: tokens,
		users:  users,
		runner: runner,
		kv:     kv,
	}
}

func (h *harness) token(t *testing.T) string {
	t.Helper()
	tok, err := h.tokens.Get(context.Background())
	require.NoError(t, err)
	return tok
}

func loginMux(t *testing.T) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds user.LoginCredentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"Invalid credentials","code":"invalid_credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"token":"tok-123","user":`+adaJSON+`}`)
	})
	return mux
}

func TestLogin_StoresTokenAndUser(t *testing.T) {
	h := newHarness(t, loginMux(t), nil)
	ctrl := NewController(context.Background(), h.svc, nil)

	var seen []State
	var mu sync.Mutex
	ctrl.Subscribe(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s.State)
		mu.Unlock()
	})

	u, err := ctrl.Login(context.Background(), user.LoginCredentials{Email: "ada@x", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", u.Name)
	assert.Equal(t, "tok-123", h.token(t))

	cached, err := h.users.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "5", cached.ID)

	snap := ctrl.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.False(t, snap.IsLoading)
	assert.Empty(t, snap.Error)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateAuthenticating, StateAuthenticated}, seen)
}

func TestLogin_FailureLeavesNoPartialState(t *testing.T) {
	h := newHarness(t, loginMux(t), nil)
	ctrl := NewController(context.Background(), h.svc, nil)

	_, err := ctrl.Login(context.Background(), user.LoginCredentials{Email: "ada@x", Password: "wrong"})
	require.Error(t, err)

	assert.Empty(t, h.token(t))
	cached, _ := h.users.Get(context.Background())
	assert.Nil(t, cached)

	snap := ctrl.Snapshot()
	assert.Nil(t, snap.User)
	assert.Equal(t, "Invalid credentials", snap.Error)
	assert.Equal(t, StateError, snap.State)
	assert.False(t, snap.IsLoading)
}

type failingUserStore struct {
	kvstore.Store
}

func (f failingUserStore) Set(ctx context.Context, key, value string) error {
	if key == session.UserKey {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, value)
}

func TestLogin_UserSaveFailureRollsBackToken(t *testing.T) {
	h := newHarness(t, loginMux(t), failingUserStore{kvstore.NewMemoryStore()})

	_, err := h.svc.Login(context.Background(), user.LoginCredentials{Email: "ada@x", Password: "secret"})
	require.Error(t, err)
	assert.Empty(t, h.token(t))
}

func TestLogin_UserSaveFailureKeepsPreviousSession(t *testing.T) {
	h := newHarness(t, loginMux(t), failingUserStore{kvstore.NewMemoryStore()})
	ctx := context.Background()
	require.NoError(t, h.tokens.Set(ctx, "previous-session"))

	_, err := h.svc.Login(ctx, user.LoginCredentials{Email: "ada@x", Password: "secret"})
	require.ErrorContains(t, err, "disk full")
	assert.Equal(t, "previous-session", h.token(t))
}

func TestRegister_NeverWritesToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req user.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Cher", req.FirstName)
		assert.Equal(t, "User", req.LastName)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"message":"Registration submitted","user":{"id":9,"firstName":"Cher","lastName":"User","email":"c@x","role":"user","status":"pending"}}`)
	})
	h := newHarness(t, mux, nil)
	ctrl := NewController(context.Background(), h.svc, nil)

	u, err := ctrl.Register(context.Background(), user.RegisterData{Name: " Cher ", Email: "c@x", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, user.StatusPending, u.Status)

	assert.Empty(t, h.token(t))
	assert.Nil(t, ctrl.User())
	assert.Equal(t, StateAnonymous, ctrl.Snapshot().State)
}

func TestNewController_SeedsFromCache(t *testing.T) {
	h := newHarness(t, http.NewServeMux(), nil)
	ctx := context.Background()
	require.NoError(t, h.users.Save(ctx, user.User{ID: "5", Name: "Ada"}))

	ctrl := NewController(ctx, h.svc, nil)
	require.NotNil(t, ctrl.User())
	assert.Equal(t, "Ada", ctrl.User().Name)
	assert.Equal(t, StateAuthenticated, ctrl.Snapshot().State)
}

func TestRefresh_UnauthorizedWipesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"Invalid token"}`)
	})
	h := newHarness(t, mux, nil)
	ctx := context.Background()
	require.NoError(t, h.tokens.Set(ctx, "expired"))
	require.NoError(t, h.users.Save(ctx, user.User{ID: "5"}))

	ctrl := NewController(ctx, h.svc, nil)
	require.NotNil(t, ctrl.User())

	require.NoError(t, ctrl.Refresh(ctx))
	assert.Nil(t, ctrl.User())
	assert.Empty(t, h.token(t))
	cached, _ := h.users.Get(ctx)
	assert.Nil(t, cached)
}

func TestStartController_RevokedTokenSignsOut(t *testing.T) {
	var meCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"Token revoked"}`)
	})
	h := newHarness(t, mux, nil)
	ctx := context.Background()
	require.NoError(t, h.tokens.Set(ctx, "revoked"))
	require.NoError(t, h.users.Save(ctx, user.User{ID: "5", Status: user.StatusApproved}))

	ctrl := StartController(ctx, h.svc, nil)
	assert.Equal(t, int32(1), meCalls.Load())
	assert.Nil(t, ctrl.User())
	assert.Equal(t, StateAnonymous, ctrl.Snapshot().State)
	assert.Empty(t, h.token(t))
	cached, _ := h.users.Get(ctx)
	assert.Nil(t, cached)
}

func TestStartController_OfflineKeepsCachedUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	h := newHarness(t, mux, nil)
	ctx := context.Background()
	require.NoError(t, h.tokens.Set(ctx, "tok"))
	require.NoError(t, h.users.Save(ctx, user.User{ID: "5", Name: "Ada"}))

	ctrl := StartController(ctx, h.svc, nil)
	require.NotNil(t, ctrl.User())
	assert.Equal(t, "Ada", ctrl.User().Name)
	assert.Equal(t, "tok", h.token(t))
}

func TestRefresh_OtherFailureKeepsCachedUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	h := newHarness(t, mux, nil)
	ctx := context.Background()
	require.NoError(t, h.tokens.Set(ctx, "tok"))
	require.NoError(t, h.users.Save(ctx, user.User{ID: "5", Name: "Ada"}))

	ctrl := NewController(ctx, h.svc, nil)
	assert.Error(t, ctrl.Refresh(ctx))

	require.NotNil(t, ctrl.User())
	assert.Equal(t, "Ada", ctrl.User().Name)
	assert.Equal(t, "tok", h.token(t))
}

func TestRefresh_SuccessOverwritesUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, adaJSON)
	})
	h := newHarness(t, mux, nil)
	ctx := context.Background()
	require.NoError(t, h.tokens.Set(ctx, "tok"))
	require.NoError(t, h.users.Save(ctx, user.User{ID: "5", Name: "Stale", Status: user.StatusPending}))

	ctrl := NewController(ctx, h.svc, nil)
	require.NoError(t, ctrl.Refresh(ctx))
	assert.Equal(t, "Ada Lovelace", ctrl.User().Name)
	assert.True(t, ctrl.User().IsApproved())
}

func TestMe_NoTokenSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })
	h := newHarness(t, mux, nil)

	u, err := h.svc.Me(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, u)
	assert.Zero(t, calls.Load())
}

func TestLogout_ClearsLocallyAndCallsServerWithCapturedToken(t *testing.T) {
	var gotAuth atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusInternalServerError)
	})
	h := newHarness(t, mux, nil)
	ctx := context.Background()
	require.NoError(t, h.tokens.Set(ctx, "tok-9"))
	require.NoError(t, h.users.Save(ctx, user.User{ID: "5"}))

	ctrl := NewController(ctx, h.svc, nil)
	require.NoError(t, ctrl.Logout(ctx))

	assert.Nil(t, ctrl.User())
	assert.Empty(t, h.token(t))

	h.runner.Wait()
	assert.Equal(t, "Bearer tok-9", gotAuth.Load())
}

func TestLogout_WithoutTokenSkipsServer(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { calls.Add(1) })
	h := newHarness(t, mux, nil)

	require.NoError(t, h.svc.Logout(context.Background()))
	h.runner.Wait()
	assert.Zero(t, calls.Load())
}

func TestForgotAndResetPassword(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"message":"If the email exists, a reset link has been sent"}`)
	})
	mux.HandleFunc("POST /api/auth/reset-password", func(w http.ResponseWriter, r *http.Request) {
		var req user.ResetPasswordRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Token != "good" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"Invalid or expired reset token"}`)
			return
		}
		_, _ = io.WriteString(w, `{"message":"Password reset"}`)
	})
	h := newHarness(t, mux, nil)
	ctx := context.Background()

	msg, err := h.svc.ForgotPassword(ctx, "ada@x")
	require.NoError(t, err)
	assert.Contains(t, msg, "reset link")

	require.NoError(t, h.svc.ResetPassword(ctx, "good", "new-pw"))
	err = h.svc.ResetPassword(ctx, "bad", "new-pw")
	require.Error(t, err)
	assert.Equal(t, "Invalid or expired reset token", err.Error())
}
