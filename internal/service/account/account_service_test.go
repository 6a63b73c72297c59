package account

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/pkg/apiclient"
	xerrors "trackpro-client/internal/pkg/errors"
)

type staticTokens string

func (s staticTokens) Get(context.Context) (string, error) { return string(s), nil }

func newService(t *testing.T, mux *http.ServeMux) *AccountService {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewAccountService(apiclient.New(apiclient.Config{BaseURL: server.URL}, staticTokens("tok"), nil), zap.NewNop())
}

func TestChangeEmail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/account/email", func(w http.ResponseWriter, r *http.Request) {
		var req user.ChangeEmailRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "new@x", req.NewEmail)
		if req.CurrentPassword != "right" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"Current password is incorrect","code":"invalid_password"}`)
			return
		}
		_, _ = io.WriteString(w, `{"message":"Email updated"}`)
	})
	svc := newService(t, mux)

	require.NoError(t, svc.ChangeEmail(context.Background(), " new@x ", "right"))

	err := svc.ChangeEmail(context.Background(), "new@x", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Current password is incorrect", err.Error())
	assert.Equal(t, xerrors.KindValidation, xerrors.KindOf(err))
}

func TestPasswordGoogleAvatarAndDelete(t *testing.T) {
	var hits []string
	ack := func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.Method+" "+r.URL.Path)
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/account/password", ack)
	mux.HandleFunc("DELETE /api/account/google", ack)
	mux.HandleFunc("DELETE /api/users/me", ack)
	mux.HandleFunc("PUT /api/users/avatar", func(w http.ResponseWriter, r *http.Request) {
		var req user.UpdateAvatarRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://img/x.png", req.AvatarURL)
		ack(w, r)
	})
	mux.HandleFunc("GET /auth/google/link", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"url":"https://accounts.google.com/o/oauth2/auth?state=abc"}`)
	})
	svc := newService(t, mux)
	ctx := context.Background()

	require.NoError(t, svc.ChangePassword(ctx, "old", "new-password"))
	link, err := svc.StartGoogleLink(ctx)
	require.NoError(t, err)
	assert.Contains(t, link, "accounts.google.com")
	require.NoError(t, svc.UnlinkGoogle(ctx))
	require.NoError(t, svc.UpdateAvatar(ctx, "https://img/x.png"))
	require.NoError(t, svc.DeleteAccount(ctx))

	assert.Equal(t, []string{
		"PUT /api/account/password",
		"DELETE /api/account/google",
		"PUT /api/users/avatar",
		"DELETE /api/users/me",
	}, hits)
}
