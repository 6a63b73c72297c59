package subscription

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

	"trackpro-client/internal/domain/subscription"
	"trackpro-client/internal/pkg/apiclient"
	xerrors "trackpro-client/internal/pkg/errors"
)

type staticTokens string

func (s staticTokens) Get(context.Context) (string, error) { return string(s), nil }

func newService(t *testing.T, mux *http.ServeMux) *SubscriptionService {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewSubscriptionService(apiclient.New(apiclient.Config{BaseURL: server.URL}, staticTokens("tok"), nil), zap.NewNop())
}

func TestGetMine(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/account/subscription", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":4,"status":"active","periodEnd":"2030-01-01T00:00:00Z","isActive":true}`)
	})

	sub, err := newService(t, mux).GetMine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, sub.Status)
	assert.True(t, sub.IsActive)
	require.NotNil(t, sub.PeriodEnd)
}

func TestGetMine_ErrorsAreReturned(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/account/subscription", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
	})

	sub, err := newService(t, mux).GetMine(context.Background())
	assert.Nil(t, sub)
	assert.ErrorIs(t, err, xerrors.ErrSubscriptionRequired)
}

func TestUpdate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/admin/subscriptions/{userId}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12", r.PathValue("userId"))
		var body subscription.UpdateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, subscription.ActionExtend, body.Action)
		assert.Equal(t, "paid cash", body.Notes)
		_, _ = io.WriteString(w, `{"message":"Subscription updated"}`)
	})
	svc := newService(t, mux)

	require.NoError(t, svc.Update(context.Background(), "12", subscription.ActionExtend, "paid cash"))
	assert.Error(t, svc.Update(context.Background(), "12", "refund", ""))
}

func TestList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":1,"userId":2,"status":"trial","isActive":true,"userFirstName":"Ann","userLastName":"Lee","userEmail":"a@x",
"createdAt":"2025-01-01T00:00:00Z","updatedAt":"2025-01-01T00:00:00Z"}]`)
	})

	items, err := newService(t, mux).List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Ann Lee", items[0].UserName())
}
