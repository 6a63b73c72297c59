package notification

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trackpro-client/internal/domain/notification"
	"trackpro-client/internal/pkg/apiclient"
)

type staticTokens string

func (s staticTokens) Get(context.Context) (string, error) { return string(s), nil }

func TestNotificationService(t *testing.T) {
	var cleared, markedRead bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/notifications", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":1,"userId":2,"title":"Welcome","body":"Approved","readAt":null,"createdAt":"2025-01-01T00:00:00Z"},
{"id":2,"userId":2,"title":"Sub","body":"Extended","readAt":"2025-01-02T00:00:00Z","createdAt":"2025-01-01T00:00:00Z"}]`)
	})
	mux.HandleFunc("GET /api/notifications/unread-count", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"count":1}`)
	})
	mux.HandleFunc("POST /api/notifications/read-all", func(w http.ResponseWriter, r *http.Request) {
		markedRead = true
		_, _ = io.WriteString(w, `{"message":"ok"}`)
	})
	mux.HandleFunc("DELETE /api/notifications", func(w http.ResponseWriter, r *http.Request) {
		cleared = true
		w.WriteHeader(http.StatusNoContent)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc := NewNotificationService(apiclient.New(apiclient.Config{BaseURL: server.URL}, staticTokens("t"), nil), zap.NewNop())
	ctx := context.Background()

	items, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, notification.Unread(items))

	count, err := svc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, svc.MarkAllRead(ctx))
	require.NoError(t, svc.ClearAll(ctx))
	assert.True(t, markedRead)
	assert.True(t, cleared)
}
