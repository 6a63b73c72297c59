package activity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trackpro-client/internal/domain/activity"
	"trackpro-client/internal/pkg/apiclient"
	xerrors "trackpro-client/internal/pkg/errors"
)

type staticTokens string

func (s staticTokens) Get(context.Context) (string, error) { return string(s), nil }

func newService(t *testing.T, mux *http.ServeMux) *ActivityService {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	client := apiclient.New(apiclient.Config{BaseURL: server.URL}, staticTokens("tok"), nil)
	return NewActivityService(client, zap.NewNop())
}

const activityJSON = `{"id":3,"fileName":"ride.gpx","sportType":"cycling","name":"Ride",
"activityDate":"2025-05-01T08:00:00Z","metrics":{"distanceKm":20.5,"durationSec":3600,"avgSpeedKmh":20.5,"paceMinPerKm":2.9}}`

func TestList_RequestsFirstPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/activities", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("pageSize"))
		_, _ = io.WriteString(w, `{"items":[`+activityJSON+`],"total":1,"page":1,"pageSize":100,"totalPages":1}`)
	})

	items, err := newService(t, mux).List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "3", items[0].ID)
	assert.Equal(t, 20.5, items[0].Distance)
	assert.Equal(t, activity.SportCycling, items[0].SportType)
}

func TestList_SubscriptionRequired(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/activities", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = io.WriteString(w, `{"error":"Active subscription required"}`)
	})

	_, err := newService(t, mux).List(context.Background())
	assert.Equal(t, xerrors.KindSubscriptionRequired, xerrors.KindOf(err))
}

func TestGetByID_DerivesProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/activities/3", func(w http.ResponseWriter, r *http.Request) {
		body := strings.TrimSuffix(activityJSON, "}") +
			`,"points":[{"lat":45,"lon":7,"ele":100},{"lat":45.1,"lon":7,"ele":120}]}`
		_, _ = io.WriteString(w, body)
	})

	stats, err := newService(t, mux).GetByID(context.Background(), "3")
	require.NoError(t, err)
	require.Len(t, stats.ElevationProfile, 2)
	assert.Equal(t, 120.0, stats.ElevationProfile[1].Elevation)
	assert.Len(t, stats.Coordinates, 2)
}

func TestGetByID_NotFoundPropagates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/activities/9", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"Activity not found"}`)
	})

	stats, err := newService(t, mux).GetByID(context.Background(), "9")
	assert.Nil(t, stats)
	assert.ErrorIs(t, err, xerrors.ErrNotFound)
}

func TestUpload_SendsMultipartAndReportsProgress(t *testing.T) {
	gpx := strings.Repeat("<trkpt/>", 4096)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/activities/upload", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "running", r.FormValue("sportType"))

		f, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "morning.gpx", header.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, gpx, string(data))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(activity.ActivityResponse{ID: 11, Name: "Morning", SportType: activity.SportRunning})
	})

	var (
		mu       sync.Mutex
		reported []int
	)
	a, err := newService(t, mux).Upload(context.Background(), "/tmp/morning.gpx", strings.NewReader(gpx), activity.SportRunning, func(pct int) {
		mu.Lock()
		reported = append(reported, pct)
		mu.Unlock()
	})
	require.NoError(t, err)
	assert.Equal(t, "11", a.ID)

	mu.Lock()
	defer mu.Unlock()

	require.NotEmpty(t, reported)
	assert.Equal(t, 100, reported[len(reported)-1])
	for i := 1; i < len(reported); i++ {
		assert.Greater(t, reported[i], reported[i-1])
	}
}

func TestUpload_FailureNeverReportsComplete(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/activities/upload", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"Invalid GPX"}`)
	})

	var last atomic.Int32
	_, err := newService(t, mux).Upload(context.Background(), "bad.gpx", strings.NewReader("nope"), activity.SportOther, func(pct int) { last.Store(int32(pct)) })
	require.Error(t, err)
	assert.Equal(t, "Invalid GPX", err.Error())
	assert.Less(t, last.Load(), int32(100))
}

func TestUpload_RejectsUnknownSport(t *testing.T) {
	svc := newService(t, http.NewServeMux())
	_, err := svc.Upload(context.Background(), "x.gpx", strings.NewReader(""), "swimming", nil)
	assert.Error(t, err)
}
