package queries

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trackpro-client/internal/domain/activity"
	"trackpro-client/internal/domain/messaging"
	"trackpro-client/internal/domain/subscription"
	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/pkg/apiclient"
	"trackpro-client/internal/pkg/background"
	"trackpro-client/internal/pkg/kvstore"
	"trackpro-client/internal/pkg/session"
	"trackpro-client/internal/query"
	accountsvc "trackpro-client/internal/service/account"
	activitysvc "trackpro-client/internal/service/activity"
	adminsvc "trackpro-client/internal/service/admin"
	"trackpro-client/internal/service/auth"
	communitysvc "trackpro-client/internal/service/community"
	messagingsvc "trackpro-client/internal/service/messaging"
	notificationsvc "trackpro-client/internal/service/notification"
	profilesvc "trackpro-client/internal/service/profile"
	subscriptionsvc "trackpro-client/internal/service/subscription"
)

// fakeBackend counts hits per "METHOD path" and lets tests swap handlers.
type fakeBackend struct {
	mu   sync.Mutex
	hits map[string]int
	mux  *http.ServeMux
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{hits: make(map[string]int), mux: http.NewServeMux()}
}

func (f *fakeBackend) handle(pattern string, h http.HandlerFunc) {
	f.mux.HandleFunc(pattern, h)
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.Method+" "+r.URL.Path]++
	f.mu.Unlock()
	f.mux.ServeHTTP(w, r)
}

func (f *fakeBackend) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

type harness struct {
	backend *fakeBackend
	ctrl    *auth.Controller
	q       *Queries
	runner  *background.Runner
}

func userJSON(id int, status user.Status) string {
	return fmt.Sprintf(`{"id":%d,"firstName":"User","lastName":"%d","email":"u%d@x","role":"user","status":"%s","createdAt":"2025-01-01T00:00:00Z"}`,
		id, id, id, status)
}

func newHarness(t *testing.T, backend *fakeBackend) *harness {
	t.Helper()
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	ctx := context.Background()
	logger := zap.NewNop()
	kv := kvstore.NewMemoryStore()
	tokens := session.NewTokenStore(kv)
	runner := background.NewRunner(time.Second, logger)
	client := apiclient.New(apiclient.Config{BaseURL: server.URL}, tokens, logger)

	authSvc := auth.NewAuthService(client, tokens, session.NewUserCache(kv, logger), runner, logger)
	ctrl := auth.NewController(ctx, authSvc, logger)
	account := accountsvc.NewAccountService(client, logger)

	q := New(Services{
		Account:       account,
		Activities:    activitysvc.NewActivityService(client, logger),
		Admin:         adminsvc.NewAdminService(client, logger),
		Community:     communitysvc.NewCommunityService(client, logger),
		Messaging:     messagingsvc.NewMessagingService(client, logger),
		Notifications: notificationsvc.NewNotificationService(client, logger),
		Profiles:      profilesvc.NewProfileService(kv, account, runner, logger),
		Subscriptions: subscriptionsvc.NewSubscriptionService(client, logger),
	}, ctrl, query.NewCache(logger), logger)

	return &harness{backend: backend, ctrl: ctrl, q: q, runner: runner}
}

// withLogin registers a login endpoint that signs in as the user whose id is
// the password, with the given status.
func withLogin(b *fakeBackend, statuses map[string]user.Status) {
	b.handle("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		for id, status := range statuses {
			if strings.Contains(string(body), `"password":"`+id+`"`) {
				var n int
				_, _ = fmt.Sscanf(id, "%d", &n)
				_, _ = io.WriteString(w, `{"token":"tok-`+id+`","user":`+userJSON(n, status)+`}`)
				return
			}
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"Invalid credentials"}`)
	})
}

func (h *harness) login(t *testing.T, id string) {
	t.Helper()
	_, err := h.ctrl.Login(context.Background(), user.LoginCredentials{Email: "x", Password: id})
	require.NoError(t, err)
}

func TestMySubscription_ErrorsReadAsNoRecord(t *testing.T) {
	for _, status := range []int{http.StatusPaymentRequired, http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			b := newFakeBackend()
			withLogin(b, map[string]user.Status{"1": user.StatusApproved})
			b.handle("GET /api/account/subscription", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			})
			h := newHarness(t, b)
			h.login(t, "1")

			sub, err := h.q.MySubscription(context.Background())
			assert.NoError(t, err)
			assert.Nil(t, sub)

			cached, loaded := query.Peek[*subscription.Subscription](h.q.Cache(), MySubscriptionKey())
			assert.True(t, loaded, "a nil result is still a loaded result")
			assert.Nil(t, cached)
		})
	}
}

func TestMySubscription_Record(t *testing.T) {
	b := newFakeBackend()
	withLogin(b, map[string]user.Status{"1": user.StatusApproved})
	b.handle("GET /api/account/subscription", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"none","isActive":false}`)
	})
	h := newHarness(t, b)
	h.login(t, "1")

	sub, err := h.q.MySubscription(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.False(t, sub.IsActive)
}

func unreadBackend() *fakeBackend {
	b := newFakeBackend()
	withLogin(b, map[string]user.Status{
		"1": user.StatusApproved,
		"2": user.StatusPending,
		"3": user.StatusRejected,
	})
	b.handle("GET /api/messages/unread-count", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"count":3}`)
	})
	b.handle("GET /api/notifications/unread-count", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"count":1}`)
	})
	b.handle("GET /api/account/subscription", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"active","isActive":true}`)
	})
	return b
}

func runAll(t *testing.T, jobs []*query.Job) int {
	t.Helper()
	ran := 0
	for _, j := range jobs {
		ok, err := j.RunOnce(context.Background())
		require.NoError(t, err)
		if ok {
			ran++
		}
	}
	return ran
}

func TestPolling_GatedOnApprovedUser(t *testing.T) {
	b := unreadBackend()
	h := newHarness(t, b)

	var reports atomic.Int32
	jobs := h.q.PollJobs(func(query.Key, any) { reports.Add(1) })

	assert.Zero(t, runAll(t, jobs), "anonymous")
	n, err := h.q.MessageUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	h.login(t, "2")
	assert.Zero(t, runAll(t, jobs), "pending")

	h.login(t, "3")
	assert.Zero(t, runAll(t, jobs), "rejected")

	assert.Zero(t, b.count("GET /api/messages/unread-count"))
	assert.Zero(t, b.count("GET /api/notifications/unread-count"))
	assert.Zero(t, b.count("GET /api/account/subscription"))

	h.login(t, "1")
	assert.Equal(t, len(jobs), runAll(t, jobs))
	assert.Equal(t, int32(len(jobs)), reports.Load())
	assert.Equal(t, 1, b.count("GET /api/messages/unread-count"))

	n, err = h.q.NotificationUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPolling_PollsBypassFreshness(t *testing.T) {
	b := unreadBackend()
	h := newHarness(t, b)
	h.login(t, "1")

	jobs := h.q.PollJobs(nil)
	runAll(t, jobs)
	runAll(t, jobs)
	assert.Equal(t, 2, b.count("GET /api/messages/unread-count"))
}

func TestAttachPoller_ApprovalTriggersImmediateRun(t *testing.T) {
	b := unreadBackend()
	h := newHarness(t, b)
	p := query.NewPoller(nil)

	detach, err := h.q.AttachPoller(p, h.q.PollJobs(nil)...)
	require.NoError(t, err)
	defer detach()
	assert.Equal(t, 3, p.Len())

	h.login(t, "2")
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, b.count("GET /api/messages/unread-count"))

	h.login(t, "1")
	require.Eventually(t, func() bool {
		return b.count("GET /api/messages/unread-count") == 1 &&
			b.count("GET /api/notifications/unread-count") == 1
	}, 2*time.Second, 10*time.Millisecond)

	detach()
	assert.Zero(t, p.Len())
}

func TestThreadJob_RefetchesOpenThread(t *testing.T) {
	b := newFakeBackend()
	withLogin(b, map[string]user.Status{"1": user.StatusApproved, "2": user.StatusPending})
	var served atomic.Int32
	b.handle("GET /api/messages/conversations/8/messages", func(w http.ResponseWriter, r *http.Request) {
		n := served.Add(1)
		_, _ = fmt.Fprintf(w, `{"messages":[{"id":%d,"conversationId":8,"senderId":2,"content":"hi","createdAt":"2025-01-01T00:00:00Z"}],"nextCursor":null}`, n)
	})
	h := newHarness(t, b)
	ctx := context.Background()
	const path = "GET /api/messages/conversations/8/messages"

	var reported []*messaging.Thread
	job := h.q.ThreadJob(8, func(key query.Key, v any) {
		assert.Equal(t, ThreadKey(8), key)
		reported = append(reported, v.(*messaging.Thread))
	})
	assert.Equal(t, 5*time.Second, job.Interval)

	ran, err := job.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, ran, "anonymous")

	h.login(t, "2")
	ran, err = job.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, ran, "pending")
	assert.Zero(t, b.count(path))

	h.login(t, "1")
	for range 2 {
		_, err = h.q.Messages(ctx, 8, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, b.count(path), "open view reads from cache")

	ran, err = job.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 2, b.count(path), "poll ignores the freshness window")

	require.Len(t, reported, 1)
	assert.Equal(t, int64(2), reported[0].Messages[0].ID)
	cached, loaded := query.Peek[*messaging.Thread](h.q.Cache(), ThreadKey(8))
	require.True(t, loaded)
	assert.Equal(t, int64(2), cached.Messages[0].ID)
}

func TestWrites_InvalidateDeclaredKeys(t *testing.T) {
	postKeys := []query.Key{communityFeedKey(""), CommunityPostKey(7)}
	otherPostKeys := []query.Key{CommunityPostKey(8), ConversationsKey()}
	threadKeys := []query.Key{ThreadKey(9), ConversationsKey(), MessageUnreadKey()}
	otherThreadKeys := []query.Key{ThreadKey(10), NotificationUnreadKey()}

	cases := []struct {
		name  string
		write func(ctx context.Context, q *Queries) error
		stale []query.Key
		fresh []query.Key
	}{
		{
			name:  "change email",
			write: func(ctx context.Context, q *Queries) error { return q.ChangeEmail(ctx, "new@x", "pw") },
			stale: []query.Key{MeKey()},
			fresh: []query.Key{ActivitiesKey()},
		},
		{
			name:  "unlink google",
			write: func(ctx context.Context, q *Queries) error { return q.UnlinkGoogle(ctx) },
			stale: []query.Key{MeKey()},
			fresh: []query.Key{AdminBansKey()},
		},
		{
			name:  "delete post",
			write: func(ctx context.Context, q *Queries) error { return q.DeletePost(ctx, 7) },
			stale: postKeys,
			fresh: otherPostKeys,
		},
		{
			name: "toggle reaction",
			write: func(ctx context.Context, q *Queries) error {
				_, err := q.ToggleReaction(ctx, 7, "🔥")
				return err
			},
			stale: postKeys,
			fresh: otherPostKeys,
		},
		{
			name:  "pin post",
			write: func(ctx context.Context, q *Queries) error { return q.PinPost(ctx, 7, true) },
			stale: postKeys,
			fresh: otherPostKeys,
		},
		{
			name:  "ban user",
			write: func(ctx context.Context, q *Queries) error { return q.BanUser(ctx, 3, "spam") },
			stale: []query.Key{AdminBansKey()},
			fresh: []query.Key{AdminUsersKey(), communityFeedKey("")},
		},
		{
			name:  "clear conversation",
			write: func(ctx context.Context, q *Queries) error { return q.ClearConversation(ctx, 9) },
			stale: threadKeys,
			fresh: otherThreadKeys,
		},
		{
			name:  "delete conversation",
			write: func(ctx context.Context, q *Queries) error { return q.DeleteConversation(ctx, 9) },
			stale: threadKeys,
			fresh: otherThreadKeys,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newFakeBackend()
			withLogin(b, map[string]user.Status{"1": user.StatusApproved})
			b.handle("/", func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{}`)
			})
			h := newHarness(t, b)
			h.login(t, "1")
			ctx := context.Background()

			seeded := append(append([]query.Key{}, tc.stale...), tc.fresh...)
			for _, k := range seeded {
				_, err := query.Fetch(ctx, h.q.Cache(), k, query.Options{}, func(context.Context) (int, error) { return 1, nil })
				require.NoError(t, err)
			}

			require.NoError(t, tc.write(ctx, h.q))

			for _, k := range tc.stale {
				assert.True(t, h.q.Cache().IsStale(k, time.Hour), "%s should be stale", k)
			}
			for _, k := range tc.fresh {
				assert.False(t, h.q.Cache().IsStale(k, time.Hour), "%s should stay fresh", k)
			}
		})
	}
}

func TestUpload_InvalidatesActivityList(t *testing.T) {
	b := newFakeBackend()
	withLogin(b, map[string]user.Status{"1": user.StatusApproved})
	b.handle("GET /api/activities", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"items":[],"total":0,"page":1,"pageSize":100,"totalPages":0}`)
	})
	b.handle("POST /api/activities/upload", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":1,"name":"Ride","sportType":"cycling","activityDate":"2025-01-01T00:00:00Z","metrics":{}}`)
	})
	h := newHarness(t, b)
	h.login(t, "1")
	ctx := context.Background()

	_, err := h.q.Activities(ctx)
	require.NoError(t, err)
	_, err = h.q.Activities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, b.count("GET /api/activities"), "second read served from cache")

	_, err = h.q.UploadActivity(ctx, "ride.gpx", strings.NewReader("<gpx/>"), activity.SportCycling, nil)
	require.NoError(t, err)

	_, err = h.q.Activities(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, b.count("GET /api/activities"))
}

func TestFailedMutationKeepsCache(t *testing.T) {
	b := newFakeBackend()
	withLogin(b, map[string]user.Status{"1": user.StatusApproved})
	b.handle("GET /api/notifications", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	b.handle("POST /api/notifications/read-all", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	h := newHarness(t, b)
	h.login(t, "1")
	ctx := context.Background()

	_, err := h.q.Notifications(ctx)
	require.NoError(t, err)
	require.Error(t, h.q.MarkNotificationsRead(ctx))

	_, err = h.q.Notifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, b.count("GET /api/notifications"))
}

func TestUserChangeDropsCache(t *testing.T) {
	b := newFakeBackend()
	withLogin(b, map[string]user.Status{"1": user.StatusApproved, "4": user.StatusApproved})
	b.handle("GET /api/messages/conversations", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	h := newHarness(t, b)
	ctx := context.Background()

	h.login(t, "1")
	_, err := h.q.Conversations(ctx)
	require.NoError(t, err)

	h.login(t, "4")
	_, err = h.q.Conversations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, b.count("GET /api/messages/conversations"))
}

func TestMessages_OlderPagesBypassCache(t *testing.T) {
	b := newFakeBackend()
	withLogin(b, map[string]user.Status{"1": user.StatusApproved})
	b.handle("GET /api/messages/conversations/8/messages", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"messages":[],"nextCursor":null}`)
	})
	h := newHarness(t, b)
	h.login(t, "1")
	ctx := context.Background()

	cursor := int64(50)
	for range 2 {
		_, err := h.q.Messages(ctx, 8, nil)
		require.NoError(t, err)
		_, err = h.q.Messages(ctx, 8, &cursor)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, b.count("GET /api/messages/conversations/8/messages"))
}

func TestProfile_RequiresUser(t *testing.T) {
	h := newHarness(t, newFakeBackend())
	_, err := h.q.Profile(context.Background())
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestMutationCatalog(t *testing.T) {
	reads := ReadCatalog()
	mutations := MutationCatalog()
	require.NotEmpty(t, mutations)

	names := map[string]bool{}
	for _, m := range mutations {
		require.NoError(t, m.Validate(), m.Name)
		assert.False(t, names[m.Name], "duplicate mutation %s", m.Name)
		names[m.Name] = true

		for _, k := range m.Invalidates {
			matched := false
			for _, r := range reads {
				if r.Matches(k) {
					matched = true
					break
				}
			}
			assert.True(t, matched, "%s invalidates %s which matches no read", m.Name, k)
		}
	}
}
