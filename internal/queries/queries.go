// Package queries binds every backend read and write to the query cache:
// cache keys, freshness policies, invalidations and polling.
package queries

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"trackpro-client/internal/domain/activity"
	"trackpro-client/internal/domain/admin"
	"trackpro-client/internal/domain/community"
	"trackpro-client/internal/domain/messaging"
	"trackpro-client/internal/domain/notification"
	"trackpro-client/internal/domain/profile"
	"trackpro-client/internal/domain/subscription"
	"trackpro-client/internal/domain/user"
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

var ErrNotSignedIn = errors.New("not signed in")

type Services struct {
	Account       *accountsvc.AccountService
	Activities    *activitysvc.ActivityService
	Admin         *adminsvc.AdminService
	Community     *communitysvc.CommunityService
	Messaging     *messagingsvc.MessagingService
	Notifications *notificationsvc.NotificationService
	Profiles      *profilesvc.ProfileService
	Subscriptions *subscriptionsvc.SubscriptionService
}

type Queries struct {
	svc     Services
	session *auth.Controller
	cache   *query.Cache
	logger  *zap.Logger

	mu         sync.Mutex
	lastUserID string
}

// New wires the services to cache. The cache is dropped whenever the
// signed-in user changes so one account never sees another's data.
func New(svc Services, session *auth.Controller, cache *query.Cache, logger *zap.Logger) *Queries {
	if logger == nil {
		logger = zap.NewNop()
	}
	q := &Queries{
		svc:     svc,
		session: session,
		cache:   cache,
		logger:  logger,
	}
	if u := session.User(); u != nil {
		q.lastUserID = u.ID
	}
	session.Subscribe(q.onSessionChange)
	return q
}

func (q *Queries) Cache() *query.Cache { return q.cache }

func (q *Queries) onSessionChange(s auth.Snapshot) {
	id := ""
	if s.User != nil {
		id = s.User.ID
	}

	q.mu.Lock()
	changed := id != q.lastUserID
	q.lastUserID = id
	q.mu.Unlock()

	if changed {
		q.logger.Debug("signed-in user changed, dropping cached queries")
		q.cache.Reset()
	}
}

// PollingAllowed is the gate of every poller: a signed-in, approved user.
func (q *Queries) PollingAllowed() bool {
	return q.session.User().IsApproved()
}

func (q *Queries) currentUserID() (string, error) {
	u := q.session.User()
	if u == nil {
		return "", ErrNotSignedIn
	}
	return u.ID, nil
}

// Me confirms the session with the backend and returns the current user,
// nil when signed out.
func (q *Queries) Me(ctx context.Context) (*user.User, error) {
	return query.Fetch(ctx, q.cache, MeKey(), query.Options{StaleTime: listPolicy.StaleTime}, func(ctx context.Context) (*user.User, error) {
		if err := q.session.Refresh(ctx); err != nil {
			return q.session.User(), err
		}
		return q.session.User(), nil
	})
}

func (q *Queries) Activities(ctx context.Context) ([]activity.Activity, error) {
	return query.Fetch(ctx, q.cache, ActivitiesKey(), listPolicy, q.svc.Activities.List)
}

func (q *Queries) Activity(ctx context.Context, id string) (*activity.Statistics, error) {
	return query.Fetch(ctx, q.cache, ActivityKey(id), detailPolicy, func(ctx context.Context) (*activity.Statistics, error) {
		return q.svc.Activities.GetByID(ctx, id)
	})
}

func (q *Queries) AdminUsers(ctx context.Context) ([]user.User, error) {
	return query.Fetch(ctx, q.cache, AdminUsersKey(), listPolicy, q.svc.Admin.ListUsers)
}

// AdminStats is derived from the admin user list, reusing it when cached.
func (q *Queries) AdminStats(ctx context.Context) (admin.Stats, error) {
	return query.Fetch(ctx, q.cache, AdminStatsKey(), listPolicy, func(ctx context.Context) (admin.Stats, error) {
		users, err := q.AdminUsers(ctx)
		if err != nil {
			return admin.Stats{}, err
		}
		return admin.StatsFromUsers(users), nil
	})
}

func (q *Queries) AdminActions(ctx context.Context) ([]admin.Action, error) {
	return query.Fetch(ctx, q.cache, AdminActionsKey(), listPolicy, q.svc.Admin.ActionTimeline)
}

func (q *Queries) AdminSubscriptions(ctx context.Context) ([]subscription.WithUser, error) {
	return query.Fetch(ctx, q.cache, AdminSubscriptionsKey(), adminSubsPolicy, q.svc.Subscriptions.List)
}

func (q *Queries) AdminBans(ctx context.Context) ([]community.Ban, error) {
	return query.Fetch(ctx, q.cache, AdminBansKey(), listPolicy, q.svc.Community.ListBans)
}

// CommunityPosts returns one feed page; each cursor and search is cached apart.
func (q *Queries) CommunityPosts(ctx context.Context, filter community.FeedFilter) (*community.Feed, error) {
	return query.Fetch(ctx, q.cache, communityFeedKey(feedVariant(filter)), listPolicy, func(ctx context.Context) (*community.Feed, error) {
		return q.svc.Community.ListPosts(ctx, filter)
	})
}

func feedVariant(f community.FeedFilter) string {
	v := ""
	if f.Cursor != nil {
		v += "cursor=" + strconv.FormatInt(*f.Cursor, 10)
	}
	if f.Search != "" {
		v += "&q=" + f.Search
	}
	if f.Limit > 0 {
		v += "&limit=" + strconv.Itoa(f.Limit)
	}
	return v
}

func (q *Queries) CommunityPost(ctx context.Context, id int64) (*community.PostDetail, error) {
	return query.Fetch(ctx, q.cache, CommunityPostKey(id), detailPolicy, func(ctx context.Context) (*community.PostDetail, error) {
		return q.svc.Community.GetPost(ctx, id)
	})
}

func (q *Queries) Conversations(ctx context.Context) ([]messaging.Conversation, error) {
	return query.Fetch(ctx, q.cache, ConversationsKey(), listPolicy, q.svc.Messaging.ListConversations)
}

// Messages returns the newest page of a thread from the cache. Older pages
// (non-nil cursor) always go to the backend.
func (q *Queries) Messages(ctx context.Context, conversationID int64, cursor *int64) (*messaging.Thread, error) {
	if cursor != nil {
		return q.svc.Messaging.ListMessages(ctx, conversationID, cursor)
	}
	return q.thread(ctx, conversationID, threadPolicy)
}

func (q *Queries) thread(ctx context.Context, conversationID int64, opts query.Options) (*messaging.Thread, error) {
	return query.Fetch(ctx, q.cache, ThreadKey(conversationID), opts, func(ctx context.Context) (*messaging.Thread, error) {
		return q.svc.Messaging.ListMessages(ctx, conversationID, nil)
	})
}

func (q *Queries) ApprovedUsers(ctx context.Context) ([]user.User, error) {
	return query.Fetch(ctx, q.cache, ApprovedUsersKey(), listPolicy, q.svc.Messaging.ListApprovedUsers)
}

// MessageUnreadCount issues no request unless polling is allowed; it then
// reports zero.
func (q *Queries) MessageUnreadCount(ctx context.Context) (int, error) {
	if !q.PollingAllowed() {
		return 0, nil
	}
	return query.Fetch(ctx, q.cache, MessageUnreadKey(), unreadPolicy, q.svc.Messaging.UnreadCount)
}

func (q *Queries) Notifications(ctx context.Context) ([]notification.Notification, error) {
	return query.Fetch(ctx, q.cache, NotificationsKey(), notificationPolicy, q.svc.Notifications.List)
}

func (q *Queries) NotificationUnreadCount(ctx context.Context) (int, error) {
	if !q.PollingAllowed() {
		return 0, nil
	}
	return query.Fetch(ctx, q.cache, NotificationUnreadKey(), notificationPolicy, q.svc.Notifications.UnreadCount)
}

// MySubscription never fails: any error, including 402 or a missing endpoint
// on older backends, reads as "no record" (nil).
func (q *Queries) MySubscription(ctx context.Context) (*subscription.Subscription, error) {
	return q.mySubscription(ctx, subscriptionPolicy)
}

func (q *Queries) mySubscription(ctx context.Context, opts query.Options) (*subscription.Subscription, error) {
	return query.Fetch(ctx, q.cache, MySubscriptionKey(), opts, func(ctx context.Context) (*subscription.Subscription, error) {
		sub, err := q.svc.Subscriptions.GetMine(ctx)
		if err != nil {
			q.logger.Debug("subscription read failed, treating as no record", zap.Error(err))
			return nil, nil
		}
		return sub, nil
	})
}

// Profile returns the signed-in user's athlete profile.
func (q *Queries) Profile(ctx context.Context) (profile.AthleteProfile, error) {
	userID, err := q.currentUserID()
	if err != nil {
		return profile.Default(), err
	}
	return query.Fetch(ctx, q.cache, ProfileKey(userID), profilePolicy, func(ctx context.Context) (profile.AthleteProfile, error) {
		p, err := q.svc.Profiles.Get(ctx, userID)
		if err != nil {
			return p, fmt.Errorf("load profile: %w", err)
		}
		return p, nil
	})
}
