// internal/queries/keys.go
package queries

import (
	"strconv"
	"time"

	"trackpro-client/internal/query"
)

// Read policies.
var (
	listPolicy         = query.Options{StaleTime: 30 * time.Second, Retry: 1}
	detailPolicy       = query.Options{StaleTime: 30 * time.Second, Retry: 1}
	threadPolicy       = query.Options{StaleTime: 15 * time.Second, Retry: 1}
	unreadPolicy       = query.Options{StaleTime: 10 * time.Second, Retry: 1}
	notificationPolicy = query.Options{StaleTime: 15 * time.Second}
	adminSubsPolicy    = query.Options{StaleTime: 30 * time.Second, Retry: 2}
	subscriptionPolicy = query.Options{StaleTime: 30 * time.Second}
	profilePolicy      = query.Options{StaleTime: 30 * time.Second, Retry: 1}
)

// Poll intervals.
const (
	MessageUnreadInterval      = 15 * time.Second
	OpenThreadInterval         = 5 * time.Second
	NotificationUnreadInterval = 30 * time.Second
	SubscriptionInterval       = 60 * time.Second
)

func ActivitiesKey() query.Key { return query.NewKey(query.ResourceActivities, "list") }

func ActivityKey(id string) query.Key {
	return query.NewKey(query.ResourceActivities, "detail").WithID(id)
}

func AdminUsersKey() query.Key         { return query.NewKey(query.ResourceAdmin, "users") }
func AdminStatsKey() query.Key         { return query.NewKey(query.ResourceAdmin, "users").WithID("stats") }
func AdminActionsKey() query.Key       { return query.NewKey(query.ResourceAdmin, "actions") }
func AdminSubscriptionsKey() query.Key { return query.NewKey(query.ResourceAdmin, "subscriptions") }
func AdminBansKey() query.Key          { return query.NewKey(query.ResourceAdmin, "bans") }

// CommunityPostsKey is the prefix of every feed page.
func CommunityPostsKey() query.Key { return query.NewKey(query.ResourceCommunity, "posts") }

func communityFeedKey(variant string) query.Key {
	if variant == "" {
		variant = "first"
	}
	return CommunityPostsKey().WithID(variant)
}

func CommunityPostKey(id int64) query.Key {
	return query.NewKey(query.ResourceCommunity, "post").WithID(strconv.FormatInt(id, 10))
}

func ConversationsKey() query.Key { return query.NewKey(query.ResourceMessages, "conversations") }

func ThreadKey(conversationID int64) query.Key {
	return query.NewKey(query.ResourceMessages, "thread").WithID(strconv.FormatInt(conversationID, 10))
}

func MessageUnreadKey() query.Key { return query.NewKey(query.ResourceMessages, "unread") }
func ApprovedUsersKey() query.Key { return query.NewKey(query.ResourceMessages, "users") }

func NotificationsKey() query.Key      { return query.NewKey(query.ResourceNotifications, "list") }
func NotificationUnreadKey() query.Key { return query.NewKey(query.ResourceNotifications, "unread") }

func MySubscriptionKey() query.Key { return query.NewKey(query.ResourceSubscription, "me") }

// ProfileKey without a user id is the prefix of every stored profile.
func ProfileKey(userID string) query.Key {
	return query.NewKey(query.ResourceProfile, "").WithID(userID)
}

func MeKey() query.Key { return query.NewKey(query.ResourceMe, "") }
