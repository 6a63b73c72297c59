// internal/queries/polling.go
package queries

import (
	"context"
	"sync"
	"time"

	"trackpro-client/internal/query"
	"trackpro-client/internal/service/auth"
)

// Report receives every successful poll result.
type Report func(key query.Key, value any)

func (q *Queries) pollJob(name string, interval time.Duration, key query.Key, report Report, fetch func(context.Context) (any, error)) *query.Job {
	return &query.Job{
		Name:     name,
		Interval: interval,
		Gate:     q.PollingAllowed,
		Run: func(ctx context.Context) error {
			v, err := fetch(ctx)
			if err != nil {
				return err
			}
			if report != nil {
				report(key, v)
			}
			return nil
		},
	}
}

// PollJobs returns the background refreshes: unread message and notification
// counts and the caller's own subscription.
func (q *Queries) PollJobs(report Report) []*query.Job {
	return []*query.Job{
		q.pollJob("message-unread", MessageUnreadInterval, MessageUnreadKey(), report, func(ctx context.Context) (any, error) {
			return query.Fetch(ctx, q.cache, MessageUnreadKey(), query.Options{Retry: unreadPolicy.Retry}, q.svc.Messaging.UnreadCount)
		}),
		q.pollJob("notification-unread", NotificationUnreadInterval, NotificationUnreadKey(), report, func(ctx context.Context) (any, error) {
			return query.Fetch(ctx, q.cache, NotificationUnreadKey(), query.Options{}, q.svc.Notifications.UnreadCount)
		}),
		q.pollJob("subscription", SubscriptionInterval, MySubscriptionKey(), report, func(ctx context.Context) (any, error) {
			return q.mySubscription(ctx, query.Options{})
		}),
	}
}

// ThreadJob refreshes an open conversation.
func (q *Queries) ThreadJob(conversationID int64, report Report) *query.Job {
	key := ThreadKey(conversationID)
	return q.pollJob("thread-"+key.ID(), OpenThreadInterval, key, report, func(ctx context.Context) (any, error) {
		return q.thread(ctx, conversationID, query.Options{Retry: threadPolicy.Retry})
	})
}

// AttachPoller schedules jobs on p and runs them immediately whenever the
// signed-in user becomes approved. The returned func detaches everything.
func (q *Queries) AttachPoller(p *query.Poller, jobs ...*query.Job) (func(), error) {
	removers := make([]func(), 0, len(jobs)+1)
	detach := func() {
		for _, r := range removers {
			r()
		}
	}

	for _, j := range jobs {
		remove, err := p.Add(j)
		if err != nil {
			detach()
			return nil, err
		}
		removers = append(removers, remove)
	}

	var mu sync.Mutex
	wasAllowed := q.PollingAllowed()
	unsubscribe := q.session.Subscribe(func(s auth.Snapshot) {
		allowed := s.User.IsApproved()

		mu.Lock()
		opened := allowed && !wasAllowed
		wasAllowed = allowed
		mu.Unlock()

		if opened {
			p.TriggerAll()
		}
	})
	removers = append(removers, unsubscribe)

	return detach, nil
}
