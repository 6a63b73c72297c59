// internal/service/subscription/subscription_service.go
package subscription

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"trackpro-client/internal/domain/subscription"
	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/pkg/apiclient"
)

type SubscriptionService struct {
	client *apiclient.Client
	logger *zap.Logger
}

func NewSubscriptionService(client *apiclient.Client, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{
		client: client,
		logger: logger,
	}
}

// GetMine returns the caller's subscription. A user without a record gets
// status "none" from the backend; errors are returned as is.
func (s *SubscriptionService) GetMine(ctx context.Context) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/account/subscription",
		Auth:   true,
	}, &sub)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// List returns every subscription with its owner, for admins.
func (s *SubscriptionService) List(ctx context.Context) ([]subscription.WithUser, error) {
	var items []subscription.WithUser
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/admin/subscriptions",
		Auth:   true,
	}, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Update applies an admin action to a user's subscription.
func (s *SubscriptionService) Update(ctx context.Context, userID string, action subscription.Action, notes string) error {
	if !action.Valid() {
		return fmt.Errorf("invalid subscription action %q", action)
	}

	var ack user.MessageResponse
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPut,
		Path:   "/api/admin/subscriptions/" + url.PathEscape(userID),
		Body:   subscription.UpdateRequest{Action: action, Notes: notes},
		Auth:   true,
	}, &ack)
	if err != nil {
		return err
	}

	s.logger.Info("subscription updated",
		zap.String("user_id", userID),
		zap.String("action", string(action)),
	)
	return nil
}
