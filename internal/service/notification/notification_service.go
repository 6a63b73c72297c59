// internal/service/notification/notification_service.go
package notification

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"trackpro-client/internal/domain/messaging"
	"trackpro-client/internal/domain/notification"
	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/pkg/apiclient"
)

// NotificationService reads and clears the caller's system notifications.
type NotificationService struct {
	client *apiclient.Client
	logger *zap.Logger
}

func NewNotificationService(client *apiclient.Client, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		client: client,
		logger: logger,
	}
}

func (s *NotificationService) List(ctx context.Context) ([]notification.Notification, error) {
	var items []notification.Notification
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/notifications",
		Auth:   true,
	}, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context) (int, error) {
	var result messaging.CountResponse
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/notifications/unread-count",
		Auth:   true,
	}, &result)
	if err != nil {
		return 0, err
	}
	return result.Count, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	var ack user.MessageResponse
	return s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/api/notifications/read-all",
		Auth:   true,
	}, &ack)
}

func (s *NotificationService) ClearAll(ctx context.Context) error {
	var ack user.MessageResponse
	return s.client.Do(ctx, apiclient.Request{
		Method: http.MethodDelete,
		Path:   "/api/notifications",
		Auth:   true,
	}, &ack)
}
