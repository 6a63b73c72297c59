// internal/service/messaging/messaging_service.go
package messaging

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"trackpro-client/internal/domain/messaging"
	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/pkg/apiclient"
)

// MessagingService handles one-to-one direct messages between approved users.
type MessagingService struct {
	client *apiclient.Client
	logger *zap.Logger
}

func NewMessagingService(client *apiclient.Client, logger *zap.Logger) *MessagingService {
	return &MessagingService{
		client: client,
		logger: logger,
	}
}

func (s *MessagingService) ListConversations(ctx context.Context) ([]messaging.Conversation, error) {
	var items []messaging.Conversation
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/messages/conversations",
		Auth:   true,
	}, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetOrCreateConversation returns the conversation with userID, creating it
// on first contact.
func (s *MessagingService) GetOrCreateConversation(ctx context.Context, userID int64) (*messaging.Conversation, error) {
	var conv messaging.Conversation
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/api/messages/conversations",
		Body:   messaging.CreateConversationRequest{UserID: userID},
		Auth:   true,
	}, &conv)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListMessages returns a page of the thread; a nil cursor starts at the newest.
func (s *MessagingService) ListMessages(ctx context.Context, conversationID int64, cursor *int64) (*messaging.Thread, error) {
	query := url.Values{}
	if cursor != nil && *cursor > 0 {
		query.Set("cursor", strconv.FormatInt(*cursor, 10))
	}

	var thread messaging.Thread
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   conversationPath(conversationID) + "/messages",
		Query:  query,
		Auth:   true,
	}, &thread)
	if err != nil {
		return nil, err
	}
	if thread.Messages == nil {
		thread.Messages = []messaging.Message{}
	}
	return &thread, nil
}

func (s *MessagingService) SendMessage(ctx context.Context, conversationID int64, content string) (*messaging.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("message content is required")
	}

	var msg messaging.Message
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   conversationPath(conversationID) + "/messages",
		Body:   messaging.SendMessageRequest{Content: content},
		Auth:   true,
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *MessagingService) MarkRead(ctx context.Context, conversationID int64) error {
	return s.ack(ctx, http.MethodPost, conversationPath(conversationID)+"/read")
}

// ClearConversation hides the existing messages for the caller only.
func (s *MessagingService) ClearConversation(ctx context.Context, conversationID int64) error {
	return s.ack(ctx, http.MethodPost, conversationPath(conversationID)+"/clear")
}

func (s *MessagingService) DeleteConversation(ctx context.Context, conversationID int64) error {
	return s.ack(ctx, http.MethodDelete, conversationPath(conversationID))
}

func (s *MessagingService) UnreadCount(ctx context.Context) (int, error) {
	var result messaging.CountResponse
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/messages/unread-count",
		Auth:   true,
	}, &result)
	if err != nil {
		return 0, err
	}
	return result.Count, nil
}

// ListApprovedUsers returns the people the caller may start a conversation with.
func (s *MessagingService) ListApprovedUsers(ctx context.Context) ([]user.User, error) {
	var items []user.UserResponse
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/users/approved",
		Auth:   true,
	}, &items)
	if err != nil {
		return nil, err
	}

	users := make([]user.User, 0, len(items))
	for _, it := range items {
		users = append(users, user.FromResponse(it))
	}
	return users, nil
}

func (s *MessagingService) ack(ctx context.Context, method, path string) error {
	var ack user.MessageResponse
	return s.client.Do(ctx, apiclient.Request{Method: method, Path: path, Auth: true}, &ack)
}

func conversationPath(id int64) string {
	return "/api/messages/conversations/" + strconv.FormatInt(id, 10)
}
