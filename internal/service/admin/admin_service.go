// internal/service/admin/admin_service.go
package admin

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"trackpro-client/internal/domain/admin"
	"trackpro-client/internal/domain/page"
	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/pkg/apiclient"
)

const DefaultPageSize = 50

// AdminService covers the user moderation endpoints. All calls require an
// admin token.
type AdminService struct {
	client *apiclient.Client
	logger *zap.Logger
}

func NewAdminService(client *apiclient.Client, logger *zap.Logger) *AdminService {
	return &AdminService{
		client: client,
		logger: logger,
	}
}

// ListUsers returns the first page of accounts, pending ones included.
func (s *AdminService) ListUsers(ctx context.Context) ([]user.User, error) {
	result, err := s.ListUsersPage(ctx, 1, DefaultPageSize)
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

func (s *AdminService) ListUsersPage(ctx context.Context, pageNum, pageSize int) (page.Page[user.User], error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(pageNum))
	query.Set("pageSize", strconv.Itoa(pageSize))

	var result page.Page[user.UserResponse]
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/admin/users",
		Query:  query,
		Auth:   true,
	}, &result)
	if err != nil {
		return page.Page[user.User]{}, err
	}
	return page.Map(result, user.FromResponse), nil
}

// Stats derives dashboard counters from the user list.
func (s *AdminService) Stats(ctx context.Context) (admin.Stats, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return admin.Stats{}, err
	}
	return admin.StatsFromUsers(users), nil
}

func (s *AdminService) ApproveUser(ctx context.Context, userID string) error {
	return s.moderate(ctx, http.MethodPatch, "/api/admin/users/"+url.PathEscape(userID)+"/approve")
}

func (s *AdminService) RejectUser(ctx context.Context, userID string) error {
	return s.moderate(ctx, http.MethodPatch, "/api/admin/users/"+url.PathEscape(userID)+"/reject")
}

func (s *AdminService) DeleteUser(ctx context.Context, userID string) error {
	return s.moderate(ctx, http.MethodDelete, "/api/admin/users/"+url.PathEscape(userID))
}

// ActionTimeline returns past approve/reject decisions, newest first.
func (s *AdminService) ActionTimeline(ctx context.Context) ([]admin.Action, error) {
	var items []admin.ActionResponse
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/admin/actions",
		Auth:   true,
	}, &items)
	if err != nil {
		return nil, err
	}

	actions := make([]admin.Action, 0, len(items))
	for _, it := range items {
		actions = append(actions, admin.ActionFromResponse(it))
	}
	return actions, nil
}

func (s *AdminService) moderate(ctx context.Context, method, path string) error {
	var ack user.MessageResponse
	if err := s.client.Do(ctx, apiclient.Request{Method: method, Path: path, Auth: true}, &ack); err != nil {
		return err
	}
	s.logger.Info("moderation applied", zap.String("method", method), zap.String("path", path))
	return nil
}
