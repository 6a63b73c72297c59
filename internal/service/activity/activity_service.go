// internal/service/activity/activity_service.go
package activity

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"trackpro-client/internal/domain/activity"
	"trackpro-client/internal/domain/page"
	"trackpro-client/internal/pkg/apiclient"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 100
)

// ActivityService reads the caller's activity archive. Every call needs an
// active subscription; the backend answers 402 otherwise.
type ActivityService struct {
	client *apiclient.Client
	logger *zap.Logger
}

func NewActivityService(client *apiclient.Client, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		client: client,
		logger: logger,
	}
}

// List returns the first page of the caller's activities.
func (s *ActivityService) List(ctx context.Context) ([]activity.Activity, error) {
	result, err := s.ListPage(ctx, DefaultPage, DefaultPageSize)
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

// ListPage returns one page of activities, newest first.
func (s *ActivityService) ListPage(ctx context.Context, pageNum, pageSize int) (page.Page[activity.Activity], error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(pageNum))
	query.Set("pageSize", strconv.Itoa(pageSize))

	var result page.Page[activity.ActivityResponse]
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/activities",
		Query:  query,
		Auth:   true,
	}, &result)
	if err != nil {
		return page.Page[activity.Activity]{}, err
	}

	return page.Map(result, activity.FromResponse), nil
}

// GetByID returns one activity with its elevation profile and map track.
func (s *ActivityService) GetByID(ctx context.Context, id string) (*activity.Statistics, error) {
	if id == "" {
		return nil, fmt.Errorf("activity id is required")
	}

	var result activity.ActivityResponse
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/activities/" + url.PathEscape(id),
		Auth:   true,
	}, &result)
	if err != nil {
		return nil, err
	}

	stats := activity.StatisticsFromResponse(result)
	return &stats, nil
}
