// internal/service/community/community_service.go
package community

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"trackpro-client/internal/domain/community"
	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/pkg/apiclient"
)

// CommunityService wraps the shared feed: posts, comments, reactions and
// moderation bans.
type CommunityService struct {
	client *apiclient.Client
	logger *zap.Logger
}

func NewCommunityService(client *apiclient.Client, logger *zap.Logger) *CommunityService {
	return &CommunityService{
		client: client,
		logger: logger,
	}
}

// ListPosts returns one cursor page of the feed, pinned posts first.
func (s *CommunityService) ListPosts(ctx context.Context, filter community.FeedFilter) (*community.Feed, error) {
	query := url.Values{}
	if filter.Cursor != nil && *filter.Cursor > 0 {
		query.Set("cursor", strconv.FormatInt(*filter.Cursor, 10))
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		query.Set("q", q)
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	var feed community.Feed
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/community/posts",
		Query:  query,
		Auth:   true,
	}, &feed)
	if err != nil {
		return nil, err
	}
	if feed.Posts == nil {
		feed.Posts = []community.Post{}
	}
	return &feed, nil
}

func (s *CommunityService) CreatePost(ctx context.Context, content string, activityID *int64) (*community.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("post content is required")
	}

	var post community.Post
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/api/community/posts",
		Body:   community.CreatePostRequest{Content: content, ActivityID: activityID},
		Auth:   true,
	}, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPost returns a post together with its comments.
func (s *CommunityService) GetPost(ctx context.Context, id int64) (*community.PostDetail, error) {
	var detail community.PostDetail
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   postPath(id),
		Auth:   true,
	}, &detail)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *CommunityService) DeletePost(ctx context.Context, id int64) error {
	return s.ack(ctx, http.MethodDelete, postPath(id), nil)
}

func (s *CommunityService) AddComment(ctx context.Context, postID int64, content string) (*community.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment content is required")
	}

	var comment community.Comment
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   postPath(postID) + "/comments",
		Body:   community.AddCommentRequest{Content: content},
		Auth:   true,
	}, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *CommunityService) DeleteComment(ctx context.Context, id int64) error {
	return s.ack(ctx, http.MethodDelete, "/api/community/comments/"+strconv.FormatInt(id, 10), nil)
}

// ToggleReaction adds the emoji reaction, or removes it when already present.
func (s *CommunityService) ToggleReaction(ctx context.Context, postID int64, emoji string) (bool, error) {
	var result community.ToggleReactionResponse
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   postPath(postID) + "/reactions",
		Body:   community.ToggleReactionRequest{Emoji: emoji},
		Auth:   true,
	}, &result)
	if err != nil {
		return false, err
	}
	return result.Added, nil
}

func (s *CommunityService) PinPost(ctx context.Context, id int64, pinned bool) error {
	return s.ack(ctx, http.MethodPut, postPath(id)+"/pin", community.PinRequest{Pinned: pinned})
}

func (s *CommunityService) BanUser(ctx context.Context, userID int64, reason string) error {
	err := s.ack(ctx, http.MethodPost, "/api/community/bans", community.BanRequest{UserID: userID, Reason: reason})
	if err != nil {
		return err
	}
	s.logger.Info("community ban added", zap.Int64("user_id", userID))
	return nil
}

func (s *CommunityService) UnbanUser(ctx context.Context, userID int64) error {
	return s.ack(ctx, http.MethodDelete, "/api/community/bans/"+strconv.FormatInt(userID, 10), nil)
}

func (s *CommunityService) ListBans(ctx context.Context) ([]community.Ban, error) {
	var bans []community.Ban
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/community/bans",
		Auth:   true,
	}, &bans)
	if err != nil {
		return nil, err
	}
	return bans, nil
}

func (s *CommunityService) ack(ctx context.Context, method, path string, body any) error {
	var ack user.MessageResponse
	return s.client.Do(ctx, apiclient.Request{Method: method, Path: path, Body: body, Auth: true}, &ack)
}

func postPath(id int64) string {
	return "/api/community/posts/" + strconv.FormatInt(id, 10)
}
