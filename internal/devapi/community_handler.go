// internal/devapi/community_handler.go
package devapi

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"trackpro-client/internal/domain/community"
	"trackpro-client/internal/middleware"
	"trackpro-client/internal/pkg/response"
)

const (
	maxPostLen    = 5000
	maxCommentLen = 2000
)

// rejectBanned answers 403 for banned users and reports whether it did.
func (h *Handler) rejectBanned(c *gin.Context, userID int64) bool {
	if h.store.IsBanned(userID) {
		response.Forbidden(c, "banned", "you are banned from the community")
		return true
	}
	return false
}

// ========== Posts ==========

func (h *Handler) ListPosts(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	if h.rejectBanned(c, id.User.ID) {
		return
	}
	cursor, ok := queryCursor(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, h.store.ListPosts(id.User.ID, cursor, queryLimit(c), c.Query("q")))
}

func (h *Handler) CreatePost(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	if h.rejectBanned(c, id.User.ID) {
		return
	}

	var req community.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		response.ValidationError(c, "content is required")
		return
	}
	if utf8.RuneCountInString(content) > maxPostLen {
		response.ValidationError(c, "post content must be at most 5000 characters")
		return
	}

	post := h.store.CreatePost(id.User.ID, content, req.ActivityID)
	h.logger.Info("post created", zap.Int64("user_id", id.User.ID), zap.Int64("post_id", post.ID))
	response.JSON(c, http.StatusCreated, post)
}

func (h *Handler) GetPost(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	postID, ok := pathID(c, "id", "post id")
	if !ok {
		return
	}
	detail, err := h.store.GetPost(id.User.ID, postID)
	if err != nil {
		response.NotFound(c, "post not found")
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// DeletePost is allowed to the author and to admins.
func (h *Handler) DeletePost(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	postID, ok := pathID(c, "id", "post id")
	if !ok {
		return
	}

	author, err := h.store.PostAuthor(postID)
	if err != nil {
		response.NotFound(c, "post not found")
		return
	}
	if author != id.User.ID && !middleware.IsAdmin(c) {
		response.Forbidden(c, "forbidden", "not authorized to delete this post")
		return
	}
	if err := h.store.DeletePost(postID); err != nil {
		response.NotFound(c, "post not found")
		return
	}
	response.Message(c, http.StatusOK, "post deleted")
}

func (h *Handler) PinPost(c *gin.Context) {
	postID, ok := pathID(c, "id", "post id")
	if !ok {
		return
	}
	var req community.PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body")
		return
	}
	if err := h.store.PinPost(postID, req.Pinned); err != nil {
		response.NotFound(c, "post not found")
		return
	}
	response.Message(c, http.StatusOK, "post updated")
}

func (h *Handler) ToggleReaction(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	postID, ok := pathID(c, "id", "post id")
	if !ok {
		return
	}

	var req community.ToggleReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Emoji) == "" {
		response.ValidationError(c, "emoji is required")
		return
	}

	added, err := h.store.ToggleReaction(postID, id.User.ID, req.Emoji)
	if err != nil {
		response.NotFound(c, "post not found")
		return
	}
	response.JSON(c, http.StatusOK, community.ToggleReactionResponse{Added: added})
}

// ========== Comments ==========

func (h *Handler) AddComment(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	if h.rejectBanned(c, id.User.ID) {
		return
	}
	postID, ok := pathID(c, "id", "post id")
	if !ok {
		return
	}

	var req community.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		response.ValidationError(c, "content is required")
		return
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		response.ValidationError(c, "comment content must be at most 2000 characters")
		return
	}

	comment, err := h.store.AddComment(postID, id.User.ID, content)
	if err != nil {
		response.NotFound(c, "post not found")
		return
	}
	response.JSON(c, http.StatusCreated, comment)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	id := middleware.MustGetIdentity(c)
	commentID, ok := pathID(c, "id", "comment id")
	if !ok {
		return
	}

	author, err := h.store.CommentAuthor(commentID)
	if err != nil {
		response.NotFound(c, "comment not found")
		return
	}
	if author != id.User.ID && !middleware.IsAdmin(c) {
		response.Forbidden(c, "forbidden", "not authorized to delete this comment")
		return
	}
	if err := h.store.DeleteComment(commentID); err != nil {
		response.NotFound(c, "comment not found")
		return
	}
	response.Message(c, http.StatusOK, "comment deleted")
}

// ========== Moderation ==========

func (h *Handler) BanUser(c *gin.Context) {
	admin := middleware.MustGetIdentity(c)

	var req community.BanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body")
		return
	}
	if req.UserID <= 0 {
		response.ValidationError(c, "userId is required")
		return
	}

	if err := h.store.Ban(req.UserID, admin.User.ID, strings.TrimSpace(req.Reason)); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.Internal(c, "failed to ban user")
		return
	}
	h.logger.Info("user banned from community",
		zap.Int64("admin_id", admin.User.ID),
		zap.Int64("user_id", req.UserID),
	)
	response.Message(c, http.StatusCreated, "user banned")
}

func (h *Handler) UnbanUser(c *gin.Context) {
	userID, ok := pathID(c, "userID", "user id")
	if !ok {
		return
	}
	h.store.Unban(userID)
	response.Message(c, http.StatusOK, "user unbanned")
}

func (h *Handler) ListBans(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.store.Bans())
}
