// internal/domain/community/dto.go
package community

// Feed is the cursor envelope of GET /api/community/posts.
type Feed struct {
	Posts      []Post `json:"posts"`
	NextCursor *int64 `json:"nextCursor"`
}

// PostDetail is GET /api/community/posts/{id}
type PostDetail struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
}

type FeedFilter struct {
	Cursor *int64
	Search string
	Limit  int
}

type CreatePostRequest struct {
	Content    string `json:"content"`
	ActivityID *int64 `json:"activityId,omitempty"`
}

type AddCommentRequest struct {
	Content string `json:"content"`
}

type ToggleReactionRequest struct {
	Emoji string `json:"emoji"`
}

type ToggleReactionResponse struct {
	Added bool `json:"added"`
}

type PinRequest struct {
	Pinned bool `json:"pinned"`
}

type BanRequest struct {
	UserID int64  `json:"userId"`
	Reason string `json:"reason"`
}
