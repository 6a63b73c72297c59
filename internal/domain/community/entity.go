// internal/domain/community/entity.go
package community

import "time"

// The community wire shapes are used as view models unchanged.

type Reaction struct {
	Emoji   string `json:"emoji"`
	Count   int    `json:"count"`
	Reacted bool   `json:"reacted"`
}

type Post struct {
	ID           int64      `json:"id"`
	AuthorID     int64      `json:"authorId"`
	AuthorName   string     `json:"authorName"`
	AuthorAvatar string     `json:"authorAvatar,omitempty"`
	Content      string     `json:"content"`
	ActivityID   *int64     `json:"activityId,omitempty"`
	Pinned       bool       `json:"pinned"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Reactions    []Reaction `json:"reactions"`
	CommentCount int        `json:"commentCount"`
}

type Comment struct {
	ID           int64     `json:"id"`
	PostID       int64     `json:"postId"`
	AuthorID     int64     `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	AuthorAvatar string    `json:"authorAvatar,omitempty"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Ban struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	UserName  string    `json:"userName"`
	UserEmail string    `json:"userEmail"`
	BannedBy  int64     `json:"bannedBy"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReactionCount returns the count for emoji and whether the caller reacted.
func (p *Post) ReactionCount(emoji string) (int, bool) {
	for _, r := range p.Reactions {
		if r.Emoji == emoji {
			return r.Count, r.Reacted
		}
	}
	return 0, false
}
