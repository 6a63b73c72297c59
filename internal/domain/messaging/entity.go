// internal/domain/messaging/entity.go
package messaging

import "time"

type Conversation struct {
	ID              int64     `json:"id"`
	OtherUserID     int64     `json:"otherUserId"`
	OtherUserName   string    `json:"otherUserName"`
	OtherUserAvatar string    `json:"otherUserAvatar,omitempty"`
	LastMessage     string    `json:"lastMessage"`
	LastMessageAt   time.Time `json:"lastMessageAt"`
	UnreadCount     int       `json:"unreadCount"`
}

type Message struct {
	ID             int64      `json:"id"`
	ConversationID int64      `json:"conversationId"`
	SenderID       int64      `json:"senderId"`
	Content        string     `json:"content"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Thread is the cursor envelope of a conversation's messages.
type Thread struct {
	Messages   []Message `json:"messages"`
	NextCursor *int64    `json:"nextCursor"`
}

type CreateConversationRequest struct {
	UserID int64 `json:"userId"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

// CountResponse is the {count} body of the unread-count endpoints.
type CountResponse struct {
	Count int `json:"count"`
}
