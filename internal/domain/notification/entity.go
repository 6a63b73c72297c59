// internal/domain/notification/entity.go
package notification

import "time"

type Notification struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"userId"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}

// Unread counts the notifications without a read timestamp.
func Unread(items []Notification) int {
	count := 0
	for _, n := range items {
		if !n.IsRead() {
			count++
		}
	}
	return count
}
