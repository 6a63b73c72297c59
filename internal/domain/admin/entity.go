// internal/domain/admin/entity.go
package admin

import (
	"strconv"
	"time"

	"trackpro-client/internal/domain/user"
)

type Stats struct {
	TotalUsers    int `json:"totalUsers"`
	PendingUsers  int `json:"pendingUsers"`
	ApprovedUsers int `json:"approvedUsers"`
	RejectedUsers int `json:"rejectedUsers"`
}

// StatsFromUsers derives dashboard counters from an already fetched user list.
func StatsFromUsers(users []user.User) Stats {
	s := Stats{TotalUsers: len(users)}
	for _, u := range users {
		switch u.Status {
		case user.StatusPending:
			s.PendingUsers++
		case user.StatusApproved:
			s.ApprovedUsers++
		case user.StatusRejected:
			s.RejectedUsers++
		}
	}
	return s
}

// Action is one entry of the moderation timeline.
type Action struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	TargetUser string    `json:"targetUser"`
	Timestamp  time.Time `json:"timestamp"`
}

// ActionResponse is the timeline entry on the wire.
type ActionResponse struct {
	ID           int64     `json:"id"`
	AdminID      int64     `json:"adminId"`
	TargetUserID int64     `json:"targetUserId"`
	Action       string    `json:"action"` // approve | reject
	CreatedAt    time.Time `json:"createdAt"`
	AdminEmail   string    `json:"adminEmail"`
	TargetEmail  string    `json:"targetEmail"`
}

func ActionFromResponse(r ActionResponse) Action {
	label := "Rejected"
	if r.Action == "approve" {
		label = "Approved"
	}
	return Action{
		ID:         strconv.FormatInt(r.ID, 10),
		Action:     label,
		TargetUser: r.TargetEmail,
		Timestamp:  r.CreatedAt,
	}
}
