// internal/domain/user/entity.go
package user

import (
	"strconv"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// User is the client-side view of an account. It is also what gets cached
// locally between runs.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Status    Status    `json:"status"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

func (u *User) IsApproved() bool {
	return u != nil && u.Status == StatusApproved
}

// FromResponse maps the backend user shape to the view model.
func FromResponse(r UserResponse) User {
	return User{
		ID:        strconv.FormatInt(r.ID, 10),
		Name:      strings.TrimSpace(r.FirstName + " " + r.LastName),
		Email:     r.Email,
		Role:      r.Role,
		Status:    r.Status,
		AvatarURL: r.AvatarURL,
		CreatedAt: r.CreatedAt,
	}
}

// SplitName turns a single display name into first/last name. The first
// whitespace-delimited token is the first name, the rest the last name;
// missing parts become "User".
func SplitName(name string) (first, last string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "User", "User"
	}
	first = fields[0]
	last = strings.Join(fields[1:], " ")
	if last == "" {
		last = "User"
	}
	return first, last
}
