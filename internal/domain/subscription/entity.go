// internal/domain/subscription/entity.go
package subscription

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusTrial    Status = "trial"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusExpired  Status = "expired"
	StatusNone     Status = "none"
)

type Action string

const (
	ActionActivate   Action = "activate"
	ActionExtend     Action = "extend"
	ActionDeactivate Action = "deactivate"
)

// PeriodDays is the length of one activation or extension.
const PeriodDays = 30

func (a Action) Valid() bool {
	switch a {
	case ActionActivate, ActionExtend, ActionDeactivate:
		return true
	}
	return false
}

func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("unsupported action %q: use activate, extend or deactivate", s)
	}
	return a, nil
}

// Subscription is the caller's own billing state.
type Subscription struct {
	ID          int64      `json:"id,omitempty"`
	Status      Status     `json:"status"`
	PeriodStart *time.Time `json:"periodStart,omitempty"`
	PeriodEnd   *time.Time `json:"periodEnd,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	ActivatedBy string     `json:"activatedBy,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	IsActive    bool       `json:"isActive"`
}

// WithUser is the admin listing entry.
type WithUser struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"userId"`
	Status        Status     `json:"status"`
	PeriodStart   *time.Time `json:"periodStart,omitempty"`
	PeriodEnd     *time.Time `json:"periodEnd,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	ActivatedBy   string     `json:"activatedBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	IsActive      bool       `json:"isActive"`
	UserFirstName string     `json:"userFirstName"`
	UserLastName  string     `json:"userLastName"`
	UserEmail     string     `json:"userEmail"`
}

func (w WithUser) UserName() string {
	return strings.TrimSpace(w.UserFirstName + " " + w.UserLastName)
}

// ActiveAt is true for active or trial subscriptions whose period has not ended.
func ActiveAt(status Status, periodEnd *time.Time, now time.Time) bool {
	if status != StatusActive && status != StatusTrial {
		return false
	}
	return periodEnd != nil && periodEnd.After(now)
}

// DaysLeft returns whole days until periodEnd, never negative.
func (s *Subscription) DaysLeft(now time.Time) int {
	if s == nil || s.PeriodEnd == nil || !s.PeriodEnd.After(now) {
		return 0
	}
	return int(s.PeriodEnd.Sub(now).Hours() / 24)
}

type UpdateRequest struct {
	Action Action `json:"action"`
	Notes  string `json:"notes"`
}
