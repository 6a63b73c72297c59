// internal/devapi/store.go
package devapi

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"trackpro-client/internal/domain/activity"
	"trackpro-client/internal/domain/admin"
	"trackpro-client/internal/domain/community"
	"trackpro-client/internal/domain/messaging"
	"trackpro-client/internal/domain/notification"
	"trackpro-client/internal/domain/subscription"
	"trackpro-client/internal/domain/user"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrEmailTaken   = errors.New("email already registered")
	ErrNotAllowed   = errors.New("not allowed")
	ErrInvalidToken = errors.New("invalid or expired token")
)

type account struct {
	user.UserResponse
	passwordHash []byte
	googleLinked bool
}

type activityRecord struct {
	ownerID int64
	activity.ActivityResponse
}

type subscriptionRecord struct {
	id          int64
	userID      int64
	status      subscription.Status
	periodStart *time.Time
	periodEnd   *time.Time
	notes       string
	activatedBy string
	createdAt   time.Time
	updatedAt   time.Time
}

type postRecord struct {
	community.Post
	// emoji -> user ids, emojis kept in first-use order
	reactions map[string]map[int64]bool
	emojis    []string
}

type conversationRecord struct {
	id    int64
	userA int64
	userB int64
	// highest id hidden by the user's last clear
	clearedThrough map[int64]int64
	deletedBy      map[int64]bool
}

type resetToken struct {
	userID    int64
	expiresAt time.Time
}

// Store is the whole dev backend state. One mutex guards everything; the
// dev backend is not meant for load.
type Store struct {
	mu  sync.RWMutex
	seq int64
	now func() time.Time

	accounts      map[int64]*account
	activities    map[int64]*activityRecord
	subscriptions map[int64]*subscriptionRecord // by user id
	posts         map[int64]*postRecord
	comments      map[int64]*community.Comment
	bans          map[int64]community.Ban // by user id
	conversations map[int64]*conversationRecord
	messages      map[int64]*messaging.Message
	notifications map[int64]*notification.Notification
	actions       []admin.ActionResponse
	resetTokens   map[string]resetToken
	revoked       map[string]time.Time // jti -> token expiry
}

func NewStore() *Store {
	return &Store{
		now:           time.Now,
		accounts:      make(map[int64]*account),
		activities:    make(map[int64]*activityRecord),
		subscriptions: make(map[int64]*subscriptionRecord),
		posts:         make(map[int64]*postRecord),
		comments:      make(map[int64]*community.Comment),
		bans:          make(map[int64]community.Ban),
		conversations: make(map[int64]*conversationRecord),
		messages:      make(map[int64]*messaging.Message),
		notifications: make(map[int64]*notification.Notification),
		resetTokens:   make(map[string]resetToken),
		revoked:       make(map[string]time.Time),
	}
}

// nextID must be called with mu held. IDs grow across all entities, so
// "id < cursor" pagination follows creation order.
func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// ---------- accounts ----------

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) CreateAccount(first, last, email string, hash []byte, role user.Role, status user.Status) (user.UserResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = normalizeEmail(email)
	if s.findByEmailLocked(email) != nil {
		return user.UserResponse{}, ErrEmailTaken
	}

	a := &account{
		UserResponse: user.UserResponse{
			ID:        s.nextID(),
			FirstName: strings.TrimSpace(first),
			LastName:  strings.TrimSpace(last),
			Email:     email,
			Role:      role,
			Status:    status,
			CreatedAt: s.now().UTC(),
		},
		passwordHash: hash,
	}
	s.accounts[a.ID] = a
	return a.UserResponse, nil
}

func (s *Store) findByEmailLocked(email string) *account {
	for _, a := range s.accounts {
		if a.Email == email {
			return a
		}
	}
	return nil
}

// AccountByEmail returns the account with its password hash.
func (s *Store) AccountByEmail(email string) (user.UserResponse, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a := s.findByEmailLocked(normalizeEmail(email))
	if a == nil {
		return user.UserResponse{}, nil, ErrNotFound
	}
	return a.UserResponse, a.passwordHash, nil
}

func (s *Store) AccountByID(id int64) (user.UserResponse, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return user.UserResponse{}, nil, ErrNotFound
	}
	return a.UserResponse, a.passwordHash, nil
}

func (s *Store) AdminExists() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Role == user.RoleAdmin {
			return true
		}
	}
	return false
}

// ListAccounts filters by a case-insensitive search over name and email and
// an optional status, newest first.
func (s *Store) ListAccounts(search string, status user.Status) []user.UserResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]user.UserResponse, 0, len(s.accounts))
	for _, a := range s.accounts {
		if status != "" && a.Status != status {
			continue
		}
		if search != "" {
			hay := strings.ToLower(a.FirstName + " " + a.LastName + " " + a.Email)
			if !strings.Contains(hay, search) {
				continue
			}
		}
		out = append(out, a.UserResponse)
	}
	slices.SortFunc(out, func(a, b user.UserResponse) int { return cmp.Compare(b.ID, a.ID) })
	return out
}

// ApprovedAccounts lists approved users other than exclude, by name.
func (s *Store) ApprovedAccounts(exclude int64) []user.UserResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]user.UserResponse, 0)
	for _, a := range s.accounts {
		if a.ID == exclude || a.Status != user.StatusApproved {
			continue
		}
		out = append(out, a.UserResponse)
	}
	slices.SortFunc(out, func(a, b user.UserResponse) int {
		return strings.Compare(a.FirstName+" "+a.LastName, b.FirstName+" "+b.LastName)
	})
	return out
}

func (s *Store) SetStatus(adminID, targetID int64, status user.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.accounts[targetID]
	if !ok {
		return ErrNotFound
	}
	target.Status = status

	action := "reject"
	if status == user.StatusApproved {
		action = "approve"
	}
	entry := admin.ActionResponse{
		ID:           s.nextID(),
		AdminID:      adminID,
		TargetUserID: targetID,
		Action:       action,
		CreatedAt:    s.now().UTC(),
		TargetEmail:  target.Email,
	}
	if a, ok := s.accounts[adminID]; ok {
		entry.AdminEmail = a.Email
	}
	s.actions = append(s.actions, entry)
	return nil
}

// Actions returns up to limit moderation entries, newest first.
func (s *Store) Actions(limit int) []admin.ActionResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]admin.ActionResponse, 0, min(limit, len(s.actions)))
	for i := len(s.actions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.actions[i])
	}
	return out
}

func (s *Store) UpdateEmail(userID int64, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = normalizeEmail(email)
	if other := s.findByEmailLocked(email); other != nil && other.ID != userID {
		return ErrEmailTaken
	}
	a, ok := s.accounts[userID]
	if !ok {
		return ErrNotFound
	}
	a.Email = email
	return nil
}

func (s *Store) UpdatePassword(userID int64, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return ErrNotFound
	}
	a.passwordHash = hash
	return nil
}

func (s *Store) UpdateAvatar(userID int64, avatarURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return ErrNotFound
	}
	a.AvatarURL = avatarURL
	return nil
}

func (s *Store) UnlinkGoogle(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userID]
	if !ok {
		return ErrNotFound
	}
	a.googleLinked = false
	return nil
}

// DeleteAccount removes the account and everything it owns.
func (s *Store) DeleteAccount(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[userID]; !ok {
		return ErrNotFound
	}
	delete(s.accounts, userID)
	delete(s.subscriptions, userID)
	delete(s.bans, userID)

	for id, a := range s.activities {
		if a.ownerID == userID {
			delete(s.activities, id)
		}
	}
	for id, n := range s.notifications {
		if n.UserID == userID {
			delete(s.notifications, id)
		}
	}
	for id, p := range s.posts {
		if p.AuthorID == userID {
			s.deletePostLocked(id)
		}
	}
	for id, c := range s.comments {
		if c.AuthorID == userID {
			delete(s.comments, id)
		}
	}
	for id, conv := range s.conversations {
		if conv.userA == userID || conv.userB == userID {
			s.dropConversationLocked(id)
		}
	}
	return nil
}

// ---------- tokens ----------

func (s *Store) Revoke(jti string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[jti] = expiresAt
}

func (s *Store) IsRevoked(jti string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.revoked[jti]
	return ok
}

func (s *Store) SaveResetToken(token string, userID int64, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetTokens[token] = resetToken{userID: userID, expiresAt: s.now().Add(ttl)}
}

// ConsumeResetToken returns the owner of a live token and deletes it.
func (s *Store) ConsumeResetToken(token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.resetTokens[token]
	if !ok {
		return 0, ErrInvalidToken
	}
	delete(s.resetTokens, token)
	if s.now().After(rt.expiresAt) {
		return 0, ErrInvalidToken
	}
	return rt.userID, nil
}

// ---------- activities ----------

func (s *Store) CreateActivity(ownerID int64, a activity.ActivityResponse) activity.ActivityResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.nextID()
	s.activities[a.ID] = &activityRecord{ownerID: ownerID, ActivityResponse: a}
	return a
}

// ListActivities returns the owner's activities, newest first, without points.
func (s *Store) ListActivities(ownerID int64) []activity.ActivityResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]activity.ActivityResponse, 0)
	for _, rec := range s.activities {
		if rec.ownerID != ownerID {
			continue
		}
		a := rec.ActivityResponse
		a.Points = nil
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b activity.ActivityResponse) int {
		if c := b.ActivityDate.Compare(a.ActivityDate); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

func (s *Store) GetActivity(ownerID, id int64) (activity.ActivityResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.activities[id]
	if !ok || rec.ownerID != ownerID {
		return activity.ActivityResponse{}, ErrNotFound
	}
	return rec.ActivityResponse, nil
}

// ---------- subscriptions ----------

func (s *Store) subscriptionView(rec *subscriptionRecord) subscription.Subscription {
	created, updated := rec.createdAt, rec.updatedAt
	return subscription.Subscription{
		ID:          rec.id,
		Status:      rec.status,
		PeriodStart: rec.periodStart,
		PeriodEnd:   rec.periodEnd,
		Notes:       rec.notes,
		ActivatedBy: rec.activatedBy,
		CreatedAt:   &created,
		UpdatedAt:   &updated,
		IsActive:    subscription.ActiveAt(rec.status, rec.periodEnd, s.now()),
	}
}

// Subscription returns the user's record or status "none".
func (s *Store) Subscription(userID int64) subscription.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.subscriptions[userID]
	if !ok {
		return subscription.Subscription{Status: subscription.StatusNone}
	}
	return s.subscriptionView(rec)
}

func (s *Store) HasActiveSubscription(userID int64) bool {
	return s.Subscription(userID).IsActive
}

func (s *Store) ListSubscriptions() []subscription.WithUser {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]subscription.WithUser, 0, len(s.subscriptions))
	for _, rec := range s.subscriptions {
		view := s.subscriptionView(rec)
		entry := subscription.WithUser{
			ID:          rec.id,
			UserID:      rec.userID,
			Status:      rec.status,
			PeriodStart: rec.periodStart,
			PeriodEnd:   rec.periodEnd,
			Notes:       rec.notes,
			ActivatedBy: rec.activatedBy,
			CreatedAt:   rec.createdAt,
			UpdatedAt:   rec.updatedAt,
			IsActive:    view.IsActive,
		}
		if a, ok := s.accounts[rec.userID]; ok {
			entry.UserFirstName = a.FirstName
			entry.UserLastName = a.LastName
			entry.UserEmail = a.Email
		}
		out = append(out, entry)
	}
	slices.SortFunc(out, func(a, b subscription.WithUser) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out
}

// ApplySubscription runs an admin action. Activate starts a fresh period;
// extend adds a period to a running one (or starts one); deactivate keeps
// the dates and flips the status.
func (s *Store) ApplySubscription(userID int64, action subscription.Action, notes, activatedBy string) (subscription.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[userID]; !ok {
		return subscription.Subscription{}, ErrNotFound
	}

	now := s.now().UTC()
	rec, ok := s.subscriptions[userID]
	if !ok {
		rec = &subscriptionRecord{id: s.nextID(), userID: userID, createdAt: now}
		s.subscriptions[userID] = rec
	}

	period := time.Duration(subscription.PeriodDays) * 24 * time.Hour
	switch action {
	case subscription.ActionActivate:
		start, end := now, now.Add(period)
		rec.status, rec.periodStart, rec.periodEnd = subscription.StatusActive, &start, &end
	case subscription.ActionExtend:
		base := now
		if rec.periodEnd != nil && rec.periodEnd.After(now) {
			base = *rec.periodEnd
		} else {
			start := now
			rec.periodStart = &start
		}
		end := base.Add(period)
		rec.status, rec.periodEnd = subscription.StatusActive, &end
	case subscription.ActionDeactivate:
		rec.status = subscription.StatusInactive
	default:
		return subscription.Subscription{}, ErrNotAllowed
	}

	rec.notes = notes
	rec.activatedBy = activatedBy
	rec.updatedAt = now
	return s.subscriptionView(rec), nil
}

// ---------- notifications ----------

func (s *Store) Notify(userID int64, title, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyLocked(userID, title, body)
}

func (s *Store) notifyLocked(userID int64, title, body string) {
	id := s.nextID()
	s.notifications[id] = &notification.Notification{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Body:      body,
		CreatedAt: s.now().UTC(),
	}
}

// Notifications returns up to limit entries, newest first.
func (s *Store) Notifications(userID int64, limit int) []notification.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]notification.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	slices.SortFunc(out, func(a, b notification.Notification) int { return cmp.Compare(b.ID, a.ID) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *Store) UnreadNotifications(userID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead() {
			count++
		}
	}
	return count
}

func (s *Store) MarkNotificationsRead(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	for _, n := range s.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			n.ReadAt = &now
		}
	}
}

func (s *Store) ClearNotifications(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, n := range s.notifications {
		if n.UserID == userID {
			delete(s.notifications, id)
		}
	}
}
