// internal/service/auth/controller.go
package auth

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"trackpro-client/internal/domain/user"
	xerrors "trackpro-client/internal/pkg/errors"
)

type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateError          State = "error"
)

const (
	defaultLoginError    = "Login failed"
	defaultRegisterError = "Registration failed"
)

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	User      *user.User
	IsLoading bool
	Error     string
	State     State
}

// Controller holds the signed-in user for the whole process. Construct one
// and pass it to whatever needs the current user.
type Controller struct {
	svc    *AuthService
	logger *zap.Logger

	mu        sync.RWMutex
	user      *user.User
	loading   bool
	errMsg    string
	state     State
	nextSubID int
	subs      map[int]func(Snapshot)
}

// NewController seeds the user from the local cache. Call Refresh to
// confirm it with the backend.
func NewController(ctx context.Context, svc *AuthService, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		svc:    svc,
		logger: logger,
		state:  StateAnonymous,
		subs:   make(map[int]func(Snapshot)),
	}

	cached, err := svc.CachedUser(ctx)
	if err != nil {
		logger.Warn("failed to read cached user", zap.Error(err))
	}
	if cached != nil {
		c.user = cached
		c.state = StateAuthenticated
	}
	return c
}

// StartController runs both init phases: the cached user is seeded at once
// and then confirmed with the backend before the controller is returned. A
// 401 leaves the controller signed out; other failures keep the cached user.
func StartController(ctx context.Context, svc *AuthService, logger *zap.Logger) *Controller {
	c := NewController(ctx, svc, logger)
	if err := c.Refresh(ctx); err != nil {
		c.logger.Debug("starting with unconfirmed cached user", zap.Error(err))
	}
	return c
}

// Refresh replaces the optimistic user with the backend's answer. A 401 signs
// the user out; any other failure keeps the cached user.
func (c *Controller) Refresh(ctx context.Context) error {
	u, err := c.svc.Me(ctx)
	if err != nil {
		if xerrors.IsUnauthorized(err) {
			c.setUser(nil)
			return nil
		}
		c.logger.Warn("could not confirm session, keeping cached user", zap.Error(err))
		return err
	}
	c.setUser(u)
	return nil
}

// Login signs in and becomes the current user. On failure the error message
// is recorded and the previous user is kept.
func (c *Controller) Login(ctx context.Context, creds user.LoginCredentials) (*user.User, error) {
	c.begin()
	u, err := c.svc.Login(ctx, creds)
	if err != nil {
		c.fail(xerrors.MessageOrDefault(err, defaultLoginError))
		return nil, err
	}

	c.mu.Lock()
	c.user = u
	c.loading = false
	c.errMsg = ""
	c.state = StateAuthenticated
	c.mu.Unlock()
	c.notify()
	return u, nil
}

// Register creates a pending account. It never changes the current user.
func (c *Controller) Register(ctx context.Context, data user.RegisterData) (*user.User, error) {
	c.begin()
	u, err := c.svc.Register(ctx, data)
	if err != nil {
		c.fail(xerrors.MessageOrDefault(err, defaultRegisterError))
		return nil, err
	}

	c.mu.Lock()
	c.loading = false
	c.errMsg = ""
	c.state = c.settledState()
	c.mu.Unlock()
	c.notify()
	return u, nil
}

// Logout clears the local session. The server call runs in the background.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.svc.Logout(ctx)
	c.setUser(nil)
	return err
}

// User returns the current user or nil.
func (c *Controller) User() *user.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Subscribe registers fn for state changes and returns its cancel func.
// fn runs on the goroutine that made the change.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Controller) begin() {
	c.mu.Lock()
	c.loading = true
	c.errMsg = ""
	c.state = StateAuthenticating
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) fail(msg string) {
	c.mu.Lock()
	c.loading = false
	c.errMsg = msg
	c.state = StateError
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) setUser(u *user.User) {
	c.mu.Lock()
	c.user = u
	c.state = c.settledState()
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) settledState() State {
	if c.user != nil {
		return StateAuthenticated
	}
	return StateAnonymous
}

func (c *Controller) snapshotLocked() Snapshot {
	var u *user.User
	if c.user != nil {
		cp := *c.user
		u = &cp
	}
	return Snapshot{
		User:      u,
		IsLoading: c.loading,
		Error:     c.errMsg,
		State:     c.state,
	}
}

func (c *Controller) notify() {
	c.mu.RLock()
	snap := c.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.RUnlock()

	for _, fn := range subs {
		fn(snap)
	}
}
