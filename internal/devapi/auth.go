// internal/devapi/auth.go
package devapi

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/middleware"
	"trackpro-client/internal/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPendingApproval    = errors.New("account is pending admin approval")
	ErrRejectedAccount    = errors.New("account has been rejected")
	ErrSessionRevoked     = errors.New("session has been logged out")
)

const (
	TokenIssuer = "trackpro-devapi"

	minPasswordLen = 8
	maxNameLen     = 100
	maxEmailLen    = 255
	resetTokenTTL  = time.Hour
)

// InputError is a request problem reported back to the caller verbatim.
type InputError string

func (e InputError) Error() string { return string(e) }

// AuthService owns credentials, tokens and password resets.
type AuthService struct {
	store    *Store
	tokens   *jwt.Manager
	mailer   Mailer
	resetURL string
	hashCost int
	logger   *zap.Logger
}

func NewAuthService(store *Store, tokens *jwt.Manager, mailer Mailer, resetURL string, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:    store,
		tokens:   tokens,
		mailer:   mailer,
		resetURL: resetURL,
		hashCost: bcrypt.DefaultCost,
		logger:   logger,
	}
}

func (s *AuthService) hashPassword(raw string) ([]byte, error) {
	if len(strings.TrimSpace(raw)) < minPasswordLen {
		return nil, InputError("password must contain at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), s.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, InputError("password must be at most 72 bytes")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

func validEmail(email string) bool {
	return strings.Contains(email, "@") && len(email) <= maxEmailLen
}

// Register creates a pending account; no token is issued.
func (s *AuthService) Register(ctx context.Context, req user.RegisterRequest) (user.UserResponse, error) {
	first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
	email := normalizeEmail(req.Email)

	switch {
	case first == "" || last == "":
		return user.UserResponse{}, InputError("firstName and lastName are required")
	case len(first) > maxNameLen || len(last) > maxNameLen:
		return user.UserResponse{}, InputError("firstName and lastName must be at most 100 characters")
	case len(email) > maxEmailLen:
		return user.UserResponse{}, InputError("email must be at most 255 characters")
	case !validEmail(email):
		return user.UserResponse{}, InputError("invalid email")
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return user.UserResponse{}, err
	}

	u, err := s.store.CreateAccount(first, last, email, hash, user.RoleUser, user.StatusPending)
	if err != nil {
		return user.UserResponse{}, err
	}
	s.logger.Info("account registered", zap.Int64("user_id", u.ID), zap.String("email", u.Email))
	return u, nil
}

// Login checks the password before the account status, so a wrong
// password never reveals whether an account is pending.
func (s *AuthService) Login(ctx context.Context, creds user.LoginCredentials) (user.LoginResponse, error) {
	u, hash, err := s.store.AccountByEmail(creds.Email)
	if err != nil {
		return user.LoginResponse{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)) != nil {
		return user.LoginResponse{}, ErrInvalidCredentials
	}

	switch u.Status {
	case user.StatusPending:
		return user.LoginResponse{}, ErrPendingApproval
	case user.StatusRejected:
		return user.LoginResponse{}, ErrRejectedAccount
	}

	token, _, _, err := s.tokens.Generator.Generate(u.ID, string(u.Role), u.Email)
	if err != nil {
		return user.LoginResponse{}, fmt.Errorf("failed to issue token: %w", err)
	}
	s.logger.Info("user logged in", zap.Int64("user_id", u.ID))
	return user.LoginResponse{Token: token, User: u}, nil
}

// Logout blacklists the token id until the token would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, id *middleware.Identity) {
	s.store.Revoke(id.JTI, id.ExpiresAt)
	s.logger.Info("user logged out", zap.Int64("user_id", id.User.ID))
}

// Authenticate resolves a bearer token to the current account state, so
// approvals and role changes apply without a new login.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*middleware.Identity, error) {
	claims, err := s.tokens.Verifier.Verify(token)
	if err != nil {
		return nil, err
	}
	if s.store.IsRevoked(claims.ID) {
		return nil, ErrSessionRevoked
	}
	u, _, err := s.store.AccountByID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("token subject: %w", err)
	}

	id := &middleware.Identity{User: u, JTI: claims.ID}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// ForgotPassword mails a reset link when the address is known. Unknown
// addresses succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, _, err := s.store.AccountByEmail(email)
	if err != nil {
		return nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	s.store.SaveResetToken(token, u.ID, resetTokenTTL)

	link := s.resetURL + "?token=" + token
	if err := s.mailer.Send(u.Email, "Reset your GPX TrackPro password", resetEmailBody(u.FirstName, link)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Info("password reset requested", zap.Int64("user_id", u.ID))
	return nil
}

// ResetPassword spends a reset token. Tokens are single use.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if strings.TrimSpace(token) == "" {
		return InputError("token is required")
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	userID, err := s.store.ConsumeResetToken(token)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(userID, hash)
}

// ChangeEmail requires the current password.
func (s *AuthService) ChangeEmail(ctx context.Context, userID int64, req user.ChangeEmailRequest) error {
	email := normalizeEmail(req.NewEmail)
	if !validEmail(email) {
		return InputError("invalid email")
	}
	if err := s.checkPassword(userID, req.CurrentPassword); err != nil {
		return err
	}
	return s.store.UpdateEmail(userID, email)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req user.ChangePasswordRequest) error {
	if err := s.checkPassword(userID, req.CurrentPassword); err != nil {
		return err
	}
	hash, err := s.hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(userID, hash)
}

func (s *AuthService) checkPassword(userID int64, password string) error {
	_, hash, err := s.store.AccountByID(userID)
	if err != nil || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// EnsureAdmin seeds an approved admin account unless one exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	if s.store.AdminExists() {
		s.logger.Info("admin already exists, skipping creation")
		return nil
	}
	if email == "" || password == "" {
		return fmt.Errorf("admin email and password must be provided")
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return fmt.Errorf("admin password: %w", err)
	}
	u, err := s.store.CreateAccount("Admin", "User", email, hash, user.RoleAdmin, user.StatusApproved)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	s.logger.Info("admin account created", zap.Int64("user_id", u.ID), zap.String("email", u.Email))
	return nil
}

// SubscriptionGate adapts the store to the middleware's checker.
type SubscriptionGate struct {
	store *Store
}

func NewSubscriptionGate(store *Store) SubscriptionGate {
	return SubscriptionGate{store: store}
}

func (g SubscriptionGate) HasActiveSubscription(_ context.Context, userID int64) bool {
	return g.store.HasActiveSubscription(userID)
}
