// internal/service/auth/auth_service.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/pkg/apiclient"
	"trackpro-client/internal/pkg/background"
	xerrors "trackpro-client/internal/pkg/errors"
	"trackpro-client/internal/pkg/session"
)

// AuthService talks to the auth endpoints and owns the persisted session:
// the token store and the cached user.
type AuthService struct {
	client *apiclient.Client
	tokens *session.TokenStore
	users  *session.UserCache
	runner *background.Runner
	logger *zap.Logger
}

func NewAuthService(
	client *apiclient.Client,
	tokens *session.TokenStore,
	users *session.UserCache,
	runner *background.Runner,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		client: client,
		tokens: tokens,
		users:  users,
		runner: runner,
		logger: logger,
	}
}

// Login exchanges credentials for a token. On success both the token and the
// user are persisted; on failure nothing is written.
func (s *AuthService) Login(ctx context.Context, creds user.LoginCredentials) (*user.User, error) {
	var result user.LoginResponse
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/login",
		Body:   user.LoginCredentials{Email: strings.TrimSpace(creds.Email), Password: creds.Password},
	}, &result)
	if err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}

	previous, err := s.tokens.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read current token: %w", err)
	}

	u := user.FromResponse(result.User)
	if err := s.tokens.Set(ctx, result.Token); err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, u); err != nil {
		s.restoreToken(ctx, previous)
		return nil, err
	}

	s.logger.Info("logged in", zap.String("user_id", u.ID), zap.String("status", string(u.Status)))
	return &u, nil
}

// restoreToken puts back the token that was stored before a failed login.
func (s *AuthService) restoreToken(ctx context.Context, previous string) {
	var err error
	if previous == "" {
		err = s.tokens.Clear(ctx)
	} else {
		err = s.tokens.Set(ctx, previous)
	}
	if err != nil {
		s.logger.Error("failed to restore token after user save failure", zap.Error(err))
	}
}

// Register creates a pending account. The backend issues no token, so the
// caller stays anonymous until an admin approves the account and they log in.
func (s *AuthService) Register(ctx context.Context, data user.RegisterData) (*user.User, error) {
	first, last := user.SplitName(data.Name)

	var result user.RegisterResponse
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/register",
		Body: user.RegisterRequest{
			FirstName: first,
			LastName:  last,
			Email:     strings.TrimSpace(data.Email),
			Password:  data.Password,
		},
	}, &result)
	if err != nil {
		return nil, err
	}

	u := user.FromResponse(result.User)
	return &u, nil
}

// Logout clears the local session unconditionally. The server side logout
// runs detached with the captured token and its failure is only logged.
func (s *AuthService) Logout(ctx context.Context) error {
	token, err := s.tokens.Get(ctx)
	if err != nil {
		s.logger.Warn("failed to read token before logout", zap.Error(err))
	}

	if token != "" && s.runner != nil {
		s.runner.Go("server-logout", func(ctx context.Context) error {
			var ack user.MessageResponse
			return s.client.Do(ctx, apiclient.Request{
				Method: http.MethodPost,
				Path:   "/api/auth/logout",
				Auth:   true,
				Token:  token,
			}, &ack)
		})
	}

	return errors.Join(s.tokens.Clear(ctx), s.users.Clear(ctx))
}

// Me asks the backend who the token belongs to. It returns nil without a
// token, and nil after wiping the session when the backend answers 401.
// Any other failure is returned unchanged.
func (s *AuthService) Me(ctx context.Context) (*user.User, error) {
	token, err := s.tokens.Get(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	var result user.UserResponse
	err = s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/api/auth/me",
		Auth:   true,
		Token:  token,
	}, &result)
	if err != nil {
		if xerrors.IsUnauthorized(err) {
			s.logger.Info("session rejected by backend, clearing local session")
			return nil, errors.Join(s.tokens.Clear(ctx), s.users.Clear(ctx))
		}
		return nil, err
	}

	u := user.FromResponse(result)
	if err := s.users.Save(ctx, u); err != nil {
		s.logger.Warn("failed to cache user", zap.Error(err))
	}
	return &u, nil
}

// CachedUser returns the last persisted user without a network call.
func (s *AuthService) CachedUser(ctx context.Context) (*user.User, error) {
	return s.users.Get(ctx)
}

// HasToken reports whether a session token is stored.
func (s *AuthService) HasToken(ctx context.Context) (bool, error) {
	token, err := s.tokens.Get(ctx)
	return token != "", err
}

// ForgotPassword asks the backend to mail a reset link. The backend answers
// the same way whether or not the address exists.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	var ack user.MessageResponse
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/forgot-password",
		Body:   user.ForgotPasswordRequest{Email: strings.TrimSpace(email)},
	}, &ack)
	if err != nil {
		return "", err
	}
	return ack.Message, nil
}

func (s *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	var ack user.MessageResponse
	return s.client.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/api/auth/reset-password",
		Body:   user.ResetPasswordRequest{Token: resetToken, Password: newPassword},
	}, &ack)
}
