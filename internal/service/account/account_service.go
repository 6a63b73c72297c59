// internal/service/account/account_service.go
package account

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"trackpro-client/internal/domain/user"
	"trackpro-client/internal/pkg/apiclient"
)

// AccountService changes credentials and identity links of the signed-in user.
type AccountService struct {
	client *apiclient.Client
	logger *zap.Logger
}

func NewAccountService(client *apiclient.Client, logger *zap.Logger) *AccountService {
	return &AccountService{
		client: client,
		logger: logger,
	}
}

func (s *AccountService) ChangeEmail(ctx context.Context, newEmail, currentPassword string) error {
	newEmail = strings.TrimSpace(newEmail)
	if newEmail == "" {
		return fmt.Errorf("new email is required")
	}
	return s.ack(ctx, http.MethodPut, "/api/account/email", user.ChangeEmailRequest{
		NewEmail:        newEmail,
		CurrentPassword: currentPassword,
	})
}

func (s *AccountService) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	return s.ack(ctx, http.MethodPut, "/api/account/password", user.ChangePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	})
}

// StartGoogleLink returns the OAuth URL the user has to open to link a
// Google identity.
func (s *AccountService) StartGoogleLink(ctx context.Context) (string, error) {
	var result user.GoogleLinkResponse
	err := s.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   "/auth/google/link",
		Auth:   true,
	}, &result)
	if err != nil {
		return "", err
	}
	return result.URL, nil
}

func (s *AccountService) UnlinkGoogle(ctx context.Context) error {
	return s.ack(ctx, http.MethodDelete, "/api/account/google", nil)
}

// UpdateAvatar stores the avatar URL on the backend so peers can see it.
func (s *AccountService) UpdateAvatar(ctx context.Context, avatarURL string) error {
	return s.ack(ctx, http.MethodPut, "/api/users/avatar", user.UpdateAvatarRequest{AvatarURL: avatarURL})
}

// DeleteAccount removes the caller's account. The session token is useless
// afterwards; callers are expected to log out.
func (s *AccountService) DeleteAccount(ctx context.Context) error {
	if err := s.ack(ctx, http.MethodDelete, "/api/users/me", nil); err != nil {
		return err
	}
	s.logger.Info("account deleted")
	return nil
}

func (s *AccountService) ack(ctx context.Context, method, path string, body any) error {
	var ack user.MessageResponse
	return s.client.Do(ctx, apiclient.Request{Method: method, Path: path, Body: body, Auth: true}, &ack)
}
