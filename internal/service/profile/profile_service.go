// internal/service/profile/profile_service.go
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"trackpro-client/internal/domain/profile"
	"trackpro-client/internal/pkg/background"
	"trackpro-client/internal/pkg/kvstore"
)

const storageKeyPrefix = "gpx_athlete_profile:"

// AvatarSyncer mirrors the avatar URL to the backend.
type AvatarSyncer interface {
	UpdateAvatar(ctx context.Context, avatarURL string) error
}

// ProfileService keeps athlete profiles in the local store, one per user id.
// Only the avatar URL leaves the device.
type ProfileService struct {
	store  kvstore.Store
	avatar AvatarSyncer
	runner *background.Runner
	logger *zap.Logger
}

func NewProfileService(store kvstore.Store, avatar AvatarSyncer, runner *background.Runner, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		store:  store,
		avatar: avatar,
		runner: runner,
		logger: logger,
	}
}

func storageKey(userID string) string {
	return storageKeyPrefix + userID
}

// Get returns the stored profile merged over the defaults. Missing or
// unreadable data yields the defaults.
func (s *ProfileService) Get(ctx context.Context, userID string) (profile.AthleteProfile, error) {
	p := profile.Default()

	raw, err := s.store.Get(ctx, storageKey(userID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Warn("discarding unreadable profile", zap.String("user_id", userID), zap.Error(err))
		return profile.Default(), nil
	}
	if p.SecondarySports == nil {
		p.SecondarySports = profile.Default().SecondarySports
	}
	return p, nil
}

// Save stores the profile locally. When the avatar changed it is pushed to
// the backend in the background; a failed push does not fail the save.
func (s *ProfileService) Save(ctx context.Context, userID string, p profile.AthleteProfile) error {
	previous, readErr := s.Get(ctx, userID)
	if readErr != nil {
		s.logger.Warn("could not read stored profile, skipping avatar sync", zap.String("user_id", userID), zap.Error(readErr))
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := s.store.Set(ctx, storageKey(userID), string(data)); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}

	if readErr == nil && p.AvatarURL != previous.AvatarURL && s.avatar != nil && s.runner != nil {
		avatarURL := p.AvatarURL
		s.runner.Go("avatar-sync", func(ctx context.Context) error {
			return s.avatar.UpdateAvatar(ctx, avatarURL)
		})
	}
	return nil
}
