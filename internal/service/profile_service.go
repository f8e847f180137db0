package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
	"github.com/ccellsty/oryxchatfrfr/internal/observability"
	"github.com/ccellsty/oryxchatfrfr/internal/repository"
)

// ProfileService provides profile business logic. Profiles are created
// lazily: the first authenticated request for a user without one gets a
// generated username and the default theme.
type ProfileService struct {
	profiles repository.ProfileRepository
}

// NewProfileService returns a new ProfileService.
func NewProfileService(profiles repository.ProfileRepository) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// EnsureProfile loads the user's profile, creating a default one when
// none exists yet.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	}

	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return nil, models.NewInternalError(err)
	}
	profile = &models.Profile{
		ID:       userID,
		Username: "user_" + hex.EncodeToString(suffix),
		Theme:    models.DefaultTheme,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}

	observability.Logger.InfoContext(ctx, "profile created lazily",
		"user_id", userID, "username", profile.Username)
	return profile, nil
}

// Get returns a profile by id.
func (s *ProfileService) Get(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.profiles.GetByID(ctx, userID)
}

// GetByUsername returns a profile by username.
func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return s.profiles.GetByUsername(ctx, username)
}

// UpdateProfile changes a user's username and display name.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uint, username, displayName string) (*models.Profile, error) {
	username = strings.TrimSpace(username)
	if !models.ValidUsername(username) {
		return nil, models.NewValidationError("username must be 3-20 characters of letters, digits, or underscore")
	}

	profile, err := s.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if username != profile.Username {
		existing, err := s.profiles.GetByUsername(ctx, username)
		if err != nil && !models.IsCode(err, models.CodeNotFound) {
			return nil, err
		}
		if existing != nil && existing.ID != userID {
			return nil, models.NewValidationError(fmt.Sprintf("username %q is taken", username))
		}
	}

	profile.Username = username
	profile.DisplayName = displayName
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateTheme replaces a user's theme settings.
func (s *ProfileService) UpdateTheme(ctx context.Context, userID uint, theme models.ThemeSettings) (*models.Profile, error) {
	profile, err := s.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.Theme = theme
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// SetAvatarURL records a new avatar location after a successful upload.
func (s *ProfileService) SetAvatarURL(ctx context.Context, userID uint, url string) (*models.Profile, error) {
	profile, err := s.EnsureProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.AvatarURL = url
	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
