package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
	"github.com/ccellsty/oryxchatfrfr/internal/observability"
	"github.com/ccellsty/oryxchatfrfr/internal/repository"
)

// Cache holds the signed-in user's profile, creating it on first sight.
// All reads after Hydrate are served from memory; writes go through the
// repository first and update the cached copy only on success.
type Cache struct {
	provider Provider
	profiles repository.ProfileRepository

	mu        sync.Mutex
	userID    uint
	profile   *models.Profile
	listeners map[int]func(models.Profile)
	nextID    int
}

// NewCache wires a profile cache to a session provider and profile store.
func NewCache(provider Provider, profiles repository.ProfileRepository) *Cache {
	return &Cache{
		provider:  provider,
		profiles:  profiles,
		listeners: make(map[int]func(models.Profile)),
	}
}

// Hydrate resolves the current session and loads (or lazily creates) the
// matching profile. Returns UNAUTHORIZED when no session is active.
func (c *Cache) Hydrate(ctx context.Context) (*models.Profile, error) {
	session, err := c.provider.Session(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, models.NewUnauthorizedError("no active session")
	}

	profile, err := c.profiles.GetByID(ctx, session.UserID)
	if models.IsCode(err, models.CodeNotFound) {
		profile, err = c.createDefault(ctx, session.UserID)
	}
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.userID = session.UserID
	c.profile = profile
	c.mu.Unlock()

	observability.Logger.InfoContext(ctx, "profile hydrated",
		"user_id", session.UserID, "username", profile.Username)

	snap := *profile
	c.notify(snap)
	return &snap, nil
}

func (c *Cache) createDefault(ctx context.Context, userID uint) (*models.Profile, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return nil, models.NewInternalError(err)
	}
	profile := &models.Profile{
		ID:       userID,
		Username: "user_" + hex.EncodeToString(suffix),
		Theme:    models.DefaultTheme,
	}
	if err := c.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UserID returns the hydrated user's id, or 0 before Hydrate.
func (c *Cache) UserID() uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// Profile returns a copy of the cached profile, or nil before Hydrate.
func (c *Cache) Profile() *models.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return nil
	}
	snap := *c.profile
	return &snap
}

// UpdateProfile changes the username and display name. The username must
// pass validation and not collide with another profile.
func (c *Cache) UpdateProfile(ctx context.Context, username, displayName string) (*models.Profile, error) {
	username = strings.TrimSpace(username)
	if !models.ValidUsername(username) {
		return nil, models.NewValidationError("username must be 3-20 characters of letters, digits, or underscore")
	}

	c.mu.Lock()
	if c.profile == nil {
		c.mu.Unlock()
		return nil, models.NewUnauthorizedError("profile not hydrated")
	}
	next := *c.profile
	c.mu.Unlock()

	if username != next.Username {
		existing, err := c.profiles.GetByUsername(ctx, username)
		if err != nil && !models.IsCode(err, models.CodeNotFound) {
			return nil, err
		}
		if existing != nil && existing.ID != next.ID {
			return nil, models.NewValidationError(fmt.Sprintf("username %q is taken", username))
		}
	}

	next.Username = username
	next.DisplayName = displayName
	return c.commit(ctx, next)
}

// UpdateTheme replaces the profile's theme settings.
func (c *Cache) UpdateTheme(ctx context.Context, theme models.ThemeSettings) (*models.Profile, error) {
	c.mu.Lock()
	if c.profile == nil {
		c.mu.Unlock()
		return nil, models.NewUnauthorizedError("profile not hydrated")
	}
	next := *c.profile
	c.mu.Unlock()

	next.Theme = theme
	return c.commit(ctx, next)
}

// SetAvatarURL records a new avatar location after a successful upload.
func (c *Cache) SetAvatarURL(ctx context.Context, url string) (*models.Profile, error) {
	c.mu.Lock()
	if c.profile == nil {
		c.mu.Unlock()
		return nil, models.NewUnauthorizedError("profile not hydrated")
	}
	next := *c.profile
	c.mu.Unlock()

	next.AvatarURL = url
	return c.commit(ctx, next)
}

func (c *Cache) commit(ctx context.Context, next models.Profile) (*models.Profile, error) {
	if err := c.profiles.Update(ctx, &next); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.profile = &next
	c.mu.Unlock()

	snap := next
	c.notify(snap)
	return &snap, nil
}

// OnChange registers a listener invoked with a profile snapshot after
// every successful hydrate or update. The returned cancel removes it.
func (c *Cache) OnChange(fn func(models.Profile)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Cache) notify(snap models.Profile) {
	c.mu.Lock()
	fns := make([]func(models.Profile), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
