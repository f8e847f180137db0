// Package models contains data structures for the application's domain models.
package models

import (
	"regexp"
	"time"
)

// DefaultTheme is applied to profiles created lazily on first session.
var DefaultTheme = ThemeSettings{Theme: "dark", AccentColor: "#6366f1"}

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// ThemeSettings holds per-profile appearance preferences.
type ThemeSettings struct {
	Theme       string `json:"theme"`
	AccentColor string `json:"accentColor"`
}

// Profile represents a user profile. Mutated only by its owner.
type Profile struct {
	ID          uint          `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username    string        `gorm:"size:20;not null;uniqueIndex" json:"username"`
	DisplayName string        `gorm:"size:120" json:"display_name,omitempty"`
	AvatarURL   string        `gorm:"size:512" json:"avatar_url,omitempty"`
	Theme       ThemeSettings `gorm:"serializer:json" json:"theme_settings"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Profile) TableName() string {
	return "profiles"
}

// ValidUsername reports whether a username is 3-20 characters of
// [A-Za-z0-9_].
func ValidUsername(username string) bool {
	return usernameRe.MatchString(username)
}

// Account holds login credentials. The account id doubles as the profile
// id; the profile row itself is created lazily on first session.
type Account struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (Account) TableName() string {
	return "accounts"
}
