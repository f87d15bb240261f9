package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinUsernameLength    = 3
	MaxUsernameLength    = 30
	MaxDisplayNameLength = 50
)

// User is a profile. Usernames are stored lowercase and never change.
type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left
// unchanged.
type ProfileUpdate struct {
	DisplayName *string
	PhotoURL    *string
}

func (u ProfileUpdate) Empty() bool {
	return u.DisplayName == nil && u.PhotoURL == nil
}

func NormalizeUsername(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidateUsername accepts 3 to 30 lowercase letters, digits, '_' or '.'.
// Usernames appear in profile URLs.
func ValidateUsername(name string) error {
	n := utf8.RuneCountInString(name)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return Invalid("username must be %d to %d characters", MinUsernameLength, MaxUsernameLength)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.':
		default:
			return Invalid("username may only contain a-z, 0-9, '_' and '.'")
		}
	}
	return nil
}

func ValidateDisplayName(name string) error {
	if strings.TrimSpace(name) == "" {
		return Invalid("display name is required")
	}
	if utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return Invalid("display name must be at most %d characters", MaxDisplayNameLength)
	}
	return nil
}
