package model

import (
	"regexp"
	"time"
)

const (
	UsernameMinLength = 2
	UsernameMaxLength = 32
	PasswordMinLength = 6
)

var UsernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,32}$`)

// User is the persisted account record. PasswordHash is stored in the
// users collection but must never reach an HTTP response; use Identity.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is the public view of an authenticated user.
type Identity struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) Identity() *Identity {
	return &Identity{
		ID:        u.ID,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}
