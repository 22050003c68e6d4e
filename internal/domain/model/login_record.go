package model

import "time"

// LoginRecord is an audit entry for a client-reported login. It has no
// password field by construction.
type LoginRecord struct {
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatarUrl"`
	Timestamp time.Time `json:"timestamp"`
}
