package models

import "time"

// Session is the authenticated identity returned by the backend after OTP
// verification or a session restore. Zero or one live session exists per
// running instance.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token's lifetime has passed. A zero
// ExpiresAt means the expiry is unknown and the session is assumed live;
// a stale token simply fails on next use.
func (s *Session) Expired() bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(s.ExpiresAt)
}
