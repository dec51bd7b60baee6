// Package models defines the client-side data types: the issued session
// bundle, the profile row, and the credentials held between sign-up and
// verification.
package models

import "time"

// Session is the token bundle issued by the platform on sign-in or
// verification. The raw tokens are opaque to the client: AccessToken is
// attached to requests verbatim, never inspected beyond the claims needed
// to restore identity after a restart.
//
// At most one live Session exists per process; it is owned by the session
// store and read-shared by everything else.
type Session struct {
	AccessToken    string    `json:"access_token"`
	RefreshToken   string    `json:"refresh_token"`
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	EmailConfirmed bool      `json:"email_confirmed"`
	ExpiresAt      time.Time `json:"expires_at"`

	// PendingUsername carries the username embedded as user metadata at
	// sign-up time, used to seed the profile row if the server-side
	// trigger has not created it yet.
	PendingUsername string `json:"pending_username,omitempty"`
}

// Expired reports whether the session's access token is past its expiry.
// A zero ExpiresAt means the backend did not report one; such sessions are
// treated as live.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// PendingCredentials is the transient sign-up data held between the
// "sign up" and "verify" steps. Consumed and cleared exactly once: either
// by a successful verification or by sign-up failure/abandonment.
type PendingCredentials struct {
	Email    string
	Password string
	Username string
}
