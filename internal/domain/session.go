package domain

import "time"

// Session is a time-bounded proof of a prior successful login,
// identified by an opaque token. At most one live session exists per
// username; issuing a new one invalidates the previous.
type Session struct {
	// ID is the opaque session token handed to the client.
	ID string `json:"id"`

	// Username is the owning user at issue time. It changes when the
	// user renames themselves through update-user.
	Username string `json:"username"`

	// ExpiresAt is the absolute expiry instant assigned at creation.
	ExpiresAt time.Time `json:"expires_at"`
}

// ValidAt reports whether the session is still live at the given instant.
func (s Session) ValidAt(now time.Time) bool {
	return s.ID != "" && now.Before(s.ExpiresAt)
}
