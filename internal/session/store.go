// Package session owns the session table: issue, validate, replace and
// expire the time-bounded tokens that prove a prior login.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/prn-tf/warden/internal/domain"
)

// DefaultTTL is the lifetime assigned to a session at creation.
const DefaultTTL = 5 * time.Minute

// ErrNotFound indicates the session id is not present in the store.
var ErrNotFound = errors.New("session not found")

// Store is the session table. At most one live session exists per
// username. Every method is atomic with respect to every other,
// including SweepExpired: a session is never observed half-updated.
//
// The store records the last session id ever issued to each username
// regardless of validity, so callers can distinguish "logged out or
// expired" from "never existed".
type Store interface {
	// Create issues a fresh session for username with a full TTL,
	// invalidating any prior valid session of the same username.
	Create(ctx context.Context, username string) (domain.Session, error)

	// GetValid returns a snapshot of the session and whether it is
	// valid, in one atomic step.
	GetValid(ctx context.Context, id string) (domain.Session, bool, error)

	// GetByUsername returns a snapshot of the username's last known
	// session and whether it is still valid. ok is false when the user
	// never held a session or it has been removed.
	GetByUsername(ctx context.Context, username string) (domain.Session, bool, error)

	// IsValid reports whether the session exists and has not expired.
	IsValid(ctx context.Context, id string) (bool, error)

	// Remove deletes the session. The last-session record survives.
	Remove(ctx context.Context, id string) error

	// RemoveAllForUser deletes the user's last known session, valid or
	// not. Used when the user is deleted.
	RemoveAllForUser(ctx context.Context, username string) error

	// Replace overwrites the stored session with the given one,
	// preserving its id and expiry. Used when a username changes.
	Replace(ctx context.Context, s domain.Session) error

	// SweepExpired removes every session whose expiry has elapsed and
	// returns how many were removed.
	SweepExpired(ctx context.Context) (int, error)

	// UsersWithExpiredLast returns the usernames whose last known
	// session is no longer valid.
	UsersWithExpiredLast(ctx context.Context) ([]string, error)

	// WasIssued reports whether id is or ever was a user's last session.
	WasIssued(ctx context.Context, id string) (bool, error)

	// ActiveCount returns the number of live sessions.
	ActiveCount(ctx context.Context) (int, error)
}
