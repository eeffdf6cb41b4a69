// Package directory provides the in-memory user directory. All state is
// volatile and lost on restart.
package directory

import (
	"errors"

	"github.com/prn-tf/warden/internal/domain"
)

// Directory errors.
var (
	// ErrNotFound indicates no user exists under the given username.
	ErrNotFound = errors.New("user not found")

	// ErrAlreadyExists indicates the username is already taken.
	ErrAlreadyExists = errors.New("user already exists")
)

// Directory is the keyed store of user records the dispatcher executes
// against. Every method is individually atomic.
type Directory interface {
	// Get returns a copy of the user stored under username.
	Get(username string) (*domain.User, error)

	// Insert stores a new user, failing with ErrAlreadyExists if the
	// username is taken. Returns the number of users after the insert,
	// so the caller can detect the first-user bootstrap.
	Insert(user *domain.User) (int, error)

	// Put overwrites the record stored under user.Username.
	Put(user *domain.User) error

	// Rekey atomically moves the record from oldUsername to the
	// username carried by user, preserving uniqueness.
	Rekey(oldUsername string, user *domain.User) error

	// Remove deletes the record stored under username.
	Remove(username string) error

	// Admins returns the users currently holding the ADMIN role,
	// keyed by username.
	Admins() map[string]*domain.User

	// Snapshot returns a copy of every record, for export.
	Snapshot() []*domain.User

	// Count returns the number of stored users.
	Count() int
}
