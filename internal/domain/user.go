// Package domain contains the core business entities for Warden.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the authentication server.
package domain

import "time"

// Role is the runtime authorization level of a user.
type Role string

const (
	// RoleUser is the default role granted on registration.
	RoleUser Role = "USER"

	// RoleAdmin grants access to the administrative operations
	// (add-admin-user, remove-admin-user, delete-user).
	RoleAdmin Role = "ADMIN"
)

// AuthState tracks whether a user currently holds a live session.
type AuthState string

const (
	// Authenticated means the user's last session is still valid.
	Authenticated AuthState = "AUTHENTICATED"

	// Unauthenticated means the user has never logged in, logged out,
	// or their last session expired.
	Unauthenticated AuthState = "UNAUTHENTICATED"
)

// User represents a registered user in the directory.
// Identity equality is by username only; all other fields are mutable
// through the update-user and reset-password operations.
type User struct {
	// Username is the unique key of the user in the directory.
	Username string `json:"username"`

	// CredentialHash is the bcrypt hash of the user's password.
	// Never exposed on the wire.
	CredentialHash string `json:"credential"`

	// FirstName is the user's given name.
	FirstName string `json:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"last_name"`

	// Email is the user's contact address. Not required to be unique.
	Email string `json:"email"`

	// Auth is flipped to Authenticated on login/register and back to
	// Unauthenticated on logout or when the last session expires.
	Auth AuthState `json:"authentication"`

	// Role is USER unless granted ADMIN. The first user ever registered
	// is granted ADMIN automatically.
	Role Role `json:"authorization"`

	// CreatedAt is the timestamp when the user registered.
	CreatedAt time.Time `json:"created_at"`
}

// NewUser creates a User with default state.
func NewUser(username, credentialHash, firstName, lastName, email string) *User {
	return &User{
		Username:       username,
		CredentialHash: credentialHash,
		FirstName:      firstName,
		LastName:       lastName,
		Email:          email,
		Auth:           Unauthenticated,
		Role:           RoleUser,
		CreatedAt:      time.Now().UTC(),
	}
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Clone returns a deep copy of the user. The directory hands out clones
// so callers never share memory with the stored record.
func (u *User) Clone() *User {
	c := *u
	return &c
}
