package domain

// Kind identifies one of the operations the server executes.
type Kind string

const (
	KindRegister         Kind = "REGISTER"
	KindLoginByUsername  Kind = "LOGIN_BY_USERNAME"
	KindLoginBySessionID Kind = "LOGIN_BY_SESSION_ID"
	KindUpdateUser       Kind = "UPDATE_USER"
	KindResetPassword    Kind = "RESET_PASSWORD"
	KindLogout           Kind = "LOGOUT"
	KindAddAdmin         Kind = "ADD_ADMIN_USER"
	KindRemoveAdmin      Kind = "REMOVE_ADMIN_USER"
	KindDeleteUser       Kind = "DELETE_USER"
	KindDownloadDatabase Kind = "DOWNLOAD_DATABASE"

	// KindInvalid is reported back to the caller when the raw command
	// could not be parsed or failed the transport-tier check.
	KindInvalid Kind = "INVALID_COMMAND"
)

// Tier is the transport-channel security classification a request
// arrives on, independent of the caller's role.
type Tier string

const (
	TierUnsecure Tier = "UNSECURE"
	TierSecure   Tier = "SECURE"
)

// Status is the terminal success/failure classification of one
// executed operation.
type Status string

const (
	StatusSuccessful   Status = "SUCCESSFUL"
	StatusUnsuccessful Status = "UNSUCCESSFUL"
)

// Result is what the dispatcher hands back to the transport for every
// request, well-formed even on failure.
type Result struct {
	// Message is the human-readable status text for the caller.
	Message string `json:"message"`

	// Status is the outcome of the operation.
	Status Status `json:"status"`

	// Kind is the operation that was attempted, or KindInvalid when the
	// command never reached execution.
	Kind Kind `json:"kind"`

	// LoggedOut is true when a session-tier failure was caused by a
	// session that existed before but is no longer valid, as opposed to
	// one that never existed.
	LoggedOut bool `json:"logged_out"`
}
