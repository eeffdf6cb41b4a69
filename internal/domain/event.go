package domain

import "time"

// UnknownActor is recorded on events whose acting user could not be
// resolved from a valid session at emission time.
const UnknownActor = "UNKNOWN"

// EventType distinguishes the audit records the dispatcher produces.
type EventType string

const (
	// EventStart is emitted before executing a non-login, non-eventless
	// operation.
	EventStart EventType = "START"

	// EventEnd is emitted after executing the same operations. The actor
	// is resolved again, so Start and End of one call may disagree.
	EventEnd EventType = "END"

	// EventFailedLogin is emitted exactly once for every unsuccessful
	// login attempt, never on success.
	EventFailedLogin EventType = "FAILED_LOGIN"
)

// Event is a single audit record. Events are produced by the dispatcher
// and handed to the audit sink as-is; the sink owns the sequence counter.
type Event struct {
	// Seq pairs a Start event with its End event. Zero for failed logins.
	Seq uint64 `json:"id,omitempty"`

	// Timestamp is when the event was created.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event class.
	Type EventType `json:"type"`

	// Kind is the operation the event belongs to.
	Kind Kind `json:"kind"`

	// Username is the resolved actor, or UnknownActor.
	Username string `json:"username"`

	// RemoteAddr is the caller's address as seen by the transport.
	RemoteAddr string `json:"remote_addr"`

	// Description is free-form event detail. Empty for failed logins.
	Description string `json:"description,omitempty"`
}
