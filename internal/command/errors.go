// Package command parses raw command lines into typed operations and
// holds the static transport-tier authorization table.
package command

import "errors"

// Parsing and authorization errors.
var (
	// ErrMalformed indicates the raw text does not match any operation's
	// grammar: wrong arity, unknown flag, duplicate flag, or an unknown
	// command word. Rejected before any state is touched.
	ErrMalformed = errors.New("malformed command")

	// ErrTierMismatch indicates the request arrived on a transport tier
	// different from the one the operation requires. Rejected before
	// execution.
	ErrTierMismatch = errors.New("transport tier mismatch")
)
