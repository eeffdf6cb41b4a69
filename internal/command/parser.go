package command

import (
	"fmt"
	"strings"

	"github.com/prn-tf/warden/internal/domain"
)

// Argument names used across the command grammar.
const (
	ArgUsername     = "username"
	ArgPassword     = "password"
	ArgFirstName    = "first-name"
	ArgLastName     = "last-name"
	ArgEmail        = "email"
	ArgSessionID    = "session-id"
	ArgOldPassword  = "old-password"
	ArgNewPassword  = "new-password"
	ArgNewUsername  = "new-username"
	ArgNewFirstName = "new-first-name"
	ArgNewLastName  = "new-last-name"
	ArgNewEmail     = "new-email"
)

// Command is a parsed, validated operation description. Parsing is
// independent of execution; a Command carries no state beyond its kind
// and arguments.
type Command struct {
	Kind domain.Kind
	args map[string]string
}

// Arg returns the value of the named argument, or "" if absent.
func (c *Command) Arg(name string) string {
	return c.args[name]
}

// Has reports whether the named argument was supplied.
func (c *Command) Has(name string) bool {
	_, ok := c.args[name]
	return ok
}

// schema is the fixed ordered flag sequence of one operation.
type schema struct {
	kind  domain.Kind
	flags []string
}

// Grammar table. The login command word is absent here: it is
// disambiguated on its second token before lookup. update-user is
// handled separately because its optional flags are unordered.
var schemas = map[string]schema{
	"register": {domain.KindRegister,
		[]string{ArgUsername, ArgPassword, ArgFirstName, ArgLastName, ArgEmail}},
	"login --username":   {domain.KindLoginByUsername, []string{ArgUsername, ArgPassword}},
	"login --session-id": {domain.KindLoginBySessionID, []string{ArgSessionID}},
	"reset-password": {domain.KindResetPassword,
		[]string{ArgSessionID, ArgUsername, ArgOldPassword, ArgNewPassword}},
	"logout":            {domain.KindLogout, []string{ArgSessionID}},
	"add-admin-user":    {domain.KindAddAdmin, []string{ArgSessionID, ArgUsername}},
	"remove-admin-user": {domain.KindRemoveAdmin, []string{ArgSessionID, ArgUsername}},
	"delete-user":       {domain.KindDeleteUser, []string{ArgSessionID, ArgUsername}},
	"download-database": {domain.KindDownloadDatabase, []string{ArgSessionID}},
}

// Optional flags accepted by update-user after the mandatory --session-id.
var updateUserOptional = []string{ArgNewUsername, ArgNewFirstName, ArgNewLastName, ArgNewEmail}

// Parse turns a raw command line into a Command. Argument values are
// free-form tokens delimited by single spaces. Any deviation from the
// grammar fails with an error wrapping ErrMalformed.
func Parse(raw string) (*Command, error) {
	words := strings.Split(raw, " ")
	if len(words) < 3 {
		return nil, fmt.Errorf("%w: too few tokens", ErrMalformed)
	}

	verb := words[0]
	if verb == "update-user" {
		return parseUpdateUser(words)
	}
	if verb == "login" {
		switch words[1] {
		case "--" + ArgUsername, "--" + ArgSessionID:
			verb = verb + " " + words[1]
		default:
			return nil, fmt.Errorf("%w: unknown login form %q", ErrMalformed, words[1])
		}
	}

	sch, ok := schemas[verb]
	if !ok {
		return nil, fmt.Errorf("%w: unknown command %q", ErrMalformed, words[0])
	}
	return parseFixed(sch, words)
}

// parseFixed validates a fixed ordered `--flag value` sequence.
func parseFixed(sch schema, words []string) (*Command, error) {
	want := 1 + 2*len(sch.flags)
	if len(words) != want {
		return nil, fmt.Errorf("%w: %s takes %d arguments", ErrMalformed, words[0], len(sch.flags))
	}

	args := make(map[string]string, len(sch.flags))
	for i, flag := range sch.flags {
		pos := 1 + 2*i
		if words[pos] != "--"+flag {
			return nil, fmt.Errorf("%w: expected --%s, got %q", ErrMalformed, flag, words[pos])
		}
		args[flag] = words[pos+1]
	}
	return &Command{Kind: sch.kind, args: args}, nil
}

// parseUpdateUser validates the mandatory --session-id followed by any
// unordered subset of the optional flags, each at most once.
func parseUpdateUser(words []string) (*Command, error) {
	if words[1] != "--"+ArgSessionID {
		return nil, fmt.Errorf("%w: update-user requires --%s first", ErrMalformed, ArgSessionID)
	}
	args := map[string]string{ArgSessionID: words[2]}

	for i := 3; i < len(words); i += 2 {
		flag, ok := optionalFlag(words[i])
		if !ok {
			return nil, fmt.Errorf("%w: unknown flag %q", ErrMalformed, words[i])
		}
		if i+1 >= len(words) {
			return nil, fmt.Errorf("%w: flag %q has no value", ErrMalformed, words[i])
		}
		if _, dup := args[flag]; dup {
			return nil, fmt.Errorf("%w: duplicate flag %q", ErrMalformed, words[i])
		}
		args[flag] = words[i+1]
	}
	return &Command{Kind: domain.KindUpdateUser, args: args}, nil
}

func optionalFlag(token string) (string, bool) {
	for _, f := range updateUserOptional {
		if token == "--"+f {
			return f, true
		}
	}
	return "", false
}
