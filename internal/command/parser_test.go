package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/warden/internal/domain"
)

func TestParse_ValidCommands(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind domain.Kind
		wantArgs map[string]string
	}{
		{
			name:     "register",
			raw:      "register --username alice --password pw1 --first-name Alice --last-name Smith --email a@b.c",
			wantKind: domain.KindRegister,
			wantArgs: map[string]string{
				ArgUsername:  "alice",
				ArgPassword:  "pw1",
				ArgFirstName: "Alice",
				ArgLastName:  "Smith",
				ArgEmail:     "a@b.c",
			},
		},
		{
			name:     "login by username",
			raw:      "login --username alice --password pw1",
			wantKind: domain.KindLoginByUsername,
			wantArgs: map[string]string{ArgUsername: "alice", ArgPassword: "pw1"},
		},
		{
			name:     "login by session id",
			raw:      "login --session-id abc-123",
			wantKind: domain.KindLoginBySessionID,
			wantArgs: map[string]string{ArgSessionID: "abc-123"},
		},
		{
			name:     "logout",
			raw:      "logout --session-id abc-123",
			wantKind: domain.KindLogout,
			wantArgs: map[string]string{ArgSessionID: "abc-123"},
		},
		{
			name:     "reset password",
			raw:      "reset-password --session-id abc --username alice --old-password pw1 --new-password pw2",
			wantKind: domain.KindResetPassword,
			wantArgs: map[string]string{
				ArgSessionID:   "abc",
				ArgUsername:    "alice",
				ArgOldPassword: "pw1",
				ArgNewPassword: "pw2",
			},
		},
		{
			name:     "add admin",
			raw:      "add-admin-user --session-id abc --username bob",
			wantKind: domain.KindAddAdmin,
			wantArgs: map[string]string{ArgSessionID: "abc", ArgUsername: "bob"},
		},
		{
			name:     "remove admin",
			raw:      "remove-admin-user --session-id abc --username bob",
			wantKind: domain.KindRemoveAdmin,
			wantArgs: map[string]string{ArgSessionID: "abc", ArgUsername: "bob"},
		},
		{
			name:     "delete user",
			raw:      "delete-user --session-id abc --username bob",
			wantKind: domain.KindDeleteUser,
			wantArgs: map[string]string{ArgSessionID: "abc", ArgUsername: "bob"},
		},
		{
			name:     "download database",
			raw:      "download-database --session-id abc",
			wantKind: domain.KindDownloadDatabase,
			wantArgs: map[string]string{ArgSessionID: "abc"},
		},
		{
			name:     "update user all fields",
			raw:      "update-user --session-id abc --new-username al --new-first-name Al --new-last-name S --new-email x@y.z",
			wantKind: domain.KindUpdateUser,
			wantArgs: map[string]string{
				ArgSessionID:    "abc",
				ArgNewUsername:  "al",
				ArgNewFirstName: "Al",
				ArgNewLastName:  "S",
				ArgNewEmail:     "x@y.z",
			},
		},
		{
			name:     "update user unordered subset",
			raw:      "update-user --session-id abc --new-email x@y.z --new-username al",
			wantKind: domain.KindUpdateUser,
			wantArgs: map[string]string{
				ArgSessionID:   "abc",
				ArgNewEmail:    "x@y.z",
				ArgNewUsername: "al",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, cmd.Kind)
			for name, value := range tt.wantArgs {
				assert.True(t, cmd.Has(name), "missing argument %s", name)
				assert.Equal(t, value, cmd.Arg(name))
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"too few tokens", "logout --session-id"},
		{"unknown command", "frobnicate --session-id abc"},
		{"unknown login form", "login --email a@b.c"},
		{"wrong flag name", "logout --token abc"},
		{"wrong flag order", "register --password pw --username alice --first-name A --last-name B --email a@b.c"},
		{"too many arguments", "logout --session-id abc --username bob"},
		{"too few register arguments", "register --username alice --password pw"},
		{"update without session id first", "update-user --new-username al --session-id abc"},
		{"update duplicate flag", "update-user --session-id abc --new-email a@b.c --new-email d@e.f"},
		{"update unknown flag", "update-user --session-id abc --username alice"},
		{"update flag without value", "update-user --session-id abc --new-email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParse_ArgAbsent(t *testing.T) {
	cmd, err := Parse("update-user --session-id abc --new-email x@y.z")
	require.NoError(t, err)
	assert.False(t, cmd.Has(ArgNewUsername))
	assert.Empty(t, cmd.Arg(ArgNewUsername))
}
