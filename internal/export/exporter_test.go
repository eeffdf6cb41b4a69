package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/warden/internal/directory"
	"github.com/prn-tf/warden/internal/domain"
	"github.com/prn-tf/warden/internal/pkg/crypto"
)

func newTestEncryptor(t *testing.T) *crypto.Encryptor {
	t.Helper()
	hexKey, err := crypto.GenerateMasterKey()
	require.NoError(t, err)
	enc, err := crypto.NewEncryptorFromHex(hexKey)
	require.NoError(t, err)
	return enc
}

func TestFileExporter_RoundTrip(t *testing.T) {
	dir := directory.NewMemory()
	_, err := dir.Insert(domain.NewUser("alice", "hash-a", "Alice", "Smith", "a@b.c"))
	require.NoError(t, err)
	_, err = dir.Insert(domain.NewUser("bob", "hash-b", "Bob", "Jones", "b@b.c"))
	require.NoError(t, err)

	enc := newTestEncryptor(t)
	path := filepath.Join(t.TempDir(), "database.jsonl")
	exporter := NewFileExporter(dir, enc, path, zerolog.Nop())

	location, err := exporter.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, location)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	// Snapshot order is by username.
	var first domain.User
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "alice", first.Username)

	// Credentials are encrypted at rest but recoverable with the key.
	assert.NotEqual(t, "hash-a", first.CredentialHash)
	plain, err := enc.DecryptString(first.CredentialHash)
	require.NoError(t, err)
	assert.Equal(t, "hash-a", plain)
}

func TestFileExporter_EmptyDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.jsonl")
	exporter := NewFileExporter(directory.NewMemory(), newTestEncryptor(t), path, zerolog.Nop())

	location, err := exporter.Export(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Empty(t, data)
}
