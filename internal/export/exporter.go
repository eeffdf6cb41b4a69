// Package export produces encrypted snapshots of the user directory for
// the download-database operation.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/prn-tf/warden/internal/directory"
	"github.com/prn-tf/warden/internal/pkg/crypto"
)

// Exporter writes a snapshot of the directory somewhere and returns the
// location a caller can retrieve it from.
type Exporter interface {
	Export(ctx context.Context) (string, error)
}

// encode renders the snapshot as JSON lines, one user per line, with
// the credential hash encrypted.
func encode(dir directory.Directory, enc *crypto.Encryptor) ([]byte, error) {
	var buf bytes.Buffer
	for _, user := range dir.Snapshot() {
		sealed, err := enc.EncryptString(user.CredentialHash)
		if err != nil {
			return nil, fmt.Errorf("encrypting credential for %s: %w", user.Username, err)
		}
		record := user.Clone()
		record.CredentialHash = sealed

		line, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("encoding user %s: %w", user.Username, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// FileExporter writes the snapshot to a local file, recreated on every
// export.
type FileExporter struct {
	dir       directory.Directory
	encryptor *crypto.Encryptor
	path      string
	logger    zerolog.Logger
}

// NewFileExporter creates a file exporter writing to path.
func NewFileExporter(dir directory.Directory, enc *crypto.Encryptor, path string, logger zerolog.Logger) *FileExporter {
	return &FileExporter{
		dir:       dir,
		encryptor: enc,
		path:      path,
		logger:    logger.With().Str("component", "export").Logger(),
	}
}

// Export writes the encrypted snapshot and returns the file path.
func (e *FileExporter) Export(ctx context.Context) (string, error) {
	payload, err := encode(e.dir, e.encryptor)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(e.path, payload, 0o600); err != nil {
		return "", fmt.Errorf("writing export file: %w", err)
	}
	e.logger.Info().Str("path", e.path).Int("bytes", len(payload)).Msg("database exported")
	return e.path, nil
}

var _ Exporter = (*FileExporter)(nil)
