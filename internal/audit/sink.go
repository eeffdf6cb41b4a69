// Package audit persists the security event trail. Events are produced
// by the dispatcher and written asynchronously; a write failure never
// fails the command that produced the event.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/prn-tf/warden/internal/domain"
)

// Sink receives audit events for persistence.
type Sink interface {
	Write(event domain.Event) error
	Close() error
}

// FileSink appends events as JSON lines to a log file.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

// NewFileSink opens (or creates) the audit log at path. The file is
// opened in append mode so the trail survives restarts.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &FileSink{file: f, w: bufio.NewWriter(f)}, nil
}

// Write appends one event as a JSON line and flushes.
func (s *FileSink) Write(event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return s.w.Flush()
}

// Close flushes and closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.file.Close()
}

// NopSink discards every event. Used when auditing is disabled.
type NopSink struct{}

func (NopSink) Write(domain.Event) error { return nil }
func (NopSink) Close() error             { return nil }
