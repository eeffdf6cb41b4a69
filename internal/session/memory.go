package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/warden/internal/domain"
)

// MemoryStore implements Store with mutex-guarded maps. This is the
// normative implementation; sessions are volatile and lost on restart.
type MemoryStore struct {
	mu         sync.Mutex
	sessions   map[string]domain.Session
	lastByUser map[string]string
	ttl        time.Duration

	// now is swapped out by tests to control expiry.
	now func() time.Time
}

// NewMemoryStore creates an in-memory session store. A non-positive ttl
// falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		sessions:   make(map[string]domain.Session),
		lastByUser: make(map[string]string),
		ttl:        ttl,
		now:        time.Now,
	}
}

// Create issues a fresh session, invalidating the user's prior one.
func (m *MemoryStore) Create(ctx context.Context, username string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if last, ok := m.lastByUser[username]; ok {
		if s, live := m.sessions[last]; live && s.ValidAt(now) {
			delete(m.sessions, last)
		}
	}

	s := domain.Session{
		ID:        uuid.NewString(),
		Username:  username,
		ExpiresAt: now.Add(m.ttl),
	}
	m.sessions[s.ID] = s
	m.lastByUser[username] = s.ID
	return s, nil
}

// GetValid returns the session snapshot and its validity atomically.
func (m *MemoryStore) GetValid(ctx context.Context, id string) (domain.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || !s.ValidAt(m.now()) {
		return domain.Session{}, false, nil
	}
	return s, true, nil
}

// GetByUsername returns the user's last known session and its validity.
func (m *MemoryStore) GetByUsername(ctx context.Context, username string) (domain.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	last, ok := m.lastByUser[username]
	if !ok {
		return domain.Session{}, false, nil
	}
	s, ok := m.sessions[last]
	if !ok || !s.ValidAt(m.now()) {
		return domain.Session{}, false, nil
	}
	return s, true, nil
}

// IsValid reports whether the session exists and has not expired.
func (m *MemoryStore) IsValid(ctx context.Context, id string) (bool, error) {
	_, ok, err := m.GetValid(ctx, id)
	return ok, err
}

// Remove deletes the session, keeping the last-session record.
func (m *MemoryStore) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// RemoveAllForUser deletes the user's last known session, valid or not.
func (m *MemoryStore) RemoveAllForUser(ctx context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if last, ok := m.lastByUser[username]; ok {
		delete(m.sessions, last)
	}
	return nil
}

// Replace overwrites the stored session, re-pointing the last-session
// record when the owning username changed.
func (m *MemoryStore) Replace(ctx context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.sessions[s.ID]; ok && old.Username != s.Username {
		delete(m.lastByUser, old.Username)
	}
	m.sessions[s.ID] = s
	m.lastByUser[s.Username] = s.ID
	return nil
}

// SweepExpired removes every session whose expiry has elapsed.
func (m *MemoryStore) SweepExpired(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if !s.ValidAt(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// UsersWithExpiredLast returns usernames whose last session is invalid.
func (m *MemoryStore) UsersWithExpiredLast(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var users []string
	for username, id := range m.lastByUser {
		if s, ok := m.sessions[id]; !ok || !s.ValidAt(now) {
			users = append(users, username)
		}
	}
	return users, nil
}

// WasIssued reports whether id is or ever was a user's last session.
func (m *MemoryStore) WasIssued(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, last := range m.lastByUser {
		if last == id {
			return true, nil
		}
	}
	return false, nil
}

// ActiveCount returns the number of live sessions.
func (m *MemoryStore) ActiveCount(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	count := 0
	for _, s := range m.sessions {
		if s.ValidAt(now) {
			count++
		}
	}
	return count, nil
}

var _ Store = (*MemoryStore)(nil)
