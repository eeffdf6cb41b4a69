package directory

import (
	"sort"
	"sync"

	"github.com/prn-tf/warden/internal/domain"
)

// Memory implements Directory with a mutex-guarded map. It is the only
// implementation: durable storage is explicitly out of scope.
type Memory struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewMemory creates an empty in-memory directory.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]*domain.User)}
}

// Get returns a copy of the user stored under username.
func (m *Memory) Get(username string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

// Insert stores a new user and returns the directory size afterwards.
func (m *Memory) Insert(user *domain.User) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.Username]; exists {
		return len(m.users), ErrAlreadyExists
	}
	m.users[user.Username] = user.Clone()
	return len(m.users), nil
}

// Put overwrites the record stored under user.Username.
func (m *Memory) Put(user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.Username]; !exists {
		return ErrNotFound
	}
	m.users[user.Username] = user.Clone()
	return nil
}

// Rekey moves the record from oldUsername to user.Username atomically.
func (m *Memory) Rekey(oldUsername string, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[oldUsername]; !exists {
		return ErrNotFound
	}
	if user.Username != oldUsername {
		if _, taken := m.users[user.Username]; taken {
			return ErrAlreadyExists
		}
		delete(m.users, oldUsername)
	}
	m.users[user.Username] = user.Clone()
	return nil
}

// Remove deletes the record stored under username.
func (m *Memory) Remove(username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[username]; !exists {
		return ErrNotFound
	}
	delete(m.users, username)
	return nil
}

// Admins returns the users currently holding the ADMIN role.
func (m *Memory) Admins() map[string]*domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	admins := make(map[string]*domain.User)
	for name, u := range m.users {
		if u.IsAdmin() {
			admins[name] = u.Clone()
		}
	}
	return admins
}

// Snapshot returns a copy of every record, ordered by username so the
// export output is deterministic.
func (m *Memory) Snapshot() []*domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// Count returns the number of stored users.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

var _ Directory = (*Memory)(nil)
