package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/warden/internal/domain"
)

func newTestUser(username string) *domain.User {
	return domain.NewUser(username, "hash", "First", "Last", username+"@example.com")
}

func TestMemory_InsertAndGet(t *testing.T) {
	m := NewMemory()

	count, err := m.Insert(newTestUser("alice"))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := m.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	count, err = m.Insert(newTestUser("bob"))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemory_InsertDuplicate(t *testing.T) {
	m := NewMemory()

	_, err := m.Insert(newTestUser("alice"))
	require.NoError(t, err)

	_, err = m.Insert(newTestUser("alice"))
	require.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, 1, m.Count())
}

func TestMemory_GetMissing(t *testing.T) {
	m := NewMemory()
	_, err := m.Get("ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	m := NewMemory()
	_, err := m.Insert(newTestUser("alice"))
	require.NoError(t, err)

	got, err := m.Get("alice")
	require.NoError(t, err)
	got.Role = domain.RoleAdmin

	again, err := m.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, again.Role)
}

func TestMemory_Put(t *testing.T) {
	m := NewMemory()
	_, err := m.Insert(newTestUser("alice"))
	require.NoError(t, err)

	u, err := m.Get("alice")
	require.NoError(t, err)
	u.Role = domain.RoleAdmin
	require.NoError(t, m.Put(u))

	got, err := m.Get("alice")
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())

	require.ErrorIs(t, m.Put(newTestUser("ghost")), ErrNotFound)
}

func TestMemory_Rekey(t *testing.T) {
	m := NewMemory()
	_, err := m.Insert(newTestUser("alice"))
	require.NoError(t, err)

	u, err := m.Get("alice")
	require.NoError(t, err)
	u.Username = "alicia"
	require.NoError(t, m.Rekey("alice", u))

	_, err = m.Get("alice")
	require.ErrorIs(t, err, ErrNotFound)
	got, err := m.Get("alicia")
	require.NoError(t, err)
	assert.Equal(t, "alicia", got.Username)
}

func TestMemory_RekeyConflict(t *testing.T) {
	m := NewMemory()
	_, err := m.Insert(newTestUser("alice"))
	require.NoError(t, err)
	_, err = m.Insert(newTestUser("bob"))
	require.NoError(t, err)

	u, err := m.Get("alice")
	require.NoError(t, err)
	u.Username = "bob"
	require.ErrorIs(t, m.Rekey("alice", u), ErrAlreadyExists)

	// Source record survives a failed rekey.
	_, err = m.Get("alice")
	require.NoError(t, err)
}

func TestMemory_RekeySameUsername(t *testing.T) {
	m := NewMemory()
	_, err := m.Insert(newTestUser("alice"))
	require.NoError(t, err)

	u, err := m.Get("alice")
	require.NoError(t, err)
	u.FirstName = "Alicia"
	require.NoError(t, m.Rekey("alice", u))

	got, err := m.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got.FirstName)
}

func TestMemory_Remove(t *testing.T) {
	m := NewMemory()
	_, err := m.Insert(newTestUser("alice"))
	require.NoError(t, err)

	require.NoError(t, m.Remove("alice"))
	_, err = m.Get("alice")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, m.Remove("alice"), ErrNotFound)
}

func TestMemory_Admins(t *testing.T) {
	m := NewMemory()

	admin := newTestUser("root")
	admin.Role = domain.RoleAdmin
	_, err := m.Insert(admin)
	require.NoError(t, err)
	_, err = m.Insert(newTestUser("alice"))
	require.NoError(t, err)

	admins := m.Admins()
	require.Len(t, admins, 1)
	assert.Contains(t, admins, "root")
}

func TestMemory_SnapshotOrdered(t *testing.T) {
	m := NewMemory()
	for _, name := range []string{"charlie", "alice", "bob"} {
		_, err := m.Insert(newTestUser(name))
		require.NoError(t, err)
	}

	snap := m.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "alice", snap[0].Username)
	assert.Equal(t, "bob", snap[1].Username)
	assert.Equal(t, "charlie", snap[2].Username)
}
