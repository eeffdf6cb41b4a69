package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/warden/internal/domain"
)

func TestCheckTier(t *testing.T) {
	unsecure := []domain.Kind{
		domain.KindRegister,
		domain.KindLoginByUsername,
		domain.KindLoginBySessionID,
	}
	secure := []domain.Kind{
		domain.KindUpdateUser,
		domain.KindResetPassword,
		domain.KindLogout,
		domain.KindAddAdmin,
		domain.KindRemoveAdmin,
		domain.KindDeleteUser,
		domain.KindDownloadDatabase,
	}

	for _, kind := range unsecure {
		require.NoError(t, CheckTier(kind, domain.TierUnsecure), "%s on unsecure", kind)
		require.ErrorIs(t, CheckTier(kind, domain.TierSecure), ErrTierMismatch, "%s on secure", kind)
	}
	for _, kind := range secure {
		require.NoError(t, CheckTier(kind, domain.TierSecure), "%s on secure", kind)
		require.ErrorIs(t, CheckTier(kind, domain.TierUnsecure), ErrTierMismatch, "%s on unsecure", kind)
	}
}

func TestCheckTier_UnknownKind(t *testing.T) {
	require.ErrorIs(t, CheckTier(domain.Kind("NOPE"), domain.TierSecure), ErrTierMismatch)
}

func TestAdminOnly(t *testing.T) {
	assert.True(t, AdminOnly(domain.KindAddAdmin))
	assert.True(t, AdminOnly(domain.KindRemoveAdmin))
	assert.True(t, AdminOnly(domain.KindDeleteUser))
	assert.False(t, AdminOnly(domain.KindUpdateUser))
	assert.False(t, AdminOnly(domain.KindDownloadDatabase))
}

func TestRequiredTier(t *testing.T) {
	assert.Equal(t, domain.TierUnsecure, RequiredTier(domain.KindRegister))
	assert.Equal(t, domain.TierSecure, RequiredTier(domain.KindLogout))
}
