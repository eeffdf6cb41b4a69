package command

import (
	"fmt"

	"github.com/prn-tf/warden/internal/domain"
)

// requiredTier is the static operation → transport tier table. The
// additional ADMIN role requirement of the administrative operations is
// a business rule checked during execution, not a transport check.
var requiredTier = map[domain.Kind]domain.Tier{
	domain.KindRegister:         domain.TierUnsecure,
	domain.KindLoginByUsername:  domain.TierUnsecure,
	domain.KindLoginBySessionID: domain.TierUnsecure,
	domain.KindUpdateUser:       domain.TierSecure,
	domain.KindResetPassword:    domain.TierSecure,
	domain.KindLogout:           domain.TierSecure,
	domain.KindAddAdmin:         domain.TierSecure,
	domain.KindRemoveAdmin:      domain.TierSecure,
	domain.KindDeleteUser:       domain.TierSecure,
	domain.KindDownloadDatabase: domain.TierSecure,
}

// adminOnly marks operations that additionally require the acting
// session's user to hold the ADMIN role.
var adminOnly = map[domain.Kind]bool{
	domain.KindAddAdmin:    true,
	domain.KindRemoveAdmin: true,
	domain.KindDeleteUser:  true,
}

// RequiredTier returns the transport tier the operation must arrive on.
func RequiredTier(kind domain.Kind) domain.Tier {
	return requiredTier[kind]
}

// AdminOnly reports whether the operation is restricted to ADMIN actors.
func AdminOnly(kind domain.Kind) bool {
	return adminOnly[kind]
}

// CheckTier fails with ErrTierMismatch unless the request's transport
// tier equals the operation's required tier exactly.
func CheckTier(kind domain.Kind, tier domain.Tier) error {
	required, ok := requiredTier[kind]
	if !ok {
		return fmt.Errorf("%w: unknown operation %q", ErrTierMismatch, kind)
	}
	if tier != required {
		return fmt.Errorf("%w: %s requires the %s tier, got %s", ErrTierMismatch, kind, required, tier)
	}
	return nil
}
