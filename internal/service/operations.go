package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/warden/internal/command"
	"github.com/prn-tf/warden/internal/directory"
	"github.com/prn-tf/warden/internal/domain"
)

// register creates a new user, authenticates them immediately and
// issues a session. The first user ever registered is granted ADMIN.
func (d *Dispatcher) register(ctx context.Context, cmd *command.Command) domain.Result {
	username := cmd.Arg(command.ArgUsername)

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Arg(command.ArgPassword)), bcrypt.DefaultCost)
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}

	user := domain.NewUser(
		username,
		string(hash),
		cmd.Arg(command.ArgFirstName),
		cmd.Arg(command.ArgLastName),
		cmd.Arg(command.ArgEmail),
	)
	user.Auth = domain.Authenticated

	count, err := d.dir.Insert(user)
	if errors.Is(err, directory.ErrAlreadyExists) {
		return failure(cmd.Kind, fmt.Sprintf(
			"The registry is unsuccessful. An user with the username: %s already exists.", username))
	}
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}

	first := count == 1
	if first {
		user.Role = domain.RoleAdmin
		if err := d.dir.Put(user); err != nil {
			return d.internalFailure(cmd.Kind, err)
		}
	}

	s, err := d.sessions.Create(ctx, username)
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}

	d.logger.Info().Str("username", username).Bool("first_user", first).Msg("user registered")

	msg := fmt.Sprintf("The registry is successful. Your current session Id is: %s.", s.ID)
	if first {
		msg += "\nYou have been granted with administrative permissions."
	}
	return success(cmd.Kind, msg)
}

// loginByUsername verifies the credential and issues a fresh session,
// replacing any prior one for the same username.
func (d *Dispatcher) loginByUsername(ctx context.Context, cmd *command.Command) domain.Result {
	username := cmd.Arg(command.ArgUsername)

	user, err := d.dir.Get(username)
	if errors.Is(err, directory.ErrNotFound) {
		return failure(cmd.Kind, fmt.Sprintf(
			"The login is unsuccessful. An user with the username: %s doesn't exist.", username))
	}
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.CredentialHash), []byte(cmd.Arg(command.ArgPassword))) != nil {
		return failure(cmd.Kind, "The login is unsuccessful. The password is incorrect.")
	}

	user.Auth = domain.Authenticated
	if err := d.dir.Put(user); err != nil {
		return d.internalFailure(cmd.Kind, err)
	}

	s, err := d.sessions.Create(ctx, username)
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}

	d.logger.Info().Str("username", username).Msg("user logged in")
	return success(cmd.Kind, fmt.Sprintf("The login is successful. Your current session Id is: %s.", s.ID))
}

// loginBySessionID re-validates an existing session. No new session is
// created.
func (d *Dispatcher) loginBySessionID(ctx context.Context, cmd *command.Command) domain.Result {
	sessionID := cmd.Arg(command.ArgSessionID)

	_, ok, err := d.sessions.GetValid(ctx, sessionID)
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}
	if !ok {
		return d.sessionFailure(ctx, cmd.Kind, "The login", sessionID)
	}
	return success(cmd.Kind, "The login is successful.")
}

// logout invalidates the session and marks the user unauthenticated.
// Eventless: no audit records are produced.
func (d *Dispatcher) logout(ctx context.Context, cmd *command.Command) domain.Result {
	sessionID := cmd.Arg(command.ArgSessionID)

	s, ok, err := d.sessions.GetValid(ctx, sessionID)
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}
	if !ok {
		return d.sessionFailure(ctx, cmd.Kind, "The logout", sessionID)
	}

	if user, err := d.dir.Get(s.Username); err == nil {
		user.Auth = domain.Unauthenticated
		if err := d.dir.Put(user); err != nil {
			return d.internalFailure(cmd.Kind, err)
		}
	}
	if err := d.sessions.Remove(ctx, sessionID); err != nil {
		return d.internalFailure(cmd.Kind, err)
	}

	d.logger.Info().Str("username", s.Username).Msg("user logged out")
	return success(cmd.Kind, "The logout is successful.")
}

// resetPassword replaces the credential of the session's user after
// verifying both the supplied username and the old credential.
func (d *Dispatcher) resetPassword(ctx context.Context, cmd *command.Command) domain.Result {
	sessionID := cmd.Arg(command.ArgSessionID)

	s, ok, err := d.sessions.GetValid(ctx, sessionID)
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}
	if !ok {
		return d.sessionFailure(ctx, cmd.Kind, "The password reset", sessionID)
	}

	if s.Username != cmd.Arg(command.ArgUsername) {
		return failure(cmd.Kind, fmt.Sprintf(
			"The password reset is unsuccessful. The username is not correct for session Id: %s.", sessionID))
	}

	user, err := d.dir.Get(s.Username)
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.CredentialHash), []byte(cmd.Arg(command.ArgOldPassword))) != nil {
		return failure(cmd.Kind, "The password reset is unsuccessful. The password is not correct.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Arg(command.ArgNewPassword)), bcrypt.DefaultCost)
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}
	user.CredentialHash = string(hash)
	if err := d.dir.Put(user); err != nil {
		return d.internalFailure(cmd.Kind, err)
	}

	d.logger.Info().Str("username", user.Username).Msg("password reset")
	return success(cmd.Kind, "The password reset is successful.")
}

// updateUser merges the supplied optional fields over the session's
// user, re-keys the directory under a changed username, and replaces
// the session keeping its id and expiry.
func (d *Dispatcher) updateUser(ctx context.Context, cmd *command.Command) domain.Result {
	sessionID := cmd.Arg(command.ArgSessionID)

	s, ok, err := d.sessions.GetValid(ctx, sessionID)
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}
	if !ok {
		return d.sessionFailure(ctx, cmd.Kind, "The user update", sessionID)
	}

	user, err := d.dir.Get(s.Username)
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}

	oldUsername := user.Username
	if cmd.Has(command.ArgNewUsername) {
		user.Username = cmd.Arg(command.ArgNewUsername)
	}
	if cmd.Has(command.ArgNewFirstName) {
		user.FirstName = cmd.Arg(command.ArgNewFirstName)
	}
	if cmd.Has(command.ArgNewLastName) {
		user.LastName = cmd.Arg(command.ArgNewLastName)
	}
	if cmd.Has(command.ArgNewEmail) {
		user.Email = cmd.Arg(command.ArgNewEmail)
	}

	if err := d.dir.Rekey(oldUsername, user); err != nil {
		if errors.Is(err, directory.ErrAlreadyExists) {
			return failure(cmd.Kind, fmt.Sprintf(
				"The user update is unsuccessful. An user with the username: %s already exists.", user.Username))
		}
		return d.internalFailure(cmd.Kind, err)
	}

	s.Username = user.Username
	if err := d.sessions.Replace(ctx, s); err != nil {
		return d.internalFailure(cmd.Kind, err)
	}

	d.logger.Info().Str("username", user.Username).Str("previous_username", oldUsername).Msg("user updated")
	return success(cmd.Kind, "The update is successful.")
}

// addAdmin grants the ADMIN role to the target user. The actor's role
// was already verified by the requireAdmin gate.
func (d *Dispatcher) addAdmin(ctx context.Context, cmd *command.Command) domain.Result {
	sessionID := cmd.Arg(command.ArgSessionID)
	target := cmd.Arg(command.ArgUsername)

	s, ok, err := d.sessions.GetValid(ctx, sessionID)
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}
	if !ok {
		return d.sessionFailure(ctx, cmd.Kind, "The adding of a new admin", sessionID)
	}

	user, err := d.dir.Get(target)
	if errors.Is(err, directory.ErrNotFound) {
		return failure(cmd.Kind, fmt.Sprintf(
			"The adding of a new admin is unsuccessful. An user with the username %s doesn't exist.", target))
	}
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}
	if user.IsAdmin() {
		return failure(cmd.Kind, fmt.Sprintf(
			"The adding of a new admin is unsuccessful. An user with the username %s is already an admin.", target))
	}

	user.Role = domain.RoleAdmin
	if err := d.dir.Put(user); err != nil {
		return d.internalFailure(cmd.Kind, err)
	}

	d.logger.Info().Str("username", target).Str("granted_by", s.Username).Msg("admin role granted")
	return success(cmd.Kind, fmt.Sprintf("The adding user with username %s is successful.", target))
}

// removeAdmin revokes the ADMIN role from the target user. The last
// remaining admin can never be demoted.
func (d *Dispatcher) removeAdmin(ctx context.Context, cmd *command.Command) domain.Result {
	sessionID := cmd.Arg(command.ArgSessionID)
	target := cmd.Arg(command.ArgUsername)

	s, ok, err := d.sessions.GetValid(ctx, sessionID)
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}
	if !ok {
		return d.sessionFailure(ctx, cmd.Kind, "The removing of the admin", sessionID)
	}

	user, err := d.dir.Get(target)
	if errors.Is(err, directory.ErrNotFound) {
		return failure(cmd.Kind, fmt.Sprintf(
			"The removing of the admin is unsuccessful. An user with the username %s doesn't exist.", target))
	}
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}
	if !user.IsAdmin() {
		return failure(cmd.Kind, fmt.Sprintf(
			"The removing of the admin is unsuccessful. An user with the username %s is currently not an admin.", target))
	}
	if len(d.dir.Admins()) == 1 {
		return failure(cmd.Kind, "The removing of the admin is unsuccessful. There is only one admin left.")
	}

	user.Role = domain.RoleUser
	if err := d.dir.Put(user); err != nil {
		return d.internalFailure(cmd.Kind, err)
	}

	d.logger.Info().Str("username", target).Str("revoked_by", s.Username).Msg("admin role revoked")
	return success(cmd.Kind, fmt.Sprintf("The removing of the admin with username %s is successful.", target))
}

// deleteUser removes the target user and all their sessions. An admin
// cannot delete themselves while being the sole remaining admin.
func (d *Dispatcher) deleteUser(ctx context.Context, cmd *command.Command) domain.Result {
	sessionID := cmd.Arg(command.ArgSessionID)
	target := cmd.Arg(command.ArgUsername)

	s, ok, err := d.sessions.GetValid(ctx, sessionID)
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}
	if !ok {
		return d.sessionFailure(ctx, cmd.Kind, "The deletion of the user", sessionID)
	}

	if _, err := d.dir.Get(target); errors.Is(err, directory.ErrNotFound) {
		return failure(cmd.Kind, fmt.Sprintf(
			"The deletion of the user is unsuccessful. An user with the username %s doesn't exist.", target))
	} else if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}

	if target == s.Username && len(d.dir.Admins()) == 1 {
		return failure(cmd.Kind, fmt.Sprintf(
			"The deletion of the user is unsuccessful. An user with the username %s is the only left admin.", target))
	}

	if err := d.dir.Remove(target); err != nil {
		return d.internalFailure(cmd.Kind, err)
	}
	if err := d.sessions.RemoveAllForUser(ctx, target); err != nil {
		return d.internalFailure(cmd.Kind, err)
	}

	d.logger.Info().Str("username", target).Str("deleted_by", s.Username).Msg("user deleted")
	return success(cmd.Kind, fmt.Sprintf("The deletion of the user with an username %s is successful.", target))
}

// downloadDatabase triggers the exporter and reports the output
// location. Eventless: no audit records are produced.
func (d *Dispatcher) downloadDatabase(ctx context.Context, cmd *command.Command) domain.Result {
	sessionID := cmd.Arg(command.ArgSessionID)

	_, ok, err := d.sessions.GetValid(ctx, sessionID)
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}
	if !ok {
		return d.sessionFailure(ctx, cmd.Kind, "The download", sessionID)
	}

	if d.exporter == nil {
		return failure(cmd.Kind, "The download is unsuccessful. Database export is not configured.")
	}
	location, err := d.exporter.Export(ctx)
	if err != nil {
		return d.internalFailure(cmd.Kind, err)
	}
	return success(cmd.Kind, fmt.Sprintf("The download of the database is successful in the file: %s.", location))
}
