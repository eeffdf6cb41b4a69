package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prn-tf/warden/internal/command"
	"github.com/prn-tf/warden/internal/domain"
)

// actorAt resolves the acting username at the moment of emission.
// Register carries no session, so the supplied username stands in.
func (d *Dispatcher) actorAt(ctx context.Context, cmd *command.Command) string {
	if cmd.Kind == domain.KindRegister {
		return cmd.Arg(command.ArgUsername)
	}
	return d.resolveActor(ctx, cmd.Arg(command.ArgSessionID))
}

func (d *Dispatcher) startEvent(ctx context.Context, seq uint64, cmd *command.Command, remoteAddr string) domain.Event {
	return domain.Event{
		Seq:         seq,
		Timestamp:   time.Now().UTC(),
		Type:        domain.EventStart,
		Kind:        cmd.Kind,
		Username:    d.actorAt(ctx, cmd),
		RemoteAddr:  remoteAddr,
		Description: fmt.Sprintf("%s command is starting.", cmd.Kind),
	}
}

func (d *Dispatcher) endEvent(ctx context.Context, seq uint64, cmd *command.Command, res domain.Result, remoteAddr string) domain.Event {
	return domain.Event{
		Seq:         seq,
		Timestamp:   time.Now().UTC(),
		Type:        domain.EventEnd,
		Kind:        cmd.Kind,
		Username:    d.actorAt(ctx, cmd),
		RemoteAddr:  remoteAddr,
		Description: fmt.Sprintf("%s command finished %s.", cmd.Kind, res.Status),
	}
}

// failedLoginEvent records an unsuccessful login attempt. The username
// is known only for login by username; a session id reveals nothing.
func failedLoginEvent(cmd *command.Command, remoteAddr string) domain.Event {
	username := domain.UnknownActor
	if cmd.Kind == domain.KindLoginByUsername {
		username = cmd.Arg(command.ArgUsername)
	}
	return domain.Event{
		Timestamp:   time.Now().UTC(),
		Type:        domain.EventFailedLogin,
		Kind:        cmd.Kind,
		Username:    username,
		RemoteAddr:  remoteAddr,
		Description: "Login attempt failed.",
	}
}
