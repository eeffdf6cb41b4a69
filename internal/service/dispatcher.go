// Package service implements the command dispatch pipeline: a raw
// command line plus a transport tier becomes a validated, role-checked,
// executed operation with a result and audit events.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/warden/internal/audit"
	"github.com/prn-tf/warden/internal/command"
	"github.com/prn-tf/warden/internal/directory"
	"github.com/prn-tf/warden/internal/domain"
	"github.com/prn-tf/warden/internal/export"
	"github.com/prn-tf/warden/internal/metrics"
	"github.com/prn-tf/warden/internal/session"
)

// invalidCommandMessage is the generic response for requests rejected
// before execution. The specific reason goes to the troubleshooting log
// only.
const invalidCommandMessage = "Invalid command. Please enter new command."

// Dispatcher executes operations against the directory and session
// store. It never panics and always returns a well-formed result; a
// business-rule violation is an Unsuccessful outcome, not an error.
type Dispatcher struct {
	dir      directory.Directory
	sessions session.Store
	exporter export.Exporter
	audit    *audit.Dispatcher
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	handlers map[domain.Kind]func(context.Context, *command.Command) domain.Result
}

// NewDispatcher wires the dispatcher. exporter may be nil when the
// download-database operation is disabled.
func NewDispatcher(
	dir directory.Directory,
	sessions session.Store,
	exporter export.Exporter,
	auditor *audit.Dispatcher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Dispatcher {
	d := &Dispatcher{
		dir:      dir,
		sessions: sessions,
		exporter: exporter,
		audit:    auditor,
		metrics:  m,
		logger:   logger.With().Str("service", "dispatcher").Logger(),
	}
	d.handlers = map[domain.Kind]func(context.Context, *command.Command) domain.Result{
		domain.KindRegister:         d.register,
		domain.KindLoginByUsername:  d.loginByUsername,
		domain.KindLoginBySessionID: d.loginBySessionID,
		domain.KindUpdateUser:       d.updateUser,
		domain.KindResetPassword:    d.resetPassword,
		domain.KindLogout:           d.logout,
		domain.KindAddAdmin:         d.addAdmin,
		domain.KindRemoveAdmin:      d.removeAdmin,
		domain.KindDeleteUser:       d.deleteUser,
		domain.KindDownloadDatabase: d.downloadDatabase,
	}
	for kind, handler := range d.handlers {
		if command.AdminOnly(kind) {
			d.handlers[kind] = d.requireAdmin(kind, handler)
		}
	}
	return d
}

// adminPhrase is the message prefix of each ADMIN-only operation,
// shared by its session and role failure texts.
var adminPhrase = map[domain.Kind]string{
	domain.KindAddAdmin:    "The adding of a new admin",
	domain.KindRemoveAdmin: "The removing of the admin",
	domain.KindDeleteUser:  "The deletion of the user",
}

// requireAdmin gates a handler behind the policy table's ADMIN role
// requirement. The role check is a business rule, so a non-admin actor
// gets an Unsuccessful outcome rather than a transport rejection.
func (d *Dispatcher) requireAdmin(kind domain.Kind, handler func(context.Context, *command.Command) domain.Result) func(context.Context, *command.Command) domain.Result {
	phrase := adminPhrase[kind]
	return func(ctx context.Context, cmd *command.Command) domain.Result {
		sessionID := cmd.Arg(command.ArgSessionID)

		s, ok, err := d.sessions.GetValid(ctx, sessionID)
		if err != nil {
			return d.internalFailure(kind, err)
		}
		if !ok {
			return d.sessionFailure(ctx, kind, phrase, sessionID)
		}

		actor, err := d.dir.Get(s.Username)
		if err != nil {
			return d.internalFailure(kind, err)
		}
		if !actor.IsAdmin() {
			return failure(kind, fmt.Sprintf(
				"%s is unsuccessful. The user with the session Id: %s doesn't have administrative permissions.", phrase, sessionID))
		}
		return handler(ctx, cmd)
	}
}

// Execute runs one raw command arriving on the given transport tier.
// remoteAddr is the caller's address, recorded on audit events.
func (d *Dispatcher) Execute(ctx context.Context, raw string, tier domain.Tier, remoteAddr string) domain.Result {
	start := time.Now()

	cmd, err := command.Parse(raw)
	if err != nil {
		d.logger.Warn().Err(err).Str("remote_addr", remoteAddr).Msg("rejected malformed command")
		if d.metrics != nil {
			d.metrics.RejectedTotal.WithLabelValues("malformed").Inc()
		}
		return invalidResult()
	}

	if err := command.CheckTier(cmd.Kind, tier); err != nil {
		d.logger.Warn().Err(err).Str("remote_addr", remoteAddr).Msg("rejected unauthorized command")
		if d.metrics != nil {
			d.metrics.RejectedTotal.WithLabelValues("tier_mismatch").Inc()
		}
		return invalidResult()
	}

	res := d.dispatch(ctx, cmd, remoteAddr)

	if d.metrics != nil {
		d.metrics.CommandsTotal.WithLabelValues(string(cmd.Kind), string(res.Status)).Inc()
		d.metrics.CommandDuration.WithLabelValues(string(cmd.Kind)).Observe(time.Since(start).Seconds())
	}
	return res
}

// dispatch drives the two-phase event protocol around the handler.
func (d *Dispatcher) dispatch(ctx context.Context, cmd *command.Command, remoteAddr string) domain.Result {
	handler := d.handlers[cmd.Kind]

	switch {
	case isLogin(cmd.Kind):
		res := handler(ctx, cmd)
		if res.Status == domain.StatusUnsuccessful {
			d.audit.Log(failedLoginEvent(cmd, remoteAddr))
			if d.metrics != nil {
				d.metrics.FailedLogins.Inc()
			}
		}
		return res

	case isEventless(cmd.Kind):
		return handler(ctx, cmd)

	default:
		seq := d.audit.NextSeq()
		d.audit.Log(d.startEvent(ctx, seq, cmd, remoteAddr))
		res := handler(ctx, cmd)
		d.audit.Log(d.endEvent(ctx, seq, cmd, res, remoteAddr))
		return res
	}
}

func invalidResult() domain.Result {
	return domain.Result{
		Message: invalidCommandMessage,
		Status:  domain.StatusUnsuccessful,
		Kind:    domain.KindInvalid,
	}
}

// isLogin reports whether the operation follows the failed-login event
// protocol instead of start/end events.
func isLogin(kind domain.Kind) bool {
	return kind == domain.KindLoginByUsername || kind == domain.KindLoginBySessionID
}

// isEventless reports whether the operation emits no audit events.
func isEventless(kind domain.Kind) bool {
	return kind == domain.KindLogout || kind == domain.KindDownloadDatabase
}

// resolveActor returns the session's owning username if the session is
// valid at this instant, else UnknownActor. Validity can change between
// the start and end of one call, so the two events may disagree.
func (d *Dispatcher) resolveActor(ctx context.Context, sessionID string) string {
	s, ok, err := d.sessions.GetValid(ctx, sessionID)
	if err != nil || !ok {
		return domain.UnknownActor
	}
	return s.Username
}

// internalFailure is returned when a collaborator fails unexpectedly.
func (d *Dispatcher) internalFailure(kind domain.Kind, err error) domain.Result {
	d.logger.Error().Err(err).Str("kind", string(kind)).Msg("operation failed internally")
	return domain.Result{
		Message: "The operation could not be completed. Please try again later.",
		Status:  domain.StatusUnsuccessful,
		Kind:    kind,
	}
}

// sessionFailure builds the Unsuccessful result for an invalid session,
// distinguishing a session that was logged out or expired from one that
// never existed.
func (d *Dispatcher) sessionFailure(ctx context.Context, kind domain.Kind, prefix, sessionID string) domain.Result {
	issued, err := d.sessions.WasIssued(ctx, sessionID)
	if err != nil {
		return d.internalFailure(kind, err)
	}
	if issued {
		return domain.Result{
			Message:   prefix + " is unsuccessful. The user with the session Id: " + sessionID + " is logged out.",
			Status:    domain.StatusUnsuccessful,
			Kind:      kind,
			LoggedOut: true,
		}
	}
	return domain.Result{
		Message: prefix + " is unsuccessful. An user with the session Id: " + sessionID + " doesn't exist.",
		Status:  domain.StatusUnsuccessful,
		Kind:    kind,
	}
}

func success(kind domain.Kind, message string) domain.Result {
	return domain.Result{Message: message, Status: domain.StatusSuccessful, Kind: kind}
}

func failure(kind domain.Kind, message string) domain.Result {
	return domain.Result{Message: message, Status: domain.StatusUnsuccessful, Kind: kind}
}
