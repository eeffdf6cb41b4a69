package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/warden/internal/directory"
	"github.com/prn-tf/warden/internal/domain"
	"github.com/prn-tf/warden/internal/session"
)

// Reconciler periodically flips users whose last session expired
// without an explicit logout back to UNAUTHENTICATED, so the directory
// state does not drift from the session store.
type Reconciler struct {
	dir      directory.Directory
	sessions session.Store
	interval time.Duration
	logger   zerolog.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewReconciler creates a reconciler with the given period. A
// non-positive interval falls back to one minute.
func NewReconciler(dir directory.Directory, sessions session.Store, interval time.Duration, logger zerolog.Logger) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reconciler{
		dir:      dir,
		sessions: sessions,
		interval: interval,
		logger:   logger.With().Str("component", "auth-reconciler").Logger(),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the reconcile loop.
func (r *Reconciler) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.logger.Info().Dur("interval", r.interval).Msg("starting auth reconciler")
	go r.runLoop()
}

// Stop stops the reconcile loop and waits for it to exit.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopChan)
	<-r.doneChan
	r.logger.Info().Msg("auth reconciler stopped")
}

func (r *Reconciler) runLoop() {
	defer close(r.doneChan)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.RunOnce(context.Background())
		case <-r.stopChan:
			return
		}
	}
}

// RunOnce executes a single reconciliation. Exposed for manual runs and
// tests. Users deleted since their session expired are skipped.
func (r *Reconciler) RunOnce(ctx context.Context) {
	usernames, err := r.sessions.UsersWithExpiredLast(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("reconcile failed")
		return
	}

	flipped := 0
	for _, username := range usernames {
		user, err := r.dir.Get(username)
		if errors.Is(err, directory.ErrNotFound) {
			continue
		}
		if err != nil {
			r.logger.Error().Err(err).Str("username", username).Msg("reconcile lookup failed")
			continue
		}
		if user.Auth == domain.Unauthenticated {
			continue
		}
		user.Auth = domain.Unauthenticated
		if err := r.dir.Put(user); err != nil {
			r.logger.Error().Err(err).Str("username", username).Msg("reconcile update failed")
			continue
		}
		flipped++
	}
	if flipped > 0 {
		r.logger.Debug().Int("users", flipped).Msg("reconciled expired authentications")
	}
}
