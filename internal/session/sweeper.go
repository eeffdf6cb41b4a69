package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/warden/internal/metrics"
)

// Sweeper periodically removes expired sessions, independent of request
// traffic.
type Sweeper struct {
	store    Store
	interval time.Duration
	metrics  *metrics.Metrics
	logger   zerolog.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewSweeper creates a sweeper with the given period. A non-positive
// interval falls back to one minute.
func NewSweeper(store Store, interval time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		metrics:  m,
		logger:   logger.With().Str("component", "session-sweeper").Logger(),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (sw *Sweeper) Start() {
	sw.mu.Lock()
	if sw.running {
		sw.mu.Unlock()
		return
	}
	sw.running = true
	sw.mu.Unlock()

	sw.logger.Info().Dur("interval", sw.interval).Msg("starting session sweeper")
	go sw.runLoop()
}

// Stop stops the sweep loop and waits for it to exit.
func (sw *Sweeper) Stop() {
	sw.mu.Lock()
	if !sw.running {
		sw.mu.Unlock()
		return
	}
	sw.running = false
	sw.mu.Unlock()

	close(sw.stopChan)
	<-sw.doneChan
	sw.logger.Info().Msg("session sweeper stopped")
}

func (sw *Sweeper) runLoop() {
	defer close(sw.doneChan)

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sw.RunOnce(context.Background())
		case <-sw.stopChan:
			return
		}
	}
}

// RunOnce executes a single sweep. Exposed for manual runs and tests.
func (sw *Sweeper) RunOnce(ctx context.Context) {
	removed, err := sw.store.SweepExpired(ctx)
	if err != nil {
		sw.logger.Error().Err(err).Msg("sweep failed")
		return
	}
	if removed > 0 {
		sw.logger.Debug().Int("removed", removed).Msg("swept expired sessions")
	}
	if sw.metrics != nil {
		sw.metrics.SessionsSwept.Add(float64(removed))
		if active, err := sw.store.ActiveCount(ctx); err == nil {
			sw.metrics.SessionsActive.Set(float64(active))
		}
	}
}
