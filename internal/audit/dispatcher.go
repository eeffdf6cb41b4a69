package audit

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/prn-tf/warden/internal/domain"
	"github.com/prn-tf/warden/internal/metrics"
)

// Config controls the asynchronous audit dispatcher.
type Config struct {
	// BufferSize is the channel capacity between producers and the
	// writer goroutine.
	BufferSize int

	// DropIfFull drops events instead of blocking producers when the
	// buffer is full.
	DropIfFull bool
}

// Dispatcher decouples command execution from audit persistence: Log
// enqueues, a single writer goroutine drains into the sink. It also
// owns the start-event sequence counter.
type Dispatcher struct {
	sink    Sink
	ch      chan domain.Event
	done    chan struct{}
	wg      sync.WaitGroup
	seq     atomic.Uint64
	dropped atomic.Uint64
	closed  atomic.Bool
	once    sync.Once

	dropIfFull bool
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

// NewDispatcher starts the writer goroutine.
func NewDispatcher(cfg Config, sink Sink, m *metrics.Metrics, logger zerolog.Logger) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if sink == nil {
		sink = NopSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		ch:         make(chan domain.Event, cfg.BufferSize),
		done:       make(chan struct{}),
		dropIfFull: cfg.DropIfFull,
		metrics:    m,
		logger:     logger.With().Str("component", "audit").Logger(),
	}

	d.wg.Add(1)
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.ch:
			d.write(event)
		case <-d.done:
			for {
				select {
				case event := <-d.ch:
					d.write(event)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) write(event domain.Event) {
	if err := d.sink.Write(event); err != nil {
		d.logger.Error().Err(err).Str("type", string(event.Type)).Msg("audit write failed")
	}
}

// NextSeq returns the sequence id for the next start/end event pair.
func (d *Dispatcher) NextSeq() uint64 {
	return d.seq.Add(1)
}

// Log enqueues an event. Never blocks the caller when DropIfFull is
// set; dropped events are counted.
func (d *Dispatcher) Log(event domain.Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if d.metrics != nil {
		d.metrics.AuditEvents.WithLabelValues(string(event.Type)).Inc()
	}

	if d.dropIfFull {
		select {
		case d.ch <- event:
		case <-d.done:
		default:
			d.dropped.Add(1)
			if d.metrics != nil {
				d.metrics.AuditDropped.Inc()
			}
		}
		return
	}

	select {
	case d.ch <- event:
	case <-d.done:
	}
}

// Dropped returns how many events were dropped by a full buffer.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Close drains the buffer, stops the writer, and closes the sink.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
		if err := d.sink.Close(); err != nil {
			d.logger.Error().Err(err).Msg("closing audit sink failed")
		}
	})
}
