// Package audit records who did what to which entity, off the request path.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cpg716/SuitSync-sub003/internal/logging"
)

const (
	queueSize     = 100
	recordTimeout = 5 * time.Second
)

type Event struct {
	UserID   *uint
	Action   string
	Entity   string
	EntityID *uint
	Metadata any
}

type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Dispatcher queues events for a single background writer. A full queue
// drops the event; auditing never blocks or fails the caller.
type Dispatcher struct {
	recorder Recorder
	logger   *slog.Logger
	queue    chan Event
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(recorder Recorder, logger *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		recorder: recorder,
		logger:   logging.Default(logger).With("component", "audit"),
		queue:    make(chan Event, queueSize),
		done:     make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := d.recorder.Record(ctx, ev); err != nil {
			d.logger.Error("audit write failed", "action", ev.Action, "entity", ev.Entity, "error", err)
		}
		cancel()
	}
}

// Dispatch is safe on a nil Dispatcher and after Close.
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	select {
	case d.queue <- ev:
	default:
		d.logger.Warn("audit queue full, dropping event", "action", ev.Action)
	}
}

// Close stops accepting events and waits for the queued ones to be written.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
}
