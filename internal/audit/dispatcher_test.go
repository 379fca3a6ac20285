package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type recorderStub struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recorderStub) Record(ctx context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func TestDispatcher_CloseDrainsQueue(t *testing.T) {
	t.Parallel()

	rec := &recorderStub{}
	d := NewDispatcher(rec, nil)

	for i := 0; i < 10; i++ {
		d.Dispatch(Event{Action: "appointment_completed", Entity: "appointment"})
	}
	d.Close()

	if len(rec.events) != 10 {
		t.Fatalf("expected 10 recorded events, got %d", len(rec.events))
	}
}

func TestDispatcher_AfterCloseIsNoop(t *testing.T) {
	t.Parallel()

	rec := &recorderStub{}
	d := NewDispatcher(rec, nil)
	d.Close()
	d.Close()

	d.Dispatch(Event{Action: "late"})
	if len(rec.events) != 0 {
		t.Fatalf("expected nothing recorded after close, got %d", len(rec.events))
	}
}

func TestDispatcher_RecorderErrorDoesNotStopWorker(t *testing.T) {
	t.Parallel()

	rec := &recorderStub{err: errors.New("db down")}
	d := NewDispatcher(rec, nil)
	d.Dispatch(Event{Action: "a"})
	d.Dispatch(Event{Action: "b"})
	d.Close()

	if len(rec.events) != 2 {
		t.Fatalf("expected both events attempted, got %d", len(rec.events))
	}
}

func TestDispatcher_NilIsSafe(t *testing.T) {
	t.Parallel()

	var d *Dispatcher
	d.Dispatch(Event{Action: "x"})
	d.Close()
}
