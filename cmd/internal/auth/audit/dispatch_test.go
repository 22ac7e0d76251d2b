package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type captureRecorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *captureRecorder) Record(_ context.Context, _ time.Time, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *captureRecorder) recorded() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestDispatcher_SubmitAndDrain(t *testing.T) {
	rec := &captureRecorder{}
	d := NewDispatcher(discardLogger(), rec)

	now := time.Now()
	d.Submit(now, Event{ActorID: "u1", Action: ActionLogin})
	d.Submit(now, Event{ActorID: "u1", Action: ActionLogout})
	d.Drain()

	events := rec.recorded()
	if len(events) != 2 {
		t.Fatalf("recorded %d events, want 2", len(events))
	}
	seen := map[string]bool{}
	for _, ev := range events {
		seen[ev.Action] = true
	}
	if !seen[ActionLogin] || !seen[ActionLogout] {
		t.Fatalf("missing actions, got %+v", events)
	}
}

func TestDispatcher_RecorderFailureIsSwallowed(t *testing.T) {
	rec := &captureRecorder{err: errors.New("table on fire")}
	d := NewDispatcher(discardLogger(), rec)

	// Must not panic or propagate.
	d.Submit(time.Now(), Event{Action: ActionReuseDetected})
	d.Drain()
}

func TestDispatcher_NilIsNoop(t *testing.T) {
	var d *Dispatcher
	d.Submit(time.Now(), Event{Action: ActionLogin})
	d.Drain()
}
