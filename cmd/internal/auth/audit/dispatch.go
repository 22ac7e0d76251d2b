package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher decouples audit writes from the request path. Submit returns
// immediately; the write runs in its own goroutine with its own deadline so a
// slow audit table cannot stall a login.
type Dispatcher struct {
	log     *slog.Logger
	rec     Recorder
	timeout time.Duration

	wg sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. A nil dispatcher is safe to use and
// drops events, which keeps audit optional in tests.
func NewDispatcher(log *slog.Logger, rec Recorder) *Dispatcher {
	return &Dispatcher{
		log:     log,
		rec:     rec,
		timeout: 5 * time.Second,
	}
}

// Submit records an event asynchronously. The request's context is not used:
// audit writes must survive the response being sent.
func (d *Dispatcher) Submit(now time.Time, ev Event) {
	if d == nil {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.rec.Record(ctx, now, ev); err != nil {
			d.log.Error("audit.record.fail",
				slog.String("action", ev.Action),
				slog.String("actor_id", ev.ActorID),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Drain waits for in-flight writes. Called during shutdown.
func (d *Dispatcher) Drain() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
