package session

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper deletes ledger rows that expired beyond the retention window. It is
// maintenance, not a security mechanism: expired rows are already unusable,
// they are removed only to bound table growth.
type Sweeper struct {
	log       *slog.Logger
	store     Store
	interval  time.Duration
	retention time.Duration
}

// NewSweeper builds a sweeper from the auth-core config.
func NewSweeper(log *slog.Logger, store Store, cfg Config) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		log:       log,
		store:     store,
		interval:  cfg.SweepInterval,
		retention: cfg.LedgerRetention,
	}
}

// Run sweeps on a ticker until ctx is canceled. Safe to run on any schedule
// with no cross-instance coordination; deletes are plain row deletes.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.retention)

	n, err := s.store.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		s.log.Error("auth.sweep.fail", "err", err)
		return
	}
	if n > 0 {
		s.log.Info("auth.sweep.done", "deleted", n, "cutoff", cutoff)
	}
}
