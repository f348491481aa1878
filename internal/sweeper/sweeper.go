package sweeper

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/starpool/starpool-backend/internal/metrics"
	"github.com/starpool/starpool-backend/internal/services"
	"github.com/starpool/starpool-backend/internal/worker"
)

// Sweeper periodically cancels and refunds pools whose deadline has passed.
// Each tick submits one sweep to the worker pool; a tick that fires while a
// sweep is still in flight is skipped rather than queued behind it.
type Sweeper struct {
	pools    *services.PoolService
	wp       *worker.Pool
	interval time.Duration
	inFlight atomic.Bool
}

func New(pools *services.PoolService, wp *worker.Pool, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{pools: pools, wp: wp, interval: interval}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	slog.Info("sweeper started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return
	}
	s.wp.Submit(func() {
		defer s.inFlight.Store(false)
		if ctx.Err() != nil {
			return
		}
		if _, err := s.pools.CleanupExpired(ctx); err != nil {
			slog.Error("expiry sweep failed", "err", err)
			return
		}
		metrics.SweepRunsTotal.Inc()
	})
}
