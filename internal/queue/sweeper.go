package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultSweepInterval = time.Hour
	sweepTimeout         = 2 * time.Minute
)

// DLQSweeper drops dead-lettered rollup jobs once they are older than the
// retention window. Rollups are recomputed from the logs, so an expired dead
// letter carries nothing worth keeping.
type DLQSweeper struct {
	purger    DLQPurger
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
}

// NewDLQSweeper returns a sweeper over purger. A non-positive interval means
// DefaultSweepInterval.
func NewDLQSweeper(purger DLQPurger, interval, retention time.Duration, logger *zap.Logger) *DLQSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &DLQSweeper{
		purger:    purger,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
// Sweep failures are logged and do not stop the loop.
func (s *DLQSweeper) Run(ctx context.Context) error {
	s.sweepAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *DLQSweeper) sweepAndLog(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("dlq_sweep_failed", zap.Error(err))
		}
		return
	}
	if n > 0 {
		s.logger.Info("dlq_sweep_purged",
			zap.Int("count", n),
			zap.Duration("retention", s.retention),
		)
	}
}

// Sweep purges once and returns how many dead letters were dropped.
func (s *DLQSweeper) Sweep(ctx context.Context) (int, error) {
	if s.purger == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()
	n, err := s.purger.PurgeOlderThan(ctx, s.retention)
	if err != nil {
		return 0, fmt.Errorf("failed to purge dead letters: %w", err)
	}
	return n, nil
}
