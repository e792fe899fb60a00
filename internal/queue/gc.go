package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/keyword-rotator/internal/metrics"
	"go.uber.org/zap"
)

const purgeTimeout = 2 * time.Minute

// DLQJanitor keeps the dead-letter queue from growing without bound. Failed rotation and
// suggestion jobs stay inspectable for the retention period, then are dropped.
type DLQJanitor struct {
	purger    DLQPurger
	interval  time.Duration
	retention time.Duration
	log       *zap.Logger
}

// NewDLQJanitor creates a janitor that sweeps every interval.
func NewDLQJanitor(purger DLQPurger, interval, retention time.Duration, log *zap.Logger) *DLQJanitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &DLQJanitor{
		purger:    purger,
		interval:  interval,
		retention: retention,
		log:       log,
	}
}

// Run sweeps once immediately, so a restart does not delay cleanup by a full interval,
// then on every tick until ctx is cancelled.
func (j *DLQJanitor) Run(ctx context.Context) error {
	j.log.Info("dlq_janitor_started",
		zap.Duration("interval", j.interval),
		zap.Duration("retention", j.retention),
	)
	j.sweepAndLog(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.sweepAndLog(ctx)
		}
	}
}

func (j *DLQJanitor) sweepAndLog(ctx context.Context) {
	if _, err := j.sweep(ctx); err != nil && ctx.Err() == nil {
		j.log.Warn("dlq_sweep_failed", zap.Error(err))
	}
}

// sweep returns how many dead-lettered jobs were removed. Partial progress is counted
// even when the purge fails part way.
func (j *DLQJanitor) sweep(ctx context.Context) (int, error) {
	if j.purger == nil {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()

	n, err := j.purger.PurgeOlderThan(ctx, j.retention)
	metrics.RecordDLQPurged(n)
	if n > 0 {
		j.log.Info("dlq_purged",
			zap.Int("purged", n),
			zap.Duration("retention", j.retention),
		)
	}
	if err != nil {
		return n, fmt.Errorf("purge dead-lettered jobs: %w", err)
	}
	return n, nil
}
