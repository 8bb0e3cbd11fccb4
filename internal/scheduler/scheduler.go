// Package scheduler periodically rebuilds the accuracy metric snapshots.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonathan/internx-match/internal/logging"
	"github.com/jonathan/internx-match/internal/types"
	"go.uber.org/zap"
)

// Aggregator computes and stores one day of snapshots.
type Aggregator interface {
	Aggregate(ctx context.Context, day time.Time) ([]types.MetricSnapshot, error)
}

// DefaultTimeout bounds a single run.
const DefaultTimeout = 2 * time.Minute

// Scheduler runs the snapshot aggregation on a fixed interval.
type Scheduler struct {
	agg       Aggregator
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
	running   atomic.Bool
	newTicker func(time.Duration) ticker
	now       func() time.Time
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

// New creates a scheduler. A non-positive interval defaults to one hour.
func New(agg Aggregator, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		agg:       agg,
		interval:  interval,
		timeout:   DefaultTimeout,
		logger:    logging.OrNop(logger).Named("scheduler"),
		newTicker: defaultTicker,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start runs once immediately and then on every tick until ctx is done.
// A failed run is logged and retried on the next tick. Start returns nil
// when ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.agg == nil {
		return errors.New("scheduler missing aggregator")
	}
	s.logger.Info("snapshot scheduler started", zap.Duration("interval", s.interval))

	tick := s.newTicker(s.interval)
	defer tick.Stop()
	ch := tick.C()

	s.runLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("snapshot scheduler stopped")
			return nil
		case <-ch:
			s.runLogged(ctx)
		drain:
			for {
				select {
				case <-ch:
				default:
					break drain
				}
			}
		}
	}
}

func (s *Scheduler) runLogged(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("snapshot aggregation failed", zap.Error(err))
	}
}

// RunOnce aggregates yesterday, which may still have late records, and
// today. Overlapping calls are skipped.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if s.running.Swap(true) {
		s.logger.Debug("snapshot run already in progress")
		return nil
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	today := s.now()
	for _, day := range []time.Time{today.AddDate(0, 0, -1), today} {
		if _, err := s.agg.Aggregate(ctx, day); err != nil {
			return fmt.Errorf("aggregate %s: %w", day.Format(time.DateOnly), err)
		}
	}
	return nil
}

func defaultTicker(d time.Duration) ticker {
	return tickerWrapper{time.NewTicker(d)}
}

type tickerWrapper struct {
	*time.Ticker
}

func (t tickerWrapper) C() <-chan time.Time { return t.Ticker.C }
func (t tickerWrapper) Stop()               { t.Ticker.Stop() }
