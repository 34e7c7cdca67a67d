// Package scheduler drives the watch daemon's periodic refresh loop.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// RefreshFunc is invoked on every interval.
type RefreshFunc func(ctx context.Context, at time.Time) error

// Options tune the refresh cadence.
type Options struct {
	Interval     time.Duration
	StartupDelay time.Duration
	RunAtStart   bool // fire once immediately after the startup delay
}

// Scheduler runs a refresh function at a fixed interval until the context
// is cancelled. Refresh errors are logged, never fatal: the loop outlives
// any one bad cycle.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, invoking refresh on each interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, refresh RefreshFunc) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if s.opts.RunAtStart {
		s.invoke(ctx, time.Now().UTC(), refresh)
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case at := <-ticker.C:
			s.invoke(ctx, at.UTC(), refresh)
		}
	}
}

func (s *Scheduler) invoke(ctx context.Context, at time.Time, refresh RefreshFunc) {
	s.logger.Info().Time("at", at).Msg("executing scheduled refresh")
	if err := refresh(ctx, at); err != nil {
		s.logger.Error().Err(err).Time("at", at).Msg("scheduled refresh failed")
	}
}
