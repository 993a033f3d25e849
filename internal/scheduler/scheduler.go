package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of recurring work. A returned error stops the scheduler.
type Task func(ctx context.Context) error

// Scheduler runs a task immediately and then once per Interval until the
// context is cancelled or the task fails.
type Scheduler struct {
	Interval time.Duration
	// Align delays the first tick to the next multiple of Interval (UTC).
	Align  bool
	Logger *zap.Logger

	now func() time.Time
}

func New(interval time.Duration, align bool, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{Interval: interval, Align: align, Logger: logger, now: time.Now}
}

// Run blocks until ctx is done (returning nil) or task returns an error
// (returning it). Ticks that fire while the task is still running are dropped.
func (s *Scheduler) Run(ctx context.Context, task Task) error {
	if s.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", s.Interval)
	}
	if s.now == nil {
		s.now = time.Now
	}

	// Run immediately once at startup
	if err := s.run(ctx, task); err != nil {
		return err
	}

	if s.Align {
		wait := s.untilBoundary()
		s.Logger.Info("next update", zap.Time("at", s.now().Add(wait)), zap.Duration("in", wait))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		if err := s.run(ctx, task); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		s.Logger.Info("next update", zap.Duration("in", s.Interval))
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.run(ctx, task); err != nil {
				return err
			}
		}
	}
}

func (s *Scheduler) run(ctx context.Context, task Task) error {
	if ctx.Err() != nil {
		return nil
	}
	err := task(ctx)
	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// untilBoundary is the time left until the next multiple of Interval.
func (s *Scheduler) untilBoundary() time.Duration {
	now := s.now().UTC()
	next := now.Truncate(s.Interval).Add(s.Interval)
	return next.Sub(now)
}
