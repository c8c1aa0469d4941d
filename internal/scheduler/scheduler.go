package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// JobFunc is invoked on every cron trigger.
type JobFunc func(ctx context.Context, firedAt time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	// Spec is a standard 5-field cron expression.
	Spec     string
	RunOnce  bool
	Location *time.Location
}

const defaultSpec = "0 18 * * *"

// Scheduler drives recurring pipeline runs on a cron schedule. Overlapping
// triggers are skipped while a run is still in flight.
type Scheduler struct {
	spec     string
	runOnce  bool
	location *time.Location
	logger   zerolog.Logger

	running atomic.Bool
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) (*Scheduler, error) {
	spec := opts.Spec
	if spec == "" {
		spec = defaultSpec
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron spec %q: %w", spec, err)
	}
	location := opts.Location
	if location == nil {
		location = time.Local
	}
	return &Scheduler{
		spec:     spec,
		runOnce:  opts.RunOnce,
		location: location,
		logger:   logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Run blocks, invoking the job at every cron trigger until ctx is
// cancelled. With RunOnce set it returns after the first completed run.
func (s *Scheduler) Run(ctx context.Context, job JobFunc) error {
	done := make(chan struct{})
	var once atomic.Bool

	c := cron.New(cron.WithLocation(s.location))
	_, err := c.AddFunc(s.spec, func() {
		if !s.running.CompareAndSwap(false, true) {
			s.logger.Warn().Msg("previous run still in flight, skipping trigger")
			return
		}
		defer s.running.Store(false)

		firedAt := time.Now().In(s.location)
		s.logger.Info().Time("fired_at", firedAt).Msg("scheduled run starting")
		if err := job(ctx, firedAt); err != nil {
			s.logger.Error().Err(err).Msg("scheduled run failed")
		}

		if s.runOnce && once.CompareAndSwap(false, true) {
			close(done)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler: register job: %w", err)
	}

	c.Start()
	defer func() {
		stopCtx := c.Stop()
		<-stopCtx.Done()
	}()

	next := c.Entries()[0].Next
	s.logger.Info().Str("spec", s.spec).Time("next_run", next).Msg("scheduler started")

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Next reports when the schedule would fire after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	schedule, _ := cron.ParseStandard(s.spec)
	return schedule.Next(t.In(s.location))
}
