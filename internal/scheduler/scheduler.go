// Package scheduler runs registered jobs on cron schedules. It is owned by
// main, started after wiring and stopped on shutdown.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work. Errors are logged, not retried.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler evaluating specs in loc. A job still running when
// its next tick arrives is skipped for that tick.
func New(loc *time.Location, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register adds job under a standard five-field cron spec or a descriptor
// such as "@every 1h".
func (s *Scheduler) Register(name, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		s.logger.Info("scheduled job started", slog.String("job", name))
		if err := job(s.ctx); err != nil {
			s.logger.Error("scheduled job failed",
				slog.String("job", name),
				slog.Duration("elapsed", time.Since(start)),
				slog.Any("error", err),
			)
			return
		}
		s.logger.Info("scheduled job finished", slog.String("job", name), slog.Duration("elapsed", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("scheduler.Register %s %q: %w", name, spec, err)
	}
	s.logger.Info("scheduled job registered", slog.String("job", name), slog.String("spec", spec))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx expires, at
// which point their context is cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return fmt.Errorf("scheduler.Stop: %w", ctx.Err())
	}
}
