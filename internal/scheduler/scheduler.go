// Package scheduler runs the time-driven booking transitions on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"rental-booking/internal/usecase"
	"rental-booking/pkg/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 2 * time.Minute

type Scheduler struct {
	cron   *cron.Cron
	sweep  usecase.SweepService
	config utils.SweepConfig
	log    *zap.Logger
}

func NewScheduler(sweep usecase.SweepService, config utils.SweepConfig, log *zap.Logger) *Scheduler {
	log = log.With(zap.String("component", "scheduler"))
	logger := cron.PrintfLogger(zap.NewStdLog(log))

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		sweep:  sweep,
		config: config,
		log:    log,
	}
}

// Start registers the sweep jobs and starts the cron loop. Jobs derive their context from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.config.CompleteSpec, func() { s.completeElapsed(ctx) }); err != nil {
		return fmt.Errorf("schedule completion sweep %q: %w", s.config.CompleteSpec, err)
	}
	if _, err := s.cron.AddFunc(s.config.ExpireSpec, func() { s.expireStale(ctx) }); err != nil {
		return fmt.Errorf("schedule pending expiry %q: %w", s.config.ExpireSpec, err)
	}

	s.cron.Start()
	s.log.Info("Scheduler started",
		zap.String("complete_spec", s.config.CompleteSpec),
		zap.String("expire_spec", s.config.ExpireSpec),
	)
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.log.Info("Stopping scheduler...")
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Scheduler) completeElapsed(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	if _, err := s.sweep.CompleteElapsed(ctx); err != nil {
		s.log.Error("Completion sweep failed", zap.Error(err))
	}
}

func (s *Scheduler) expireStale(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	if _, err := s.sweep.ExpireStale(ctx); err != nil {
		s.log.Error("Pending expiry failed", zap.Error(err))
	}
}
