// Package scheduler runs the daily badge reconciliation job
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/example/engcoach/internal/logger"
	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"
)

// Default schedule settings
const (
	DefaultHour         = 3
	DefaultLookbackDays = 7
)

// Service is what the job needs from the learning service
type Service interface {
	ActiveLearners(ctx context.Context, window time.Duration) ([]string, error)
	Checkpoint(ctx context.Context, learnerID string) ([]string, error)
}

// Config controls when the job runs and how far back it looks
type Config struct {
	Hour         int
	LookbackDays int
	Location     *time.Location
}

// Report summarises one reconciliation run
type Report struct {
	Learners int
	Awarded  int
	Failed   int
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Service
	hour      int
	lookback  time.Duration
	log       *logger.Logger
}

// New creates a new scheduler instance
func New(service Service, cfg Config, log *logger.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Hour < 0 || cfg.Hour > 23 {
		cfg.Hour = DefaultHour
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	if log == nil {
		log = logger.Nop()
	}

	s := gocron.NewScheduler(cfg.Location)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		service:   service,
		hour:      cfg.Hour,
		lookback:  time.Duration(cfg.LookbackDays) * 24 * time.Hour,
		log:       log,
	}
}

// Start schedules the daily run and returns without blocking. Runs use ctx
// and stop picking up learners once it is done.
func (s *Scheduler) Start(ctx context.Context) error {
	at := fmt.Sprintf("%02d:00", s.hour)
	_, err := s.scheduler.Every(1).Day().At(at).Do(func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Error("badge reconciliation failed", "error", err)
		}
	})
	if err != nil {
		return errors.Wrap(err, "failed to schedule badge reconciliation")
	}

	s.scheduler.StartAsync()
	_, next := s.scheduler.NextRun()
	s.log.Info("scheduler started", "at", at, "next_run", next)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunOnce re-evaluates badges for every recently active learner. A failure
// for one learner is logged and does not stop the run.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	var report Report

	learners, err := s.service.ActiveLearners(ctx, s.lookback)
	if err != nil {
		return report, errors.Wrap(err, "failed to list active learners")
	}
	report.Learners = len(learners)

	for _, id := range learners {
		if err := ctx.Err(); err != nil {
			return report, errors.Wrap(err, "badge reconciliation interrupted")
		}
		earned, err := s.service.Checkpoint(ctx, id)
		if err != nil {
			report.Failed++
			s.log.Warn("badge checkpoint failed", "learner", id, "error", err)
			continue
		}
		report.Awarded += len(earned)
	}

	s.log.Info("badge reconciliation finished",
		"learners", report.Learners, "awarded", report.Awarded, "failed", report.Failed)
	return report, nil
}
