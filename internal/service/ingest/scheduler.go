package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers an ingestion run on the configured cron spec.
type Scheduler struct {
	cron   *cron.Cron
	svc    *Service
	spec   string
	logger *slog.Logger
}

// NewScheduler creates a Scheduler running the service on the given spec.
func NewScheduler(svc *Service, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		svc:    svc,
		spec:   spec,
		logger: logger.With("component", "scheduler"),
	}
}

// Start registers the run job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runScheduled); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec)
	return nil
}

// Stop stops the cron loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// runScheduled executes one scheduled ingestion run. Panics are contained;
// a crashing run must not take down the cron loop.
func (s *Scheduler) runScheduled() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled run panicked", "panic", r)
		}
	}()

	s.logger.Info("scheduled run starting")
	outcome, err := s.svc.Run(context.Background(), nil)
	switch {
	case err != nil:
		s.logger.Error("scheduled run failed", "error", err)
	case outcome == nil:
		s.logger.Info("scheduled run found no content changes")
	default:
		s.logger.Info("scheduled run stored artifacts", "count", len(outcome.Stored))
	}
}
