package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsAgent/internal/ports"
)

// Scheduler wires the interval driver with the workflow orchestrator.
type Scheduler struct {
	driver       ports.Scheduler
	orchestrator *Orchestrator
	goal         string
	logger       *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs of goal.
func NewScheduler(driver ports.Scheduler, orchestrator *Orchestrator, goal string, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, orchestrator: orchestrator, goal: goal, logger: logger}
}

// Start registers the workflow with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.orchestrator == nil {
		return nil
	}

	job := func(trigger time.Time) {
		result, err := s.orchestrator.Run(ctx, s.goal)
		switch {
		case err != nil:
			warn(s.logger, "scheduled run failed", "trigger", trigger, "error", err)
		case result != nil:
			info(s.logger, "scheduled run finished", "trigger", trigger, "run_id", result.RunID, "success", result.Success)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
