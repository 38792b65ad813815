package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// StaleSessionSweeper force-closes every open entry past the auto-checkout threshold.
type StaleSessionSweeper interface {
	SweepStaleSessions(ctx context.Context) (int, error)
}

// TimesheetJobs contains timesheet-related cron jobs
type TimesheetJobs struct {
	sweeper  StaleSessionSweeper
	interval time.Duration
}

func NewTimesheetJobs(sweeper StaleSessionSweeper, interval time.Duration) *TimesheetJobs {
	return &TimesheetJobs{
		sweeper:  sweeper,
		interval: interval,
	}
}

func (j *TimesheetJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("sweep_stale_timesheet_sessions", j.interval, j.SweepStaleSessions)
}

// SweepStaleSessions applies the auto-checkout policy to all open entries.
func (j *TimesheetJobs) SweepStaleSessions(ctx context.Context) error {
	closed, err := j.sweeper.SweepStaleSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep stale sessions: %w", err)
	}
	if closed > 0 {
		slog.Info("Cron: Auto-checked out stale sessions", "count", closed)
	}
	return nil
}
