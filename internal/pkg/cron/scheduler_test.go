package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsImmediatelyAndOnInterval(t *testing.T) {
	s := NewScheduler()
	var runs atomic.Int32
	s.AddJob("count", 5*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start(context.Background())
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
	s.Stop()

	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "no runs after Stop")
}

func TestScheduler_StopWithoutStart(t *testing.T) {
	s := NewScheduler()
	s.Stop()
}

func TestScheduler_RunOnceJoinsErrors(t *testing.T) {
	s := NewScheduler()
	boom := errors.New("boom")
	var ran []string
	s.AddJob("ok", time.Hour, func(ctx context.Context) error {
		ran = append(ran, "ok")
		return nil
	})
	s.AddJob("fails", time.Hour, func(ctx context.Context) error {
		ran = append(ran, "fails")
		return boom
	})

	err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "fails")
	assert.Equal(t, []string{"ok", "fails"}, ran)
}

type sweeperFunc func(ctx context.Context) (int, error)

func (f sweeperFunc) SweepStaleSessions(ctx context.Context) (int, error) { return f(ctx) }

func TestTimesheetJobs_Sweep(t *testing.T) {
	calls := 0
	jobs := NewTimesheetJobs(sweeperFunc(func(ctx context.Context) (int, error) {
		calls++
		return 2, nil
	}), time.Hour)

	s := NewScheduler()
	jobs.RegisterJobs(s)
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestTimesheetJobs_SweepError(t *testing.T) {
	boom := errors.New("db down")
	jobs := NewTimesheetJobs(sweeperFunc(func(ctx context.Context) (int, error) {
		return 0, boom
	}), time.Hour)

	err := jobs.SweepStaleSessions(context.Background())
	assert.ErrorIs(t, err, boom)
}
