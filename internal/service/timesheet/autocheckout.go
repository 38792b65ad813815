package timesheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
)

// ShouldAutoCheckout reports whether a session opened at clockIn has reached
// the maximum open duration at now.
func ShouldAutoCheckout(clockIn, now time.Time, threshold time.Duration) bool {
	return now.Sub(clockIn) >= threshold
}

// MaybeAutoCheckout implements timesheet.Service. Sessions are only corrected
// when something reads them, or when the optional sweep runs; an unread stale
// session stays open in storage.
func (s *TimesheetServiceImpl) MaybeAutoCheckout(ctx context.Context, userID string) (bool, error) {
	entry, err := s.entries.GetOpenByUserID(ctx, userID)
	if err != nil {
		return false, storageError(err)
	}
	if entry == nil || !ShouldAutoCheckout(entry.ClockIn, s.now(), s.config.AutoCheckoutAfter) {
		return false, nil
	}

	var closed bool
	err = s.mutate(ctx, userID, func(ctx context.Context, fx *effects) error {
		now := s.now()

		// recheck under the lock; a concurrent request may have closed it
		entry, err := s.entries.GetOpenByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if entry == nil || !ShouldAutoCheckout(entry.ClockIn, now, s.config.AutoCheckoutAfter) {
			return nil
		}

		closed, err = s.forceCloseStaleEntry(ctx, fx, userID, now)
		return err
	})
	if err != nil {
		return false, err
	}

	if closed {
		slog.Info("Timesheet entry auto-checked out", "user_id", userID, "entry_id", entry.ID, "clock_in", entry.ClockIn)
	}
	return closed, nil
}

// SweepStaleSessions implements timesheet.Service. Failures for one user do
// not stop the sweep.
func (s *TimesheetServiceImpl) SweepStaleSessions(ctx context.Context) (int, error) {
	open, err := s.entries.ListOpen(ctx)
	if err != nil {
		return 0, storageError(err)
	}

	return s.autoCheckoutStale(ctx, open)
}

func (s *TimesheetServiceImpl) autoCheckoutStale(ctx context.Context, open []timesheet.Entry) (int, error) {
	now := s.now()
	closed := 0

	var errs []error
	for _, e := range open {
		if !ShouldAutoCheckout(e.ClockIn, now, s.config.AutoCheckoutAfter) {
			continue
		}
		ok, err := s.MaybeAutoCheckout(ctx, e.UserID)
		if err != nil {
			errs = append(errs, fmt.Errorf("user %s: %w", e.UserID, err))
			continue
		}
		if ok {
			closed++
		}
	}

	return closed, errors.Join(errs...)
}
