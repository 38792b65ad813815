package timesheet

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/timezone"
)

// writeStatus is the only write path to UserStatus. It loads or creates the
// user's row, applies change, stamps last activity and queues a presence event.
func (s *TimesheetServiceImpl) writeStatus(ctx context.Context, fx *effects, userID string, at time.Time, reason string, change func(st *timesheet.UserStatus)) (timesheet.UserStatus, error) {
	current, err := s.statuses.GetByUserID(ctx, userID)
	if err != nil {
		return timesheet.UserStatus{}, err
	}

	st := timesheet.UserStatus{UserID: userID}
	if current != nil {
		st = *current
	}

	change(&st)
	st.LastActivity = at

	saved, err := s.statuses.Upsert(ctx, st)
	if err != nil {
		return timesheet.UserStatus{}, fmt.Errorf("save user status: %w", err)
	}

	fx.events = append(fx.events, timesheet.PresenceEvent{
		UserID:        userID,
		IsWorking:     saved.IsWorking,
		StatusMessage: displayMessage(&saved, saved.IsWorking),
		CurrentTask:   saved.Task(),
		Reason:        reason,
		At:            at,
	})
	return saved, nil
}

// setWorking attaches the open entry and marks the user as working.
func (s *TimesheetServiceImpl) setWorking(ctx context.Context, fx *effects, userID, entryID string, at time.Time, message string, task *string, reason string) error {
	_, err := s.writeStatus(ctx, fx, userID, at, reason, func(st *timesheet.UserStatus) {
		st.IsWorking = true
		st.CurrentTimesheetID = strPtr(entryID)
		st.StatusMessage = strPtr(message)
		st.CurrentTask = task
	})
	return err
}

func (s *TimesheetServiceImpl) setOffline(ctx context.Context, fx *effects, userID string, at time.Time, reason string) error {
	_, err := s.writeStatus(ctx, fx, userID, at, reason, func(st *timesheet.UserStatus) {
		st.IsWorking = false
		st.CurrentTimesheetID = nil
		st.StatusMessage = strPtr(timesheet.StatusOffline)
		st.CurrentTask = nil
	})
	return err
}

// UpdateStatus implements timesheet.Service.
func (s *TimesheetServiceImpl) UpdateStatus(ctx context.Context, userID string, req timesheet.UpdateStatusRequest) (timesheet.UpdateStatusResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.UpdateStatusResponse{}, err
	}
	if _, err := s.lookupUser(ctx, userID); err != nil {
		return timesheet.UpdateStatusResponse{}, err
	}

	var resp timesheet.UpdateStatusResponse
	err := s.mutate(ctx, userID, func(ctx context.Context, fx *effects) error {
		now := s.now()

		entry, err := s.entries.GetOpenByUserID(ctx, userID)
		if err != nil {
			return err
		}
		current, err := s.statuses.GetByUserID(ctx, userID)
		if err != nil {
			return err
		}

		// Clearing the message also counts as leaving the break.
		message := trimmed(req.StatusMessage)
		leavingBreak := current != nil && current.Message() == timesheet.StatusOnBreak &&
			req.StatusMessage != nil && (message == nil || *message != timesheet.StatusOnBreak)

		if leavingBreak && entry != nil {
			closed, err := s.closeOpenBreak(ctx, entry, now)
			if err != nil {
				return err
			}
			if closed != nil {
				if err := s.entries.Update(ctx, *entry); err != nil {
					return err
				}
				resp.BreakEnded = true
			}
		}

		saved, err := s.writeStatus(ctx, fx, userID, now, "status_update", func(st *timesheet.UserStatus) {
			if req.StatusMessage != nil {
				st.StatusMessage = message
			}
			if req.CurrentTask != nil {
				st.CurrentTask = trimmed(req.CurrentTask)
			}
			// keep the cached flag aligned with the ledger
			st.IsWorking = entry != nil
			st.CurrentTimesheetID = nil
			if entry != nil {
				st.CurrentTimesheetID = strPtr(entry.ID)
			}
		})
		if err != nil {
			return err
		}

		resp.StatusMessage = saved.Message()
		resp.CurrentTask = saved.Task()
		return nil
	})
	if err != nil {
		return timesheet.UpdateStatusResponse{}, err
	}

	return resp, nil
}

// GetStatus implements timesheet.Service. Stale sessions are closed before reading.
func (s *TimesheetServiceImpl) GetStatus(ctx context.Context, userID string) (timesheet.StatusResponse, error) {
	u, err := s.lookupUser(ctx, userID)
	if err != nil {
		return timesheet.StatusResponse{}, err
	}

	autoClosed, err := s.MaybeAutoCheckout(ctx, userID)
	if err != nil {
		return timesheet.StatusResponse{}, err
	}

	entry, err := s.entries.GetOpenByUserID(ctx, userID)
	if err != nil {
		return timesheet.StatusResponse{}, storageError(err)
	}
	st, err := s.statuses.GetByUserID(ctx, userID)
	if err != nil {
		return timesheet.StatusResponse{}, storageError(err)
	}

	now := s.now()
	resp := timesheet.StatusResponse{
		IsClockedIn:    entry != nil,
		AutoCheckedOut: autoClosed,
		StatusMessage:  displayMessage(st, entry != nil),
	}
	if st != nil {
		resp.CurrentTask = st.Task()
	}
	if entry == nil {
		return resp, nil
	}

	breaks, err := s.breaks.ListByEntryIDs(ctx, []string{entry.ID})
	if err != nil {
		return timesheet.StatusResponse{}, storageError(err)
	}

	clockIn := entry.ClockIn
	location := entry.Location
	resp.EntryID = entry.ID
	resp.ClockIn = &clockIn
	resp.ClockInLocal = timezone.Format(clockIn, u.Location())
	resp.ElapsedMinutes = entry.ElapsedMinutes(now)
	resp.BreakMinutes = timesheet.ClosedBreakMinutes(breaks)
	resp.Location = &location
	for _, b := range breaks {
		if b.IsOpen() {
			start := b.BreakStart
			resp.OnBreak = true
			resp.BreakStart = &start
		}
	}

	return resp, nil
}

// displayMessage is the stored message, or a default derived from the clock state.
func displayMessage(st *timesheet.UserStatus, clockedIn bool) string {
	if st != nil && st.Message() != "" {
		return st.Message()
	}
	if clockedIn {
		return timesheet.StatusWorking
	}
	return timesheet.StatusOffline
}
