package timesheet

import (
	"context"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/timezone"
)

const (
	statusClockedIn  = "clocked_in"
	statusClockedOut = "clocked_out"
)

// ClockIn implements timesheet.Service.
func (s *TimesheetServiceImpl) ClockIn(ctx context.Context, userID string, req timesheet.ClockInRequest) (timesheet.ClockInResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.ClockInResponse{}, err
	}
	u, err := s.lookupUser(ctx, userID)
	if err != nil {
		return timesheet.ClockInResponse{}, err
	}

	location := timesheet.DefaultLocation
	if l := trimmed(req.Location); l != nil {
		location = *l
	}

	var created timesheet.Entry
	err = s.mutate(ctx, userID, func(ctx context.Context, fx *effects) error {
		now := s.now()

		open, err := s.entries.GetOpenByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if open != nil {
			return timesheet.ErrAlreadyOpen
		}

		created, err = s.entries.Create(ctx, timesheet.Entry{
			UserID:   userID,
			Date:     timezone.DateOf(now),
			ClockIn:  now,
			Notes:    trimmed(req.Notes),
			Location: location,
		})
		if err != nil {
			return err
		}

		return s.setWorking(ctx, fx, userID, created.ID, now, timesheet.StatusAvailable, trimmed(req.Task), "clock_in")
	})
	if err != nil {
		return timesheet.ClockInResponse{}, err
	}

	return timesheet.ClockInResponse{
		EntryID:      created.ID,
		ClockIn:      created.ClockIn,
		ClockInLocal: timezone.Format(created.ClockIn, u.Location()),
		Location:     created.Location,
		Status:       statusClockedIn,
	}, nil
}

// ClockOut implements timesheet.Service. Client-supplied break totals are ignored.
func (s *TimesheetServiceImpl) ClockOut(ctx context.Context, userID string, req timesheet.ClockOutRequest) (timesheet.ClockOutResponse, error) {
	var closed timesheet.Entry
	err := s.mutate(ctx, userID, func(ctx context.Context, fx *effects) error {
		now := s.now()

		entry, err := s.entries.GetOpenByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if entry == nil {
			return timesheet.ErrNotClockedIn
		}

		if notes := trimmed(req.Notes); notes != nil {
			entry.Notes = notes
		}
		if err := s.closeEntry(ctx, entry, now); err != nil {
			return err
		}
		closed = *entry

		return s.setOffline(ctx, fx, userID, now, "clock_out")
	})
	if err != nil {
		return timesheet.ClockOutResponse{}, err
	}

	resp := timesheet.ClockOutResponse{
		EntryID:         closed.ID,
		ClockIn:         closed.ClockIn,
		ClockOut:        *closed.ClockOut,
		BreakMinutes:    closed.BreakMinutes,
		DurationMinutes: closed.DurationMinutes(),
		Status:          statusClockedOut,
	}
	if u, err := s.users.GetByID(ctx, userID); err == nil {
		resp.ClockOutLocal = timezone.Format(resp.ClockOut, u.Location())
	}
	return resp, nil
}

// StartBreak implements timesheet.Service.
func (s *TimesheetServiceImpl) StartBreak(ctx context.Context, userID string, req timesheet.BreakStartRequest) (timesheet.BreakStartResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.BreakStartResponse{}, err
	}

	breakType := timesheet.DefaultBreakType
	if t := trimmed(req.BreakType); t != nil {
		breakType = *t
	}

	var created timesheet.Break
	err := s.mutate(ctx, userID, func(ctx context.Context, fx *effects) error {
		now := s.now()

		entry, err := s.entries.GetOpenByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if entry == nil {
			return timesheet.ErrNotClockedIn
		}

		open, err := s.breaks.GetOpenByEntryID(ctx, entry.ID)
		if err != nil {
			return err
		}
		if open != nil {
			return timesheet.ErrBreakAlreadyOpen
		}

		created, err = s.breaks.Create(ctx, timesheet.Break{
			UserID:     userID,
			EntryID:    entry.ID,
			BreakStart: now,
			BreakType:  breakType,
		})
		if err != nil {
			return err
		}

		return s.setWorking(ctx, fx, userID, entry.ID, now, timesheet.StatusOnBreak, strPtr("On "+breakType), "break_start")
	})
	if err != nil {
		return timesheet.BreakStartResponse{}, err
	}

	return timesheet.BreakStartResponse{
		BreakID:    created.ID,
		EntryID:    created.EntryID,
		BreakType:  created.BreakType,
		BreakStart: created.BreakStart,
	}, nil
}

// EndBreak implements timesheet.Service.
func (s *TimesheetServiceImpl) EndBreak(ctx context.Context, userID string, req timesheet.BreakEndRequest) (timesheet.BreakEndResponse, error) {
	if err := req.Validate(); err != nil {
		return timesheet.BreakEndResponse{}, err
	}

	var resp timesheet.BreakEndResponse
	err := s.mutate(ctx, userID, func(ctx context.Context, fx *effects) error {
		now := s.now()

		entry, err := s.entries.GetOpenByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if entry == nil {
			return timesheet.ErrNoActiveBreak
		}

		closed, err := s.closeOpenBreak(ctx, entry, now)
		if err != nil {
			return err
		}
		if closed == nil {
			return timesheet.ErrNoActiveBreak
		}
		if err := s.entries.Update(ctx, *entry); err != nil {
			return err
		}

		resp = timesheet.BreakEndResponse{
			BreakID:              closed.ID,
			BreakEnd:             *closed.BreakEnd,
			BreakDurationMinutes: closed.DurationMinutes(now),
			TotalBreakMinutes:    entry.BreakMinutes,
		}

		return s.setWorking(ctx, fx, userID, entry.ID, now, timesheet.StatusAvailable, trimmed(req.Task), "break_end")
	})
	if err != nil {
		return timesheet.BreakEndResponse{}, err
	}

	return resp, nil
}

// closeOpenBreak ends the entry's open break at `at` and rederives the entry's
// break minutes from all of its closed breaks. The entry is updated in memory
// only. It returns nil when no break was open.
func (s *TimesheetServiceImpl) closeOpenBreak(ctx context.Context, entry *timesheet.Entry, at time.Time) (*timesheet.Break, error) {
	open, err := s.breaks.GetOpenByEntryID(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, nil
	}

	end := at
	if end.Before(open.BreakStart) {
		end = open.BreakStart
	}
	if err := s.breaks.Close(ctx, open.ID, end); err != nil {
		return nil, err
	}
	open.BreakEnd = &end

	if err := s.recomputeBreakMinutes(ctx, entry); err != nil {
		return nil, err
	}
	return open, nil
}

func (s *TimesheetServiceImpl) recomputeBreakMinutes(ctx context.Context, entry *timesheet.Entry) error {
	breaks, err := s.breaks.ListByEntryIDs(ctx, []string{entry.ID})
	if err != nil {
		return err
	}
	entry.BreakMinutes = timesheet.ClosedBreakMinutes(breaks)
	return nil
}

// closeEntry closes any open break and the entry itself at the same instant.
func (s *TimesheetServiceImpl) closeEntry(ctx context.Context, entry *timesheet.Entry, at time.Time) error {
	closed, err := s.closeOpenBreak(ctx, entry, at)
	if err != nil {
		return err
	}
	if closed == nil {
		if err := s.recomputeBreakMinutes(ctx, entry); err != nil {
			return err
		}
	}

	clockOut := at
	if clockOut.Before(entry.ClockIn) {
		clockOut = entry.ClockIn
	}
	entry.ClockOut = &clockOut

	return s.entries.Update(ctx, *entry)
}

// forceCloseStaleEntry closes the user's open entry at `at`, marks its notes
// and sets the user offline. It reports false when no entry was open.
func (s *TimesheetServiceImpl) forceCloseStaleEntry(ctx context.Context, fx *effects, userID string, at time.Time) (bool, error) {
	entry, err := s.entries.GetOpenByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}

	entry.Notes = appendMarker(entry.Notes)
	if err := s.closeEntry(ctx, entry, at); err != nil {
		return false, err
	}
	if err := s.setOffline(ctx, fx, userID, at, "auto_checkout"); err != nil {
		return false, err
	}

	fx.autoClosed = append(fx.autoClosed, *entry)
	return true, nil
}

func appendMarker(notes *string) *string {
	if notes == nil || *notes == "" {
		return strPtr(timesheet.AutoCheckoutMarker)
	}
	return strPtr(*notes + " " + timesheet.AutoCheckoutMarker)
}
