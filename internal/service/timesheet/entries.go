package timesheet

import (
	"context"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/timezone"
)

const dateLayout = "2006-01-02"

// ListEntries implements timesheet.Service. Without dates it lists the current UTC month.
func (s *TimesheetServiceImpl) ListEntries(ctx context.Context, userID string, filter timesheet.EntryFilter) (timesheet.ListEntriesResponse, error) {
	if err := filter.Validate(); err != nil {
		return timesheet.ListEntriesResponse{}, err
	}
	u, err := s.lookupUser(ctx, userID)
	if err != nil {
		return timesheet.ListEntriesResponse{}, err
	}

	now := s.now()
	start, end := timezone.MonthRange(now)
	if filter.StartDate != nil && *filter.StartDate != "" {
		start, _ = time.Parse(dateLayout, *filter.StartDate)
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		end, _ = time.Parse(dateLayout, *filter.EndDate)
	}

	entries, err := s.entries.ListByUser(ctx, userID, start, end)
	if err != nil {
		return timesheet.ListEntriesResponse{}, storageError(err)
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	breaks, err := s.breaks.ListByEntryIDs(ctx, ids)
	if err != nil {
		return timesheet.ListEntriesResponse{}, storageError(err)
	}
	breaksByEntry := make(map[string][]timesheet.Break, len(entries))
	for _, b := range breaks {
		breaksByEntry[b.EntryID] = append(breaksByEntry[b.EntryID], b)
	}

	loc := u.Location()
	resp := timesheet.ListEntriesResponse{
		StartDate: start.Format(dateLayout),
		EndDate:   end.Format(dateLayout),
		Entries:   make([]timesheet.EntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		entryBreaks := breaksByEntry[e.ID]
		e.BreakMinutes = timesheet.ClosedBreakMinutes(entryBreaks)

		item := timesheet.EntryResponse{
			ID:              e.ID,
			Date:            e.Date.Format(dateLayout),
			ClockIn:         e.ClockIn,
			ClockOut:        e.ClockOut,
			ClockInLocal:    timezone.Format(e.ClockIn, loc),
			ClockOutLocal:   timezone.FormatPtr(e.ClockOut, loc),
			BreakMinutes:    e.BreakMinutes,
			DurationMinutes: e.DurationMinutes(),
			Notes:           e.Notes,
			Location:        e.Location,
			IsActive:        e.IsOpen(),
			Breaks:          make([]timesheet.BreakResponse, 0, len(entryBreaks)),
		}
		for _, b := range entryBreaks {
			item.Breaks = append(item.Breaks, timesheet.BreakResponse{
				ID:              b.ID,
				BreakType:       b.BreakType,
				BreakStart:      b.BreakStart,
				BreakEnd:        b.BreakEnd,
				DurationMinutes: b.DurationMinutes(now),
				IsActive:        b.IsOpen(),
			})
		}

		resp.TotalMinutes += item.DurationMinutes
		resp.Entries = append(resp.Entries, item)
	}

	return resp, nil
}
