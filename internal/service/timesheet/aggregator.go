package timesheet

import (
	"context"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
)

// AdminTeamStatus implements timesheet.Service. Stale sessions are closed
// first; open entries and statuses are then fetched in one query each.
func (s *TimesheetServiceImpl) AdminTeamStatus(ctx context.Context) ([]timesheet.TeamMemberStatus, error) {
	open, err := s.entries.ListOpen(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	closed, err := s.autoCheckoutStale(ctx, open)
	if err != nil {
		return nil, storageError(err)
	}
	if closed > 0 {
		if open, err = s.entries.ListOpen(ctx); err != nil {
			return nil, storageError(err)
		}
	}

	users, err := s.users.ListApproved(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	statuses, err := s.statusesByUser(ctx, userIDs(users))
	if err != nil {
		return nil, err
	}
	openByUser := entriesByUser(open)

	now := s.now()
	result := make([]timesheet.TeamMemberStatus, 0, len(users))
	for _, u := range users {
		st := statuses[u.ID]
		entry, clockedIn := openByUser[u.ID]

		member := timesheet.TeamMemberStatus{
			UserID:         u.ID,
			Username:       u.Username,
			DepartmentName: u.DepartmentName,
			IsClockedIn:    clockedIn,
			StatusMessage:  displayMessage(st, clockedIn),
		}
		if st != nil {
			lastActivity := st.LastActivity
			member.IsWorking = st.IsWorking
			member.CurrentTask = st.Task()
			member.LastActivity = &lastActivity
		}
		if clockedIn {
			clockIn := entry.ClockIn
			member.ClockIn = &clockIn
			member.ElapsedMinutes = entry.ElapsedMinutes(now)
		}
		result = append(result, member)
	}

	return result, nil
}

// PublicTeamStatus implements timesheet.Service. It only reads.
func (s *TimesheetServiceImpl) PublicTeamStatus(ctx context.Context) ([]timesheet.PublicMemberStatus, error) {
	open, err := s.entries.ListOpen(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	if len(open) == 0 {
		return []timesheet.PublicMemberStatus{}, nil
	}

	openByUser := entriesByUser(open)
	ids := make([]string, 0, len(openByUser))
	for id := range openByUser {
		ids = append(ids, id)
	}

	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, storageError(err)
	}
	statuses, err := s.statusesByUser(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := make([]timesheet.PublicMemberStatus, 0, len(users))
	for _, u := range users {
		entry := openByUser[u.ID]
		st := statuses[u.ID]

		member := timesheet.PublicMemberStatus{
			UserID:         u.ID,
			Username:       u.Username,
			IsWorking:      true,
			IsClockedIn:    true,
			StatusMessage:  displayMessage(st, true),
			ElapsedMinutes: entry.ElapsedMinutes(now),
		}
		if st != nil {
			member.CurrentTask = st.Task()
		}
		result = append(result, member)
	}

	return result, nil
}

func (s *TimesheetServiceImpl) statusesByUser(ctx context.Context, ids []string) (map[string]*timesheet.UserStatus, error) {
	list, err := s.statuses.ListByUserIDs(ctx, ids)
	if err != nil {
		return nil, storageError(err)
	}
	byUser := make(map[string]*timesheet.UserStatus, len(list))
	for i := range list {
		byUser[list[i].UserID] = &list[i]
	}
	return byUser, nil
}

func entriesByUser(entries []timesheet.Entry) map[string]timesheet.Entry {
	byUser := make(map[string]timesheet.Entry, len(entries))
	for _, e := range entries {
		byUser[e.UserID] = e
	}
	return byUser
}

func userIDs(users []user.User) []string {
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}
