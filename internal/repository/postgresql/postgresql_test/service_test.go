package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/lock"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/repository/postgresql"
	timesheetService "github.com/cmlabs-hris/timesheet-backend-go/internal/service/timesheet"
)

// failingStatuses makes every status write fail after the ledger was touched.
type failingStatuses struct {
	timesheet.StatusRepository
}

func (failingStatuses) Upsert(ctx context.Context, st timesheet.UserStatus) (timesheet.UserStatus, error) {
	return timesheet.UserStatus{}, errors.New("status table unavailable")
}

func newPostgresService(db *database.DB, statuses timesheet.StatusRepository, now func() time.Time) *timesheetService.TimesheetServiceImpl {
	return timesheetService.NewTimesheetService(
		postgresql.NewTxManager(db),
		postgresql.NewTimesheetEntryRepository(db),
		postgresql.NewBreakEntryRepository(db),
		statuses,
		postgresql.NewUserRepository(db),
		lock.NewLocalLocker(),
		nil,
		nil,
		nil,
		timesheetService.Config{Now: now},
	)
}

func TestTimesheetService_WorkingDayOnPostgres(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice", user.ApprovalApproved)

	now := clockIn
	svc := newPostgresService(db, postgresql.NewUserStatusRepository(db), func() time.Time { return now })

	_, err := svc.ClockIn(ctx, u.ID, timesheet.ClockInRequest{})
	require.NoError(t, err)

	now = clockIn.Add(2 * time.Hour)
	_, err = svc.StartBreak(ctx, u.ID, timesheet.BreakStartRequest{})
	require.NoError(t, err)

	now = clockIn.Add(2*time.Hour + 15*time.Minute)
	_, err = svc.EndBreak(ctx, u.ID, timesheet.BreakEndRequest{})
	require.NoError(t, err)

	now = clockIn.Add(8 * time.Hour)
	out, err := svc.ClockOut(ctx, u.ID, timesheet.ClockOutRequest{})
	require.NoError(t, err)
	assert.Equal(t, 465, out.DurationMinutes)
	assert.Equal(t, 15, out.BreakMinutes)

	st, err := postgresql.NewUserStatusRepository(db).GetByUserID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.False(t, st.IsWorking)
	assert.Nil(t, st.CurrentTimesheetID)
}

func TestTimesheetService_RollsBackOnPostgres(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	u := createTestUser(t, db, "alice", user.ApprovalApproved)

	statuses := failingStatuses{postgresql.NewUserStatusRepository(db)}
	svc := newPostgresService(db, statuses, func() time.Time { return clockIn })

	_, err := svc.ClockIn(ctx, u.ID, timesheet.ClockInRequest{})
	assert.ErrorIs(t, err, timesheet.ErrStorageFailure)

	open, err := postgresql.NewTimesheetEntryRepository(db).GetOpenByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, open, "entry insert was rolled back with the failed status write")
}
