package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/timezone"
)

const openEntryConstraint = "uq_timesheet_entries_open_per_user"

const entryColumns = `id, user_id, date, clock_in, clock_out, break_minutes, notes, location, created_at, updated_at`

type timesheetEntryRepository struct {
	db *database.DB
}

func NewTimesheetEntryRepository(db *database.DB) timesheet.EntryRepository {
	return &timesheetEntryRepository{db: db}
}

func scanEntry(row pgx.Row) (timesheet.Entry, error) {
	var e timesheet.Entry
	err := row.Scan(
		&e.ID, &e.UserID, &e.Date, &e.ClockIn, &e.ClockOut, &e.BreakMinutes,
		&e.Notes, &e.Location, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return timesheet.Entry{}, err
	}
	e.Date = timezone.DateOf(e.Date)
	e.ClockIn = timezone.UTC(e.ClockIn)
	e.ClockOut = timezone.UTCPtr(e.ClockOut)
	e.CreatedAt = timezone.UTC(e.CreatedAt)
	e.UpdatedAt = timezone.UTC(e.UpdatedAt)
	return e, nil
}

func collectEntries(rows pgx.Rows) ([]timesheet.Entry, error) {
	defer rows.Close()

	entries := make([]timesheet.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Create implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) Create(ctx context.Context, entry timesheet.Entry) (timesheet.Entry, error) {
	q := GetQuerier(ctx, r.db)

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	query := `
		INSERT INTO timesheet_entries (id, user_id, date, clock_in, break_minutes, notes, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + entryColumns

	created, err := scanEntry(q.QueryRow(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Date,
		entry.ClockIn,
		entry.BreakMinutes,
		entry.Notes,
		entry.Location,
	))
	if err != nil {
		if isUniqueViolation(err, openEntryConstraint) {
			return timesheet.Entry{}, timesheet.ErrAlreadyOpen
		}
		return timesheet.Entry{}, fmt.Errorf("failed to create timesheet entry: %w", err)
	}

	return created, nil
}

// GetOpenByUserID implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) GetOpenByUserID(ctx context.Context, userID string) (*timesheet.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + entryColumns + `
		FROM timesheet_entries
		WHERE user_id = $1
		  AND clock_out IS NULL
		ORDER BY clock_in DESC
		LIMIT 1
		FOR UPDATE
	`

	e, err := scanEntry(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open timesheet entry: %w", err)
	}

	return &e, nil
}

// Update implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) Update(ctx context.Context, entry timesheet.Entry) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE timesheet_entries
		SET clock_out = $1, break_minutes = $2, notes = $3, location = $4, updated_at = NOW()
		WHERE id = $5
	`

	tag, err := q.Exec(ctx, query, entry.ClockOut, entry.BreakMinutes, entry.Notes, entry.Location, entry.ID)
	if err != nil {
		return fmt.Errorf("failed to update timesheet entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("timesheet entry %s not found", entry.ID)
	}

	return nil
}

// ListOpen implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) ListOpen(ctx context.Context) ([]timesheet.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + entryColumns + `
		FROM timesheet_entries
		WHERE clock_out IS NULL
		ORDER BY clock_in
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list open timesheet entries: %w", err)
	}

	entries, err := collectEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan open timesheet entries: %w", err)
	}
	return entries, nil
}

// ListByUser implements timesheet.EntryRepository.
func (r *timesheetEntryRepository) ListByUser(ctx context.Context, userID string, start, end time.Time) ([]timesheet.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + entryColumns + `
		FROM timesheet_entries
		WHERE user_id = $1
		  AND date BETWEEN $2 AND $3
		ORDER BY clock_in DESC
	`

	rows, err := q.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheet entries: %w", err)
	}

	entries, err := collectEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan timesheet entries: %w", err)
	}
	return entries, nil
}
