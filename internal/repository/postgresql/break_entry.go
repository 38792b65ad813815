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

const openBreakConstraint = "uq_break_entries_open_per_entry"

const breakColumns = `id, user_id, timesheet_entry_id, break_start, break_end, break_type, created_at, updated_at`

type breakEntryRepository struct {
	db *database.DB
}

func NewBreakEntryRepository(db *database.DB) timesheet.BreakRepository {
	return &breakEntryRepository{db: db}
}

func scanBreak(row pgx.Row) (timesheet.Break, error) {
	var b timesheet.Break
	err := row.Scan(
		&b.ID, &b.UserID, &b.EntryID, &b.BreakStart, &b.BreakEnd, &b.BreakType,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return timesheet.Break{}, err
	}
	b.BreakStart = timezone.UTC(b.BreakStart)
	b.BreakEnd = timezone.UTCPtr(b.BreakEnd)
	b.CreatedAt = timezone.UTC(b.CreatedAt)
	b.UpdatedAt = timezone.UTC(b.UpdatedAt)
	return b, nil
}

// Create implements timesheet.BreakRepository.
func (r *breakEntryRepository) Create(ctx context.Context, b timesheet.Break) (timesheet.Break, error) {
	q := GetQuerier(ctx, r.db)

	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	query := `
		INSERT INTO break_entries (id, user_id, timesheet_entry_id, break_start, break_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + breakColumns

	created, err := scanBreak(q.QueryRow(ctx, query, b.ID, b.UserID, b.EntryID, b.BreakStart, b.BreakType))
	if err != nil {
		if isUniqueViolation(err, openBreakConstraint) {
			return timesheet.Break{}, timesheet.ErrBreakAlreadyOpen
		}
		return timesheet.Break{}, fmt.Errorf("failed to create break: %w", err)
	}

	return created, nil
}

// GetOpenByEntryID implements timesheet.BreakRepository.
func (r *breakEntryRepository) GetOpenByEntryID(ctx context.Context, entryID string) (*timesheet.Break, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + breakColumns + `
		FROM break_entries
		WHERE timesheet_entry_id = $1
		  AND break_end IS NULL
		ORDER BY break_start DESC
		LIMIT 1
		FOR UPDATE
	`

	b, err := scanBreak(q.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open break: %w", err)
	}

	return &b, nil
}

// Close implements timesheet.BreakRepository.
func (r *breakEntryRepository) Close(ctx context.Context, breakID string, end time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE break_entries
		SET break_end = $1, updated_at = NOW()
		WHERE id = $2
		  AND break_end IS NULL
	`

	tag, err := q.Exec(ctx, query, end, breakID)
	if err != nil {
		return fmt.Errorf("failed to close break: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("open break %s not found", breakID)
	}

	return nil
}

// ListByEntryIDs implements timesheet.BreakRepository.
func (r *breakEntryRepository) ListByEntryIDs(ctx context.Context, entryIDs []string) ([]timesheet.Break, error) {
	breaks := make([]timesheet.Break, 0)
	if len(entryIDs) == 0 {
		return breaks, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + breakColumns + `
		FROM break_entries
		WHERE timesheet_entry_id = ANY($1::uuid[])
		ORDER BY break_start
	`

	rows, err := q.Query(ctx, query, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list breaks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBreak(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan break: %w", err)
		}
		breaks = append(breaks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate breaks: %w", err)
	}

	return breaks, nil
}
