package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/timezone"
)

const statusColumns = `id, user_id, is_working, current_task, status_message, last_activity, current_timesheet_id, updated_at`

type userStatusRepository struct {
	db *database.DB
}

func NewUserStatusRepository(db *database.DB) timesheet.StatusRepository {
	return &userStatusRepository{db: db}
}

func scanStatus(row pgx.Row) (timesheet.UserStatus, error) {
	var s timesheet.UserStatus
	err := row.Scan(
		&s.ID, &s.UserID, &s.IsWorking, &s.CurrentTask, &s.StatusMessage,
		&s.LastActivity, &s.CurrentTimesheetID, &s.UpdatedAt,
	)
	if err != nil {
		return timesheet.UserStatus{}, err
	}
	s.LastActivity = timezone.UTC(s.LastActivity)
	s.UpdatedAt = timezone.UTC(s.UpdatedAt)
	return s, nil
}

// GetByUserID implements timesheet.StatusRepository.
func (r *userStatusRepository) GetByUserID(ctx context.Context, userID string) (*timesheet.UserStatus, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + statusColumns + ` FROM user_statuses WHERE user_id = $1`

	s, err := scanStatus(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user status: %w", err)
	}

	return &s, nil
}

// Upsert implements timesheet.StatusRepository.
func (r *userStatusRepository) Upsert(ctx context.Context, status timesheet.UserStatus) (timesheet.UserStatus, error) {
	q := GetQuerier(ctx, r.db)

	if status.ID == "" {
		status.ID = uuid.NewString()
	}

	query := `
		INSERT INTO user_statuses (id, user_id, is_working, current_task, status_message, last_activity, current_timesheet_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			is_working = EXCLUDED.is_working,
			current_task = EXCLUDED.current_task,
			status_message = EXCLUDED.status_message,
			last_activity = EXCLUDED.last_activity,
			current_timesheet_id = EXCLUDED.current_timesheet_id,
			updated_at = NOW()
		RETURNING ` + statusColumns

	saved, err := scanStatus(q.QueryRow(ctx, query,
		status.ID,
		status.UserID,
		status.IsWorking,
		status.CurrentTask,
		status.StatusMessage,
		status.LastActivity,
		status.CurrentTimesheetID,
	))
	if err != nil {
		return timesheet.UserStatus{}, fmt.Errorf("failed to upsert user status: %w", err)
	}

	return saved, nil
}

// ListByUserIDs implements timesheet.StatusRepository.
func (r *userStatusRepository) ListByUserIDs(ctx context.Context, userIDs []string) ([]timesheet.UserStatus, error) {
	statuses := make([]timesheet.UserStatus, 0)
	if len(userIDs) == 0 {
		return statuses, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + statusColumns + ` FROM user_statuses WHERE user_id = ANY($1::uuid[])`

	rows, err := q.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list user statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user status: %w", err)
		}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user statuses: %w", err)
	}

	return statuses, nil
}
