package postgresql

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/timezone"
)

type emailLogRepository struct {
	db *database.DB
}

func NewEmailLogRepository(db *database.DB) notification.EmailLogRepository {
	return &emailLogRepository{db: db}
}

// Create implements notification.EmailLogRepository.
func (r *emailLogRepository) Create(ctx context.Context, log notification.EmailLog) error {
	q := GetQuerier(ctx, r.db)

	if log.ID == "" {
		log.ID = uuid.NewString()
	}

	query := `
		INSERT INTO email_logs (id, recipient, subject, body, email_type, reference_id, sent_at, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		log.ID,
		log.Recipient,
		log.Subject,
		log.Body,
		log.Type,
		log.ReferenceID,
		log.SentAt,
		log.Status,
		log.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to create email log: %w", err)
	}
	return nil
}

// ListByReference implements notification.EmailLogRepository.
func (r *emailLogRepository) ListByReference(ctx context.Context, emailType notification.EmailType, referenceID string) ([]notification.EmailLog, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, recipient, subject, COALESCE(body, ''), COALESCE(email_type, ''), reference_id, sent_at, status, error_message
		FROM email_logs
		WHERE email_type = $1 AND reference_id = $2
		ORDER BY sent_at
	`

	rows, err := q.Query(ctx, query, emailType, referenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list email logs: %w", err)
	}
	defer rows.Close()

	logs := make([]notification.EmailLog, 0)
	for rows.Next() {
		var l notification.EmailLog
		if err := rows.Scan(&l.ID, &l.Recipient, &l.Subject, &l.Body, &l.Type, &l.ReferenceID, &l.SentAt, &l.Status, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan email log: %w", err)
		}
		l.SentAt = timezone.UTC(l.SentAt)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate email logs: %w", err)
	}
	return logs, nil
}
