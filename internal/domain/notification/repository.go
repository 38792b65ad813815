package notification

import (
	"context"
)

type EmailLogRepository interface {
	Create(ctx context.Context, log EmailLog) error
	ListByReference(ctx context.Context, emailType EmailType, referenceID string) ([]EmailLog, error)
}
