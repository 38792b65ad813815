package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/notification"
)

type stubMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *stubMailer) SendHTML(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return m.err
}

type memoryLogs struct {
	mu   sync.Mutex
	logs []notification.EmailLog
	err  error
}

func (r *memoryLogs) Create(ctx context.Context, log notification.EmailLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.logs = append(r.logs, log)
	return nil
}

func (r *memoryLogs) ListByReference(ctx context.Context, emailType notification.EmailType, referenceID string) ([]notification.EmailLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notification.EmailLog
	for _, l := range r.logs {
		if l.Type == emailType && l.ReferenceID != nil && *l.ReferenceID == referenceID {
			out = append(out, l)
		}
	}
	return out, nil
}

func message(to string) notification.Message {
	return notification.Message{
		Recipient:   to,
		Subject:     "Your timesheet entry was closed automatically",
		Body:        "<p>body</p>",
		Type:        notification.TypeAutoCheckout,
		ReferenceID: "entry-1",
	}
}

func TestDispatcher_DeliversAndLogs(t *testing.T) {
	mailer := &stubMailer{}
	logs := &memoryLogs{}
	d := NewDispatcher(mailer, logs, Config{WorkerCount: 2, QueueSize: 8})

	d.Send(context.Background(), message("a@test"))
	d.Send(context.Background(), message("b@test"))
	d.Stop()

	assert.ElementsMatch(t, []string{"a@test", "b@test"}, mailer.sent)
	got, err := logs.ListByReference(context.Background(), notification.TypeAutoCheckout, "entry-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, l := range got {
		assert.Equal(t, notification.EmailSent, l.Status)
		assert.Nil(t, l.ErrorMessage)
		assert.False(t, l.SentAt.IsZero())
	}
}

func TestDispatcher_RecordsFailure(t *testing.T) {
	mailer := &stubMailer{err: errors.New("relay refused")}
	logs := &memoryLogs{}
	d := NewDispatcher(mailer, logs, Config{WorkerCount: 1, QueueSize: 1})

	d.Send(context.Background(), message("a@test"))
	d.Stop()

	require.Len(t, logs.logs, 1)
	assert.Equal(t, notification.EmailFailed, logs.logs[0].Status)
	require.NotNil(t, logs.logs[0].ErrorMessage)
	assert.Contains(t, *logs.logs[0].ErrorMessage, "relay refused")
}

func TestDispatcher_LogFailureIsSwallowed(t *testing.T) {
	mailer := &stubMailer{}
	logs := &memoryLogs{err: errors.New("db down")}
	d := NewDispatcher(mailer, logs, Config{WorkerCount: 1, QueueSize: 1})

	d.Send(context.Background(), message("a@test"))
	d.Stop()

	assert.Equal(t, []string{"a@test"}, mailer.sent)
}

func TestDispatcher_SendAfterStopIsDropped(t *testing.T) {
	mailer := &stubMailer{}
	d := NewDispatcher(mailer, &memoryLogs{}, Config{WorkerCount: 1, QueueSize: 1})
	d.Stop()
	d.Stop()

	d.Send(context.Background(), message("late@test"))
	assert.Empty(t, mailer.sent)
}
