package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/email"
)

// Config holds dispatcher configuration
type Config struct {
	WorkerCount int           // default: 2
	QueueSize   int           // default: 256
	SendTimeout time.Duration // default: 30 seconds
}

// Dispatcher delivers queued emails on background workers and records every
// attempt in the email log. It implements notification.Sink.
type Dispatcher struct {
	mailer email.Mailer
	logs   notification.EmailLogRepository
	config Config

	mu      sync.RWMutex
	stopped bool
	queue   chan notification.Message
	wg      sync.WaitGroup
	now     func() time.Time
}

var _ notification.Sink = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher and starts its workers
func NewDispatcher(mailer email.Mailer, logs notification.EmailLogRepository, cfg Config) *Dispatcher {
	// Set defaults
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}

	d := &Dispatcher{
		mailer: mailer,
		logs:   logs,
		config: cfg,
		queue:  make(chan notification.Message, cfg.QueueSize),
		now:    time.Now,
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	slog.Info("Notification dispatcher started", "workers", cfg.WorkerCount, "queue_size", cfg.QueueSize)

	return d
}

// Send queues msg without blocking. Messages that cannot be queued are logged and dropped.
func (d *Dispatcher) Send(ctx context.Context, msg notification.Message) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		slog.Warn("Dropping email", "to", msg.Recipient, "type", msg.Type, "error", notification.ErrDispatcherStopped)
		return
	}

	select {
	case d.queue <- msg:
	default:
		slog.Error("Email queue full, dropping message", "to", msg.Recipient, "type", msg.Type, "reference_id", msg.ReferenceID)
	}
}

// Stop refuses new messages, delivers everything already queued and waits for the workers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	slog.Info("Notification dispatcher stopped")
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for msg := range d.queue {
		d.deliver(id, msg)
	}
}

func (d *Dispatcher) deliver(worker int, msg notification.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.config.SendTimeout)
	defer cancel()

	entry := notification.EmailLog{
		ID:        uuid.NewString(),
		Recipient: msg.Recipient,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Type:      msg.Type,
		Status:    notification.EmailSent,
	}
	if msg.ReferenceID != "" {
		ref := msg.ReferenceID
		entry.ReferenceID = &ref
	}

	if err := d.mailer.SendHTML(ctx, msg.Recipient, msg.Subject, msg.Body); err != nil {
		slog.Error("Email delivery failed", "worker", worker, "to", msg.Recipient, "type", msg.Type, "error", err)
		errMsg := err.Error()
		entry.Status = notification.EmailFailed
		entry.ErrorMessage = &errMsg
	}
	entry.SentAt = d.now().UTC()

	if err := d.logs.Create(ctx, entry); err != nil {
		slog.Error("Failed to record email log", "worker", worker, "to", msg.Recipient, "error", err)
	}
}
