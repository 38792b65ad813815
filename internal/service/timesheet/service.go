package timesheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/lock"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/timezone"
)

const (
	defaultAutoCheckoutAfter = 6 * time.Hour
	defaultLockTimeout       = 5 * time.Second

	presenceEvent = "presence"
)

// Config holds the clock policy
type Config struct {
	AutoCheckoutAfter time.Duration    // default: 6 hours
	LockTimeout       time.Duration    // default: 5 seconds
	Now               func() time.Time // default: time.Now
}

// Publisher receives committed presence changes.
type Publisher interface {
	Publish(topic string, event sse.Event)
}

type TimesheetServiceImpl struct {
	tx       timesheet.TxManager
	entries  timesheet.EntryRepository
	breaks   timesheet.BreakRepository
	statuses timesheet.StatusRepository
	users    user.UserRepository
	locker   lock.Locker
	sink     notification.Sink
	renderer *email.Renderer
	hub      Publisher
	config   Config
}

var _ timesheet.Service = (*TimesheetServiceImpl)(nil)

func NewTimesheetService(
	txManager timesheet.TxManager,
	entryRepo timesheet.EntryRepository,
	breakRepo timesheet.BreakRepository,
	statusRepo timesheet.StatusRepository,
	userRepo user.UserRepository,
	locker lock.Locker,
	sink notification.Sink,
	renderer *email.Renderer,
	hub Publisher,
	cfg Config,
) *TimesheetServiceImpl {
	if cfg.AutoCheckoutAfter <= 0 {
		cfg.AutoCheckoutAfter = defaultAutoCheckoutAfter
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = defaultLockTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TimesheetServiceImpl{
		tx:       txManager,
		entries:  entryRepo,
		breaks:   breakRepo,
		statuses: statusRepo,
		users:    userRepo,
		locker:   locker,
		sink:     sink,
		renderer: renderer,
		hub:      hub,
		config:   cfg,
	}
}

// now is truncated to the storage precision so responses agree with what is read back.
func (s *TimesheetServiceImpl) now() time.Time {
	return s.config.Now().UTC().Truncate(time.Microsecond)
}

// effects collects what a mutation has to announce once it is committed.
type effects struct {
	events     []timesheet.PresenceEvent
	autoClosed []timesheet.Entry
}

func lockKey(userID string) string {
	return "timesheet:user:" + userID
}

// mutate serialises fn with every other mutation of the same user and runs it
// in one transaction. Side effects recorded in fx are released after commit.
func (s *TimesheetServiceImpl) mutate(ctx context.Context, userID string, fn func(ctx context.Context, fx *effects) error) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.config.LockTimeout)
	defer cancel()

	unlock, err := s.locker.Lock(lockCtx, lockKey(userID))
	if err != nil {
		slog.Warn("Timesheet lock not acquired", "user_id", userID, "error", err)
		return fmt.Errorf("%w: acquire user lock: %w", timesheet.ErrStorageFailure, err)
	}
	defer unlock()

	fx := &effects{}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return fn(ctx, fx)
	})
	if err != nil {
		return storageError(err)
	}

	s.afterCommit(ctx, fx)
	return nil
}

// storageError passes rejections through and marks everything else retryable.
func storageError(err error) error {
	switch {
	case errors.Is(err, timesheet.ErrAlreadyOpen),
		errors.Is(err, timesheet.ErrNotClockedIn),
		errors.Is(err, timesheet.ErrBreakAlreadyOpen),
		errors.Is(err, timesheet.ErrNoActiveBreak),
		errors.Is(err, timesheet.ErrStorageFailure),
		errors.Is(err, user.ErrUserNotFound):
		return err
	}
	return fmt.Errorf("%w: %w", timesheet.ErrStorageFailure, err)
}

func (s *TimesheetServiceImpl) afterCommit(ctx context.Context, fx *effects) {
	if s.hub != nil {
		for _, ev := range fx.events {
			s.hub.Publish(sse.TopicTeam, sse.Event{Event: presenceEvent, Data: ev})
		}
	}
	for _, entry := range fx.autoClosed {
		s.notifyAutoCheckout(ctx, entry)
	}
}

func (s *TimesheetServiceImpl) notifyAutoCheckout(ctx context.Context, entry timesheet.Entry) {
	if s.sink == nil || s.renderer == nil {
		return
	}

	u, err := s.users.GetByID(ctx, entry.UserID)
	if err != nil {
		slog.Error("Auto-checkout notice skipped", "user_id", entry.UserID, "entry_id", entry.ID, "error", err)
		return
	}
	if u.Email == "" {
		return
	}

	loc := u.Location()
	subject, body, err := s.renderer.AutoCheckout(email.AutoCheckoutData{
		Username:        u.Username,
		EntryID:         entry.ID,
		ClockIn:         timezone.Format(entry.ClockIn, loc),
		ClockOut:        timezone.FormatPtr(entry.ClockOut, loc),
		Threshold:       s.config.AutoCheckoutAfter.String(),
		BreakMinutes:    entry.BreakMinutes,
		DurationMinutes: entry.DurationMinutes(),
	})
	if err != nil {
		slog.Error("Auto-checkout notice not rendered", "entry_id", entry.ID, "error", err)
		return
	}

	s.sink.Send(ctx, notification.Message{
		Recipient:   u.Email,
		Subject:     subject,
		Body:        body,
		Type:        notification.TypeAutoCheckout,
		ReferenceID: entry.ID,
	})
}

// lookupUser resolves the caller for display purposes.
func (s *TimesheetServiceImpl) lookupUser(ctx context.Context, userID string) (user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.User{}, err
		}
		return user.User{}, fmt.Errorf("%w: get user: %w", timesheet.ErrStorageFailure, err)
	}
	return u, nil
}

// trimmed returns nil for absent or blank input.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func strPtr(s string) *string { return &s }
