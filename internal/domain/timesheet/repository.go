package timesheet

import (
	"context"
	"time"
)

// TxManager runs fn in one storage transaction. Repository calls made with the
// context passed to fn join that transaction; any error from fn rolls it back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EntryRepository stores timesheet entries.
type EntryRepository interface {
	// Create inserts an open entry. Returns ErrAlreadyOpen if the user already has one.
	Create(ctx context.Context, entry Entry) (Entry, error)

	// GetOpenByUserID returns the user's open entry or nil. Inside a transaction
	// the row stays locked until commit.
	GetOpenByUserID(ctx context.Context, userID string) (*Entry, error)

	// Update writes clock-out, break minutes, notes and location.
	Update(ctx context.Context, entry Entry) error

	// ListOpen returns every open entry in one query.
	ListOpen(ctx context.Context) ([]Entry, error)

	// ListByUser returns the user's entries with start <= date <= end, newest first.
	ListByUser(ctx context.Context, userID string, start, end time.Time) ([]Entry, error)
}

// BreakRepository stores breaks nested in entries.
type BreakRepository interface {
	// Create inserts an open break. Returns ErrBreakAlreadyOpen if the entry already has one.
	Create(ctx context.Context, b Break) (Break, error)

	// GetOpenByEntryID returns the entry's open break or nil.
	GetOpenByEntryID(ctx context.Context, entryID string) (*Break, error)

	// Close sets break_end on an open break.
	Close(ctx context.Context, breakID string, end time.Time) error

	// ListByEntryIDs returns the breaks of the given entries ordered by start.
	ListByEntryIDs(ctx context.Context, entryIDs []string) ([]Break, error)
}

// StatusRepository stores one UserStatus row per user. Only the presence
// tracker writes through it.
type StatusRepository interface {
	// GetByUserID returns the user's status or nil when none was created yet.
	GetByUserID(ctx context.Context, userID string) (*UserStatus, error)

	// Upsert inserts or replaces the row keyed by user id.
	Upsert(ctx context.Context, status UserStatus) (UserStatus, error)

	// ListByUserIDs returns the statuses of the given users in one query.
	ListByUserIDs(ctx context.Context, userIDs []string) ([]UserStatus, error)
}
