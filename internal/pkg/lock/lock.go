package lock

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when a lock could not be acquired before the
// context ended or the wait budget ran out.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// Locker provides mutual exclusion per key. The returned function releases the
// lock and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
