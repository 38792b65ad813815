package timesheet

import "errors"

// Timesheet domain errors
var (
	// State violations, returned to the caller as rejected requests
	ErrAlreadyOpen      = errors.New("you are already clocked in")
	ErrNotClockedIn     = errors.New("you are not clocked in")
	ErrBreakAlreadyOpen = errors.New("a break is already in progress")
	ErrNoActiveBreak    = errors.New("no active break to end")

	// Storage errors, retryable; the compound mutation was rolled back
	ErrStorageFailure = errors.New("timesheet storage failure")
)
