package notification

import "errors"

var (
	ErrDispatcherStopped = errors.New("notification dispatcher stopped")
)
