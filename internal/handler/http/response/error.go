package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
)

// retryAfterSeconds is advertised on 503 responses for rolled back mutations.
const retryAfterSeconds = 1

// ErrInvalidToken is reported when the bearer token is missing, malformed or of the wrong type.
var ErrInvalidToken = errors.New("invalid or missing token")

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, ErrInvalidToken):
		Unauthorized(w, "Invalid or missing token")
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")

	// Timesheet state violations
	case errors.Is(err, timesheet.ErrAlreadyOpen):
		Conflict(w, "You are already clocked in")
	case errors.Is(err, timesheet.ErrBreakAlreadyOpen):
		Conflict(w, "A break is already in progress")
	case errors.Is(err, timesheet.ErrNotClockedIn):
		BadRequest(w, "You are not clocked in", nil)
	case errors.Is(err, timesheet.ErrNoActiveBreak):
		BadRequest(w, "No active break to end", nil)

	// Rolled back, safe to retry
	case errors.Is(err, timesheet.ErrStorageFailure):
		slog.Error("Timesheet storage failure", "error", err)
		ServiceUnavailable(w, "Temporarily unable to save your timesheet, please retry", retryAfterSeconds)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
