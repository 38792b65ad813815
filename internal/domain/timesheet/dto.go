package timesheet

import (
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/validator"
)

// ========================================
// CLOCK DTOs
// ========================================

type ClockInRequest struct {
	Location *string `json:"location,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	Task     *string `json:"task,omitempty"`
}

func (r *ClockInRequest) Validate() error {
	var errs validator.ValidationErrors

	errs.CheckLength("location", r.Location, 50)
	errs.CheckLength("task", r.Task, 200)

	return errs.Err()
}

type ClockInResponse struct {
	EntryID      string    `json:"entry_id"`
	ClockIn      time.Time `json:"clock_in"`
	ClockInLocal string    `json:"clock_in_local,omitempty"`
	Location     string    `json:"location"`
	Status       string    `json:"status"`
}

// ClockOutRequest carries optional notes. BreakDuration is accepted for client
// compatibility and ignored: break minutes are always derived from stored breaks.
type ClockOutRequest struct {
	Notes         *string `json:"notes,omitempty"`
	BreakDuration *int    `json:"break_duration,omitempty"`
}

type ClockOutResponse struct {
	EntryID         string    `json:"entry_id"`
	ClockIn         time.Time `json:"clock_in"`
	ClockOut        time.Time `json:"clock_out"`
	ClockOutLocal   string    `json:"clock_out_local,omitempty"`
	BreakMinutes    int       `json:"break_minutes"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
}

// ========================================
// BREAK DTOs
// ========================================

type BreakStartRequest struct {
	BreakType *string `json:"break_type,omitempty"`
}

func (r *BreakStartRequest) Validate() error {
	var errs validator.ValidationErrors

	errs.CheckLength("break_type", r.BreakType, 50)

	return errs.Err()
}

type BreakStartResponse struct {
	BreakID    string    `json:"break_id"`
	EntryID    string    `json:"entry_id"`
	BreakType  string    `json:"break_type"`
	BreakStart time.Time `json:"break_start"`
}

type BreakEndRequest struct {
	Task *string `json:"task,omitempty"`
}

func (r *BreakEndRequest) Validate() error {
	var errs validator.ValidationErrors

	errs.CheckLength("task", r.Task, 200)

	return errs.Err()
}

type BreakEndResponse struct {
	BreakID              string    `json:"break_id"`
	BreakEnd             time.Time `json:"break_end"`
	BreakDurationMinutes int       `json:"break_duration_minutes"`
	TotalBreakMinutes    int       `json:"total_break_minutes"`
}

// ========================================
// STATUS DTOs
// ========================================

type StatusResponse struct {
	IsClockedIn    bool       `json:"is_clocked_in"`
	EntryID        string     `json:"entry_id,omitempty"`
	ClockIn        *time.Time `json:"clock_in,omitempty"`
	ClockInLocal   string     `json:"clock_in_local,omitempty"`
	ElapsedMinutes int        `json:"elapsed_minutes"`
	BreakMinutes   int        `json:"break_minutes"`
	Location       *string    `json:"location,omitempty"`
	OnBreak        bool       `json:"on_break"`
	BreakStart     *time.Time `json:"break_start,omitempty"`
	CurrentTask    string     `json:"current_task"`
	StatusMessage  string     `json:"status_message"`
	AutoCheckedOut bool       `json:"auto_checked_out"`
}

type UpdateStatusRequest struct {
	StatusMessage *string `json:"status_message,omitempty"`
	CurrentTask   *string `json:"current_task,omitempty"`
}

func (r *UpdateStatusRequest) Validate() error {
	var errs validator.ValidationErrors

	errs.CheckLength("status_message", r.StatusMessage, 100)
	errs.CheckLength("current_task", r.CurrentTask, 200)

	return errs.Err()
}

type UpdateStatusResponse struct {
	BreakEnded    bool   `json:"break_ended"`
	StatusMessage string `json:"status_message"`
	CurrentTask   string `json:"current_task"`
}

// ========================================
// TEAM STATUS DTOs
// ========================================

// TeamMemberStatus is the admin view of one user.
type TeamMemberStatus struct {
	UserID         string     `json:"user_id"`
	Username       string     `json:"username"`
	DepartmentName *string    `json:"department_name,omitempty"`
	IsWorking      bool       `json:"is_working"`
	IsClockedIn    bool       `json:"is_clocked_in"`
	StatusMessage  string     `json:"status_message"`
	CurrentTask    string     `json:"current_task"`
	LastActivity   *time.Time `json:"last_activity,omitempty"`
	ClockIn        *time.Time `json:"clock_in,omitempty"`
	ElapsedMinutes int        `json:"elapsed_minutes"`
}

// PublicMemberStatus is the reduced view of a clocked-in user.
type PublicMemberStatus struct {
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	IsWorking      bool   `json:"is_working"`
	IsClockedIn    bool   `json:"is_clocked_in"`
	StatusMessage  string `json:"status_message"`
	CurrentTask    string `json:"current_task"`
	ElapsedMinutes int    `json:"elapsed_minutes"`
}

// ========================================
// ENTRY HISTORY DTOs
// ========================================

type EntryFilter struct {
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
}

func (f *EntryFilter) Validate() error {
	var errs validator.ValidationErrors

	var start, end time.Time
	var startOK, endOK bool

	if f.StartDate != nil && *f.StartDate != "" {
		if start, startOK = validator.IsValidDate(*f.StartDate); !startOK {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if end, endOK = validator.IsValidDate(*f.EndDate); !endOK {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}

	if startOK && endOK && end.Before(start) {
		errs.Add("end_date", "end_date must not be before start_date")
	}

	return errs.Err()
}

type BreakResponse struct {
	ID              string     `json:"id"`
	BreakType       string     `json:"break_type"`
	BreakStart      time.Time  `json:"break_start"`
	BreakEnd        *time.Time `json:"break_end,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	IsActive        bool       `json:"is_active"`
}

type EntryResponse struct {
	ID              string          `json:"id"`
	Date            string          `json:"date"`
	ClockIn         time.Time       `json:"clock_in"`
	ClockOut        *time.Time      `json:"clock_out,omitempty"`
	ClockInLocal    string          `json:"clock_in_local,omitempty"`
	ClockOutLocal   string          `json:"clock_out_local,omitempty"`
	BreakMinutes    int             `json:"break_minutes"`
	DurationMinutes int             `json:"duration_minutes"`
	Notes           *string         `json:"notes,omitempty"`
	Location        string          `json:"location"`
	IsActive        bool            `json:"is_active"`
	Breaks          []BreakResponse `json:"breaks"`
}

type ListEntriesResponse struct {
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	TotalMinutes int             `json:"total_minutes"`
	Entries      []EntryResponse `json:"entries"`
}

// PresenceEvent is published on the team stream after every committed change.
type PresenceEvent struct {
	UserID        string    `json:"user_id"`
	IsWorking     bool      `json:"is_working"`
	StatusMessage string    `json:"status_message"`
	CurrentTask   string    `json:"current_task"`
	Reason        string    `json:"reason"`
	At            time.Time `json:"at"`
}
