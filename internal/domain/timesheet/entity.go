package timesheet

import (
	"time"
)

// Display states written by the presence tracker. Any other status message is
// free text supplied by the user.
const (
	StatusAvailable = "Available"
	StatusOnBreak   = "On Break"
	StatusOffline   = "Offline"
	StatusWorking   = "Working"
)

const (
	DefaultLocation  = "Office"
	DefaultBreakType = "Break"

	// AutoCheckoutMarker is appended to the notes of a force-closed entry.
	AutoCheckoutMarker = "[Auto-checkout]"
)

// Entry is one continuous work session. ClockOut is nil while the session is open.
type Entry struct {
	ID           string
	UserID       string
	Date         time.Time
	ClockIn      time.Time
	ClockOut     *time.Time
	BreakMinutes int
	Notes        *string
	Location     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsOpen reports whether the session has not been clocked out.
func (e Entry) IsOpen() bool {
	return e.ClockOut == nil
}

// DurationMinutes is the worked time net of breaks; 0 while open.
func (e Entry) DurationMinutes() int {
	if e.ClockOut == nil {
		return 0
	}
	total := wholeMinutes(e.ClockOut.Sub(e.ClockIn))
	return max(0, total-e.BreakMinutes)
}

// ElapsedMinutes is the gross time since clock-in, measured at now for open sessions.
func (e Entry) ElapsedMinutes(now time.Time) int {
	end := now
	if e.ClockOut != nil {
		end = *e.ClockOut
	}
	return max(0, wholeMinutes(end.Sub(e.ClockIn)))
}

// Break is one pause inside an Entry. BreakEnd is nil while the break is open.
type Break struct {
	ID         string
	UserID     string
	EntryID    string
	BreakStart time.Time
	BreakEnd   *time.Time
	BreakType  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (b Break) IsOpen() bool {
	return b.BreakEnd == nil
}

// DurationMinutes measures closed breaks end-start and open breaks up to now.
func (b Break) DurationMinutes(now time.Time) int {
	end := now
	if b.BreakEnd != nil {
		end = *b.BreakEnd
	}
	return max(0, wholeMinutes(end.Sub(b.BreakStart)))
}

// ClosedBreakMinutes sums the durations of the closed breaks. Open breaks are ignored.
func ClosedBreakMinutes(breaks []Break) int {
	total := 0
	for _, b := range breaks {
		if b.BreakEnd == nil {
			continue
		}
		total += wholeMinutes(b.BreakEnd.Sub(b.BreakStart))
	}
	return total
}

// UserStatus is the single presence record per user.
type UserStatus struct {
	ID                 string
	UserID             string
	IsWorking          bool
	CurrentTask        *string
	StatusMessage      *string
	LastActivity       time.Time
	CurrentTimesheetID *string
	UpdatedAt          time.Time
}

// Message returns the stored status message or "".
func (s UserStatus) Message() string {
	if s.StatusMessage == nil {
		return ""
	}
	return *s.StatusMessage
}

func (s UserStatus) Task() string {
	if s.CurrentTask == nil {
		return ""
	}
	return *s.CurrentTask
}

func wholeMinutes(d time.Duration) int {
	return int(d / time.Minute)
}
