// Package timezone formats stored UTC instants for display. Nothing in the
// timesheet logic depends on a user's zone.
package timezone

import "time"

const DisplayLayout = "2006-01-02 15:04:05 MST"

// Load resolves an IANA zone name, falling back to UTC for empty or unknown names.
func Load(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Format renders t in loc using DisplayLayout. A nil loc means UTC.
func Format(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DisplayLayout)
}

// FormatPtr is Format for optional instants; nil yields "".
func FormatPtr(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return Format(*t, loc)
}

// UTC normalises an instant read from storage. Zero-offset instants without a
// location and instants in other zones compare equal after this.
func UTC(t time.Time) time.Time {
	return t.UTC()
}

// UTCPtr is UTC for optional instants.
func UTCPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// DateOf returns the UTC calendar date of t at midnight UTC.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthRange returns the first and last day of the UTC month containing t.
func MonthRange(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	first := time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, last
}
