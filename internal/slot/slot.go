// Package slot holds the pure time-slot arithmetic: date-keyed minute
// intervals, half-open overlap, and candidate start enumeration.
package slot

import (
	"fmt"
	"time"
)

// DateKeyLayout is the calendar-date form used across the service ("2006-01-02").
const DateKeyLayout = "2006-01-02"

// TimeSlot is a fixed-duration interval on one calendar date. Intervals are
// half-open: a slot ending exactly when another starts does not overlap it.
type TimeSlot struct {
	DateKey         string `db:"date_key" json:"date_key"`
	StartMinute     int    `db:"start_minute" json:"start_minute"`
	DurationMinutes int    `db:"duration_minutes" json:"duration_minutes"`
}

// End returns the exclusive end minute of the slot.
func (s TimeSlot) End() int {
	return s.StartMinute + s.DurationMinutes
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %02d:%02d (%d min)",
		s.DateKey, s.StartMinute/60, s.StartMinute%60, s.DurationMinutes)
}

// Overlaps reports whether two slots on the same date intersect.
func Overlaps(a, b TimeSlot) bool {
	if a.DateKey != b.DateKey {
		return false
	}
	return a.StartMinute < b.End() && b.StartMinute < a.End()
}

// IsPast reports whether the slot's start has already elapsed. Only slots on
// the current date can be past; any other date is never past, the caller is
// expected to reject earlier dates separately.
func IsPast(s TimeSlot, now time.Time) bool {
	if s.DateKey != DateKey(now) {
		return false
	}
	return s.StartMinute <= now.Hour()*60+now.Minute()
}

// FitsWindow reports whether the slot lies fully inside the opening window.
func FitsWindow(s TimeSlot, openingMinute, closingMinute int) bool {
	return s.StartMinute >= openingMinute && s.End() <= closingMinute
}

// Enumerate returns candidate start minutes for the given session length,
// stepping by the duration and stopping once a slot would run past closing.
func Enumerate(durationMinutes, openingMinute, closingMinute int) []int {
	var starts []int
	if durationMinutes <= 0 {
		return starts
	}
	for m := openingMinute; m+durationMinutes <= closingMinute; m += durationMinutes {
		starts = append(starts, m)
	}
	return starts
}

// DateKey formats a time as a calendar-date key.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ValidDateKey reports whether the string is a well-formed date key.
func ValidDateKey(key string) bool {
	_, err := time.Parse(DateKeyLayout, key)
	return err == nil
}
