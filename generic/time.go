package generic

import (
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - Calendar day abstraction (bookings are priced per day)
// =============================================================================

// DateLayout is the wire format for every date the engine reads or emits.
const DateLayout = "2006-01-02"

// TimePoint is a calendar day. The zero value means "no date entered".
type TimePoint struct {
	Time time.Time
}

// NewTimePoint builds a calendar day in UTC.
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate reads a YYYY-MM-DD date. Empty or malformed input yields the zero
// TimePoint and false; callers treat that as an absent date, not an error.
// A full RFC 3339 timestamp is accepted and truncated to its calendar day.
func ParseDate(s string) (TimePoint, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimePoint{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return NewTimePoint(t.Year(), t.Month(), t.Day()), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewTimePoint(t.Year(), t.Month(), t.Day()), true
	}
	return TimePoint{}, false
}

// MustParseDate is ParseDate for fixtures and tests. It panics on bad input.
func MustParseDate(s string) TimePoint {
	tp, ok := ParseDate(s)
	if !ok {
		panic("generic: invalid date " + s)
	}
	return tp
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }

// normalize drops the time of day and the location so that day arithmetic is
// never skewed by DST transitions.
func (tp TimePoint) normalize() time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint { return TimePoint{Time: tp.normalize().AddDate(0, 0, n)} }

// Properties
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool      { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	if tp.IsZero() {
		return ""
	}
	return tp.normalize().Format(DateLayout)
}

// =============================================================================
// PEAK SEASON
// =============================================================================

// IsPeak reports whether the day falls in the high-demand window:
// June, July, December, or January 1st to 15th.
func (tp TimePoint) IsPeak() bool {
	switch tp.Month() {
	case time.June, time.July, time.December:
		return true
	case time.January:
		return tp.Day() <= 15
	default:
		return false
	}
}

// =============================================================================
// DATE MATH
// =============================================================================

const secondsPerDay = 24 * 60 * 60

// DaysBetween returns the signed number of calendar days from one day to another.
// Both days are UTC midnights, so their Unix seconds differ by whole days;
// time.Duration would saturate on spans beyond ~292 years.
func DaysBetween(from, to TimePoint) int {
	return int((to.normalize().Unix() - from.normalize().Unix()) / secondsPerDay)
}

// InclusiveDayCount counts the calendar days in start..end, both ends included.
// The result is never below 1: an absent date or an inverted range counts as a
// single day.
func InclusiveDayCount(start, end TimePoint) int {
	if start.IsZero() || end.IsZero() {
		return 1
	}
	n := DaysBetween(start, end) + 1
	if n < 1 {
		return 1
	}
	return n
}

// OffsetDate returns start moved by delta days, formatted as YYYY-MM-DD.
// An absent start yields an empty string.
func OffsetDate(start TimePoint, delta int) string {
	if start.IsZero() {
		return ""
	}
	return start.AddDays(delta).String()
}
