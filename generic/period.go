package generic

// =============================================================================
// PERIOD - An inclusive booking date range
// =============================================================================

// Period is the stay window of a booking: [Start, End], both days included.
// Either bound may be absent (zero); see InclusiveDayCount for how that counts.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NewPeriod builds a period from two YYYY-MM-DD strings. Unparseable bounds are
// left absent.
func NewPeriod(start, end string) Period {
	s, _ := ParseDate(start)
	e, _ := ParseDate(end)
	return Period{Start: s, End: e}
}

// IsComplete reports whether both bounds are present.
func (p Period) IsComplete() bool {
	return !p.Start.IsZero() && !p.End.IsZero()
}

// DayCount is InclusiveDayCount over the period bounds.
func (p Period) DayCount() int {
	return InclusiveDayCount(p.Start, p.End)
}

// HasPeak reports whether any day of the period is a peak day. An incomplete
// or inverted period has no peak days.
func (p Period) HasPeak() bool {
	if !p.IsComplete() || p.End.Before(p.Start) {
		return false
	}
	// Every calendar year contains peak days, so a range longer than a year
	// always hits one.
	if DaysBetween(p.Start, p.End) >= 366 {
		return true
	}
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		if current.IsPeak() {
			return true
		}
	}
	return false
}

// RangeHasPeak is HasPeak for a pair of bounds.
func RangeHasPeak(start, end TimePoint) bool {
	return Period{Start: start, End: end}.HasPeak()
}
