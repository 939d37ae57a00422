package scheduling

import "time"

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// ComputeSlot returns the interval a booking starting at start occupies.
func ComputeSlot(start time.Time, elapsed time.Duration) Interval {
	return Interval{Start: start, End: start.Add(elapsed)}
}

func (i Interval) Empty() bool {
	return !i.End.After(i.Start)
}

// Overlaps reports whether each range starts before the other ends.
// Touching ranges ([9:00,9:30) and [9:30,10:00)) do not overlap. A zero-length
// range strictly inside another one does.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Contains reports whether o lies entirely inside i.
func (i Interval) Contains(o Interval) bool {
	return !o.Start.Before(i.Start) && !o.End.After(i.End)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}
