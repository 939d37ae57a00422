package scheduling

import "time"

// AvailableSlots returns the slots of length duration, stepped by step from
// window.Start, that fit inside window, start no earlier than now and do not
// overlap any busy interval.
func AvailableSlots(window Interval, duration, step time.Duration, busy []Interval, now time.Time) []Interval {
	if duration <= 0 || step <= 0 || window.Empty() {
		return nil
	}

	var slots []Interval
	for t := window.Start; !t.Add(duration).After(window.End); t = t.Add(step) {
		if t.Before(now) {
			continue
		}
		slot := ComputeSlot(t, duration)
		if !overlapsAny(slot, busy) {
			slots = append(slots, slot)
		}
	}
	return slots
}

func overlapsAny(slot Interval, busy []Interval) bool {
	for _, b := range busy {
		if slot.Overlaps(b) {
			return true
		}
	}
	return false
}
