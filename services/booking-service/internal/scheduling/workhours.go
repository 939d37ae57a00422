package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func ParseWeekday(raw string) (time.Weekday, error) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidFormat, raw)
	}
	return d, nil
}

// parseWindowEnd reads a window end. Besides HH:MM it accepts 24:00, the
// midnight that closes the day.
func parseWindowEnd(raw string) (time.Duration, error) {
	if strings.TrimSpace(raw) == "24:00" {
		return 24 * time.Hour, nil
	}
	return ParseDuration(raw)
}

// ValidateWorkHours checks every window names a weekday and a non-empty HH:MM range.
func ValidateWorkHours(hours []model.WorkHour) error {
	for _, wh := range hours {
		if _, err := ParseWeekday(wh.Day); err != nil {
			return err
		}
		start, err := ParseDuration(wh.Start)
		if err != nil {
			return err
		}
		end, err := parseWindowEnd(wh.End)
		if err != nil {
			return err
		}
		if end <= start {
			return fmt.Errorf("%w: %s window ends before it starts", ErrInvalidFormat, wh.Day)
		}
	}
	return nil
}

// WindowsOn returns the UTC intervals of hours that fall on day's UTC date.
func WindowsOn(hours []model.WorkHour, day time.Time) ([]Interval, error) {
	day = day.UTC()
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	var windows []Interval
	for _, wh := range hours {
		wd, err := ParseWeekday(wh.Day)
		if err != nil {
			return nil, err
		}
		if wd != day.Weekday() {
			continue
		}
		start, err := ParseDuration(wh.Start)
		if err != nil {
			return nil, err
		}
		end, err := parseWindowEnd(wh.End)
		if err != nil {
			return nil, err
		}
		windows = append(windows, Interval{Start: midnight.Add(start), End: midnight.Add(end)})
	}
	return windows, nil
}

// WithinWorkHours reports whether slot sits entirely inside a single window
// on the UTC date it starts.
func WithinWorkHours(hours []model.WorkHour, slot Interval) (bool, error) {
	windows, err := WindowsOn(hours, slot.Start)
	if err != nil {
		return false, err
	}
	for _, w := range windows {
		if w.Contains(slot) {
			return true, nil
		}
	}
	return false, nil
}
