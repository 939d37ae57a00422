// Package scheduling holds the pure time arithmetic behind bookings: parsing
// service durations, building half-open slots and testing them for overlap.
package scheduling

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var ErrInvalidFormat = errors.New("invalid HH:MM value")

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ParseDuration converts an "HH:MM" descriptor into the elapsed time it names.
// Hours run 00..23 and minutes 00..59; both must be two digits.
func ParseDuration(descriptor string) (time.Duration, error) {
	m := clockPattern.FindStringSubmatch(descriptor)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, descriptor)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return time.Duration(hours*60+minutes) * time.Minute, nil
}

// FormatDuration is the inverse of ParseDuration for values below 24h.
func FormatDuration(d time.Duration) string {
	total := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
