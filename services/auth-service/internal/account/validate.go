package account

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	passwordPattern = regexp.MustCompile(`^[A-Za-z\d]{8,}$`)
	letterPattern   = regexp.MustCompile(`[A-Za-z]`)
	digitPattern    = regexp.MustCompile(`\d`)
	clockPattern    = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

var weekdays = map[string]bool{
	"sunday": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true,
}

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPassword accepts 8 or more ASCII letters and digits with at least one of each.
func ValidPassword(password string) bool {
	return passwordPattern.MatchString(password) &&
		letterPattern.MatchString(password) &&
		digitPattern.MatchString(password)
}

// endOfDay closes a window that runs until midnight.
const endOfDay = "24:00"

// NormalizeWorkSchedule lowercases day names and checks every window is a
// known weekday with an HH:MM start strictly before its end. An end of 24:00
// means midnight.
func NormalizeWorkSchedule(hours []WorkHour) ([]WorkHour, error) {
	out := make([]WorkHour, 0, len(hours))
	for i, wh := range hours {
		day := strings.ToLower(strings.TrimSpace(wh.Day))
		if !weekdays[day] {
			return nil, fmt.Errorf("%w: entry %d has unknown day %q", ErrInvalidWorkSchedule, i, wh.Day)
		}
		start, end := strings.TrimSpace(wh.Start), strings.TrimSpace(wh.End)
		if !clockPattern.MatchString(start) || !(clockPattern.MatchString(end) || end == endOfDay) {
			return nil, fmt.Errorf("%w: entry %d must use HH:MM times", ErrInvalidWorkSchedule, i)
		}
		// zero-padded HH:MM compares correctly as text
		if end <= start {
			return nil, fmt.Errorf("%w: %s window ends before it starts", ErrInvalidWorkSchedule, day)
		}
		out = append(out, WorkHour{Day: day, Start: start, End: end})
	}
	return out, nil
}

func checkPassword(password, confirm string) error {
	if !ValidPassword(password) {
		return ErrWeakPassword
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}
