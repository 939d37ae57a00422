package scheduling

import (
	"errors"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	got, err := ParseDuration("01:30")
	if err != nil {
		t.Fatalf("ParseDuration failed: %v", err)
	}
	if got.Milliseconds() != 5_400_000 {
		t.Fatalf("expected 5400000ms, got %d", got.Milliseconds())
	}

	valid := map[string]time.Duration{
		"00:00": 0,
		"00:30": 30 * time.Minute,
		"23:59": 23*time.Hour + 59*time.Minute,
		"10:05": 10*time.Hour + 5*time.Minute,
	}
	for in, want := range valid {
		got, err := ParseDuration(in)
		if err != nil || got != want {
			t.Fatalf("ParseDuration(%q): expected %s, got %s (%v)", in, want, got, err)
		}
	}
}

func TestParseDurationRejects(t *testing.T) {
	for _, in := range []string{"24:00", "bad", "9:5", "", "12:60", "1230", "01-30", " 01:30", "01:30 ", "-1:30", "01:3O"} {
		t.Run(in, func(t *testing.T) {
			if _, err := ParseDuration(in); !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("expected ErrInvalidFormat for %q, got %v", in, err)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(90 * time.Minute); got != "01:30" {
		t.Fatalf("expected 01:30, got %s", got)
	}
}
