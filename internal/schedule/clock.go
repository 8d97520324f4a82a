package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	ErrInvalidClock = errors.New("invalid time, expected zero-padded HH:MM")
	ErrUnknownDay   = errors.New("unknown weekday")
	ErrUnknownShift = errors.New("unknown shift")
	ErrUnknownField = errors.New("unknown shift field")
)

// ClockLayout is the "HH:MM" layout used by every stored time.
const ClockLayout = "15:04"

// ClockOf formats t as "HH:MM" in its own location.
func ClockOf(t time.Time) string {
	return t.Format(ClockLayout)
}

// IsClock reports whether s is a zero-padded 24-hour "HH:MM" value.
// Lexicographic comparison of stored times is only sound for such values.
func IsClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	_, err := time.Parse(ClockLayout, s)
	return err == nil
}

// ParseClock validates s and returns it unchanged.
func ParseClock(s string) (string, error) {
	if !IsClock(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return s, nil
}

func toMinutes(s string) (int, error) {
	if !IsClock(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	hour, _ := strconv.Atoi(s[:2])
	minute, _ := strconv.Atoi(s[3:])
	return hour*60 + minute, nil
}

func fromMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func maxClock(a, b string) string {
	if a > b {
		return a
	}
	return b
}
