// Package schedule derives task timing fields (start time, due time,
// duration) from one another, optionally honoring a working-hours policy.
package schedule

import "fmt"

// minutes-per-day bounds for wall-clock values.
const (
	minOfDay = 0
	maxOfDay = 23*60 + 59
)

// ParseClock parses an "HH:MM" wall-clock string into minutes since
// midnight. The second return is false for empty or malformed input.
func ParseClock(s string) (int, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &h, &m); err != nil {
		return 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(min int) string {
	return fmt.Sprintf("%02d:%02d", min/60, min%60)
}

// clampDay restricts a minute value to the same calendar day. Derived
// times never cross midnight: values past 23:59 cap there and negative
// values floor at 00:00.
func clampDay(min int) int {
	if min < minOfDay {
		return minOfDay
	}
	if min > maxOfDay {
		return maxOfDay
	}
	return min
}
