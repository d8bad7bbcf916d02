package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const MinutesPerDay = 24 * 60

// ParseClock converts a wall-clock "HH:MM" string to minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %v", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %v", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h*60 + m, nil
}

// LegDuration returns the travel minutes between departure and arrival, rolling
// the arrival to the next day when the leg crosses midnight.
func LegDuration(departure, arrival string) (int, error) {
	dep, err := ParseClock(departure)
	if err != nil {
		return 0, err
	}
	arr, err := ParseClock(arrival)
	if err != nil {
		return 0, err
	}
	if arr < dep {
		arr += MinutesPerDay
	}
	return arr - dep, nil
}

// FormatDuration renders minutes as "2h49m", "3h" or "45m". Negative input
// renders as "0m".
func FormatDuration(totalMinutes int) string {
	if totalMinutes < 0 {
		return "0m"
	}
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm", totalMinutes)
	}
	hours := totalMinutes / 60
	minutes := totalMinutes % 60
	if minutes == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, minutes)
}

var (
	hourPattern   = regexp.MustCompile(`(\d+)h`)
	minutePattern = regexp.MustCompile(`(\d+)m`)
)

// ParseDuration converts a "2h49m" style string back to minutes. Unparseable
// parts count as zero.
func ParseDuration(s string) int {
	hours := 0
	minutes := 0
	if m := hourPattern.FindStringSubmatch(s); m != nil {
		hours, _ = strconv.Atoi(m[1])
	}
	if m := minutePattern.FindStringSubmatch(s); m != nil {
		minutes, _ = strconv.Atoi(m[1])
	}
	return hours*60 + minutes
}
