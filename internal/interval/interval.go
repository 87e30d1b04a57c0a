// Package interval parses and formats the user-facing summary interval
// grammar: "<integer><unit>" where unit is s, m, or h (e.g. "30m", "2h",
// "1800s"). Values outside the configured bounds are rejected, never clamped.
package interval

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Default bounds: one minute to one day.
const (
	MinSeconds int64 = 60
	MaxSeconds int64 = 86400
)

// Sentinel errors for interval validation.
var (
	// ErrSyntax indicates the string does not match <integer><s|m|h>.
	ErrSyntax = errors.New("interval: invalid syntax")

	// ErrRange indicates a well-formed interval outside the allowed bounds.
	ErrRange = errors.New("interval: out of range")
)

var pattern = regexp.MustCompile(`^(\d+)([smh])$`)

// Parse converts an interval string into seconds using the default bounds.
func Parse(s string) (int64, error) {
	return ParseBounded(s, MinSeconds, MaxSeconds)
}

// ParseBounded converts an interval string into seconds and verifies
// min <= seconds <= max. Matching is case-insensitive ("30M" == "30m").
func ParseBounded(s string, min, max int64) (int64, error) {
	m := pattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, fmt.Errorf("%w: %q (expected <number><s|m|h>, e.g. \"30m\")", ErrSyntax, s)
	}

	value, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		// Only reachable when the digits overflow int64.
		return 0, fmt.Errorf("%w: %q: %v", ErrSyntax, s, err)
	}

	seconds := value
	switch m[2] {
	case "m":
		seconds *= 60
	case "h":
		seconds *= 3600
	}

	if seconds < min || seconds > max {
		return 0, fmt.Errorf("%w: %q is %d seconds (allowed %s to %s)",
			ErrRange, s, seconds, Format(min), Format(max))
	}

	return seconds, nil
}

// Format renders seconds as a human-readable interval ("90s", "30m", "2h 30m").
func Format(seconds int64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		hours := seconds / 3600
		minutes := (seconds % 3600) / 60
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
}

// Duration converts parsed seconds into a time.Duration.
func Duration(seconds int64) time.Duration {
	return time.Duration(seconds) * time.Second
}
