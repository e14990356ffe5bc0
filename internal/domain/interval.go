package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseInterval parses a user-entered posting interval in minutes and checks it
// against the enforced minimum.
func ParseInterval(s string, minMinutes int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty input", ErrInvalidInterval)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: not a number: %q", ErrInvalidInterval, s)
	}
	return ValidateInterval(n, minMinutes)
}

// ValidateInterval checks an interval in minutes against the minimum.
func ValidateInterval(minutes, minMinutes int) (int, error) {
	if minutes < minMinutes {
		return 0, fmt.Errorf("%w: %d is below the %d minute minimum", ErrInvalidInterval, minutes, minMinutes)
	}
	return minutes, nil
}

// IntervalDuration converts an interval in minutes to a duration.
func IntervalDuration(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}
