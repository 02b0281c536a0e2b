// Package duration parses the retention thresholds accepted by
// "ndr purge --older-than": "12h", "7d", "4w" and "3m" (30-day months).
// Anything else falls back to time.ParseDuration, so "90m30s" still works
// for tests and scripted runs.
package duration

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var short = regexp.MustCompile(`^(\d+)([hdwm])$`)

const day = 24 * time.Hour

var units = map[string]time.Duration{
	"h": time.Hour,
	"d": day,
	"w": 7 * day,
	"m": 30 * day,
}

// Parse returns the duration described by s. Negative and zero thresholds
// are rejected: purging "everything deleted in the future" is never meant.
func Parse(s string) (time.Duration, error) {
	var d time.Duration
	if m := short.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, fmt.Errorf("invalid number: %w", err)
		}
		d = time.Duration(n) * units[m[2]]
	} else {
		var err error
		if d, err = time.ParseDuration(s); err != nil {
			return 0, fmt.Errorf("invalid duration format: %s (use 12h, 7d, 4w or 3m)", s)
		}
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive: %s", s)
	}
	return d, nil
}
