package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// DurationError represents an invalid duration string
type DurationError struct {
	Code    string
	Message string
}

func (e *DurationError) Error() string {
	return e.Message
}

// ParseHHMM converts a duration in "HH:MM" form to minutes. This is the
// format durations travel in over the API, matching how repair times are
// quoted on job sheets (e.g. "01:30" for an hour and a half).
func ParseHHMM(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, &DurationError{
			Code:    "INVALID_DURATION",
			Message: fmt.Sprintf("Duration must be in HH:MM format, got %q", s),
		}
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, &DurationError{
			Code:    "INVALID_DURATION",
			Message: fmt.Sprintf("Invalid hours in duration %q", s),
		}
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, &DurationError{
			Code:    "INVALID_DURATION",
			Message: fmt.Sprintf("Invalid minutes in duration %q", s),
		}
	}

	return hours*60 + minutes, nil
}

// FormatHHMM converts minutes to "HH:MM" form. Negative values format as
// "00:00".
func FormatHHMM(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
