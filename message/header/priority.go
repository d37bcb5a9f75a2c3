package header

import (
	"strconv"
	"strings"
)

// PriorityLevel is the normalized priority of a message.
type PriorityLevel string

// The possible priority levels.
const (
	PriorityLow    PriorityLevel = "low"
	PriorityNormal PriorityLevel = "normal"
	PriorityHigh   PriorityLevel = "high"
)

// String returns the priority level as a string.
func (p PriorityLevel) String() string {
	return string(p)
}

// ParsePriority maps the body of any of the priority, x-priority,
// x-msmail-priority, or importance fields to a priority level. A leading
// integer is read as 3 being normal, anything larger low, and anything smaller
// high. Otherwise, the words "non-urgent" and "low" mean low and the words
// "urgent" and "high" mean high. Anything else is normal.
func ParsePriority(body string) PriorityLevel {
	body = strings.ToLower(strings.TrimSpace(body))

	digits := len(body) - len(strings.TrimLeft(body, "0123456789"))
	if body != "" && (body[0] == '-' || body[0] == '+') {
		digits = len(body) - len(strings.TrimLeft(body[1:], "0123456789"))
	}

	if n, err := strconv.Atoi(body[:digits]); err == nil {
		switch {
		case n == 3:
			return PriorityNormal
		case n > 3:
			return PriorityLow
		default:
			return PriorityHigh
		}
	}

	switch body {
	case "non-urgent", "low":
		return PriorityLow
	case "urgent", "high":
		return PriorityHigh
	}

	return PriorityNormal
}
