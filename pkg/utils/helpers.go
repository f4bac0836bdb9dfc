package utils

import (
	"strconv"
	"strings"
	"time"

	"go-pivot-table/internal/model"
)

// DefaultTimeout applies when a report spec has no (or a bad) timeout.
const DefaultTimeout = 5 * time.Minute

// ParseDuration safely parses duration string like "5m"
func ParseDuration(d string) time.Duration {
	if d == "" {
		return DefaultTimeout
	}
	duration, err := time.ParseDuration(d)
	if err != nil || duration <= 0 {
		return DefaultTimeout
	}
	return duration
}

// ParseValue turns one raw text cell (CSV, query string) into a Value:
// numbers become Number, an empty cell is null, anything else stays text.
func ParseValue(s string) model.Value {
	// Trim whitespace first
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Null()
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return model.Number(f)
	}
	return model.Text(s)
}
