package core

import (
	"fmt"
	"strings"
	"time"
)

var iso8601Layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseISO8601 converts an ISO-8601-like timestamp into epoch milliseconds.
// Values without a zone are taken as UTC.
func ParseISO8601(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse timestamp: empty value")
	}
	for _, layout := range iso8601Layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("parse timestamp %q: unrecognized format", s)
}

// ISO8601 formats epoch milliseconds as a UTC timestamp with millisecond precision.
func ISO8601(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}
