package services

import "time"

// Datetimes are stored as fixed-width UTC strings so lexicographic range
// queries in SQL agree with chronological order. (RFC3339Nano would drop
// trailing zeros and break that.)
const dbTimeLayout = "2006-01-02T15:04:05.000Z"

func formatDBTime(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}

// FormatDBTime renders t in the storage layout used across all tables.
func FormatDBTime(t time.Time) string {
	return formatDBTime(t)
}

// ParseDBTime reads a stored datetime, returning the zero time when empty or
// unparseable.
func ParseDBTime(s string) time.Time {
	return parseDBTime(s)
}

func parseDBTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(dbTimeLayout, s); err == nil {
		return t
	}
	// Tolerate RFC3339 values from older imports.
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
