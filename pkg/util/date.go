package util

import "time"

// DayLayout is the canonical date-only format used in storage and payloads.
const DayLayout = "2006-01-02"

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// FormatDay renders a timestamp as its UTC calendar day.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}
