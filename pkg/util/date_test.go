package util

import (
	"testing"
	"time"
)

func TestDayTruncates(t *testing.T) {
	in := time.Date(2024, 3, 5, 17, 45, 9, 120, time.FixedZone("UTC+7", 7*3600))
	got := Day(in)
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if FormatDay(in) != "2024-03-05" {
		t.Fatalf("unexpected day format %s", FormatDay(in))
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("42", 7); got != 42 {
		t.Fatalf("got %d", got)
	}
	if got := ParseIntDefault("", 7); got != 7 {
		t.Fatalf("empty: got %d", got)
	}
	if got := ParseIntDefault("junk", 7); got != 7 {
		t.Fatalf("junk: got %d", got)
	}
}
