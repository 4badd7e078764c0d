package forecast

import (
	"testing"
	"time"
)

func TestIsHoliday(t *testing.T) {
	cases := []struct {
		country string
		date    time.Time
		want    bool
	}{
		{"US", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"US", time.Date(2024, 11, 28, 0, 0, 0, 0, time.UTC), true}, // Thanksgiving 2024
		{"US", time.Date(2024, 11, 21, 0, 0, 0, 0, time.UTC), false},
		{"US", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), true}, // Labor Day 2025
		{"GB", time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC), true},
		{"DE", time.Date(2024, 10, 3, 0, 0, 0, 0, time.UTC), true},
		{"VN", time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC), true},
		{"", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"FR", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), false},
	}
	for _, c := range cases {
		if got := IsHoliday(c.country, c.date); got != c.want {
			t.Fatalf("IsHoliday(%s, %s) = %v, want %v", c.country, c.date.Format("2006-01-02"), got, c.want)
		}
	}
}

func TestIsSpecialCommercialDate(t *testing.T) {
	cases := []struct {
		date time.Time
		want bool
	}{
		{time.Date(2024, 11, 29, 0, 0, 0, 0, time.UTC), true}, // Black Friday 2024
		{time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC), true},  // Cyber Monday 2024
		{time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2024, 11, 22, 0, 0, 0, 0, time.UTC), false},
		{time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), false},
	}
	for _, c := range cases {
		if got := IsSpecialCommercialDate(c.date); got != c.want {
			t.Fatalf("IsSpecialCommercialDate(%s) = %v, want %v", c.date.Format("2006-01-02"), got, c.want)
		}
	}
}
