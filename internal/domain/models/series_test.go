package models

import (
	"testing"
	"time"
)

func testSeries(n int) DailySeries {
	s := DailySeries{TenantID: "t1"}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		s.Points = append(s.Points, DailyPoint{Date: start.AddDate(0, 0, i), Value: float64(i)})
	}
	return s
}

func TestWindowClampsBounds(t *testing.T) {
	s := testSeries(60)

	cases := []struct {
		from, to, want int
	}{
		{0, 60, 60},
		{-5, 3, 3},
		{50, 100, 10},
		{10, 5, 0},   // crossed range
		{62, 61, 0},  // both past the end
		{70, 200, 0}, // from past the end
	}
	for _, c := range cases {
		got := s.Window(c.from, c.to)
		if got.Len() != c.want {
			t.Fatalf("Window(%d, %d) = %d points, want %d", c.from, c.to, got.Len(), c.want)
		}
		if got.TenantID != "t1" {
			t.Fatalf("Window(%d, %d) dropped tenant", c.from, c.to)
		}
	}
}

func TestHeadClampsBounds(t *testing.T) {
	s := testSeries(10)
	if got := s.Head(-3).Len(); got != 0 {
		t.Fatalf("Head(-3) = %d points", got)
	}
	if got := s.Head(100).Len(); got != 10 {
		t.Fatalf("Head(100) = %d points", got)
	}
	if got := s.Head(4).Len(); got != 4 {
		t.Fatalf("Head(4) = %d points", got)
	}
}
