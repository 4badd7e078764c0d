package features

import (
	"math"
	"testing"
	"time"

	"SalesCast/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCoerceAmount(t *testing.T) {
	cases := map[string]float64{
		"":         0,
		"  ":       0,
		"12.5":     12.5,
		"1,250.75": 1250.75,
		"-3":       -3,
		"garbage":  0,
		"12abc":    0,
	}
	for in, want := range cases {
		if got := CoerceAmount(in); got != want {
			t.Fatalf("CoerceAmount(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestBuildDailySeriesContiguity(t *testing.T) {
	rows := []models.SalesRow{
		{Date: day(2025, 3, 10), Amount: "100"},
		{Date: day(2025, 3, 1), Amount: "50"},
		{Date: day(2025, 3, 1).Add(9 * time.Hour), Amount: "25"},
		{Date: day(2025, 3, 5), Amount: "bad"},
	}
	s := BuildDailySeries("t1", rows)

	if s.Len() != 10 {
		t.Fatalf("expected 10 contiguous days, got %d", s.Len())
	}
	if !s.Points[0].Date.Equal(day(2025, 3, 1)) {
		t.Fatalf("unexpected first day %v", s.Points[0].Date)
	}
	if s.Points[0].Value != 75 {
		t.Fatalf("expected same-day sum 75, got %v", s.Points[0].Value)
	}
	// gap days and coercion failures are explicit zeros
	if s.Points[3].Value != 0 || s.Points[4].Value != 0 {
		t.Fatalf("expected zero-filled gaps")
	}
	for i := 1; i < s.Len(); i++ {
		if s.Points[i].Date.Sub(s.Points[i-1].Date) != 24*time.Hour {
			t.Fatalf("non-contiguous at %d", i)
		}
	}
}

func TestBuildDailySeriesEmpty(t *testing.T) {
	s := BuildDailySeries("t1", nil)
	if s.Len() != 0 {
		t.Fatalf("expected empty series")
	}
}

func TestRollingSnapshot(t *testing.T) {
	points := make([]models.DailyPoint, 0, 30)
	for i := 0; i < 30; i++ {
		points = append(points, models.DailyPoint{Date: day(2025, 1, 1).AddDate(0, 0, i), Value: float64(i + 1)})
	}
	snaps := RollingSnapshot(models.DailySeries{TenantID: "t1", Points: points})

	if len(snaps) != 30 {
		t.Fatalf("expected one snapshot per day, got %d", len(snaps))
	}
	// day index 0: partial windows degrade to the single value
	if snaps[0].MovingAvg7 != 1 || snaps[0].MovingAvg28 != 1 {
		t.Fatalf("partial window means wrong: %+v", snaps[0])
	}
	// day index 29: mean of 24..30 = 27, mean of 3..30 = 16.5
	if math.Abs(snaps[29].MovingAvg7-27) > 1e-9 {
		t.Fatalf("moving_avg_7 = %v, want 27", snaps[29].MovingAvg7)
	}
	if math.Abs(snaps[29].MovingAvg28-16.5) > 1e-9 {
		t.Fatalf("moving_avg_28 = %v, want 16.5", snaps[29].MovingAvg28)
	}
	if snaps[29].DailyTotal != 30 {
		t.Fatalf("daily_total = %v, want 30", snaps[29].DailyTotal)
	}
}
