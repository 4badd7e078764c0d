package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/domain/service"
)

func genSeries(start time.Time, n int, fn func(i int) float64) models.DailySeries {
	points := make([]models.DailyPoint, n)
	for i := range points {
		points[i] = models.DailyPoint{Date: start.AddDate(0, 0, i), Value: fn(i)}
	}
	return models.DailySeries{TenantID: "t1", Points: points}
}

func checkIntervals(t *testing.T, points []models.ForecastPoint) {
	t.Helper()
	for _, p := range points {
		if p.Lower > p.Point || p.Upper < p.Point {
			t.Fatalf("interval not ordered at %s: %+v", p.Date.Format("2006-01-02"), p)
		}
		if math.IsNaN(p.Point) || math.IsInf(p.Point, 0) {
			t.Fatalf("non-finite point at %s", p.Date.Format("2006-01-02"))
		}
	}
}

func TestNaiveTrainEmpty(t *testing.T) {
	_, err := (&NaiveTrainer{}).Train(models.DailySeries{TenantID: "t1"})
	if !errors.Is(err, service.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestNaiveForecastConstantSeries(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := genSeries(start, 40, func(int) float64 { return 100 })

	m, err := (&NaiveTrainer{}).Train(s)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	points, err := m.Forecast(5)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(points) != 5 {
		t.Fatalf("expected 5 points, got %d", len(points))
	}
	checkIntervals(t, points)
	for i, p := range points {
		want := s.LastDate().AddDate(0, 0, i+1)
		if !p.Date.Equal(want) {
			t.Fatalf("point %d date %v, want %v", i, p.Date, want)
		}
		// constant history: zero sigma, degenerate interval
		if p.Point != 100 || p.Lower != 100 || p.Upper != 100 {
			t.Fatalf("point %d = %+v, want flat 100", i, p)
		}
	}
}

func TestSeasonalNaiveTilesLastSeason(t *testing.T) {
	week := []float64{10, 20, 30, 40, 50, 60, 70}
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC) // a Monday
	s := genSeries(start, 70, func(i int) float64 { return week[i%7] })

	m, err := (&SeasonalNaiveTrainer{Season: 7}).Train(s)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	points, err := m.Forecast(10)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	checkIntervals(t, points)
	for i, p := range points {
		if want := week[(70+i)%7]; p.Point != want {
			t.Fatalf("point %d = %v, want %v", i, p.Point, want)
		}
		// perfectly periodic history means zero seasonal-difference sigma
		if p.Lower != p.Point || p.Upper != p.Point {
			t.Fatalf("point %d interval should be degenerate: %+v", i, p)
		}
	}
}

func TestSeasonalNaiveShortHistoryFallsBackToNaive(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := genSeries(start, 3, func(i int) float64 { return float64(10 * (i + 1)) })

	m, err := (&SeasonalNaiveTrainer{Season: 7}).Train(s)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	points, err := m.Forecast(4)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	for i, p := range points {
		if p.Point != 30 {
			t.Fatalf("point %d = %v, want last observed 30", i, p.Point)
		}
	}
}

func TestDecompositionRecoversWeeklyPattern(t *testing.T) {
	start := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	fn := func(i int) float64 {
		return 50 + 0.5*float64(i) + 10*math.Sin(2*math.Pi*float64(i)/7)
	}
	s := genSeries(start, 120, fn)

	m, err := (&DecompositionTrainer{Mode: ModeAdditive, Country: "US"}).Train(s)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	points, err := m.Forecast(7)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	checkIntervals(t, points)
	for h, p := range points {
		if want := fn(120 + h); math.Abs(p.Point-want) > 2.0 {
			t.Fatalf("h=%d point %v, want about %v", h, p.Point, want)
		}
	}
}

func TestDecompositionShortHistoryUnavailable(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := genSeries(start, decompMinDays-1, func(i int) float64 { return float64(i) })
	_, err := (&DecompositionTrainer{}).Train(s)
	if !errors.Is(err, service.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestDecompositionMultiplicativeRejectsNegatives(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := genSeries(start, 60, func(i int) float64 {
		if i == 30 {
			return -5
		}
		return 100
	})
	_, err := (&DecompositionTrainer{Mode: ModeMultiplicative}).Train(s)
	if !errors.Is(err, service.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSARIMAShortHistoryUnavailable(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := genSeries(start, 15, func(i int) float64 { return float64(i) })
	order := models.SARIMAOrder{P: 1, D: 1, Q: 1, SP: 1, S: 7}
	_, err := (&SARIMATrainer{Order: order}).Train(s)
	if !errors.Is(err, service.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSARIMAFitsAndForecasts(t *testing.T) {
	start := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	fn := func(i int) float64 {
		t := float64(i)
		return 200 + 0.3*t + 15*math.Sin(2*math.Pi*t/7) + 4*math.Sin(0.37*t) + 3*math.Cos(1.13*t)
	}
	s := genSeries(start, 180, fn)

	order := models.SARIMAOrder{P: 1, D: 1, Q: 1, SP: 1, S: 7}
	m, err := (&SARIMATrainer{Order: order, Country: "US"}).Train(s)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	points, err := m.Forecast(14)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(points) != 14 {
		t.Fatalf("expected 14 points, got %d", len(points))
	}
	checkIntervals(t, points)
	// interval width may not shrink with lead time
	w1 := points[0].Upper - points[0].Lower
	w14 := points[13].Upper - points[13].Lower
	if w14 < w1-1e-9 {
		t.Fatalf("interval narrowed with lead time: h1=%v h14=%v", w1, w14)
	}
}

func TestBoostedTreesShortHistoryUnavailable(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := genSeries(start, gbtMinDays-1, func(i int) float64 { return float64(i) })
	_, err := (&BoostedTreesTrainer{}).Train(s)
	if !errors.Is(err, service.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestBoostedTreesConstantSeries(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := genSeries(start, 60, func(int) float64 { return 100 })

	m, err := (&BoostedTreesTrainer{Country: "US"}).Train(s)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	points, err := m.Forecast(7)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	checkIntervals(t, points)
	for i, p := range points {
		if math.Abs(p.Point-100) > 1e-9 {
			t.Fatalf("point %d = %v, want 100", i, p.Point)
		}
	}
}

func TestNewTrainerUnknownCandidate(t *testing.T) {
	if _, err := NewTrainer("prophet", models.MLConfig{}); err == nil {
		t.Fatalf("expected error for unknown candidate")
	}
}

func TestCodecRoundTripAllCandidates(t *testing.T) {
	start := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	s := genSeries(start, 180, func(i int) float64 {
		t := float64(i)
		return 200 + 0.3*t + 15*math.Sin(2*math.Pi*t/7) + 4*math.Sin(0.37*t)
	})
	cfg := models.MLConfig{
		SeasonLength:    7,
		SeasonalityMode: ModeAdditive,
		HolidayCountry:  "US",
		SARIMA:          models.SARIMAOrder{P: 1, D: 1, Q: 1, SP: 1, S: 7},
	}

	for _, name := range DefaultOrder {
		trainer, err := NewTrainer(name, cfg)
		if err != nil {
			t.Fatalf("%s: trainer: %v", name, err)
		}
		m, err := trainer.Train(s)
		if err != nil {
			t.Fatalf("%s: train: %v", name, err)
		}

		blob, err := Encode(m)
		if err != nil {
			t.Fatalf("%s: encode: %v", name, err)
		}
		back, err := Decode(blob)
		if err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if back.Type() != name {
			t.Fatalf("%s: decoded type %s", name, back.Type())
		}

		got, err := back.Forecast(7)
		if err != nil {
			t.Fatalf("%s: forecast after decode: %v", name, err)
		}
		want, err := m.Forecast(7)
		if err != nil {
			t.Fatalf("%s: forecast: %v", name, err)
		}
		for i := range want {
			if math.Abs(got[i].Point-want[i].Point) > 1e-9 {
				t.Fatalf("%s: decoded forecast diverges at %d: %v vs %v", name, i, got[i].Point, want[i].Point)
			}
		}
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	if _, err := Decode([]byte(`{"type":"mystery","payload":{}}`)); err == nil {
		t.Fatalf("expected error for unknown blob type")
	}
}
