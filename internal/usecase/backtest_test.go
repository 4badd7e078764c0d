package usecase

import (
	"math"
	"testing"
	"time"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/services/forecast"
	applogger "SalesCast/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func makeSeries(n int, fn func(i int) float64) models.DailySeries {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	points := make([]models.DailyPoint, n)
	for i := range points {
		points[i] = models.DailyPoint{Date: start.AddDate(0, 0, i), Value: fn(i)}
	}
	return models.DailySeries{TenantID: "t1", Points: points}
}

func TestCrossValidateFoldArithmetic(t *testing.T) {
	// 30 days, horizon 5, 3 folds: training prefixes are 15, 20, 25 days.
	// Naive completes every fold; boosted trees needs 21 days so only the
	// final fold trains it.
	s := makeSeries(30, func(i int) float64 { return 100 + float64(i%7)*10 })
	cfg := models.MLConfig{
		Candidates:    []string{"naive", "boosted_trees"},
		CVFolds:       3,
		HorizonDays:   5,
		PrimaryMetric: "mape",
	}
	scores := crossValidate(s, cfg, testLogger(t))

	byName := map[string]CandidateScore{}
	for _, cs := range scores {
		byName[cs.Name] = cs
	}
	if got := byName["naive"].Folds; got != 3 {
		t.Fatalf("naive folds = %d, want 3", got)
	}
	if got := byName["boosted_trees"].Folds; got != 1 {
		t.Fatalf("boosted_trees folds = %d, want 1", got)
	}
	for _, cs := range scores {
		if len(cs.FoldScores) != cs.Folds {
			t.Fatalf("%s: %d fold scores for %d folds", cs.Name, len(cs.FoldScores), cs.Folds)
		}
		if math.IsNaN(cs.Avg) || math.IsInf(cs.Avg, 0) {
			t.Fatalf("%s: non-finite avg", cs.Name)
		}
	}
}

func TestCrossValidateSkipsShortPrefixes(t *testing.T) {
	// 20 days, horizon 7, 3 folds: prefixes would be -1, 6, 13; only the
	// last clears the 7-day floor.
	s := makeSeries(20, func(i int) float64 { return 50 })
	cfg := models.MLConfig{
		Candidates:    []string{"naive"},
		CVFolds:       3,
		HorizonDays:   7,
		PrimaryMetric: "mape",
	}
	scores := crossValidate(s, cfg, testLogger(t))
	if len(scores) != 1 || scores[0].Folds != 1 {
		t.Fatalf("expected naive with exactly 1 fold, got %+v", scores)
	}
}

func TestMetricValue(t *testing.T) {
	actual := []float64{100, 200, 300}
	predicted := []float64{110, 190, 330}

	if got := metricValue("mae", actual, predicted); math.Abs(got-(10+10+30)/3.0) > 1e-9 {
		t.Fatalf("mae = %v", got)
	}
	wantRMSE := math.Sqrt((100 + 100 + 900) / 3.0)
	if got := metricValue("rmse", actual, predicted); math.Abs(got-wantRMSE) > 1e-9 {
		t.Fatalf("rmse = %v, want %v", got, wantRMSE)
	}
	wantMAPE := (10.0/100 + 10.0/200 + 30.0/300) / 3
	if got := metricValue("mape", actual, predicted); math.Abs(got-wantMAPE) > 1e-9 {
		t.Fatalf("mape = %v, want %v", got, wantMAPE)
	}

	// zero-sales validation day: floored denominator, finite result
	got := metricValue("mape", []float64{0}, []float64{5})
	if math.IsNaN(got) || math.IsInf(got, 0) {
		t.Fatalf("mape with zero actual = %v", got)
	}
	if got := metricValue("mape", nil, nil); !math.IsNaN(got) {
		t.Fatalf("empty input should be NaN, got %v", got)
	}
}

func TestRankCandidatesSelectBest(t *testing.T) {
	scores := []CandidateScore{
		{Name: "sarima", Avg: 0.3},
		{Name: "naive", Avg: 0.1},
		{Name: "decomposition", Avg: 0.2},
	}
	cfg := models.MLConfig{SelectBest: true}
	got := rankCandidates(scores, cfg)
	want := []string{"naive", "decomposition", "sarima"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ranking = %v, want %v", got, want)
		}
	}
}

func TestRankCandidatesFixedOrder(t *testing.T) {
	scores := []CandidateScore{
		{Name: "naive", Avg: 0.1},
		{Name: "sarima", Avg: 0.3},
	}
	cfg := models.MLConfig{
		SelectBest: false,
		Candidates: []string{"sarima", "naive"},
	}
	got := rankCandidates(scores, cfg)
	// fixed preference puts the richer model first regardless of score
	if len(got) != 2 || got[0] != forecast.CandidateSARIMA || got[1] != forecast.CandidateNaive {
		t.Fatalf("ranking = %v", got)
	}
}
