package anomaly

import (
	"math"
	"testing"
	"time"

	"SalesCast/internal/domain/models"
)

func genSeries(n int, fn func(i int) float64) models.DailySeries {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	points := make([]models.DailyPoint, n)
	for i := range points {
		points[i] = models.DailyPoint{Date: start.AddDate(0, 0, i), Value: fn(i)}
	}
	return models.DailySeries{TenantID: "t1", Points: points}
}

func TestSelectPrefersResidualWithModel(t *testing.T) {
	cfg := models.MLConfig{AnomalyMethod: MethodAuto}
	if d := Select(cfg, nil); d.Name() != MethodIsolationForest {
		t.Fatalf("auto without model picked %s", d.Name())
	}
	if d := Select(cfg, &fakeModel{}); d.Name() != MethodResidual {
		t.Fatalf("auto with model picked %s", d.Name())
	}
	cfg.AnomalyMethod = MethodIsolationForest
	if d := Select(cfg, &fakeModel{}); d.Name() != MethodIsolationForest {
		t.Fatalf("explicit isolation_forest ignored: %s", d.Name())
	}
}

func TestIsolationForestFlagsOutliers(t *testing.T) {
	s := genSeries(120, func(i int) float64 {
		if i == 40 || i == 80 {
			return 1000
		}
		return 100 + 5*math.Sin(float64(i))
	})
	d := &IsolationForestDetector{Contamination: 0.05}
	points, err := d.Detect(s)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(points) != 120 {
		t.Fatalf("expected a score per day, got %d", len(points))
	}
	if !points[40].IsAnomaly || !points[80].IsAnomaly {
		t.Fatalf("planted spikes not flagged: %v %v", points[40], points[80])
	}
	for i, p := range points {
		if i == 40 || i == 80 {
			continue
		}
		if p.Score >= points[40].Score {
			t.Fatalf("normal day %d scored %v >= spike %v", i, p.Score, points[40].Score)
		}
	}
}

func TestIsolationForestDeterministic(t *testing.T) {
	s := genSeries(90, func(i int) float64 { return 100 + 10*math.Sin(float64(i)/3) })
	d := &IsolationForestDetector{Contamination: 0.05}
	a, err := d.Detect(s)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	b, err := d.Detect(s)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	for i := range a {
		if a[i].Score != b[i].Score {
			t.Fatalf("score drifted across runs at %d: %v vs %v", i, a[i].Score, b[i].Score)
		}
	}
}

func TestResidualDetectorFlagsShiftedBlock(t *testing.T) {
	week := []float64{100, 110, 120, 130, 140, 90, 80}
	s := genSeries(112, func(i int) float64 {
		v := week[i%7]
		if i >= 70 && i < 76 {
			v += 300
		}
		return v
	})
	d := &ResidualDetector{Period: 7, Threshold: 3.0}
	points, err := d.Detect(s)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}

	flaggedInBlock := 0
	for i := 70; i < 76; i++ {
		if points[i].IsAnomaly {
			flaggedInBlock++
		}
	}
	if flaggedInBlock < 3 {
		t.Fatalf("only %d of 6 shifted days flagged", flaggedInBlock)
	}
	flaggedOutside := 0
	for i, p := range points {
		if (i < 68 || i >= 78) && p.IsAnomaly {
			flaggedOutside++
		}
	}
	if flaggedOutside > 5 {
		t.Fatalf("%d days flagged outside the shifted block", flaggedOutside)
	}
}

func TestResidualDetectorUsesModelResiduals(t *testing.T) {
	s := genSeries(60, func(i int) float64 {
		if i == 30 {
			return 500
		}
		return 100
	})
	d := &ResidualDetector{Period: 7, Threshold: 3.0, Model: &fakeModel{fitted: 100}}
	points, err := d.Detect(s)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !points[30].IsAnomaly {
		t.Fatalf("spike against flat fit not flagged: %+v", points[30])
	}
	for i, p := range points {
		if i != 30 && p.IsAnomaly {
			t.Fatalf("flat day %d flagged: %+v", i, p)
		}
	}
}

func TestDetectEmptySeries(t *testing.T) {
	for _, d := range []interface {
		Detect(models.DailySeries) ([]models.AnomalyPoint, error)
	}{
		&IsolationForestDetector{},
		&ResidualDetector{},
	} {
		points, err := d.Detect(models.DailySeries{TenantID: "t1"})
		if err != nil {
			t.Fatalf("detect empty: %v", err)
		}
		if len(points) != 0 {
			t.Fatalf("expected no points, got %d", len(points))
		}
	}
}

// fakeModel returns a constant fitted value for every day of the series.
type fakeModel struct {
	fitted float64
}

func (m *fakeModel) Type() string { return "fake" }

func (m *fakeModel) Forecast(horizon int) ([]models.ForecastPoint, error) { return nil, nil }

func (m *fakeModel) InSample(series models.DailySeries) ([]models.InSamplePoint, error) {
	out := make([]models.InSamplePoint, 0, series.Len())
	for _, p := range series.Points {
		out = append(out, models.InSamplePoint{Date: p.Date, Point: m.fitted})
	}
	return out, nil
}

func (m *fakeModel) MarshalBinary() ([]byte, error) { return []byte(`{}`), nil }
