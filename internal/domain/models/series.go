package models

import "time"

// DailyPoint is one calendar day of aggregated sales for a tenant.
type DailyPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// DailySeries is a gap-free, ascending daily sales series for one tenant.
// It is rebuilt on every pipeline run and discarded afterwards; days without
// sales carry an explicit 0.0 (absence of sales, not missing data).
type DailySeries struct {
	TenantID string
	Points   []DailyPoint
}

func (s DailySeries) Len() int { return len(s.Points) }

// Values returns the value column in date order.
func (s DailySeries) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Head returns the first n points as a series sharing the backing array.
func (s DailySeries) Head(n int) DailySeries {
	if n < 0 {
		n = 0
	}
	if n > len(s.Points) {
		n = len(s.Points)
	}
	return DailySeries{TenantID: s.TenantID, Points: s.Points[:n]}
}

// Window returns points [from, to) as a series sharing the backing array.
// Bounds outside the series, or a range that crosses itself, clamp to an
// empty window rather than panicking.
func (s DailySeries) Window(from, to int) DailySeries {
	if from < 0 {
		from = 0
	}
	if to > len(s.Points) {
		to = len(s.Points)
	}
	if from > to {
		from = to
	}
	return DailySeries{TenantID: s.TenantID, Points: s.Points[from:to]}
}

// LastDate returns the date of the final point, or the zero time for an
// empty series.
func (s DailySeries) LastDate() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Date
}

// SalesRow is one raw transaction row as read from the transactional store.
// Amount is kept as text because upstream writers are not strict about the
// column type; coercion happens in the feature extractor.
type SalesRow struct {
	Date   time.Time
	Amount string
}

// FeatureSnapshot is one day of rolling features pushed to the analytics
// feature cache. Not consumed by the pipeline itself.
type FeatureSnapshot struct {
	Date        time.Time
	DailyTotal  float64
	MovingAvg7  float64
	MovingAvg28 float64
}

// ForecastPoint is one forecasted day with an approximate 80% interval.
// Lower <= Point <= Upper holds for every point the engine emits.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Point float64   `json:"point"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// InSamplePoint is a fitted value for a historical day.
type InSamplePoint struct {
	Date  time.Time `json:"date"`
	Point float64   `json:"point"`
}

// AnomalyPoint is one scored historical day from an anomaly detector.
type AnomalyPoint struct {
	Date      time.Time `json:"date"`
	Value     float64   `json:"value"`
	IsAnomaly bool      `json:"is_anomaly"`
	Score     float64   `json:"score"`
}
