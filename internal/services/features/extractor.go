package features

import (
	"strconv"
	"strings"
	"time"

	"SalesCast/internal/domain/models"
	"SalesCast/pkg/util"
)

// MinSeriesDays is the shortest history the pipeline will train on. Shorter
// series are a terminal "insufficient data" outcome, not an error.
const MinSeriesDays = 7

// CoerceAmount turns a raw amount cell into a float64. Upstream writers are
// sloppy about the column, so blanks, junk, and currency noise all collapse
// to 0.0 rather than failing the run.
func CoerceAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// BuildDailySeries aggregates raw transaction rows into a contiguous daily
// series: amounts are coerced, summed per calendar day, and every missing
// day inside [min(date), max(date)] is filled with 0.0. Rows may arrive in
// any order. An empty input yields an empty series.
func BuildDailySeries(tenantID string, rows []models.SalesRow) models.DailySeries {
	series := models.DailySeries{TenantID: tenantID}
	if len(rows) == 0 {
		return series
	}

	totals := make(map[time.Time]float64, len(rows))
	var first, last time.Time
	for _, r := range rows {
		day := util.Day(r.Date)
		totals[day] += CoerceAmount(r.Amount)
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if last.IsZero() || day.After(last) {
			last = day
		}
	}

	n := int(last.Sub(first).Hours()/24) + 1
	series.Points = make([]models.DailyPoint, 0, n)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		series.Points = append(series.Points, models.DailyPoint{Date: d, Value: totals[d]})
	}
	return series
}

// RollingSnapshot computes per-day rolling features (daily total, 7- and
// 28-day trailing means) for the feature cache. Windows shorter than their
// nominal length average whatever history exists.
func RollingSnapshot(series models.DailySeries) []models.FeatureSnapshot {
	out := make([]models.FeatureSnapshot, 0, series.Len())
	values := series.Values()
	for i, p := range series.Points {
		out = append(out, models.FeatureSnapshot{
			Date:        p.Date,
			DailyTotal:  p.Value,
			MovingAvg7:  trailingMean(values, i, 7),
			MovingAvg28: trailingMean(values, i, 28),
		})
	}
	return out
}

func trailingMean(values []float64, end, window int) float64 {
	start := end - window + 1
	if start < 0 {
		start = 0
	}
	n := end - start + 1
	if n <= 0 {
		return 0
	}
	var s float64
	for _, v := range values[start : end+1] {
		s += v
	}
	return s / float64(n)
}
