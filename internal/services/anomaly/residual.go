package anomaly

import (
	"math"
	"time"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/domain/service"
)

// ResidualDetector flags days whose robust z-score in residual space exceeds
// Threshold. When a trained forecast model is present, residuals come from
// its in-sample predictions; otherwise a seasonal-trend decomposition
// (centered moving-average trend, per-position median seasonal) is used.
type ResidualDetector struct {
	Period    int
	Threshold float64
	Model     service.Model
}

func (d *ResidualDetector) Name() string { return MethodResidual }

func (d *ResidualDetector) Detect(series models.DailySeries) ([]models.AnomalyPoint, error) {
	n := series.Len()
	out := make([]models.AnomalyPoint, 0, n)
	if n == 0 {
		return out, nil
	}
	period := d.Period
	if period < 2 {
		period = 7
	}
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = 3.0
	}

	dates := make([]time.Time, n)
	resid := make([]float64, 0, n)
	residDates := make([]time.Time, 0, n)
	values := series.Values()
	for i, p := range series.Points {
		dates[i] = p.Date
	}

	if d.Model != nil {
		preds, err := d.Model.InSample(series)
		if err != nil {
			return nil, err
		}
		byDate := make(map[time.Time]float64, len(preds))
		for _, pr := range preds {
			byDate[pr.Date] = pr.Point
		}
		for i, p := range series.Points {
			if fitted, ok := byDate[p.Date]; ok {
				resid = append(resid, values[i]-fitted)
				residDates = append(residDates, p.Date)
			}
		}
	} else {
		trend := centeredMA(values, period)
		seasonal := seasonalMedians(values, trend, period)
		for i := range values {
			resid = append(resid, values[i]-trend[i]-seasonal[i%period])
			residDates = append(residDates, dates[i])
		}
	}

	center := median(resid)
	scale := mad(resid, center)
	if scale == 0 {
		scale = 1e-9
	}

	scoreByDate := make(map[time.Time]float64, len(resid))
	for i, r := range resid {
		scoreByDate[residDates[i]] = math.Abs(r-center) / scale
	}
	for i, p := range series.Points {
		z, ok := scoreByDate[p.Date]
		out = append(out, models.AnomalyPoint{
			Date:      p.Date,
			Value:     values[i],
			Score:     z,
			IsAnomaly: ok && z > threshold,
		})
	}
	return out, nil
}

// centeredMA smooths with a window of one period; edges reuse the nearest
// full window mean.
func centeredMA(values []float64, period int) []float64 {
	n := len(values)
	half := period / 2
	out := make([]float64, n)
	for i := range values {
		lo, hi := i-half, i+half
		if lo < 0 {
			lo = 0
		}
		if hi >= n {
			hi = n - 1
		}
		var s float64
		for _, v := range values[lo : hi+1] {
			s += v
		}
		out[i] = s / float64(hi-lo+1)
	}
	return out
}

// seasonalMedians computes a robust per-position seasonal component from the
// detrended series.
func seasonalMedians(values, trend []float64, period int) []float64 {
	buckets := make([][]float64, period)
	for i := range values {
		pos := i % period
		buckets[pos] = append(buckets[pos], values[i]-trend[i])
	}
	out := make([]float64, period)
	for pos, b := range buckets {
		out[pos] = median(b)
	}
	return out
}
