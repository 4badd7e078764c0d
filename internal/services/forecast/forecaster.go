package forecast

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/domain/service"
	"SalesCast/pkg/util"
)

// Candidate names. These double as the codec type discriminator, so renaming
// one invalidates previously persisted blobs.
const (
	CandidateNaive         = "naive"
	CandidateSeasonalNaive = "seasonal_naive"
	CandidateDecomposition = "decomposition"
	CandidateSARIMA        = "sarima"
	CandidateBoostedTrees  = "boosted_trees"
)

// DefaultOrder is the fixed preference used when per-run selection is
// disabled, best-effort models first and the dependency-free baselines last.
var DefaultOrder = []string{
	CandidateDecomposition,
	CandidateSARIMA,
	CandidateBoostedTrees,
	CandidateSeasonalNaive,
	CandidateNaive,
}

// NewTrainer builds the trainer for a candidate name using the resolved run
// config. Unknown names are a configuration error, not ErrUnavailable.
func NewTrainer(name string, cfg models.MLConfig) (service.Trainer, error) {
	switch name {
	case CandidateNaive:
		return &NaiveTrainer{}, nil
	case CandidateSeasonalNaive:
		return &SeasonalNaiveTrainer{Season: cfg.SeasonLength}, nil
	case CandidateDecomposition:
		return &DecompositionTrainer{
			Mode:    cfg.SeasonalityMode,
			Country: cfg.HolidayCountry,
		}, nil
	case CandidateSARIMA:
		return &SARIMATrainer{Order: cfg.SARIMA, Country: cfg.HolidayCountry}, nil
	case CandidateBoostedTrees:
		return &BoostedTreesTrainer{Country: cfg.HolidayCountry}, nil
	default:
		return nil, fmt.Errorf("unknown forecast candidate %q", name)
	}
}

// z90 is the standard normal 0.90 quantile, the half-width multiplier for an
// 80% two-sided interval.
var z90 = distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.90)

// stdDev is the sample standard deviation; 0 for fewer than two points.
func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return math.Sqrt(stat.Variance(xs, nil))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// tail returns the last up-to-n elements.
func tail(xs []float64, n int) []float64 {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}

// clampInterval enforces lower <= point <= upper on a freshly built point.
func clampInterval(p models.ForecastPoint) models.ForecastPoint {
	if p.Lower > p.Point {
		p.Lower = p.Point
	}
	if p.Upper < p.Point {
		p.Upper = p.Point
	}
	return p
}

// futureDates returns horizon consecutive days after last.
func futureDates(last time.Time, horizon int) []time.Time {
	out := make([]time.Time, horizon)
	for i := range out {
		out[i] = last.AddDate(0, 0, i+1)
	}
	return out
}

// finite reports whether every numeric field of the point is a real number.
func finite(p models.ForecastPoint) bool {
	for _, v := range []float64{p.Point, p.Lower, p.Upper} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// sanitize drops non-finite values by pinning them to the point estimate and
// re-clamping; a non-finite point estimate is unrecoverable and reported.
func sanitize(points []models.ForecastPoint) ([]models.ForecastPoint, error) {
	for i, p := range points {
		if math.IsNaN(p.Point) || math.IsInf(p.Point, 0) {
			return nil, fmt.Errorf("non-finite forecast at %s", util.FormatDay(p.Date))
		}
		if math.IsNaN(p.Lower) || math.IsInf(p.Lower, 0) {
			p.Lower = p.Point
		}
		if math.IsNaN(p.Upper) || math.IsInf(p.Upper, 0) {
			p.Upper = p.Point
		}
		points[i] = clampInterval(p)
	}
	return points, nil
}
