package anomaly

import (
	"math"
	"sort"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/domain/service"
)

// Method names accepted by tenant config.
const (
	MethodAuto            = "auto"
	MethodIsolationForest = "isolation_forest"
	MethodResidual        = "residual"
)

// Select picks the detector strategy for a run. Residual decomposition is
// preferred whenever a trained forecast model exists and the method allows
// it; the isolation forest needs nothing but the raw distribution.
func Select(cfg models.MLConfig, model service.Model) service.Detector {
	useResidual := cfg.AnomalyMethod == MethodResidual ||
		(cfg.AnomalyMethod == MethodAuto && model != nil)
	if useResidual {
		return &ResidualDetector{
			Period:    cfg.DecompPeriod,
			Threshold: cfg.AnomalyThreshold,
			Model:     model,
		}
	}
	return &IsolationForestDetector{Contamination: cfg.Contamination}
}

// median returns the middle value; input is not modified.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}

// mad is the median absolute deviation scaled to be consistent with the
// standard deviation under normality.
func mad(xs []float64, center float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	dev := make([]float64, len(xs))
	for i, v := range xs {
		dev[i] = math.Abs(v - center)
	}
	return 1.4826 * median(dev)
}
