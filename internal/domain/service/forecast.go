package service

import (
	"errors"

	"SalesCast/internal/domain/models"
)

// ErrUnavailable marks a candidate that cannot serve the given data
// (too short a history, incompatible values, a missing optional capability).
// The orchestrator drops unavailable candidates and falls back along the
// ranking; it is never treated as a run failure.
var ErrUnavailable = errors.New("forecast candidate unavailable")

// Trainer fits one forecasting candidate on a daily series.
type Trainer interface {
	Name() string
	Train(series models.DailySeries) (Model, error)
}

// Model is a fitted forecasting model. All candidates satisfy it, which is
// what lets the orchestrator backtest, select, persist, and reload them
// without branching on concrete types.
type Model interface {
	// Type returns the candidate name used as the codec discriminator.
	Type() string
	// Forecast produces horizon future days with an approximate 80% interval.
	Forecast(horizon int) ([]models.ForecastPoint, error)
	// InSample returns fitted values for the historical series. Candidates
	// that need warm-up (lags, seasons) may return fewer points than the
	// series has days; points align by date.
	InSample(series models.DailySeries) ([]models.InSamplePoint, error)
	// MarshalBinary serializes the fitted state for the model store.
	MarshalBinary() ([]byte, error)
}

// Detector scores a daily series for anomalous days.
type Detector interface {
	Name() string
	Detect(series models.DailySeries) ([]models.AnomalyPoint, error)
}
