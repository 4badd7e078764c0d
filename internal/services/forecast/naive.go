package forecast

import (
	"encoding/json"
	"math"
	"time"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/domain/service"
)

// NaiveTrainer is the dependency-free last resort: the last observed value
// repeated over the horizon.
type NaiveTrainer struct{}

func (t *NaiveTrainer) Name() string { return CandidateNaive }

func (t *NaiveTrainer) Train(series models.DailySeries) (service.Model, error) {
	if series.Len() == 0 {
		return nil, service.ErrUnavailable
	}
	values := series.Values()
	return &NaiveModel{
		Last:     values[len(values)-1],
		Sigma:    stdDev(tail(values, 30)),
		LastDate: series.LastDate(),
	}, nil
}

// NaiveModel carries the fitted state of the naive candidate. The interval
// half-width is z(0.90)*sqrt(2)*sigma of the last 30 observed days.
type NaiveModel struct {
	Last     float64   `json:"last"`
	Sigma    float64   `json:"sigma"`
	LastDate time.Time `json:"last_date"`
}

func (m *NaiveModel) Type() string { return CandidateNaive }

func (m *NaiveModel) Forecast(horizon int) ([]models.ForecastPoint, error) {
	half := z90 * math.Sqrt2 * m.Sigma
	out := make([]models.ForecastPoint, 0, horizon)
	for _, d := range futureDates(m.LastDate, horizon) {
		out = append(out, clampInterval(models.ForecastPoint{
			Date:  d,
			Point: m.Last,
			Lower: m.Last - half,
			Upper: m.Last + half,
		}))
	}
	return sanitize(out)
}

func (m *NaiveModel) InSample(series models.DailySeries) ([]models.InSamplePoint, error) {
	// one-step-ahead: yesterday's value
	out := make([]models.InSamplePoint, 0, series.Len())
	for i := 1; i < series.Len(); i++ {
		out = append(out, models.InSamplePoint{
			Date:  series.Points[i].Date,
			Point: series.Points[i-1].Value,
		})
	}
	return out, nil
}

func (m *NaiveModel) MarshalBinary() ([]byte, error) { return json.Marshal(m) }
