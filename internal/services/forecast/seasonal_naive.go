package forecast

import (
	"encoding/json"
	"time"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/domain/service"
)

// SeasonalNaiveTrainer repeats the value from one season ago and tiles it
// over the horizon. Histories shorter than one season fall back to naive.
type SeasonalNaiveTrainer struct {
	Season int
}

func (t *SeasonalNaiveTrainer) Name() string { return CandidateSeasonalNaive }

func (t *SeasonalNaiveTrainer) Train(series models.DailySeries) (service.Model, error) {
	season := t.Season
	if season < 2 {
		season = 7
	}
	if series.Len() < season {
		inner, err := (&NaiveTrainer{}).Train(series)
		if err != nil {
			return nil, err
		}
		nm := inner.(*NaiveModel)
		return &SeasonalNaiveModel{Season: 1, LastSeason: []float64{nm.Last}, Sigma: nm.Sigma, LastDate: nm.LastDate}, nil
	}

	values := series.Values()
	diffs := make([]float64, 0, len(values)-season)
	for i := season; i < len(values); i++ {
		diffs = append(diffs, values[i]-values[i-season])
	}
	return &SeasonalNaiveModel{
		Season:     season,
		LastSeason: append([]float64(nil), values[len(values)-season:]...),
		Sigma:      stdDev(diffs),
		LastDate:   series.LastDate(),
	}, nil
}

// SeasonalNaiveModel holds the final season of observations. Interval
// half-width is z(0.90)*sigma of the seasonal differences.
type SeasonalNaiveModel struct {
	Season     int       `json:"season"`
	LastSeason []float64 `json:"last_season"`
	Sigma      float64   `json:"sigma"`
	LastDate   time.Time `json:"last_date"`
}

func (m *SeasonalNaiveModel) Type() string { return CandidateSeasonalNaive }

func (m *SeasonalNaiveModel) Forecast(horizon int) ([]models.ForecastPoint, error) {
	half := z90 * m.Sigma
	out := make([]models.ForecastPoint, 0, horizon)
	for i, d := range futureDates(m.LastDate, horizon) {
		point := m.LastSeason[i%len(m.LastSeason)]
		out = append(out, clampInterval(models.ForecastPoint{
			Date:  d,
			Point: point,
			Lower: point - half,
			Upper: point + half,
		}))
	}
	return sanitize(out)
}

func (m *SeasonalNaiveModel) InSample(series models.DailySeries) ([]models.InSamplePoint, error) {
	out := make([]models.InSamplePoint, 0, series.Len())
	for i := m.Season; i < series.Len(); i++ {
		out = append(out, models.InSamplePoint{
			Date:  series.Points[i].Date,
			Point: series.Points[i-m.Season].Value,
		})
	}
	return out, nil
}

func (m *SeasonalNaiveModel) MarshalBinary() ([]byte, error) { return json.Marshal(m) }
