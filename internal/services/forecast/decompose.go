package forecast

import (
	"encoding/json"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/domain/service"
)

const (
	ModeAdditive       = "additive"
	ModeMultiplicative = "multiplicative"

	decompMinDays   = 28
	weeklyHarmonics = 2
	yearlyHarmonics = 3
)

// DecompositionTrainer fits a regression decomposition: linear trend, weekly
// and yearly Fourier seasonality, and holiday/commercial-date regressors.
// Multiplicative mode fits on log1p-transformed values.
type DecompositionTrainer struct {
	Mode    string
	Country string
}

func (t *DecompositionTrainer) Name() string { return CandidateDecomposition }

func (t *DecompositionTrainer) Train(series models.DailySeries) (service.Model, error) {
	n := series.Len()
	if n < decompMinDays {
		return nil, service.ErrUnavailable
	}
	mode := t.Mode
	if mode == "" {
		mode = ModeAdditive
	}

	y := make([]float64, n)
	for i, p := range series.Points {
		v := p.Value
		if mode == ModeMultiplicative {
			if v < 0 {
				// log transform cannot represent negative totals
				return nil, service.ErrUnavailable
			}
			v = math.Log1p(v)
		}
		y[i] = v
	}

	start := series.Points[0].Date
	k := 2 + 2*weeklyHarmonics + 2*yearlyHarmonics + 2
	rows := make([]float64, 0, n*k)
	for i, p := range series.Points {
		rows = append(rows, decompFeatures(i, p.Date, t.Country)...)
	}
	A := mat.NewDense(n, k, rows)
	b := mat.NewVecDense(n, y)

	var beta mat.VecDense
	if err := beta.SolveVec(A, b); err != nil {
		// rank-deficient design for this history
		return nil, service.ErrUnavailable
	}

	m := &DecompositionModel{
		Mode:       mode,
		Country:    t.Country,
		Beta:       append([]float64(nil), beta.RawVector().Data...),
		N:          n,
		TrainStart: start,
		LastDate:   series.LastDate(),
	}

	resid := make([]float64, n)
	for i := range y {
		resid[i] = y[i] - m.raw(i, series.Points[i].Date)
	}
	m.ResidStd = stdDev(resid)
	return m, nil
}

// DecompositionModel is the fitted regression state. Day indices continue
// past the training range, so forecasting reuses the same feature builder.
type DecompositionModel struct {
	Mode       string    `json:"mode"`
	Country    string    `json:"country"`
	Beta       []float64 `json:"beta"`
	ResidStd   float64   `json:"resid_std"`
	N          int       `json:"n"`
	TrainStart time.Time `json:"train_start"`
	LastDate   time.Time `json:"last_date"`
}

func (m *DecompositionModel) Type() string { return CandidateDecomposition }

// raw evaluates the regression in transformed space for day index i.
func (m *DecompositionModel) raw(i int, date time.Time) float64 {
	feats := decompFeatures(i, date, m.Country)
	var v float64
	for j, f := range feats {
		v += m.Beta[j] * f
	}
	return v
}

func (m *DecompositionModel) invert(v float64) float64 {
	if m.Mode == ModeMultiplicative {
		return math.Expm1(v)
	}
	return v
}

func (m *DecompositionModel) Forecast(horizon int) ([]models.ForecastPoint, error) {
	lastIdx := int(m.LastDate.Sub(m.TrainStart).Hours() / 24)
	out := make([]models.ForecastPoint, 0, horizon)
	for h, d := range futureDates(m.LastDate, horizon) {
		v := m.raw(lastIdx+h+1, d)
		half := z90 * m.ResidStd * math.Sqrt(1+float64(h+1)/float64(m.N))
		out = append(out, clampInterval(models.ForecastPoint{
			Date:  d,
			Point: m.invert(v),
			Lower: m.invert(v - half),
			Upper: m.invert(v + half),
		}))
	}
	return sanitize(out)
}

func (m *DecompositionModel) InSample(series models.DailySeries) ([]models.InSamplePoint, error) {
	out := make([]models.InSamplePoint, 0, series.Len())
	for _, p := range series.Points {
		i := int(p.Date.Sub(m.TrainStart).Hours() / 24)
		out = append(out, models.InSamplePoint{Date: p.Date, Point: m.invert(m.raw(i, p.Date))})
	}
	return out, nil
}

func (m *DecompositionModel) MarshalBinary() ([]byte, error) { return json.Marshal(m) }

// decompFeatures builds one design-matrix row: intercept, trend, weekly and
// yearly Fourier terms, holiday and commercial-date dummies.
func decompFeatures(i int, date time.Time, country string) []float64 {
	k := 2 + 2*weeklyHarmonics + 2*yearlyHarmonics + 2
	row := make([]float64, 0, k)
	t := float64(i)
	row = append(row, 1, t)
	for h := 1; h <= weeklyHarmonics; h++ {
		w := 2 * math.Pi * float64(h) * t / 7
		row = append(row, math.Sin(w), math.Cos(w))
	}
	for h := 1; h <= yearlyHarmonics; h++ {
		w := 2 * math.Pi * float64(h) * t / 365.25
		row = append(row, math.Sin(w), math.Cos(w))
	}
	row = append(row, boolFeature(IsHoliday(country, date)), boolFeature(IsSpecialCommercialDate(date)))
	return row
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
