package forecast

import (
	"encoding/json"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/domain/service"
)

// SARIMATrainer fits a seasonal ARIMA (p,d,q)(P,D,Q,s) by the two-stage
// Hannan-Rissanen method: a long autoregression estimates the innovations,
// then ordinary least squares regresses the differenced series on its own
// lags, seasonal lags, innovation lags, and an optional holiday regressor.
// Exact multiplicative-SARIMA equivalence is not a goal; the additive lag
// form forecasts well on daily sales and stays dependency-free.
type SARIMATrainer struct {
	Order   models.SARIMAOrder
	Country string
}

func (t *SARIMATrainer) Name() string { return CandidateSARIMA }

func (t *SARIMATrainer) Train(series models.DailySeries) (service.Model, error) {
	o := t.Order
	if o.S < 2 {
		o.S = 7
	}
	y := series.Values()
	w, stages := applyDiffs(y, o.D, o.SD, o.S)

	longAR := 10 + o.P + o.Q + o.S*(o.SP+o.SQ)
	if longAR > len(w)/3 {
		longAR = len(w) / 3
	}
	maxMALag := maxInt(o.Q, o.SQ*o.S)
	maxARLag := maxInt(o.P, o.SP*o.S)
	t0 := maxInt(longAR+maxMALag, maxARLag)
	useHol := t.Country != ""
	k := 1 + o.P + o.SP + o.Q + o.SQ
	if useHol {
		k++
	}
	if longAR < 1 || len(w)-t0 < k+10 {
		return nil, service.ErrUnavailable
	}

	eps, err := longARResiduals(w, longAR)
	if err != nil {
		return nil, service.ErrUnavailable
	}

	// wDates aligns each differenced observation to its calendar day.
	offset := o.D + o.SD*o.S
	wDate := func(i int) time.Time { return series.Points[i+offset].Date }

	rows := len(w) - t0
	data := make([]float64, 0, rows*k)
	targets := make([]float64, 0, rows)
	for i := t0; i < len(w); i++ {
		data = append(data, sarimaRow(w, eps, i, o, useHol, IsHoliday(t.Country, wDate(i)))...)
		targets = append(targets, w[i])
	}
	A := mat.NewDense(rows, k, data)
	b := mat.NewVecDense(rows, targets)
	var beta mat.VecDense
	if err := beta.SolveVec(A, b); err != nil {
		return nil, service.ErrUnavailable
	}
	coef := append([]float64(nil), beta.RawVector().Data...)

	m := &SARIMAModel{
		Order:    o,
		Country:  t.Country,
		UseHol:   useHol,
		Coef:     coef,
		Stages:   stages,
		LastDate: series.LastDate(),
	}

	// innovation variance from the stage-two fit
	resid := make([]float64, 0, rows)
	for i := t0; i < len(w); i++ {
		pred := dot(coef, sarimaRow(w, eps, i, o, useHol, IsHoliday(t.Country, wDate(i))))
		resid = append(resid, w[i]-pred)
	}
	m.Sigma = stdDev(resid)
	m.WTail = append([]float64(nil), tail(w, maxInt(maxARLag, 1))...)
	m.ETail = append([]float64(nil), tail(eps, maxInt(maxMALag, 1))...)
	return m, nil
}

// SARIMAModel is the fitted state. Coef layout: intercept, p regular AR lags,
// P seasonal AR lags, q MA lags, Q seasonal MA lags, optional holiday beta.
type SARIMAModel struct {
	Order    models.SARIMAOrder `json:"order"`
	Country  string             `json:"country"`
	UseHol   bool               `json:"use_hol"`
	Coef     []float64          `json:"coef"`
	Sigma    float64            `json:"sigma"`
	WTail    []float64          `json:"w_tail"`
	ETail    []float64          `json:"e_tail"`
	Stages   []diffStage        `json:"stages"`
	LastDate time.Time          `json:"last_date"`
}

func (m *SARIMAModel) Type() string { return CandidateSARIMA }

func (m *SARIMAModel) Forecast(horizon int) ([]models.ForecastPoint, error) {
	o := m.Order
	w := append([]float64(nil), m.WTail...)
	eps := append([]float64(nil), m.ETail...)
	stages := copyStages(m.Stages)

	psi := m.psiWeights(horizon)
	out := make([]models.ForecastPoint, 0, horizon)
	var cumVar float64
	for h, d := range futureDates(m.LastDate, horizon) {
		i := len(w)
		wHat := dot(m.Coef, sarimaRow(w, eps, i, o, m.UseHol, IsHoliday(m.Country, d)))
		w = append(w, wHat)
		eps = append(eps, 0)

		point := integrate(stages, wHat)
		cumVar += psi[h] * psi[h]
		half := z90 * m.Sigma * math.Sqrt(cumVar)
		out = append(out, clampInterval(models.ForecastPoint{
			Date:  d,
			Point: point,
			Lower: point - half,
			Upper: point + half,
		}))
	}
	return sanitize(out)
}

func (m *SARIMAModel) InSample(series models.DailySeries) ([]models.InSamplePoint, error) {
	o := m.Order
	y := series.Values()
	w, _ := applyDiffs(y, o.D, o.SD, o.S)
	offset := o.D + o.SD*o.S
	t0 := maxInt(maxInt(o.P, o.SP*o.S), maxInt(o.Q, o.SQ*o.S))

	eps := make([]float64, len(w))
	out := make([]models.InSamplePoint, 0, len(w))
	for i := range w {
		if i < t0 {
			continue
		}
		date := series.Points[i+offset].Date
		wHat := dot(m.Coef, sarimaRow(w, eps, i, o, m.UseHol, IsHoliday(m.Country, date)))
		eps[i] = w[i] - wHat
		// one-step prediction: replace the innovation, keep the
		// differencing complement built from observed history
		out = append(out, models.InSamplePoint{Date: date, Point: y[i+offset] - w[i] + wHat})
	}
	return out, nil
}

func (m *SARIMAModel) MarshalBinary() ([]byte, error) { return json.Marshal(m) }

// psiWeights returns the first horizon MA-representation weights of the
// differenced process, integrated for each differencing applied, used to
// grow the interval with lead time.
func (m *SARIMAModel) psiWeights(horizon int) []float64 {
	o := m.Order
	maxLag := maxInt(maxInt(o.P, o.SP*o.S), maxInt(o.Q, o.SQ*o.S))
	ar := make([]float64, maxLag+1)
	ma := make([]float64, maxLag+1)
	idx := 1
	for j := 1; j <= o.P; j++ {
		ar[j] += m.Coef[idx]
		idx++
	}
	for j := 1; j <= o.SP; j++ {
		ar[j*o.S] += m.Coef[idx]
		idx++
	}
	for j := 1; j <= o.Q; j++ {
		ma[j] += m.Coef[idx]
		idx++
	}
	for j := 1; j <= o.SQ; j++ {
		ma[j*o.S] += m.Coef[idx]
		idx++
	}

	psi := make([]float64, horizon)
	for j := 0; j < horizon; j++ {
		var v float64
		if j == 0 {
			v = 1
		} else {
			if j < len(ma) {
				v = ma[j]
			}
			for l := 1; l < len(ar) && l <= j; l++ {
				prev := 0.0
				if j-l < len(psi) {
					prev = psi[j-l]
				}
				v += ar[l] * prev
			}
		}
		psi[j] = v
	}
	for rep := 0; rep < o.D; rep++ {
		for j := 1; j < horizon; j++ {
			psi[j] += psi[j-1]
		}
	}
	for rep := 0; rep < o.SD; rep++ {
		for j := o.S; j < horizon; j++ {
			psi[j] += psi[j-o.S]
		}
	}
	return psi
}

// sarimaRow builds one regressor row at index i of the differenced series.
func sarimaRow(w, eps []float64, i int, o models.SARIMAOrder, useHol, isHol bool) []float64 {
	row := make([]float64, 0, 1+o.P+o.SP+o.Q+o.SQ+1)
	row = append(row, 1)
	for j := 1; j <= o.P; j++ {
		row = append(row, at(w, i-j))
	}
	for j := 1; j <= o.SP; j++ {
		row = append(row, at(w, i-j*o.S))
	}
	for j := 1; j <= o.Q; j++ {
		row = append(row, at(eps, i-j))
	}
	for j := 1; j <= o.SQ; j++ {
		row = append(row, at(eps, i-j*o.S))
	}
	if useHol {
		row = append(row, boolFeature(isHol))
	}
	return row
}

func at(xs []float64, i int) float64 {
	if i < 0 || i >= len(xs) {
		return 0
	}
	return xs[i]
}

func dot(a, b []float64) float64 {
	var v float64
	for i := range b {
		v += a[i] * b[i]
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// longARResiduals estimates innovations via an AR(m) least-squares fit.
func longARResiduals(w []float64, m int) ([]float64, error) {
	rows := len(w) - m
	data := make([]float64, 0, rows*(m+1))
	targets := make([]float64, 0, rows)
	for i := m; i < len(w); i++ {
		data = append(data, 1)
		for j := 1; j <= m; j++ {
			data = append(data, w[i-j])
		}
		targets = append(targets, w[i])
	}
	A := mat.NewDense(rows, m+1, data)
	b := mat.NewVecDense(rows, targets)
	var beta mat.VecDense
	if err := beta.SolveVec(A, b); err != nil {
		return nil, err
	}
	coef := beta.RawVector().Data

	eps := make([]float64, len(w))
	for i := m; i < len(w); i++ {
		pred := coef[0]
		for j := 1; j <= m; j++ {
			pred += coef[j] * w[i-j]
		}
		eps[i] = w[i] - pred
	}
	return eps, nil
}

// diffStage records one differencing pass so forecasts can be integrated
// back to the original scale. Tail holds the final Lag values of the stage's
// input series.
type diffStage struct {
	Lag  int       `json:"lag"`
	Tail []float64 `json:"tail"`
}

func applyDiffs(y []float64, d, D, s int) ([]float64, []diffStage) {
	cur := y
	var stages []diffStage
	for i := 0; i < d; i++ {
		stages = append(stages, diffStage{Lag: 1, Tail: append([]float64(nil), tail(cur, 1)...)})
		cur = diffLag(cur, 1)
	}
	for i := 0; i < D; i++ {
		stages = append(stages, diffStage{Lag: s, Tail: append([]float64(nil), tail(cur, s)...)})
		cur = diffLag(cur, s)
	}
	return cur, stages
}

func diffLag(xs []float64, lag int) []float64 {
	if len(xs) <= lag {
		return nil
	}
	out := make([]float64, 0, len(xs)-lag)
	for i := lag; i < len(xs); i++ {
		out = append(out, xs[i]-xs[i-lag])
	}
	return out
}

// integrate inverts the differencing stages for one new value, updating the
// stage tails in place (callers pass a copy).
func integrate(stages []diffStage, w float64) float64 {
	v := w
	for i := len(stages) - 1; i >= 0; i-- {
		st := &stages[i]
		v += st.Tail[len(st.Tail)-st.Lag]
		st.Tail = append(st.Tail, v)
	}
	return v
}

func copyStages(stages []diffStage) []diffStage {
	out := make([]diffStage, len(stages))
	for i, st := range stages {
		out[i] = diffStage{Lag: st.Lag, Tail: append([]float64(nil), st.Tail...)}
	}
	return out
}
