package forecast

import (
	"encoding/json"
	"sort"
	"time"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/domain/service"
)

const (
	gbtMinDays   = 21
	gbtTrees     = 60
	gbtDepth     = 3
	gbtMinLeaf   = 5
	gbtShrinkage = 0.1
	gbtMaxLag    = 7
)

// BoostedTreesTrainer fits a gradient-boosted ensemble of shallow regression
// trees on calendar features plus lags {1,7}. Only rows with fully populated
// lags are trained on. The fit is deterministic: splits are exhaustive, no
// subsampling.
type BoostedTreesTrainer struct {
	Country string
}

func (t *BoostedTreesTrainer) Name() string { return CandidateBoostedTrees }

func (t *BoostedTreesTrainer) Train(series models.DailySeries) (service.Model, error) {
	if series.Len() < gbtMinDays {
		return nil, service.ErrUnavailable
	}
	values := series.Values()

	X := make([][]float64, 0, series.Len()-gbtMaxLag)
	y := make([]float64, 0, series.Len()-gbtMaxLag)
	for i := gbtMaxLag; i < series.Len(); i++ {
		X = append(X, gbtFeatures(series.Points[i].Date, values[i-1], values[i-gbtMaxLag], t.Country))
		y = append(y, values[i])
	}

	m := &BoostedTreesModel{
		Country:  t.Country,
		Base:     mean(y),
		Rate:     gbtShrinkage,
		LastDate: series.LastDate(),
		TailVals: append([]float64(nil), tail(values, gbtMaxLag)...),
	}

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = m.Base
	}
	for n := 0; n < gbtTrees; n++ {
		grad := make([]float64, len(y))
		for i := range y {
			grad[i] = y[i] - pred[i]
		}
		tree := growTree(X, grad, allRows(len(y)), gbtDepth)
		m.Trees = append(m.Trees, tree)
		for i := range pred {
			pred[i] += gbtShrinkage * tree.predict(X[i])
		}
	}

	resid := make([]float64, len(y))
	for i := range y {
		resid[i] = y[i] - pred[i]
	}
	m.Sigma = stdDev(tail(resid, 30))
	return m, nil
}

// BoostedTreesModel is the fitted ensemble. Multi-step forecasting is
// iterative: each predicted day is appended to the lag buffer and feeds the
// lag features of later days.
type BoostedTreesModel struct {
	Country  string    `json:"country"`
	Base     float64   `json:"base"`
	Rate     float64   `json:"rate"`
	Sigma    float64   `json:"sigma"`
	Trees    []tree    `json:"trees"`
	TailVals []float64 `json:"tail_vals"`
	LastDate time.Time `json:"last_date"`
}

func (m *BoostedTreesModel) Type() string { return CandidateBoostedTrees }

func (m *BoostedTreesModel) score(x []float64) float64 {
	v := m.Base
	for _, tr := range m.Trees {
		v += m.Rate * tr.predict(x)
	}
	return v
}

func (m *BoostedTreesModel) Forecast(horizon int) ([]models.ForecastPoint, error) {
	buf := append([]float64(nil), m.TailVals...)
	half := z90 * m.Sigma
	out := make([]models.ForecastPoint, 0, horizon)
	for _, d := range futureDates(m.LastDate, horizon) {
		x := gbtFeatures(d, buf[len(buf)-1], buf[len(buf)-gbtMaxLag], m.Country)
		point := m.score(x)
		buf = append(buf, point)
		out = append(out, clampInterval(models.ForecastPoint{
			Date:  d,
			Point: point,
			Lower: point - half,
			Upper: point + half,
		}))
	}
	return sanitize(out)
}

func (m *BoostedTreesModel) InSample(series models.DailySeries) ([]models.InSamplePoint, error) {
	values := series.Values()
	out := make([]models.InSamplePoint, 0, series.Len())
	for i := gbtMaxLag; i < series.Len(); i++ {
		x := gbtFeatures(series.Points[i].Date, values[i-1], values[i-gbtMaxLag], m.Country)
		out = append(out, models.InSamplePoint{Date: series.Points[i].Date, Point: m.score(x)})
	}
	return out, nil
}

func (m *BoostedTreesModel) MarshalBinary() ([]byte, error) { return json.Marshal(m) }

// gbtFeatures: day-of-week, day-of-month, month, holiday, commercial date,
// lag1, lag7.
func gbtFeatures(date time.Time, lag1, lag7 float64, country string) []float64 {
	return []float64{
		float64(date.Weekday()),
		float64(date.Day()),
		float64(date.Month()),
		boolFeature(IsHoliday(country, date)),
		boolFeature(IsSpecialCommercialDate(date)),
		lag1,
		lag7,
	}
}

// tree is a binary regression tree stored as a flat node slice; index 0 is
// the root.
type tree struct {
	Nodes []treeNode `json:"nodes"`
}

type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
	Leaf      bool    `json:"leaf"`
}

func (t tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

func allRows(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func growTree(X [][]float64, y []float64, rows []int, depth int) tree {
	t := tree{}
	t.build(X, y, rows, depth)
	return t
}

func (t *tree) build(X [][]float64, y []float64, rows []int, depth int) int {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, treeNode{})

	if depth == 0 || len(rows) < 2*gbtMinLeaf {
		t.Nodes[idx] = treeNode{Leaf: true, Value: meanRows(y, rows)}
		return idx
	}

	feat, thr, ok := bestSplit(X, y, rows)
	if !ok {
		t.Nodes[idx] = treeNode{Leaf: true, Value: meanRows(y, rows)}
		return idx
	}

	var left, right []int
	for _, r := range rows {
		if X[r][feat] <= thr {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	l := t.build(X, y, left, depth-1)
	r := t.build(X, y, right, depth-1)
	t.Nodes[idx] = treeNode{Feature: feat, Threshold: thr, Left: l, Right: r}
	return idx
}

// bestSplit scans every feature and candidate threshold for the largest
// squared-error reduction, honoring the minimum leaf size.
func bestSplit(X [][]float64, y []float64, rows []int) (int, float64, bool) {
	bestGain := 0.0
	bestFeat, bestThr, found := 0, 0.0, false

	total, totalSq := sums(y, rows)
	n := float64(len(rows))
	parentSSE := totalSq - total*total/n

	nFeat := len(X[rows[0]])
	for f := 0; f < nFeat; f++ {
		ordered := append([]int(nil), rows...)
		sortByFeature(X, ordered, f)

		var leftSum, leftSq float64
		for i := 0; i < len(ordered)-1; i++ {
			v := y[ordered[i]]
			leftSum += v
			leftSq += v * v
			if i+1 < gbtMinLeaf || len(ordered)-i-1 < gbtMinLeaf {
				continue
			}
			cur, next := X[ordered[i]][f], X[ordered[i+1]][f]
			if cur == next {
				continue
			}
			nl := float64(i + 1)
			nr := n - nl
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if gain := parentSSE - sse; gain > bestGain+1e-12 {
				bestGain = gain
				bestFeat = f
				bestThr = (cur + next) / 2
				found = true
			}
		}
	}
	return bestFeat, bestThr, found
}

func sums(y []float64, rows []int) (s, sq float64) {
	for _, r := range rows {
		s += y[r]
		sq += y[r] * y[r]
	}
	return
}

func meanRows(y []float64, rows []int) float64 {
	if len(rows) == 0 {
		return 0
	}
	s, _ := sums(y, rows)
	return s / float64(len(rows))
}

func sortByFeature(X [][]float64, rows []int, f int) {
	sort.Slice(rows, func(i, j int) bool { return X[rows[i]][f] < X[rows[j]][f] })
}
