package anomaly

import (
	"math"
	"math/rand"
	"sort"

	"SalesCast/internal/domain/models"
)

const (
	isoTrees      = 100
	isoSampleSize = 256
	isoSeed       = 1 // fixed seed: identical inputs must score identically across re-runs
)

// IsolationForestDetector scores the one-dimensional daily-total
// distribution with randomized isolation trees. Days whose score lands in
// the top Contamination fraction are flagged.
type IsolationForestDetector struct {
	Contamination float64
}

func (d *IsolationForestDetector) Name() string { return MethodIsolationForest }

func (d *IsolationForestDetector) Detect(series models.DailySeries) ([]models.AnomalyPoint, error) {
	n := series.Len()
	out := make([]models.AnomalyPoint, 0, n)
	if n == 0 {
		return out, nil
	}
	contamination := d.Contamination
	if contamination <= 0 || contamination >= 0.5 {
		contamination = 0.05
	}

	values := series.Values()
	rng := rand.New(rand.NewSource(isoSeed))
	sample := isoSampleSize
	if sample > n {
		sample = n
	}

	trees := make([]*isoNode, isoTrees)
	maxDepth := int(math.Ceil(math.Log2(float64(sample))))
	for t := range trees {
		sub := make([]float64, sample)
		for i := range sub {
			sub[i] = values[rng.Intn(n)]
		}
		trees[t] = growIsoTree(sub, 0, maxDepth, rng)
	}

	c := avgPathLength(float64(sample))
	scores := make([]float64, n)
	for i, v := range values {
		var depth float64
		for _, tr := range trees {
			depth += tr.pathLength(v, 0)
		}
		depth /= float64(isoTrees)
		scores[i] = math.Pow(2, -depth/c)
	}

	cut := quantile(scores, 1-contamination)
	for i, p := range series.Points {
		out = append(out, models.AnomalyPoint{
			Date:      p.Date,
			Value:     p.Value,
			Score:     scores[i],
			IsAnomaly: scores[i] >= cut && scores[i] > 0.5,
		})
	}
	return out, nil
}

type isoNode struct {
	split       float64
	left, right *isoNode
	size        int
}

func growIsoTree(values []float64, depth, maxDepth int, rng *rand.Rand) *isoNode {
	lo, hi := minMax(values)
	if len(values) <= 1 || depth >= maxDepth || lo == hi {
		return &isoNode{size: len(values)}
	}
	split := lo + rng.Float64()*(hi-lo)
	var left, right []float64
	for _, v := range values {
		if v < split {
			left = append(left, v)
		} else {
			right = append(right, v)
		}
	}
	return &isoNode{
		split: split,
		left:  growIsoTree(left, depth+1, maxDepth, rng),
		right: growIsoTree(right, depth+1, maxDepth, rng),
	}
}

func (nd *isoNode) pathLength(v float64, depth int) float64 {
	if nd.left == nil {
		return float64(depth) + avgPathLength(float64(nd.size))
	}
	if v < nd.split {
		return nd.left.pathLength(v, depth+1)
	}
	return nd.right.pathLength(v, depth+1)
}

// avgPathLength is the expected unsuccessful-search depth of a BST with n
// nodes, the standard isolation-forest normalizer.
func avgPathLength(n float64) float64 {
	if n <= 1 {
		return 0
	}
	return 2*(math.Log(n-1)+0.5772156649) - 2*(n-1)/n
}

func minMax(xs []float64) (lo, hi float64) {
	lo, hi = xs[0], xs[0]
	for _, v := range xs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return
}

func quantile(xs []float64, q float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	idx := int(q * float64(len(s)))
	if idx >= len(s) {
		idx = len(s) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return s[idx]
}
