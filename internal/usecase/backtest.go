package usecase

import (
	"math"
	"sort"

	"SalesCast/internal/domain/models"
	"SalesCast/internal/services/forecast"
	applogger "SalesCast/pkg/logger"
)

// mapeFloor guards the MAPE denominator against zero-sales days.
const mapeFloor = 1e-8

// CandidateScore is the backtest outcome for one candidate: the primary
// metric averaged over the folds it completed, plus per-fold diagnostics.
type CandidateScore struct {
	Name       string
	FoldScores []float64
	Avg        float64
	Folds      int
}

// crossValidate runs forward-chaining validation: fold i (i = folds..1)
// trains on the first N - i*horizon rows and scores the next horizon rows
// exactly, so no fold ever sees data past its training prefix. Candidates
// that are unavailable on every fold are dropped.
func crossValidate(series models.DailySeries, cfg models.MLConfig, log *applogger.Logger) []CandidateScore {
	n := series.Len()
	horizon := cfg.HorizonDays
	scores := make(map[string]*CandidateScore, len(cfg.Candidates))

	for i := cfg.CVFolds; i >= 1; i-- {
		trainN := n - i*horizon
		if trainN < minFoldTrainDays {
			log.Debug("fold skipped: training prefix too short",
				applogger.Int("fold", i), applogger.Int("train_rows", trainN))
			continue
		}
		train := series.Head(trainN)
		validate := series.Window(trainN, trainN+horizon)
		actual := validate.Values()

		for _, name := range cfg.Candidates {
			trainer, err := forecast.NewTrainer(name, cfg)
			if err != nil {
				log.Warn("unknown candidate in config", applogger.String("candidate", name), applogger.Error(err))
				continue
			}
			model, err := trainer.Train(train)
			if err != nil {
				// ErrUnavailable and anything else alike: the fold simply
				// contributes no score for this candidate
				log.Debug("candidate unavailable on fold",
					applogger.String("candidate", name), applogger.Int("fold", i), applogger.Error(err))
				continue
			}
			points, err := model.Forecast(validate.Len())
			if err != nil {
				log.Debug("candidate forecast failed on fold",
					applogger.String("candidate", name), applogger.Int("fold", i), applogger.Error(err))
				continue
			}
			predicted := make([]float64, len(points))
			for j, p := range points {
				predicted[j] = p.Point
			}
			score := metricValue(cfg.PrimaryMetric, actual, predicted)
			if math.IsNaN(score) || math.IsInf(score, 0) {
				continue
			}
			cs, ok := scores[name]
			if !ok {
				cs = &CandidateScore{Name: name}
				scores[name] = cs
			}
			cs.FoldScores = append(cs.FoldScores, score)
			cs.Folds++
		}
	}

	out := make([]CandidateScore, 0, len(scores))
	for _, cs := range scores {
		var sum float64
		for _, s := range cs.FoldScores {
			sum += s
		}
		cs.Avg = sum / float64(len(cs.FoldScores))
		out = append(out, *cs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// rankCandidates orders surviving candidates for retraining: by averaged
// metric when select-best is on, by the fixed default order otherwise.
// The ranking is also the fallback chain when a retrain fails.
func rankCandidates(scores []CandidateScore, cfg models.MLConfig) []string {
	byName := make(map[string]CandidateScore, len(scores))
	for _, s := range scores {
		byName[s.Name] = s
	}

	if cfg.SelectBest {
		ordered := append([]CandidateScore(nil), scores...)
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Avg < ordered[j].Avg })
		out := make([]string, 0, len(ordered))
		for _, s := range ordered {
			out = append(out, s.Name)
		}
		return out
	}

	out := make([]string, 0, len(scores))
	for _, name := range forecast.DefaultOrder {
		if _, ok := byName[name]; ok && contains(cfg.Candidates, name) {
			out = append(out, name)
		}
	}
	return out
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}

// metricValue computes the primary backtest metric. The MAPE denominator is
// floored so zero-sales validation days cannot divide by zero.
func metricValue(metric string, actual, predicted []float64) float64 {
	n := len(actual)
	if len(predicted) < n {
		n = len(predicted)
	}
	if n == 0 {
		return math.NaN()
	}
	var acc float64
	switch metric {
	case "mae":
		for i := 0; i < n; i++ {
			acc += math.Abs(actual[i] - predicted[i])
		}
		return acc / float64(n)
	case "rmse":
		for i := 0; i < n; i++ {
			d := actual[i] - predicted[i]
			acc += d * d
		}
		return math.Sqrt(acc / float64(n))
	default: // mape
		for i := 0; i < n; i++ {
			denom := math.Max(math.Abs(actual[i]), mapeFloor)
			acc += math.Abs(actual[i]-predicted[i]) / denom
		}
		return acc / float64(n)
	}
}
