package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal       *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	rowsWritten     *prometheus.CounterVec
	candidateScore  *prometheus.GaugeVec
	driftAlertsSent *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		runsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salescast_pipeline_runs_total",
				Help: "Pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salescast_pipeline_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"stage"},
		),
		rowsWritten: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salescast_rows_written_total",
				Help: "Rows upserted per destination table",
			},
			[]string{"table"},
		),
		candidateScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "salescast_candidate_cv_score",
				Help: "Last cross-validation score per candidate",
			},
			[]string{"candidate"},
		),
		driftAlertsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salescast_drift_alerts_total",
				Help: "Drift alerts dispatched per tenant",
			},
			[]string{"tenant"},
		),
	}
}

// RecordRun counts a finished run by outcome.
func (r *Recorder) RecordRun(outcome string) {
	r.runsTotal.WithLabelValues(outcome).Inc()
}

// RecordStage records a pipeline stage duration in seconds.
func (r *Recorder) RecordStage(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordRowsWritten counts rows upserted into a destination table.
func (r *Recorder) RecordRowsWritten(table string, n int) {
	if n > 0 {
		r.rowsWritten.WithLabelValues(table).Add(float64(n))
	}
}

// RecordCandidateScore exposes the latest CV score per candidate.
func (r *Recorder) RecordCandidateScore(candidate string, score float64) {
	r.candidateScore.WithLabelValues(candidate).Set(score)
}

// RecordDriftAlert counts drift alerts per tenant.
func (r *Recorder) RecordDriftAlert(tenantID string) {
	r.driftAlertsSent.WithLabelValues(tenantID).Inc()
}
