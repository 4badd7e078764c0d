package models

import "time"

// Terminal, non-error reasons a run can stop early.
const (
	ReasonInsufficientData = "insufficient_data"
)

// RunParams are the caller-supplied knobs for one pipeline invocation.
// Zero values mean "use the resolved tenant config".
type RunParams struct {
	TenantID       string   `json:"tenant_id" validate:"required"`
	HorizonDays    int      `json:"horizon_days" validate:"omitempty,min=1,max=90"`
	HistoryDays    int      `json:"history_days" validate:"omitempty,min=7,max=730"`
	IncludeAnomaly *bool    `json:"include_anomaly"`
	Candidates     []string `json:"model_candidates"`
	CVFolds        int      `json:"cv_folds" validate:"omitempty,min=1,max=10"`
}

// RunResult is the structural outcome of a run. It is always returned; the
// pipeline never raises for data-shape problems. Error carries diagnostic
// detail for failures outside the designed fallback paths.
type RunResult struct {
	TenantID          string             `json:"tenant_id"`
	Trained           bool               `json:"trained"`
	Reason            string             `json:"reason,omitempty"`
	ModelID           string             `json:"model_id,omitempty"`
	Accuracy          float64            `json:"accuracy,omitempty"`
	SelectedModel     string             `json:"selected_model,omitempty"`
	ForecastsInserted int                `json:"forecasts_inserted,omitempty"`
	Anomalies         int                `json:"anomalies,omitempty"`
	AnomalyError      string             `json:"anomaly_error,omitempty"`
	MetricsSummary    map[string]float64 `json:"metrics_summary,omitempty"`
	Error             string             `json:"error,omitempty"`
	Timestamp         time.Time          `json:"timestamp"`
}
