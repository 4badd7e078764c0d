package models

import "time"

// Prediction types persisted to the predictions table.
const (
	PredictionTypeForecast = "sales_forecast"
	PredictionTypeAnomaly  = "sales_anomaly"
)

// Prediction is one persisted row keyed by (tenant, date, type). Re-running
// the pipeline overwrites the row instead of duplicating it; that upsert
// identity is the idempotence contract of the whole pipeline.
type Prediction struct {
	TenantID        string
	ModelID         string
	PredictionDate  time.Time
	PredictionType  string
	PredictedValues map[string]any
	ConfidenceScore float64
}

// DriftAlert is the fire-and-forget event published when validation error
// crosses the configured threshold. It is never stored by this service.
type DriftAlert struct {
	TenantID         string         `json:"tenant_id"`
	NotificationType string         `json:"notification_type"`
	Data             map[string]any `json:"data"`
}

// NotificationTypeDrift is the type tag consumers switch on.
const NotificationTypeDrift = "ml_drift_alert"
