package models

import "time"

// ModelTypeSalesForecast is the model_type under which the pipeline persists
// its per-tenant forecasting model. The winning candidate is recorded inside
// Hyperparameters, not in the row identity.
const ModelTypeSalesForecast = "sales_forecast"

// TrainedModel is one persisted model row, keyed by (tenant, type, version).
// Blob is opaque: a codec envelope carrying a type discriminator plus the
// serialized candidate, so the store never branches on concrete model shapes.
type TrainedModel struct {
	TenantID        string
	ModelID         string
	ModelType       string
	ModelVersion    string
	Blob            []byte
	Hyperparameters map[string]any
	TrainingMetrics map[string]any
	Accuracy        float64
	IsActive        bool
	CreatedAt       time.Time
}
