package repository

import (
	"context"
	"time"

	"SalesCast/internal/domain/models"
)

// SalesReader reads raw transaction rows from the transactional store.
// Read-only: the pipeline never writes through this interface.
type SalesReader interface {
	ReadSales(ctx context.Context, tenantID string, from, to time.Time) ([]models.SalesRow, error)
}

// FeatureCache receives rolling-feature snapshots for analytics consumers.
// Writes are chunked upserts keyed by (tenant, date).
type FeatureCache interface {
	UpsertSnapshots(ctx context.Context, tenantID string, rows []models.FeatureSnapshot) error
}

// PredictionStore persists forecast and anomaly rows. Upsert is keyed by
// (tenant, date, type); a retry or re-run overwrites, never duplicates.
type PredictionStore interface {
	UpsertPredictions(ctx context.Context, rows []models.Prediction) (int, error)
}

// ModelStore persists trained model rows keyed by (tenant, type, version).
// LoadActive returns (nil, nil) when no active model exists; absence is not
// an error.
type ModelStore interface {
	Save(ctx context.Context, m *models.TrainedModel) error
	LoadActive(ctx context.Context, tenantID, modelType string) (*models.TrainedModel, error)
}

// TenantSettings reads the optional per-tenant ML override document.
// Returns (nil, nil) when the tenant has no override.
type TenantSettings interface {
	MLOverride(ctx context.Context, tenantID string) (*models.MLOverride, error)
}

// Notifier dispatches fire-and-forget events to the notification channel.
// Delivery failure is logged by callers, never fatal to a run.
type Notifier interface {
	PublishDrift(ctx context.Context, alert models.DriftAlert) error
	Close() error
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordRun(outcome string)
	RecordStage(stage string, seconds float64)
	RecordRowsWritten(table string, n int)
	RecordCandidateScore(candidate string, score float64)
	RecordDriftAlert(tenantID string)
}
