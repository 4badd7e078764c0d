package repository

// Destination tables. The transactional sales table is owned by another
// service and is only read here.
const (
	TableDailyFeatures = "daily_features"
	TablePredictions   = "predictions"
	TableTrainedModels = "trained_models"
)

// Schema returns idempotent DDL for the tables this service writes.
// ReplacingMergeTree keyed by business identity is what makes every write an
// upsert: re-running a pipeline replaces rows instead of duplicating them.
func Schema(database string) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + database + `.` + TableDailyFeatures + ` (
			tenant_id     String,
			feature_date  Date,
			daily_total   Float64,
			moving_avg_7  Float64,
			moving_avg_28 Float64,
			updated_at    DateTime DEFAULT now()
		) ENGINE = ReplacingMergeTree(updated_at)
		ORDER BY (tenant_id, feature_date)`,

		`CREATE TABLE IF NOT EXISTS ` + database + `.` + TablePredictions + ` (
			tenant_id        String,
			model_id         String,
			prediction_date  Date,
			prediction_type  LowCardinality(String),
			predicted_values String,
			confidence_score Float64,
			created_at       DateTime DEFAULT now()
		) ENGINE = ReplacingMergeTree(created_at)
		ORDER BY (tenant_id, prediction_date, prediction_type)`,

		`CREATE TABLE IF NOT EXISTS ` + database + `.` + TableTrainedModels + ` (
			tenant_id       String,
			model_id        String,
			model_type      LowCardinality(String),
			model_version   String,
			model_blob      String,
			hyperparameters String,
			training_metrics String,
			accuracy        Float64,
			is_active       UInt8,
			created_at      DateTime
		) ENGINE = ReplacingMergeTree(created_at)
		ORDER BY (tenant_id, model_type, model_version)`,
	}
}
