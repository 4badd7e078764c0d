package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"SalesCast/internal/domain/models"
	pkgch "SalesCast/pkg/clickhouse"
	applogger "SalesCast/pkg/logger"
)

// CHPredictionStore persists forecast and anomaly rows keyed by
// (tenant, date, type).
type CHPredictionStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHPredictionStore(ch *pkgch.Client, database string) *CHPredictionStore {
	return &CHPredictionStore{db: ch.DB(), database: database}
}

// SetLogger injects a structured logger.
func (s *CHPredictionStore) SetLogger(l *applogger.Logger) { s.l = l }

// UpsertPredictions writes rows in chunks and returns the number written.
// Rows with an empty tenant or type are skipped rather than failing the
// whole batch.
func (s *CHPredictionStore) UpsertPredictions(ctx context.Context, rows []models.Prediction) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	start := time.Now()
	table := s.database + "." + TablePredictions

	written := 0
	for lo := 0; lo < len(rows); lo += upsertChunkSize {
		hi := lo + upsertChunkSize
		if hi > len(rows) {
			hi = len(rows)
		}

		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*7)
		now := time.Now().UTC()
		for _, r := range rows[lo:hi] {
			if r.TenantID == "" || r.PredictionType == "" {
				continue
			}
			payload, err := json.Marshal(r.PredictedValues)
			if err != nil {
				return written, fmt.Errorf("marshal predicted values: %w", err)
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, r.TenantID, r.ModelID, r.PredictionDate, r.PredictionType, string(payload), r.ConfidenceScore, now)
		}
		if len(values) == 0 {
			continue
		}

		q := fmt.Sprintf(
			"INSERT INTO %s (tenant_id, model_id, prediction_date, prediction_type, predicted_values, confidence_score, created_at) VALUES %s",
			table, strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return written, fmt.Errorf("upsert predictions: %w", err)
		}
		written += len(values)
	}

	if s.l != nil {
		s.l.Info("clickhouse upsert_predictions ok",
			applogger.Int("rows", written),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return written, nil
}
