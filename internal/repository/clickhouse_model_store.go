package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SalesCast/internal/domain/models"
	pkgch "SalesCast/pkg/clickhouse"
	applogger "SalesCast/pkg/logger"
)

// CHModelStore persists trained model rows keyed by (tenant, type, version).
// One active model per (tenant, type) is resolved at read time: LoadActive
// takes the newest active row, so the last writer wins.
type CHModelStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHModelStore(ch *pkgch.Client, database string) *CHModelStore {
	return &CHModelStore{db: ch.DB(), database: database}
}

// SetLogger injects a structured logger.
func (s *CHModelStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHModelStore) Save(ctx context.Context, m *models.TrainedModel) error {
	start := time.Now()
	hp, err := json.Marshal(m.Hyperparameters)
	if err != nil {
		return fmt.Errorf("marshal hyperparameters: %w", err)
	}
	tm, err := json.Marshal(m.TrainingMetrics)
	if err != nil {
		return fmt.Errorf("marshal training metrics: %w", err)
	}

	active := uint8(0)
	if m.IsActive {
		active = 1
	}
	q := fmt.Sprintf(`
        INSERT INTO %s.%s
            (tenant_id, model_id, model_type, model_version, model_blob,
             hyperparameters, training_metrics, accuracy, is_active, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, s.database, TableTrainedModels)
	_, err = s.db.ExecContext(ctx, q,
		m.TenantID, m.ModelID, m.ModelType, m.ModelVersion, string(m.Blob),
		string(hp), string(tm), m.Accuracy, active, m.CreatedAt,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse save_model error",
				applogger.String("tenant_id", m.TenantID),
				applogger.String("model_id", m.ModelID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("save model: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse save_model ok",
			applogger.String("tenant_id", m.TenantID),
			applogger.String("model_id", m.ModelID),
			applogger.String("version", m.ModelVersion),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// LoadActive returns the newest active model for (tenant, type), or
// (nil, nil) when none exists.
func (s *CHModelStore) LoadActive(ctx context.Context, tenantID, modelType string) (*models.TrainedModel, error) {
	q := fmt.Sprintf(`
        SELECT tenant_id, model_id, model_type, model_version, model_blob,
               hyperparameters, training_metrics, accuracy, is_active, created_at
        FROM %s.%s FINAL
        WHERE tenant_id = ? AND model_type = ? AND is_active = 1
        ORDER BY created_at DESC
        LIMIT 1
    `, s.database, TableTrainedModels)

	var (
		m      models.TrainedModel
		blob   string
		hp     string
		tm     string
		active uint8
	)
	err := s.db.QueryRowContext(ctx, q, tenantID, modelType).Scan(
		&m.TenantID, &m.ModelID, &m.ModelType, &m.ModelVersion, &blob,
		&hp, &tm, &m.Accuracy, &active, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load active model: %w", err)
	}

	m.Blob = []byte(blob)
	m.IsActive = active == 1
	if hp != "" {
		if err := json.Unmarshal([]byte(hp), &m.Hyperparameters); err != nil {
			return nil, fmt.Errorf("unmarshal hyperparameters: %w", err)
		}
	}
	if tm != "" {
		if err := json.Unmarshal([]byte(tm), &m.TrainingMetrics); err != nil {
			return nil, fmt.Errorf("unmarshal training metrics: %w", err)
		}
	}
	return &m, nil
}
