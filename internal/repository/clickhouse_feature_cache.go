package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SalesCast/internal/domain/models"
	pkgch "SalesCast/pkg/clickhouse"
	applogger "SalesCast/pkg/logger"
)

// upsertChunkSize bounds rows per INSERT statement.
const upsertChunkSize = 200

// CHFeatureCache writes rolling-feature snapshots for analytics consumers.
type CHFeatureCache struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

func NewCHFeatureCache(ch *pkgch.Client, database string) *CHFeatureCache {
	return &CHFeatureCache{db: ch.DB(), database: database}
}

// SetLogger injects a structured logger.
func (s *CHFeatureCache) SetLogger(l *applogger.Logger) { s.l = l }

// UpsertSnapshots inserts snapshots in chunks. The ReplacingMergeTree key
// (tenant_id, feature_date) makes re-runs overwrite instead of duplicate.
func (s *CHFeatureCache) UpsertSnapshots(ctx context.Context, tenantID string, snaps []models.FeatureSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	start := time.Now()
	table := s.database + "." + TableDailyFeatures

	for lo := 0; lo < len(snaps); lo += upsertChunkSize {
		hi := lo + upsertChunkSize
		if hi > len(snaps) {
			hi = len(snaps)
		}

		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*6)
		now := time.Now().UTC()
		for _, snap := range snaps[lo:hi] {
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args, tenantID, snap.Date, snap.DailyTotal, snap.MovingAvg7, snap.MovingAvg28, now)
		}

		q := fmt.Sprintf(
			"INSERT INTO %s (tenant_id, feature_date, daily_total, moving_avg_7, moving_avg_28, updated_at) VALUES %s",
			table, strings.Join(values, ","),
		)
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("upsert snapshots: %w", err)
		}
	}

	if s.l != nil {
		s.l.Info("clickhouse upsert_snapshots ok",
			applogger.String("tenant_id", tenantID),
			applogger.Int("rows", len(snaps)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}
