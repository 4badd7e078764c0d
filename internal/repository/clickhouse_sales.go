package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"SalesCast/internal/domain/models"
	pkgch "SalesCast/pkg/clickhouse"
	applogger "SalesCast/pkg/logger"
)

// CHSalesReader reads raw transaction rows from the tenant-facing sales
// table. The table is owned by the transactional service; this side never
// writes to it.
type CHSalesReader struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHSalesReader(ch *pkgch.Client, table string) *CHSalesReader {
	return &CHSalesReader{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHSalesReader) SetLogger(l *applogger.Logger) { s.l = l }

// ReadSales returns rows with transaction dates in [from, to], both treated
// as UTC calendar days. Amount comes back as text; coercion is the feature
// extractor's job.
func (s *CHSalesReader) ReadSales(ctx context.Context, tenantID string, from, to time.Time) ([]models.SalesRow, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT transaction_date, toString(amount)
        FROM %s
        WHERE tenant_id = ? AND transaction_date >= ? AND transaction_date < ?
        ORDER BY transaction_date ASC
    `, s.table)

	rows, err := s.db.QueryContext(ctx, q, tenantID, from, to.AddDate(0, 0, 1))
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse read_sales query error",
				applogger.String("tenant_id", tenantID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("read sales: %w", err)
	}
	defer rows.Close()

	out := make([]models.SalesRow, 0, 1024)
	for rows.Next() {
		var r models.SalesRow
		if err := rows.Scan(&r.Date, &r.Amount); err != nil {
			return nil, fmt.Errorf("scan sales row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse read_sales ok",
			applogger.String("tenant_id", tenantID),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}
