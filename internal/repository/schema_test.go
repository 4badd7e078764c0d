package repository

import (
	"strings"
	"testing"
)

func TestSchemaStatements(t *testing.T) {
	stmts := Schema("salescast")
	if len(stmts) != 3 {
		t.Fatalf("expected 3 DDL statements, got %d", len(stmts))
	}

	wantTables := []string{TableDailyFeatures, TablePredictions, TableTrainedModels}
	for i, stmt := range stmts {
		if !strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS salescast."+wantTables[i]) {
			t.Fatalf("statement %d does not create %s: %s", i, wantTables[i], stmt)
		}
		if !strings.Contains(stmt, "ReplacingMergeTree") {
			t.Fatalf("%s is not a ReplacingMergeTree table", wantTables[i])
		}
	}

	// upsert identities are the ORDER BY keys
	keys := map[string]string{
		TableDailyFeatures: "ORDER BY (tenant_id, feature_date)",
		TablePredictions:   "ORDER BY (tenant_id, prediction_date, prediction_type)",
		TableTrainedModels: "ORDER BY (tenant_id, model_type, model_version)",
	}
	for i, table := range wantTables {
		if !strings.Contains(stmts[i], keys[table]) {
			t.Fatalf("%s missing key %q:\n%s", table, keys[table], stmts[i])
		}
	}
}
