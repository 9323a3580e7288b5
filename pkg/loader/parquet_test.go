package loader

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// writeParquetFixture generates a small event log parquet file via DuckDB.
func writeParquetFixture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "events.parquet")
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Skipf("duckdb unavailable: %v", err)
	}
	defer db.Close()

	stmt := fmt.Sprintf(`COPY (
		SELECT * FROM (VALUES
			('c1', 'Open',   TIMESTAMP '2024-01-01 08:00:00', 'alice'),
			('c1', 'Close',  TIMESTAMP '2024-01-01 10:00:00', 'bob'),
			('c2', 'Open',   TIMESTAMP '2024-01-02 08:00:00', 'alice')
		) AS t(case_id, activity, "timestamp", resource)
	) TO '%s' (FORMAT PARQUET)`, escapePath(path))
	if _, err := db.Exec(stmt); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func parquetConfig() Config {
	cfg := DefaultConfig()
	cfg.CaseIDColumn = "case_id"
	cfg.ActivityColumn = "activity"
	cfg.TimestampColumn = "timestamp"
	cfg.ResourceColumn = "resource"
	return cfg
}

func TestParquetLoader_Load(t *testing.T) {
	path := writeParquetFixture(t)

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	events, err := Load(context.Background(), f, FormatParquet, parquetConfig())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].CaseID != "c1" || events[0].Activity != "Open" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Resource != "bob" {
		t.Errorf("resource = %q, want bob", events[1].Resource)
	}
	if events[1].Timestamp-events[0].Timestamp != 2*3600*1e9 {
		t.Errorf("timestamp delta = %d, want 2h", events[1].Timestamp-events[0].Timestamp)
	}
}

func TestParquetLoader_MissingFile(t *testing.T) {
	l := NewParquetLoader(parquetConfig())
	f, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	_, err = Collect(context.Background(), f, l)
	if err == nil {
		t.Fatal("expected error for non-parquet input")
	}
}
