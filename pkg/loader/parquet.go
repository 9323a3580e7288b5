package loader

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/albertodiazdurana/devflow-analyzer/internal/model"
	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
)

// ParquetLoader reads event logs from Parquet files through DuckDB's
// read_parquet, projecting just the process-mining columns.
type ParquetLoader struct {
	cfg Config
}

// NewParquetLoader creates a new Parquet loader.
func NewParquetLoader(cfg Config) *ParquetLoader {
	return &ParquetLoader{cfg: cfg}
}

// Parse implements the Loader interface. DuckDB needs a file path, so
// non-file readers are spooled to a temporary file first.
func (l *ParquetLoader) Parse(ctx context.Context, r io.Reader, out chan<- model.Event) error {
	path, cleanup, err := materialize(r)
	if err != nil {
		return err
	}
	defer cleanup()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return dferrors.Wrap(err, dferrors.CodeDuckDBInit, "failed to open duckdb")
	}
	defer db.Close()

	resourceExpr := "NULL"
	if l.cfg.ResourceColumn != "" {
		resourceExpr = quoteIdent(l.cfg.ResourceColumn)
	}

	query := fmt.Sprintf(
		`SELECT CAST(%s AS VARCHAR), CAST(%s AS VARCHAR), %s, CAST(%s AS VARCHAR) FROM read_parquet('%s')`,
		quoteIdent(l.cfg.CaseIDColumn),
		quoteIdent(l.cfg.ActivityColumn),
		quoteIdent(l.cfg.TimestampColumn),
		resourceExpr,
		escapePath(path),
	)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return dferrors.Wrap(err, dferrors.CodeDuckDBQuery, "failed to read parquet").
			WithContext("path", path)
	}
	defer rows.Close()

	rowNum := 0
	for rows.Next() {
		rowNum++

		var caseID, activity sql.NullString
		var tsRaw interface{}
		var resource sql.NullString
		if err := rows.Scan(&caseID, &activity, &tsRaw, &resource); err != nil {
			return dferrors.Wrap(err, dferrors.CodeDuckDBQuery, "failed to scan parquet row").
				WithContext("row", rowNum)
		}

		if !caseID.Valid || caseID.String == "" {
			return dferrors.MalformedEvent("case_id", rowNum)
		}
		if !activity.Valid || activity.String == "" {
			return dferrors.MalformedEvent("activity", rowNum)
		}

		ts, ok := timestampNanos(tsRaw, l.cfg.TimestampFormat)
		if !ok {
			return dferrors.InvalidTimestamp(fmt.Sprint(tsRaw), rowNum)
		}

		event := model.Event{
			CaseID:    caseID.String,
			Activity:  activity.String,
			Timestamp: ts,
			Resource:  resource.String,
		}

		select {
		case out <- event:
		case <-ctx.Done():
			return dferrors.ContextCanceled("parquet load")
		}
	}

	return rows.Err()
}

// timestampNanos converts a scanned DuckDB timestamp value.
func timestampNanos(v interface{}, layout string) (int64, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UnixNano(), true
	case int64:
		return t, true
	case string:
		if nanos, err := parseTimestampNanos(t, layout); err == nil {
			return nanos, true
		}
	case []byte:
		if nanos, err := parseTimestampNanos(string(t), layout); err == nil {
			return nanos, true
		}
	}
	return 0, false
}

// materialize returns a file path for the reader, spooling to a temp
// file when the reader is not already a file.
func materialize(r io.Reader) (string, func(), error) {
	if f, ok := r.(*os.File); ok {
		return f.Name(), func() {}, nil
	}

	tmp, err := os.CreateTemp("", "devflow-*.parquet")
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, err
	}
	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func escapePath(path string) string {
	return strings.ReplaceAll(path, "'", "''")
}
