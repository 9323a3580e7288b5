// Package loader parses process mining event logs (CSV, XES, JSONL,
// XLSX, Parquet) into flat event collections for the analyzer.
package loader

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/albertodiazdurana/devflow-analyzer/internal/model"
	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
)

// Loader defines the interface for parsing event-log data.
// Implementations must be safe for concurrent use and must not retain
// references to the output channel after returning. The caller is
// responsible for closing the out channel.
type Loader interface {
	// Parse reads from r and sends parsed events to out.
	// It should respect context cancellation.
	Parse(ctx context.Context, r io.Reader, out chan<- model.Event) error
}

// Format represents a supported input format.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatXES
	FormatJSON
	FormatJSONL
	FormatXLSX
	FormatParquet
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXES:
		return "xes"
	case FormatJSON:
		return "json"
	case FormatJSONL:
		return "jsonl"
	case FormatXLSX:
		return "xlsx"
	case FormatParquet:
		return "parquet"
	default:
		return "unknown"
	}
}

// ParseFormat parses a format string.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "csv":
		return FormatCSV
	case "xes":
		return FormatXES
	case "json":
		return FormatJSON
	case "jsonl", "ndjson":
		return FormatJSONL
	case "xlsx", "excel":
		return FormatXLSX
	case "parquet", "pq":
		return FormatParquet
	default:
		return FormatUnknown
	}
}

// DetectFormat determines the format from a file path extension.
// Compressed inputs (.gz) are detected by the inner extension.
func DetectFormat(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".gz" {
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
	}
	switch ext {
	case ".csv":
		return FormatCSV
	case ".xes":
		return FormatXES
	case ".json":
		return FormatJSON
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".xlsx":
		return FormatXLSX
	case ".parquet":
		return FormatParquet
	default:
		return FormatUnknown
	}
}

// Config holds common loader configuration.
type Config struct {
	// BufferSize is the size of the read buffer in bytes.
	BufferSize int

	// CaseIDColumn is the name of the case ID column (CSV/XLSX/JSONL/Parquet).
	CaseIDColumn string

	// ActivityColumn is the name of the activity column.
	ActivityColumn string

	// TimestampColumn is the name of the timestamp column.
	TimestampColumn string

	// ResourceColumn is the name of the resource column. Optional.
	ResourceColumn string

	// TimestampFormat is the expected timestamp format (Go time layout),
	// tried after the common layouts fail.
	TimestampFormat string

	// Delimiter is the field delimiter for CSV (default: comma).
	Delimiter byte
}

// DefaultConfig returns a Config with sensible defaults aligned with
// the XES standard extension attribute names.
func DefaultConfig() Config {
	return Config{
		BufferSize:      64 * 1024,
		CaseIDColumn:    "case:concept:name",
		ActivityColumn:  "concept:name",
		TimestampColumn: "time:timestamp",
		ResourceColumn:  "org:resource",
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		Delimiter:       ',',
	}
}

// New creates a loader for the given format.
func New(format Format, cfg Config) (Loader, error) {
	switch format {
	case FormatCSV:
		return NewCSVLoader(cfg), nil
	case FormatXES:
		return NewXESLoader(cfg), nil
	case FormatJSON, FormatJSONL:
		return NewJSONLLoader(cfg), nil
	case FormatXLSX:
		return NewXLSXLoader(cfg), nil
	case FormatParquet:
		return NewParquetLoader(cfg), nil
	default:
		return nil, dferrors.New(dferrors.CodeInvalidFormat, "unsupported input format").
			WithContext("format", format.String())
	}
}

// Load runs a loader over r and collects all events.
// A malformed event aborts the load; no partial collection is returned.
func Load(ctx context.Context, r io.Reader, format Format, cfg Config) ([]model.Event, error) {
	l, err := New(format, cfg)
	if err != nil {
		return nil, err
	}
	return Collect(ctx, r, l)
}

// Collect drains a loader's streaming interface into a slice.
func Collect(ctx context.Context, r io.Reader, l Loader) ([]model.Event, error) {
	out := make(chan model.Event, 256)
	errCh := make(chan error, 1)

	go func() {
		errCh <- l.Parse(ctx, r, out)
		close(out)
	}()

	var events []model.Event
	for e := range out {
		events = append(events, e)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return events, nil
}
