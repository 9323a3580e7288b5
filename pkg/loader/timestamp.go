package loader

import (
	"time"

	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
)

// Common timestamp layouts ordered by likelihood.
var commonLayouts = []string{
	"2006-01-02T15:04:05.000Z07:00", // ISO 8601 with millis
	"2006-01-02T15:04:05Z07:00",     // ISO 8601
	"2006-01-02T15:04:05.000Z",      // ISO 8601 UTC with millis
	"2006-01-02T15:04:05Z",          // ISO 8601 UTC
	"2006-01-02T15:04:05",           // ISO 8601 local
	"2006-01-02 15:04:05.000",       // Space separator with millis
	"2006-01-02 15:04:05",           // Space separator
	"2006-01-02",                    // Date only
	time.RFC3339,
	time.RFC3339Nano,
}

// parseTimestampNanos parses a timestamp string to nanoseconds since
// epoch, trying the common layouts first and the configured layout
// last.
func parseTimestampNanos(value, configured string) (int64, error) {
	for _, layout := range commonLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UnixNano(), nil
		}
	}
	if configured != "" {
		if t, err := time.Parse(configured, value); err == nil {
			return t.UnixNano(), nil
		}
	}
	return 0, dferrors.New(dferrors.CodeInvalidTimestamp, "failed to parse timestamp").
		WithContext("value", value)
}
