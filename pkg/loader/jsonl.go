package loader

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/albertodiazdurana/devflow-analyzer/internal/model"
	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
)

// JSONLLoader implements streaming JSONL (newline-delimited JSON)
// parsing. Each line is a complete JSON object representing an event,
// keyed by the configured column names.
type JSONLLoader struct {
	cfg Config
}

// NewJSONLLoader creates a new JSONL loader.
func NewJSONLLoader(cfg Config) *JSONLLoader {
	return &JSONLLoader{cfg: cfg}
}

// Parse implements the Loader interface.
func (l *JSONLLoader) Parse(ctx context.Context, r io.Reader, out chan<- model.Event) error {
	reader := bufio.NewReaderSize(r, l.cfg.BufferSize)

	row := 0
	for {
		select {
		case <-ctx.Done():
			return dferrors.ContextCanceled("jsonl load")
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return err
		}
		if len(line) == 0 && err == io.EOF {
			break
		}
		row++

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			if err == io.EOF {
				break
			}
			continue
		}

		var fields map[string]json.RawMessage
		if jsonErr := json.Unmarshal(line, &fields); jsonErr != nil {
			return dferrors.Wrap(jsonErr, dferrors.CodeInvalidFormat, "invalid JSON line").
				WithContext("row", row)
		}

		event, evErr := l.eventFromFields(fields, row)
		if evErr != nil {
			return evErr
		}

		select {
		case out <- event:
		case <-ctx.Done():
			return dferrors.ContextCanceled("jsonl load")
		}

		if err == io.EOF {
			break
		}
	}

	return nil
}

// eventFromFields maps a decoded JSON object onto an Event.
func (l *JSONLLoader) eventFromFields(fields map[string]json.RawMessage, row int) (model.Event, error) {
	caseID := stringField(fields, l.cfg.CaseIDColumn)
	if caseID == "" {
		return model.Event{}, dferrors.MalformedEvent("case_id", row)
	}
	activity := stringField(fields, l.cfg.ActivityColumn)
	if activity == "" {
		return model.Event{}, dferrors.MalformedEvent("activity", row)
	}

	tsRaw := stringField(fields, l.cfg.TimestampColumn)
	if tsRaw == "" {
		return model.Event{}, dferrors.InvalidTimestamp("", row)
	}
	ts, err := parseTimestampNanos(tsRaw, l.cfg.TimestampFormat)
	if err != nil {
		return model.Event{}, dferrors.InvalidTimestamp(tsRaw, row)
	}

	event := model.Event{
		CaseID:    caseID,
		Activity:  activity,
		Timestamp: ts,
		Resource:  stringField(fields, l.cfg.ResourceColumn),
	}

	for key, raw := range fields {
		switch key {
		case l.cfg.CaseIDColumn, l.cfg.ActivityColumn, l.cfg.TimestampColumn, l.cfg.ResourceColumn:
			continue
		}
		if event.Attributes == nil {
			event.Attributes = make(map[string]string)
		}
		event.Attributes[key] = rawToString(raw)
	}

	return event, nil
}

// stringField extracts a field as a plain string, tolerating numeric
// case ids the way spreadsheet exports produce them.
func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok || key == "" {
		return ""
	}
	return rawToString(raw)
}

func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return string(bytes.TrimSpace(raw))
}
