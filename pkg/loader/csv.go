package loader

import (
	"bufio"
	"context"
	"io"

	"github.com/albertodiazdurana/devflow-analyzer/internal/model"
	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
)

// CSVLoader implements byte-level CSV parsing with quoted-field
// handling. A row missing one of the required columns aborts the load:
// the malformed event surfaces instead of being skipped.
type CSVLoader struct {
	cfg Config
}

// NewCSVLoader creates a new CSV loader.
func NewCSVLoader(cfg Config) *CSVLoader {
	return &CSVLoader{cfg: cfg}
}

// Parse implements the Loader interface.
func (l *CSVLoader) Parse(ctx context.Context, r io.Reader, out chan<- model.Event) error {
	reader := bufio.NewReaderSize(r, l.cfg.BufferSize)

	headerLine, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return err
	}
	headerLine = trimLineEnding(headerLine)
	if len(headerLine) == 0 {
		return dferrors.New(dferrors.CodeInvalidFormat, "empty CSV input")
	}

	columns := l.splitLine(headerLine)
	names := make([]string, len(columns))
	colMap := make(map[string]int, len(columns))
	for i, col := range columns {
		names[i] = string(col)
		colMap[names[i]] = i
	}

	caseIdx, ok := colMap[l.cfg.CaseIDColumn]
	if !ok {
		return dferrors.MissingColumn(l.cfg.CaseIDColumn, names)
	}
	actIdx, ok := colMap[l.cfg.ActivityColumn]
	if !ok {
		return dferrors.MissingColumn(l.cfg.ActivityColumn, names)
	}
	tsIdx, ok := colMap[l.cfg.TimestampColumn]
	if !ok {
		return dferrors.MissingColumn(l.cfg.TimestampColumn, names)
	}
	resIdx := -1
	if l.cfg.ResourceColumn != "" {
		if idx, ok := colMap[l.cfg.ResourceColumn]; ok {
			resIdx = idx
		}
	}

	row := 1
	for {
		select {
		case <-ctx.Done():
			return dferrors.ContextCanceled("csv load")
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

		line = trimLineEnding(line)
		if len(line) == 0 {
			if err == io.EOF {
				break
			}
			continue
		}

		fields := l.splitLine(line)
		if len(fields) <= caseIdx || len(fields) <= actIdx || len(fields) <= tsIdx {
			return dferrors.MalformedEvent("row too short", row)
		}

		caseID := string(fields[caseIdx])
		activity := string(fields[actIdx])
		if caseID == "" {
			return dferrors.MalformedEvent("case_id", row)
		}
		if activity == "" {
			return dferrors.MalformedEvent("activity", row)
		}

		ts, tsErr := parseTimestampNanos(string(fields[tsIdx]), l.cfg.TimestampFormat)
		if tsErr != nil {
			return dferrors.InvalidTimestamp(string(fields[tsIdx]), row)
		}

		event := model.Event{
			CaseID:    caseID,
			Activity:  activity,
			Timestamp: ts,
		}
		if resIdx >= 0 && resIdx < len(fields) {
			event.Resource = string(fields[resIdx])
		}

		// Carry the remaining columns as attributes.
		for i, col := range names {
			if i == caseIdx || i == actIdx || i == tsIdx || i == resIdx {
				continue
			}
			if i < len(fields) && len(fields[i]) > 0 {
				if event.Attributes == nil {
					event.Attributes = make(map[string]string)
				}
				event.Attributes[col] = string(fields[i])
			}
		}

		select {
		case out <- event:
		case <-ctx.Done():
			return dferrors.ContextCanceled("csv load")
		}

		if err == io.EOF {
			break
		}
	}

	return nil
}

// splitLine parses a CSV line using byte-level scanning. Handles quoted
// fields with embedded delimiters and escaped quotes.
func (l *CSVLoader) splitLine(line []byte) [][]byte {
	if len(line) == 0 {
		return nil
	}

	fields := make([][]byte, 0, 16)
	delim := l.cfg.Delimiter
	start := 0
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]

		if c == '"' {
			if !inQuotes {
				inQuotes = true
			} else if i+1 < len(line) && line[i+1] == '"' {
				i++ // escaped quote
			} else {
				inQuotes = false
			}
		} else if c == delim && !inQuotes {
			fields = append(fields, unquoteField(line[start:i]))
			start = i + 1
		}
	}
	fields = append(fields, unquoteField(line[start:]))

	return fields
}

// unquoteField removes surrounding quotes and unescapes embedded quotes.
func unquoteField(field []byte) []byte {
	if len(field) < 2 || field[0] != '"' || field[len(field)-1] != '"' {
		return field
	}
	field = field[1 : len(field)-1]
	result := make([]byte, 0, len(field))
	for i := 0; i < len(field); i++ {
		if field[i] == '"' && i+1 < len(field) && field[i+1] == '"' {
			result = append(result, '"')
			i++
		} else {
			result = append(result, field[i])
		}
	}
	return result
}

// trimLineEnding removes trailing \n and \r characters.
func trimLineEnding(line []byte) []byte {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}
