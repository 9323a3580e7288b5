package loader

import (
	"context"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/albertodiazdurana/devflow-analyzer/internal/model"
	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
)

// XLSXLoader parses Excel XLSX files via the excelize streaming reader.
type XLSXLoader struct {
	cfg Config
}

// NewXLSXLoader creates a new XLSX loader.
func NewXLSXLoader(cfg Config) *XLSXLoader {
	return &XLSXLoader{cfg: cfg}
}

// Parse implements the Loader interface. XLSX needs random access, so
// non-file readers are buffered in memory by excelize.
func (l *XLSXLoader) Parse(ctx context.Context, r io.Reader, out chan<- model.Event) error {
	var xlFile *excelize.File
	var err error

	if f, ok := r.(*os.File); ok {
		xlFile, err = excelize.OpenFile(f.Name())
	} else {
		xlFile, err = excelize.OpenReader(r)
	}
	if err != nil {
		return dferrors.Wrap(err, dferrors.CodeInvalidFormat, "failed to open xlsx")
	}
	defer xlFile.Close()

	sheetName := xlFile.GetSheetName(0)
	if sheetName == "" {
		sheets := xlFile.GetSheetList()
		if len(sheets) == 0 {
			return dferrors.New(dferrors.CodeInvalidFormat, "no sheets in xlsx file")
		}
		sheetName = sheets[0]
	}

	rows, err := xlFile.Rows(sheetName)
	if err != nil {
		return dferrors.Wrap(err, dferrors.CodeInvalidFormat, "failed to read xlsx rows")
	}
	defer rows.Close()

	if !rows.Next() {
		return dferrors.New(dferrors.CodeInvalidFormat, "xlsx file is empty")
	}
	header, err := rows.Columns()
	if err != nil {
		return dferrors.Wrap(err, dferrors.CodeInvalidFormat, "failed to read xlsx header")
	}

	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[col] = i
	}

	caseIdx, ok := colIdx[l.cfg.CaseIDColumn]
	if !ok {
		return dferrors.MissingColumn(l.cfg.CaseIDColumn, header)
	}
	actIdx, ok := colIdx[l.cfg.ActivityColumn]
	if !ok {
		return dferrors.MissingColumn(l.cfg.ActivityColumn, header)
	}
	tsIdx, ok := colIdx[l.cfg.TimestampColumn]
	if !ok {
		return dferrors.MissingColumn(l.cfg.TimestampColumn, header)
	}
	resIdx := -1
	if idx, ok := colIdx[l.cfg.ResourceColumn]; ok {
		resIdx = idx
	}

	row := 1
	for rows.Next() {
		select {
		case <-ctx.Done():
			return dferrors.ContextCanceled("xlsx load")
		default:
		}
		row++

		cells, err := rows.Columns()
		if err != nil {
			return dferrors.Wrap(err, dferrors.CodeInvalidFormat, "failed to read xlsx row").
				WithContext("row", row)
		}
		if len(cells) == 0 {
			continue
		}
		if len(cells) <= caseIdx || len(cells) <= actIdx || len(cells) <= tsIdx {
			return dferrors.MalformedEvent("row too short", row)
		}

		caseID := cells[caseIdx]
		activity := cells[actIdx]
		if caseID == "" {
			return dferrors.MalformedEvent("case_id", row)
		}
		if activity == "" {
			return dferrors.MalformedEvent("activity", row)
		}

		ts, tsErr := l.parseCellTimestamp(cells[tsIdx])
		if tsErr != nil {
			return dferrors.InvalidTimestamp(cells[tsIdx], row)
		}

		event := model.Event{
			CaseID:    caseID,
			Activity:  activity,
			Timestamp: ts,
		}
		if resIdx >= 0 && resIdx < len(cells) {
			event.Resource = cells[resIdx]
		}

		select {
		case out <- event:
		case <-ctx.Done():
			return dferrors.ContextCanceled("xlsx load")
		}
	}

	return nil
}

// excelEpoch is day zero of Excel's 1900 date system.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// parseCellTimestamp handles both textual timestamps and Excel serial
// date numbers, which is how date-formatted cells usually arrive.
func (l *XLSXLoader) parseCellTimestamp(cell string) (int64, error) {
	if serial, err := strconv.ParseFloat(cell, 64); err == nil && serial > 0 {
		d := time.Duration(serial * 24 * float64(time.Hour))
		return excelEpoch.Add(d).UnixNano(), nil
	}
	return parseTimestampNanos(cell, l.cfg.TimestampFormat)
}
