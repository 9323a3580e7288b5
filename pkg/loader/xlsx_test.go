package loader

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"

	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func xlsxConfig() Config {
	cfg := DefaultConfig()
	cfg.CaseIDColumn = "case_id"
	cfg.ActivityColumn = "activity"
	cfg.TimestampColumn = "timestamp"
	cfg.ResourceColumn = "resource"
	return cfg
}

func TestXLSXLoader_Load(t *testing.T) {
	r := buildWorkbook(t, [][]interface{}{
		{"case_id", "activity", "timestamp", "resource"},
		{"c1", "Open", "2024-01-01T08:00:00Z", "alice"},
		{"c1", "Close", "2024-01-01T10:00:00Z", "bob"},
	})

	events, err := Load(context.Background(), r, FormatXLSX, xlsxConfig())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
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

func TestXLSXLoader_MissingColumn(t *testing.T) {
	r := buildWorkbook(t, [][]interface{}{
		{"case_id", "timestamp"},
		{"c1", "2024-01-01T08:00:00Z"},
	})

	_, err := Load(context.Background(), r, FormatXLSX, xlsxConfig())
	if err == nil {
		t.Fatal("expected missing column error")
	}
	if !dferrors.IsCode(err, dferrors.CodeMissingColumn) {
		t.Errorf("error code = %s, want %s", dferrors.GetCode(err), dferrors.CodeMissingColumn)
	}
}

func TestXLSXLoader_BadTimestamp(t *testing.T) {
	r := buildWorkbook(t, [][]interface{}{
		{"case_id", "activity", "timestamp"},
		{"c1", "Open", "yesterday"},
	})

	_, err := Load(context.Background(), r, FormatXLSX, xlsxConfig())
	if err == nil {
		t.Fatal("expected timestamp error")
	}
	if !dferrors.IsCode(err, dferrors.CodeInvalidTimestamp) {
		t.Errorf("error code = %s, want %s", dferrors.GetCode(err), dferrors.CodeInvalidTimestamp)
	}
}

func TestParseCellTimestamp_Serial(t *testing.T) {
	l := NewXLSXLoader(xlsxConfig())

	// Serial 45292 is 2024-01-01 in the 1900 date system.
	ts, err := l.parseCellTimestamp("45292")
	if err != nil {
		t.Fatalf("parseCellTimestamp: %v", err)
	}
	want, _ := parseTimestampNanos("2024-01-01T00:00:00Z", "")
	if ts != want {
		t.Errorf("serial timestamp = %d, want %d", ts, want)
	}
}
