package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	dferrors "github.com/albertodiazdurana/devflow-analyzer/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestFileSource_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "events.csv", "case_id,activity,timestamp\n")

	inputs, err := NewFileSource().Resolve(context.Background(), path)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(inputs) != 1 {
		t.Fatalf("got %d inputs, want 1", len(inputs))
	}
	if inputs[0].Name != path {
		t.Errorf("name = %q, want %q", inputs[0].Name, path)
	}

	r, err := inputs[0].Open(context.Background())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "case_id,activity,timestamp\n" {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestFileSource_Glob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "b")
	writeFile(t, dir, "a.csv", "a")
	writeFile(t, dir, "skip.txt", "x")

	inputs, err := NewFileSource().Resolve(context.Background(), filepath.Join(dir, "*.csv"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("got %d inputs, want 2", len(inputs))
	}
	// Glob results are sorted for reproducible batch runs.
	if filepath.Base(inputs[0].Name) != "a.csv" || filepath.Base(inputs[1].Name) != "b.csv" {
		t.Errorf("unexpected order: %q, %q", inputs[0].Name, inputs[1].Name)
	}
}

func TestFileSource_NotFound(t *testing.T) {
	_, err := NewFileSource().Resolve(context.Background(), "/nonexistent/path.csv")
	if err == nil {
		t.Fatal("expected error")
	}
	if !dferrors.IsCode(err, dferrors.CodeFileNotFound) {
		t.Errorf("error code = %s, want %s", dferrors.GetCode(err), dferrors.CodeFileNotFound)
	}
}

func TestFileSource_GlobNoMatches(t *testing.T) {
	_, err := NewFileSource().Resolve(context.Background(), filepath.Join(t.TempDir(), "*.xes"))
	if !dferrors.IsCode(err, dferrors.CodeFileNotFound) {
		t.Errorf("error code = %s, want %s", dferrors.GetCode(err), dferrors.CodeFileNotFound)
	}
}

func TestFileSource_Directory(t *testing.T) {
	_, err := NewFileSource().Resolve(context.Background(), t.TempDir())
	if !dferrors.IsCode(err, dferrors.CodeInvalidFormat) {
		t.Errorf("error code = %s, want %s", dferrors.GetCode(err), dferrors.CodeInvalidFormat)
	}
}

func TestSplitS3URI(t *testing.T) {
	tests := []struct {
		location string
		bucket   string
		key      string
		wantErr  bool
	}{
		{"s3://logs/2024/events.parquet", "logs", "2024/events.parquet", false},
		{"s3://logs/incoming/", "logs", "incoming/", false},
		{"s3://logs", "logs", "", false},
		{"s3://", "", "", true},
		{"/local/path.csv", "", "", true},
	}

	for _, tt := range tests {
		bucket, key, err := splitS3URI(tt.location)
		if tt.wantErr {
			if err == nil {
				t.Errorf("splitS3URI(%q): expected error", tt.location)
			}
			continue
		}
		if err != nil {
			t.Errorf("splitS3URI(%q): %v", tt.location, err)
			continue
		}
		if bucket != tt.bucket || key != tt.key {
			t.Errorf("splitS3URI(%q) = %q, %q; want %q, %q",
				tt.location, bucket, key, tt.bucket, tt.key)
		}
	}
}
