package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_TriggersOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.csv")
	if err := os.WriteFile(path, []byte("case_id,activity,timestamp\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()
	w.SetDebounce(50 * time.Millisecond)

	changed := make(chan string, 1)
	w.OnChange = func(p string) error {
		select {
		case changed <- p:
		default:
		}
		return nil
	}

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Give the watch loop a moment to start, then modify the file.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("case_id,activity,timestamp\nc1,A,2024-01-01T00:00:00Z\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case p := <-changed:
		want, _ := filepath.Abs(path)
		if p != want {
			t.Errorf("changed path = %q, want %q", p, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestWatcher_MissingFile(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := w.Watch(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error watching missing file")
	}
}

func TestWatcher_IgnoresUnwatchedFiles(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "watched.csv")
	other := filepath.Join(dir, "other.csv")
	for _, p := range []string{watched, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()
	w.SetDebounce(50 * time.Millisecond)

	changed := make(chan string, 1)
	w.OnChange = func(p string) error {
		changed <- p
		return nil
	}

	if err := w.Watch(watched); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(other, []byte("xy"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case p := <-changed:
		t.Errorf("unexpected notification for %q", p)
	case <-time.After(500 * time.Millisecond):
	}
}
