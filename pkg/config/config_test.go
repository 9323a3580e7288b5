package config

import (
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Loader.CaseIDColumn != "case:concept:name" {
		t.Errorf("case id column = %q", cfg.Loader.CaseIDColumn)
	}
	if cfg.Analyzer.TopBottlenecks != 10 {
		t.Errorf("top bottlenecks = %d, want 10", cfg.Analyzer.TopBottlenecks)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Telemetry.Enabled {
		t.Error("telemetry should be off by default")
	}
}

func TestMerge(t *testing.T) {
	m := NewManager()
	m.merge(&Config{
		Loader:   LoaderConfig{CaseIDColumn: "ticket_id"},
		Analyzer: AnalyzerConfig{Workers: 4},
		Server:   ServerConfig{Port: 9090},
	})

	cfg := m.Get()
	if cfg.Loader.CaseIDColumn != "ticket_id" {
		t.Errorf("case id column = %q, want ticket_id", cfg.Loader.CaseIDColumn)
	}
	if cfg.Analyzer.Workers != 4 {
		t.Errorf("workers = %d, want 4", cfg.Analyzer.Workers)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	// Untouched fields keep their defaults.
	if cfg.Loader.ActivityColumn != "concept:name" {
		t.Errorf("activity column = %q, want default", cfg.Loader.ActivityColumn)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DEVFLOW_WORKERS", "8")
	t.Setenv("DEVFLOW_CASE_ID_COLUMN", "incident")
	t.Setenv("DEVFLOW_OTLP_ENDPOINT", "localhost:4317")

	m := NewManager()
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	cfg := m.Get()
	if cfg.Analyzer.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Analyzer.Workers)
	}
	if cfg.Loader.CaseIDColumn != "incident" {
		t.Errorf("case id column = %q, want incident", cfg.Loader.CaseIDColumn)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Endpoint != "localhost:4317" {
		t.Errorf("telemetry = %+v, want enabled at localhost:4317", cfg.Telemetry)
	}
}

func TestEnvBadNumberIgnored(t *testing.T) {
	t.Setenv("DEVFLOW_PORT", "not-a-port")

	m := NewManager()
	if err := m.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Get().Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", m.Get().Server.Port)
	}
}
