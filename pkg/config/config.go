// Package config provides hierarchical configuration management.
// Priority: defaults < system < user < project < env < flags
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds all devflow configuration.
type Config struct {
	Version int `yaml:"version"`

	Loader    LoaderConfig    `yaml:"loader"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Source    SourceConfig    `yaml:"source"`
	Server    ServerConfig    `yaml:"server"`
	Report    ReportConfig    `yaml:"report"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LoaderConfig controls event log parsing.
type LoaderConfig struct {
	CaseIDColumn    string `yaml:"case_id_column"`
	ActivityColumn  string `yaml:"activity_column"`
	TimestampColumn string `yaml:"timestamp_column"`
	ResourceColumn  string `yaml:"resource_column"`
	TimestampFormat string `yaml:"timestamp_format"` // empty = auto-detect
	BufferSize      int    `yaml:"buffer_size"`
}

// AnalyzerConfig controls the analysis engine.
type AnalyzerConfig struct {
	Workers        int `yaml:"workers"` // 0 = GOMAXPROCS
	TopBottlenecks int `yaml:"top_bottlenecks"`
}

// SourceConfig controls remote input access.
type SourceConfig struct {
	S3 S3Config `yaml:"s3"`
}

// S3Config for s3:// event log locations.
type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	UsePathStyle    bool   `yaml:"use_path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// ServerConfig for the HTTP API.
type ServerConfig struct {
	Port          int    `yaml:"port"`
	Host          string `yaml:"host"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
	ResultsDir    string `yaml:"results_dir"`
}

// ReportConfig for report rendering.
type ReportConfig struct {
	Color bool `yaml:"color"`
}

// TelemetryConfig for optional tracing.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	devflowDir := filepath.Join(homeDir, ".devflow")

	return &Config{
		Version: 1,
		Loader: LoaderConfig{
			CaseIDColumn:    "case:concept:name",
			ActivityColumn:  "concept:name",
			TimestampColumn: "time:timestamp",
			ResourceColumn:  "org:resource",
			BufferSize:      256 * 1024,
		},
		Analyzer: AnalyzerConfig{
			Workers:        0, // auto
			TopBottlenecks: 10,
		},
		Server: ServerConfig{
			Port:          8080,
			Host:          "localhost",
			MaxUploadSize: 500 * 1024 * 1024,
			ResultsDir:    filepath.Join(devflowDir, "results"),
		},
		Report: ReportConfig{
			Color: true,
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
	}
}

// Manager handles configuration loading and merging.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	paths  []string // Paths that were loaded
}

// NewManager creates a new configuration manager.
func NewManager() *Manager {
	return &Manager{
		config: Default(),
	}
}

// Load loads configuration from all sources in priority order.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = Default()
	m.paths = nil

	// Load from paths in order (later overrides earlier)
	for _, path := range m.getConfigPaths() {
		if err := m.loadFile(path); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("loading %s: %w", path, err)
			}
		} else {
			m.paths = append(m.paths, path)
		}
	}

	m.loadEnv()

	return nil
}

// getConfigPaths returns config file paths in priority order.
func (m *Manager) getConfigPaths() []string {
	var paths []string

	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/devflow/config.yaml")
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".devflow", "config.yaml"))
	}

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".devflow.yaml"))
	}

	return paths
}

// loadFile loads a single config file and merges it.
func (m *Manager) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var partial Config
	if err := yaml.Unmarshal(data, &partial); err != nil {
		return err
	}

	m.merge(&partial)
	return nil
}

// merge merges non-zero values from src into config.
func (m *Manager) merge(src *Config) {
	// Loader
	if src.Loader.CaseIDColumn != "" {
		m.config.Loader.CaseIDColumn = src.Loader.CaseIDColumn
	}
	if src.Loader.ActivityColumn != "" {
		m.config.Loader.ActivityColumn = src.Loader.ActivityColumn
	}
	if src.Loader.TimestampColumn != "" {
		m.config.Loader.TimestampColumn = src.Loader.TimestampColumn
	}
	if src.Loader.ResourceColumn != "" {
		m.config.Loader.ResourceColumn = src.Loader.ResourceColumn
	}
	if src.Loader.TimestampFormat != "" {
		m.config.Loader.TimestampFormat = src.Loader.TimestampFormat
	}
	if src.Loader.BufferSize != 0 {
		m.config.Loader.BufferSize = src.Loader.BufferSize
	}

	// Analyzer
	if src.Analyzer.Workers != 0 {
		m.config.Analyzer.Workers = src.Analyzer.Workers
	}
	if src.Analyzer.TopBottlenecks != 0 {
		m.config.Analyzer.TopBottlenecks = src.Analyzer.TopBottlenecks
	}

	// Source
	if src.Source.S3.Region != "" {
		m.config.Source.S3.Region = src.Source.S3.Region
	}
	if src.Source.S3.Endpoint != "" {
		m.config.Source.S3.Endpoint = src.Source.S3.Endpoint
	}
	if src.Source.S3.UsePathStyle {
		m.config.Source.S3.UsePathStyle = true
	}
	if src.Source.S3.AccessKeyID != "" {
		m.config.Source.S3.AccessKeyID = src.Source.S3.AccessKeyID
	}
	if src.Source.S3.SecretAccessKey != "" {
		m.config.Source.S3.SecretAccessKey = src.Source.S3.SecretAccessKey
	}

	// Server
	if src.Server.Port != 0 {
		m.config.Server.Port = src.Server.Port
	}
	if src.Server.Host != "" {
		m.config.Server.Host = src.Server.Host
	}
	if src.Server.MaxUploadSize != 0 {
		m.config.Server.MaxUploadSize = src.Server.MaxUploadSize
	}
	if src.Server.ResultsDir != "" {
		m.config.Server.ResultsDir = src.Server.ResultsDir
	}

	// Telemetry
	if src.Telemetry.Enabled {
		m.config.Telemetry.Enabled = true
	}
	if src.Telemetry.Endpoint != "" {
		m.config.Telemetry.Endpoint = src.Telemetry.Endpoint
	}
}

// loadEnv loads configuration from environment variables.
func (m *Manager) loadEnv() {
	if v := os.Getenv("DEVFLOW_CASE_ID_COLUMN"); v != "" {
		m.config.Loader.CaseIDColumn = v
	}
	if v := os.Getenv("DEVFLOW_ACTIVITY_COLUMN"); v != "" {
		m.config.Loader.ActivityColumn = v
	}
	if v := os.Getenv("DEVFLOW_TIMESTAMP_COLUMN"); v != "" {
		m.config.Loader.TimestampColumn = v
	}
	if v := os.Getenv("DEVFLOW_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			m.config.Analyzer.Workers = n
		}
	}
	if v := os.Getenv("DEVFLOW_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			m.config.Server.Port = n
		}
	}
	if v := os.Getenv("DEVFLOW_S3_REGION"); v != "" {
		m.config.Source.S3.Region = v
	}
	if v := os.Getenv("DEVFLOW_S3_ENDPOINT"); v != "" {
		m.config.Source.S3.Endpoint = v
	}
	if v := os.Getenv("DEVFLOW_OTLP_ENDPOINT"); v != "" {
		m.config.Telemetry.Enabled = true
		m.config.Telemetry.Endpoint = v
	}
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetPaths returns the paths that were loaded.
func (m *Manager) GetPaths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paths
}

// Save writes the current config to the user config file.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".devflow")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(m.config)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0644)
}

// Global instance
var (
	globalManager *Manager
	globalOnce    sync.Once
)

// Global returns the global configuration manager.
func Global() *Manager {
	globalOnce.Do(func() {
		globalManager = NewManager()
		globalManager.Load()
	})
	return globalManager
}
