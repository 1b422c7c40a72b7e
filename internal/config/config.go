// Package config loads the immutable per-run configuration for the
// cross-indexing engine from a YAML file, with environment variable
// overrides for secrets and paths.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"codenerd/internal/logging"
)

// Config holds all configuration needed to run the Incremental
// Cross-Indexing Engine for a single invocation. It is loaded once and
// treated as immutable for the duration of a run, per the spec's
// concurrency model (§5: "Configuration is injected as an immutable
// value at run start").
type Config struct {
	// Store is the path to the SQLite database file holding projects,
	// files, connections, mappings and the checkpoint queue.
	Store StoreConfig `yaml:"store"`

	// Splitter configures the external LLM-backed code-to-connections
	// analyzer.
	Splitter SplitterConfig `yaml:"splitter"`

	// Logging holds settings for the categorized file logger;
	// LoggingSettings converts them for logging.Initialize. The cxidx CLI
	// initializes logging from its --verbose flag and does not read this
	// block.
	Logging LoggingConfig `yaml:"logging"`

	// BatchLineBudget is the maximum sum of lines per Splitter batch (§5/§6).
	BatchLineBudget int `yaml:"batch_line_budget"`

	// AdjacencyThreshold is the ADJACENCY constant used by the
	// Reconciler's overlap classifier (§4.4).
	AdjacencyThreshold int `yaml:"adjacency_threshold"`

	// SplitterRetries is the total number of attempts, the first call
	// included, made for a batch whose Splitter call fails transiently
	// (§4.6).
	SplitterRetries int `yaml:"splitter_retries"`

	// SplitterConcurrency bounds how many Splitter batches may be
	// in flight at once (§5).
	SplitterConcurrency int `yaml:"splitter_concurrency"`

	// CPUWorkers bounds the diff/reconcile worker pool size. Zero means
	// "auto" (runtime.GOMAXPROCS(0)).
	CPUWorkers int `yaml:"cpu_workers"`

	// MatcherThreshold is the minimum similarity score (§4.7) a
	// candidate pair must reach to produce a ConnectionMapping.
	MatcherThreshold float64 `yaml:"matcher_threshold"`
}

// StoreConfig configures the persistent store (C1).
type StoreConfig struct {
	Path string `yaml:"path"`
}

// SplitterConfig configures the Splitter Driver's external analyzer client (C6).
type SplitterConfig struct {
	Provider string `yaml:"provider"` // "genai" or "fake" (tests)
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// LoggingConfig controls the categorized file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
}

// DefaultConfig returns the configuration defaults named in spec §6.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: ".cxidx/graph.db",
		},
		Splitter: SplitterConfig{
			Provider: "genai",
			Model:    "gemini-2.5-flash",
			Timeout:  "120s",
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
		BatchLineBudget:     5000,
		AdjacencyThreshold:  3,
		SplitterRetries:     3,
		SplitterConcurrency: 2,
		CPUWorkers:          0,
		MatcherThreshold:    0.5,
	}
}

// Load reads configuration from a YAML file, falling back to defaults for
// a missing file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Get(logging.CategoryBoot).Info("config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file, creating parent directories
// as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides for secrets
// and paths that should not live in a checked-in config file.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GENAI_API_KEY"); key != "" {
		c.Splitter.APIKey = key
	}
	if path := os.Getenv("CXIDX_DB"); path != "" {
		c.Store.Path = path
	}
}

// SplitterTimeout returns the Splitter timeout as a duration, defaulting
// to 120s if unset or unparsable.
func (c *Config) SplitterTimeout() time.Duration {
	d, err := time.ParseDuration(c.Splitter.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// LoggingSettings adapts LoggingConfig to the logging package's Settings
// shape (kept as two types to avoid a config<->logging import cycle).
func (c *Config) LoggingSettings() logging.Settings {
	return logging.Settings{
		DebugMode:  c.Logging.DebugMode,
		Categories: c.Logging.Categories,
		Level:      c.Logging.Level,
		JSONFormat: c.Logging.JSONFormat,
	}
}
