// Package config provides configuration loading for the BTO pricing pipeline.
// Configuration is layered: built-in defaults, then the YAML config file,
// then BTO_-prefixed environment variables, then CLI flags.
package config

import (
	"fmt"
	"strings"
)

// Paths holds filesystem and table locations for persisted state.
type Paths struct {
	DuckDBPath    string `koanf:"duckdb_path"`
	ModelDir      string `koanf:"model_dir"`
	MetricsPath   string `koanf:"metrics_path"`
	StatePath     string `koanf:"state_path"`
	RawTable      string `koanf:"raw_table"`
	CleanTable    string `koanf:"clean_table"`
	FeaturesTable string `koanf:"features_table"`
}

// Training holds model training hyperparameters.
type Training struct {
	Target       string  `koanf:"target"`
	TestSize     float64 `koanf:"test_size"`
	RandomState  int64   `koanf:"random_state"`
	ModelType    string  `koanf:"model_type"`
	NEstimators  int     `koanf:"n_estimators"`
	MaxDepth     int     `koanf:"max_depth"` // 0 means unlimited
	DiscountRate float64 `koanf:"discount_rate"`
}

// API holds HTTP server settings.
type API struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// LLM holds narrative-service settings. The API key is never stored in the
// config file; it is read from the OPENAI_API_KEY environment variable.
type LLM struct {
	Provider    string  `koanf:"provider"`
	Model       string  `koanf:"model"`
	MaxTokens   int     `koanf:"max_tokens"`
	Temperature float64 `koanf:"temperature"`
}

// Config is the full project configuration. It is constructed once by Load
// and passed explicitly to each component; there is no package-level
// singleton.
type Config struct {
	Name     string   `koanf:"name"`
	Version  string   `koanf:"version"`
	Paths    Paths    `koanf:"paths"`
	Training Training `koanf:"training"`
	API      API      `koanf:"api"`
	LLM      LLM      `koanf:"llm"`
	Verbose  bool     `koanf:"verbose"`
}

// Validate checks settings that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Paths.DuckDBPath == "" {
		return fmt.Errorf("paths.duckdb_path is required")
	}
	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		return fmt.Errorf("training.test_size must be in (0, 1), got %v", c.Training.TestSize)
	}
	if c.Training.NEstimators < 1 {
		return fmt.Errorf("training.n_estimators must be positive, got %d", c.Training.NEstimators)
	}
	for _, table := range []string{c.Paths.RawTable, c.Paths.CleanTable, c.Paths.FeaturesTable} {
		if !validTableName(table) {
			return fmt.Errorf("invalid table name %q", table)
		}
	}
	return nil
}

// validTableName guards the table names interpolated into DDL statements.
func validTableName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			return false
		}
	}
	return !strings.ContainsAny(name[:1], "0123456789")
}
