package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "btopricer", cfg.Name)
	assert.Equal(t, "data/hdb.duckdb", cfg.Paths.DuckDBPath)
	assert.Equal(t, "raw_transactions", cfg.Paths.RawTable)
	assert.Equal(t, "random_forest", cfg.Training.ModelType)
	assert.Equal(t, 0.2, cfg.Training.TestSize)
	assert.Equal(t, 200, cfg.Training.NEstimators)
	assert.Equal(t, 8000, cfg.API.Port)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `
paths:
  duckdb_path: warehouse/txns.duckdb
training:
  discount_rate: 0.15
  n_estimators: 50
api:
  port: 9000
`
	cfgPath := filepath.Join(dir, "btopricer.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0o644))

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "warehouse/txns.duckdb", cfg.Paths.DuckDBPath)
	assert.Equal(t, 0.15, cfg.Training.DiscountRate)
	assert.Equal(t, 50, cfg.Training.NEstimators)
	assert.Equal(t, 9000, cfg.API.Port)
	// Untouched keys keep defaults.
	assert.Equal(t, "resale_price", cfg.Training.Target)

	// Directories referenced by paths exist after load.
	assert.DirExists(t, filepath.Join(dir, "warehouse"))
	assert.DirExists(t, filepath.Join(dir, "artifacts", "model"))
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BTO_API__PORT", "9001")
	t.Setenv("BTO_TRAINING__MODEL_TYPE", "gradient_boosting")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.API.Port)
	assert.Equal(t, "gradient_boosting", cfg.Training.ModelType)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("nope.yaml", nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"bad test size", func(c *Config) { c.Training.TestSize = 1.5 }, true},
		{"zero estimators", func(c *Config) { c.Training.NEstimators = 0 }, true},
		{"injection in table name", func(c *Config) { c.Paths.RawTable = "raw; DROP TABLE x" }, true},
		{"numeric-leading table name", func(c *Config) { c.Paths.CleanTable = "1clean" }, true},
		{"missing duckdb path", func(c *Config) { c.Paths.DuckDBPath = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Paths: Paths{
					DuckDBPath:    "data/hdb.duckdb",
					RawTable:      "raw_transactions",
					CleanTable:    "clean_transactions",
					FeaturesTable: "features",
				},
				Training: Training{TestSize: 0.2, NEstimators: 10},
			}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
