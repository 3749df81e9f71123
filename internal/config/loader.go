package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names searched in the working directory when no explicit
// path is given.
const (
	ConfigFileName    = "btopricer.yaml"
	ConfigFileNameAlt = "btopricer.yml"
)

// EnvPrefix is the prefix for environment variable overrides.
// BTO_API__PORT=9000 sets api.port; a double underscore separates levels.
const EnvPrefix = "BTO_"

// Load loads configuration from defaults, an optional YAML file,
// environment variables, and CLI flags (highest priority). Directories
// referenced by configured paths are created if absent.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Pick up OPENAI_API_KEY and friends from .env if present.
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile(cfgFile)
	if cfgFile != "" && configPath == "" {
		return nil, fmt.Errorf("config file not found: %s", cfgFile)
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	}

	// BTO_TRAINING__DISCOUNT_RATE -> training.discount_rate
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return flagKey(f.Name), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := ensureDirs(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// flagKey maps flag names to config keys. Flags use dashes; nested keys
// are addressed with dots (e.g. --api.port).
func flagKey(name string) string {
	switch name {
	case "verbose":
		return "verbose"
	case "host":
		return "api.host"
	case "port":
		return "api.port"
	}
	return strings.ReplaceAll(name, "-", "_")
}

// findConfigFile returns the config file to use, or "" if none exists.
// Priority: explicit path > btopricer.yaml > btopricer.yml.
func findConfigFile(explicit string) string {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
		return ""
	}
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// ensureDirs creates the directories referenced by configured paths.
func ensureDirs(cfg *Config) error {
	dirs := []string{
		filepath.Dir(cfg.Paths.DuckDBPath),
		cfg.Paths.ModelDir,
		filepath.Dir(cfg.Paths.MetricsPath),
		filepath.Dir(cfg.Paths.StatePath),
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
