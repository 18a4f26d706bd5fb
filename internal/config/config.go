// Package config loads and persists pdq configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for py-dataflow-query
type Config struct {
	// SpecsPath points at a YAML mutation-rule file; empty means the
	// built-in defaults.
	SpecsPath string `yaml:"specs_path" env:"PDQ_SPECS_PATH"`

	// Format selects CLI output: "text" or "json".
	Format string `yaml:"format" env:"PDQ_FORMAT"`

	// CachePath is where analysis results are cached between runs.
	CachePath string `yaml:"cache_path" env:"PDQ_CACHE_PATH"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose" env:"PDQ_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Format:    "text",
		CachePath: defaultCachePath(),
	}
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pdq", "cache.msgpack")
}

// globalConfigFilePath returns ~/.pdq/config.yaml.
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pdq", "config.yaml")
}

// projectConfigFilePath returns ./.pdq/config.yaml.
func projectConfigFilePath() string {
	return filepath.Join(".pdq", "config.yaml")
}

// Load reads configuration with the following precedence:
// 1. Environment variables
// 2. Project config (./.pdq/config.yaml)
// 3. Global config (~/.pdq/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := globalConfigFilePath(); path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if data, err := os.ReadFile(projectConfigFilePath()); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigFilePath(), err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// GlobalPath returns the path Save should use for a user-wide config.
func GlobalPath() string {
	return globalConfigFilePath()
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PDQ_SPECS_PATH"); v != "" {
		cfg.SpecsPath = v
	}
	if v := os.Getenv("PDQ_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("PDQ_CACHE_PATH"); v != "" {
		cfg.CachePath = v
	}
	if v := os.Getenv("PDQ_VERBOSE"); v == "1" || v == "true" {
		cfg.Verbose = true
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid format %q: must be text or json", c.Format)
	}
	if c.SpecsPath != "" {
		if _, err := os.Stat(c.SpecsPath); err != nil {
			return fmt.Errorf("specs file %s: %w", c.SpecsPath, err)
		}
	}
	return nil
}
