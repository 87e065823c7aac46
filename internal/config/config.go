// Package config loads codetutor configuration from YAML with environment
// overrides. Missing files are not an error; defaults apply.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all codetutor configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Sanitize   SanitizeConfig   `yaml:"sanitize"`
	Generation GenerationConfig `yaml:"generation"`
	Audit      AuditConfig      `yaml:"audit"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SanitizeConfig configures the sanitization pipeline inputs.
type SanitizeConfig struct {
	// SymbolTableSource is a YAML file extending the builtin symbol table.
	// Empty means builtin-only.
	SymbolTableSource string `yaml:"symbol_table_source"`

	// ForbiddenPatternSet is a YAML file replacing the default forbidden
	// patterns. Empty means defaults.
	ForbiddenPatternSet string `yaml:"forbidden_pattern_set"`

	// WatchSymbolTable enables live reload of the symbol table source.
	WatchSymbolTable bool `yaml:"watch_symbol_table"`
}

// GenerationConfig configures the example generator.
type GenerationConfig struct {
	Provider          string  `yaml:"provider"`
	APIKey            string  `yaml:"api_key"`
	Model             string  `yaml:"model"`
	Temperature       float64 `yaml:"temperature"`
	StrictTemperature float64 `yaml:"strict_temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	Timeout           string  `yaml:"timeout"`
	MaxRegenerations  int     `yaml:"max_regenerations"`
}

// AuditConfig configures the sanitization audit trail.
type AuditConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "codetutor",
		Version: "0.3.0",

		Sanitize: SanitizeConfig{
			WatchSymbolTable: false,
		},

		Generation: GenerationConfig{
			Provider:          "gemini",
			Model:             "gemini-2.0-flash",
			Temperature:       0.7,
			StrictTemperature: 0.2,
			MaxTokens:         2048,
			Timeout:           "60s",
			MaxRegenerations:  1,
		},

		Audit: AuditConfig{
			Enabled:      true,
			DatabasePath: "data/codetutor.db",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file returns
// defaults; environment overrides are applied either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
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

// Save writes the configuration to a YAML file.
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

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("TUTOR_API_KEY"); key != "" {
		c.Generation.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.Generation.APIKey == "" {
		c.Generation.APIKey = key
	}
	if path := os.Getenv("TUTOR_SYMBOLS"); path != "" {
		c.Sanitize.SymbolTableSource = path
	}
	if path := os.Getenv("TUTOR_PATTERNS"); path != "" {
		c.Sanitize.ForbiddenPatternSet = path
	}
	if path := os.Getenv("TUTOR_DB"); path != "" {
		c.Audit.DatabasePath = path
	}
}
