// Package config provides configuration management for sqldiff.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Colour modes.
const (
	ColorsAuto   = "auto"
	ColorsAlways = "always"
	ColorsNever  = "never"
)

// Config holds the settings of a comparison run.
type Config struct {
	// DatabaseType selects the dialect used to read the dumps.
	DatabaseType string `json:"database_type" yaml:"database_type"`

	// Mirror appends destructive statements.
	Mirror bool `json:"mirror" yaml:"mirror"`

	// OnlySQL prints the statements without header and rules.
	OnlySQL bool `json:"only_sql" yaml:"only_sql"`

	// Colors is auto, always or never.
	Colors string `json:"colors" yaml:"colors"`

	// Format is text or markdown.
	Format string `json:"format" yaml:"format"`

	// OnError is abort or skip.
	OnError string `json:"on_error" yaml:"on_error"`

	Include []string `json:"include" yaml:"include"`
	Exclude []string `json:"exclude" yaml:"exclude"`

	// OutputDir switches to one file per table.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	ForeignKeys ForeignKeyConfig `json:"foreign_keys" yaml:"foreign_keys"`
}

// ForeignKeyConfig selects where foreign key metadata comes from.
type ForeignKeyConfig struct {
	// DSN of a live MySQL server, e.g. user:pass@tcp(localhost:3306)/shop.
	DSN string `json:"dsn" yaml:"dsn"`

	// Schema whose constraints are looked up. Defaults to the DSN database.
	Schema string `json:"schema" yaml:"schema"`

	// Catalog is a SQLite file written by "sqldiff catalog".
	Catalog string `json:"catalog" yaml:"catalog"`

	// Cache memoises lookups for the duration of a run.
	Cache bool `json:"cache" yaml:"cache"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		DatabaseType: "mysql",
		Colors:       ColorsAuto,
		Format:       "text",
		OnError:      "abort",
		ForeignKeys: ForeignKeyConfig{
			Cache: true,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DatabaseType != "mysql" {
		return fmt.Errorf("invalid database_type: %s (must be mysql)", c.DatabaseType)
	}

	switch c.Colors {
	case ColorsAuto, ColorsAlways, ColorsNever:
	default:
		return fmt.Errorf("invalid colors: %s (must be auto, always, or never)", c.Colors)
	}

	if c.Format != "text" && c.Format != "markdown" {
		return fmt.Errorf("invalid format: %s (must be text or markdown)", c.Format)
	}

	if c.OnError != "abort" && c.OnError != "skip" {
		return fmt.Errorf("invalid on_error: %s (must be abort or skip)", c.OnError)
	}

	if c.ForeignKeys.DSN != "" && c.ForeignKeys.Catalog != "" {
		return fmt.Errorf("foreign_keys.dsn and foreign_keys.catalog cannot both be set")
	}

	if c.ForeignKeys.Catalog != "" && c.ForeignKeys.Schema == "" {
		return fmt.Errorf("foreign_keys.schema is required when foreign_keys.catalog is set")
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the SQLDIFF_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("SQLDIFF_DATABASE_TYPE"); v != "" {
		cfg.DatabaseType = v
	}
	if v, ok := envBool("SQLDIFF_MIRROR"); ok {
		cfg.Mirror = v
	}
	if v, ok := envBool("SQLDIFF_ONLY_SQL"); ok {
		cfg.OnlySQL = v
	}
	if v := os.Getenv("SQLDIFF_COLORS"); v != "" {
		cfg.Colors = v
	}
	if v := os.Getenv("SQLDIFF_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("SQLDIFF_ON_ERROR"); v != "" {
		cfg.OnError = v
	}
	if v := os.Getenv("SQLDIFF_INCLUDE"); v != "" {
		cfg.Include = SplitList(v)
	}
	if v := os.Getenv("SQLDIFF_EXCLUDE"); v != "" {
		cfg.Exclude = SplitList(v)
	}
	if v := os.Getenv("SQLDIFF_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}

	// Foreign key configuration
	if v := os.Getenv("SQLDIFF_FK_DSN"); v != "" {
		cfg.ForeignKeys.DSN = v
	}
	if v := os.Getenv("SQLDIFF_FK_SCHEMA"); v != "" {
		cfg.ForeignKeys.Schema = v
	}
	if v := os.Getenv("SQLDIFF_FK_CATALOG"); v != "" {
		cfg.ForeignKeys.Catalog = v
	}
	if v, ok := envBool("SQLDIFF_FK_CACHE"); ok {
		cfg.ForeignKeys.Cache = v
	}
}

// SplitList splits a comma separated list, trimming blanks and dropping
// empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
