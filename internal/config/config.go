// Package config loads the YAML configuration of the migration tools.
//
// There is no discovery: the file comes from --config or the
// BPMIGRATE_CONFIG environment variable, and its absence means defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"blueprintcore/internal/asset"
	"blueprintcore/internal/migrate"
)

// EnvVar names the environment variable holding the config path.
const EnvVar = "BPMIGRATE_CONFIG"

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Migration MigrationConfig `yaml:"migration"`
	Storage   StorageConfig   `yaml:"storage"`
	Index     IndexConfig     `yaml:"index"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

type MigrationConfig struct {
	// DisabledPasses lists migration passes that never run.
	DisabledPasses []string `yaml:"disabled_passes"`

	// DeprecatedGraph is the function graph removed on load.
	DeprecatedGraph string `yaml:"deprecated_graph"`

	// DirtyMigrated marks packages dirty when legacy templates are
	// adopted during regeneration.
	DirtyMigrated bool `yaml:"dirty_migrated"`
}

type StorageConfig struct {
	// Compression is one of none, lz4, zstd.
	Compression string `yaml:"compression"`
}

type IndexConfig struct {
	// Path is the SQLite search index file. Empty keeps the index in
	// memory.
	Path string `yaml:"path"`
}

func Default() *Config {
	return &Config{
		Log:       LogConfig{Level: "info"},
		Migration: MigrationConfig{DeprecatedGraph: migrate.DefaultDeprecatedGraph},
		Storage:   StorageConfig{Compression: asset.CompressionZstd.String()},
	}
}

// Load reads path over the defaults. An empty path falls back to EnvVar,
// and when that is unset too the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

var levels = []string{"debug", "info", "warn", "error"}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(levels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}
	for _, issue := range migrate.ValidateDisabled(c.Migration.DisabledPasses) {
		errs = append(errs, fmt.Errorf("migration.%s", issue))
	}
	if _, err := asset.ParseCompressionTag(c.Storage.Compression); err != nil {
		errs = append(errs, fmt.Errorf("storage.compression: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// LogLevel maps log.level to a slog level. Unknown values mean info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Compression returns the configured storage compression.
func (c *Config) Compression() asset.CompressionTag {
	tag, err := asset.ParseCompressionTag(c.Storage.Compression)
	if err != nil {
		return asset.CompressionNone
	}
	return tag
}
