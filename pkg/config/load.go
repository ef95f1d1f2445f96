package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML or TOML file at the specified path.
// The format is chosen by extension: ".toml" is parsed as TOML, anything else as YAML.
// It applies default values, validates the configuration, and returns any errors.
func LoadConfig(path string) (*Config, error) {
	return load(path, false)
}

func load(path string, withEnv bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data, formatFor(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	// Overrides go in before defaults so cameras inherit overridden globals.
	if withEnv {
		applyEnvOverrides(cfg)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Format is a configuration file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

func formatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Parse decodes raw configuration bytes without applying defaults.
//
// TOML documents are decoded into a generic tree and re-encoded as YAML so
// both formats share the same field names and duration parsing ("90s", "36h").
func Parse(data []byte, format Format) (*Config, error) {
	if format == FormatTOML {
		var tree map[string]any
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
		converted, err := yaml.Marshal(tree)
		if err != nil {
			return nil, fmt.Errorf("convert toml: %w", err)
		}
		data = converted
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a file and applies
// environment variable overrides. Environment variables follow the naming
// convention KEEPER_SECTION_FIELD (e.g., KEEPER_DATABASE_PATH).
// Environment variables always take precedence over file-based configuration.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	return load(path, true)
}

// applyEnvOverrides applies KEEPER_* environment variables to cfg.
// Values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Database overrides
	if val := os.Getenv("KEEPER_DATABASE_PATH"); val != "" {
		cfg.Database.Path = val
	}
	if val := os.Getenv("KEEPER_DATABASE_DRIVER"); val != "" {
		cfg.Database.Driver = val
	}
	if val := os.Getenv("KEEPER_DATABASE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Database.BusyTimeout = d
		}
	}

	// Storage overrides
	if val := os.Getenv("KEEPER_STORAGE_RECORDINGS_DIR"); val != "" {
		cfg.Storage.RecordingsDir = val
	}
	if val := os.Getenv("KEEPER_STORAGE_CACHE_DIR"); val != "" {
		cfg.Storage.CacheDir = val
	}

	// Record overrides
	if val := os.Getenv("KEEPER_RECORD_RETAIN_DAYS"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Record.Retain.Days = &f
		}
	}
	if val := os.Getenv("KEEPER_RECORD_EVENTS_RETAIN_MODE"); val != "" {
		cfg.Record.Events.Retain.Mode = val
	}
	if val := os.Getenv("KEEPER_RECORD_SYNC_RECORDINGS"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Record.SyncRecordings = b
		}
	}
	if val := os.Getenv("KEEPER_RECORD_EXPIRE_INTERVAL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Record.ExpireInterval = i
		}
	}
	if val := os.Getenv("KEEPER_RECORD_TICK_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Record.TickInterval = d
		}
	}
	if val := os.Getenv("KEEPER_RECORD_DRY_RUN"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Record.DryRun = b
		}
	}

	// Telemetry overrides
	if val := os.Getenv("KEEPER_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("KEEPER_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("KEEPER_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("KEEPER_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("KEEPER_TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := os.Getenv("KEEPER_TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
}
