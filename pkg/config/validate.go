package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "record.retain.days").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// RetainModes lists the accepted values of events.retain.mode.
var RetainModes = []string{"all", "motion", "active_objects"}

var cameraNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together. Validate expects defaults to have been applied.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateRecord(&cfg.Record)...)
	errs = append(errs, validateCameras(cfg.Cameras)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateDatabase(cfg *DatabaseConfig) []FieldError {
	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{Field: "database.path", Message: "must not be empty"})
	}
	if cfg.Driver != "sqlite" && cfg.Driver != "sqlite3" {
		errs = append(errs, FieldError{
			Field:   "database.driver",
			Message: fmt.Sprintf("must be one of [sqlite sqlite3], got %q", cfg.Driver),
		})
	}
	switch strings.ToLower(cfg.JournalMode) {
	case "wal", "delete", "truncate", "persist", "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "database.journal_mode",
			Message: fmt.Sprintf("unsupported journal mode %q", cfg.JournalMode),
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{Field: "database.busy_timeout", Message: "must not be negative"})
	}
	if cfg.MaxOpenConns < 1 {
		errs = append(errs, FieldError{Field: "database.max_open_conns", Message: "must be at least 1"})
	}

	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	if cfg.RecordingsDir == "" {
		errs = append(errs, FieldError{Field: "storage.recordings_dir", Message: "must not be empty"})
	}
	if cfg.CacheDir == "" {
		errs = append(errs, FieldError{Field: "storage.cache_dir", Message: "must not be empty"})
	}
	if strings.ContainsRune(cfg.TmpClipPattern, '/') {
		errs = append(errs, FieldError{Field: "storage.tmp_clip_pattern", Message: "must match file names, not paths"})
	}
	if cfg.TmpClipMaxAge < 0 {
		errs = append(errs, FieldError{Field: "storage.tmp_clip_max_age", Message: "must not be negative"})
	}

	return errs
}

func validateRecord(cfg *RecordConfig) []FieldError {
	var errs []FieldError

	errs = append(errs, validateRetention("record", cfg.Retain.Days, cfg.Events.Retain.Mode)...)

	if cfg.SyncHour != nil && (*cfg.SyncHour < 0 || *cfg.SyncHour > 23) {
		errs = append(errs, FieldError{
			Field:   "record.sync_hour",
			Message: fmt.Sprintf("must be between 0 and 23, got %d", *cfg.SyncHour),
		})
	}
	if cfg.SyncWindow < 0 {
		errs = append(errs, FieldError{Field: "record.sync_window", Message: "must not be negative"})
	}
	if cfg.ExpireInterval < 1 {
		errs = append(errs, FieldError{
			Field:   "record.expire_interval",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.ExpireInterval),
		})
	}
	if cfg.TickInterval <= 0 {
		errs = append(errs, FieldError{Field: "record.tick_interval", Message: "must be positive"})
	}
	if cfg.DeleteBatchSize < 1 || cfg.DeleteBatchSize > DefaultDeleteBatchSize {
		errs = append(errs, FieldError{
			Field:   "record.delete_batch_size",
			Message: fmt.Sprintf("must be between 1 and %d, got %d", DefaultDeleteBatchSize, cfg.DeleteBatchSize),
		})
	}

	return errs
}

func validateCameras(cameras map[string]CameraConfig) []FieldError {
	var errs []FieldError

	for name, camera := range cameras {
		prefix := fmt.Sprintf("cameras.%s", name)
		if !cameraNamePattern.MatchString(name) {
			errs = append(errs, FieldError{
				Field:   prefix,
				Message: "camera name may only contain letters, digits, '_' and '-'",
			})
		}
		errs = append(errs, validateRetention(prefix+".record", camera.Record.Retain.Days, camera.Record.Events.Retain.Mode)...)
	}

	return errs
}

func validateRetention(prefix string, days *float64, mode string) []FieldError {
	var errs []FieldError

	if days != nil && *days < 0 {
		errs = append(errs, FieldError{
			Field:   prefix + ".retain.days",
			Message: fmt.Sprintf("must not be negative, got %g", *days),
		})
	}
	if mode != "" && !isRetainMode(mode) {
		errs = append(errs, FieldError{
			Field:   prefix + ".events.retain.mode",
			Message: fmt.Sprintf("must be one of %v, got %q", RetainModes, mode),
		})
	}

	return errs
}

func isRetainMode(mode string) bool {
	for _, m := range RetainModes {
		if m == mode {
			return true
		}
	}
	return false
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("must be one of [debug info warn error], got %q", cfg.Logging.Level),
		})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be one of [json text], got %q", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddress); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: fmt.Sprintf("invalid address %q: %v", cfg.Metrics.ListenAddress, err),
			})
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with '/'"})
		}
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "is required when tracing is enabled",
		})
	}
	if r := cfg.Tracing.SampleRatio; r != nil && (*r < 0 || *r > 1) {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: fmt.Sprintf("must be between 0 and 1, got %g", *r),
		})
	}

	return errs
}
