package config

import "time"

// Default values for configuration fields.
const (
	// Database defaults
	DefaultDatabasePath         = "/config/opengate.db"
	DefaultDatabaseDriver       = "sqlite"
	DefaultDatabaseJournalMode  = "wal"
	DefaultDatabaseBusyTimeout  = 5 * time.Second
	DefaultDatabaseMaxOpenConns = 1

	// Storage defaults
	DefaultRecordingsDir  = "/media/opengate/recordings"
	DefaultCacheDir       = "/tmp/cache"
	DefaultTmpClipPattern = "clip_*.mp4"
	DefaultTmpClipMaxAge  = 60 * time.Second

	// Record defaults
	DefaultRetainDays      = 10.0
	DefaultRetainMode      = "motion"
	DefaultSyncHour        = 3
	DefaultSyncWindow      = 36 * time.Hour
	DefaultExpireInterval  = 60
	DefaultTickInterval    = 60 * time.Second
	DefaultDeleteBatchSize = 100000

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "json"
	DefaultMetricsListenAddress = "127.0.0.1:9108"
	DefaultMetricsPath          = "/metrics"
	DefaultMetricsNamespace     = "keeper"
	DefaultTracingSampleRatio   = 1.0
	DefaultTracingServiceName   = "keeper"
	DefaultTracingTimeout       = 10 * time.Second
)

// ApplyDefaults fills every unset field with its default value. Cameras
// inherit unset retention values from the global record section.
// ApplyDefaults is idempotent.
func ApplyDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDatabasePath
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDatabaseDriver
	}
	if cfg.Database.JournalMode == "" {
		cfg.Database.JournalMode = DefaultDatabaseJournalMode
	}
	if cfg.Database.BusyTimeout == 0 {
		cfg.Database.BusyTimeout = DefaultDatabaseBusyTimeout
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultDatabaseMaxOpenConns
	}

	// Storage defaults
	if cfg.Storage.RecordingsDir == "" {
		cfg.Storage.RecordingsDir = DefaultRecordingsDir
	}
	if cfg.Storage.CacheDir == "" {
		cfg.Storage.CacheDir = DefaultCacheDir
	}
	if cfg.Storage.TmpClipPattern == "" {
		cfg.Storage.TmpClipPattern = DefaultTmpClipPattern
	}
	if cfg.Storage.TmpClipMaxAge == 0 {
		cfg.Storage.TmpClipMaxAge = DefaultTmpClipMaxAge
	}

	// Record defaults
	if cfg.Record.Retain.Days == nil {
		days := DefaultRetainDays
		cfg.Record.Retain.Days = &days
	}
	if cfg.Record.Events.Retain.Mode == "" {
		cfg.Record.Events.Retain.Mode = DefaultRetainMode
	}
	if cfg.Record.SyncHour == nil {
		hour := DefaultSyncHour
		cfg.Record.SyncHour = &hour
	}
	if cfg.Record.SyncWindow == 0 {
		cfg.Record.SyncWindow = DefaultSyncWindow
	}
	if cfg.Record.ExpireInterval == 0 {
		cfg.Record.ExpireInterval = DefaultExpireInterval
	}
	if cfg.Record.TickInterval == 0 {
		cfg.Record.TickInterval = DefaultTickInterval
	}
	if cfg.Record.DeleteBatchSize == 0 {
		cfg.Record.DeleteBatchSize = DefaultDeleteBatchSize
	}

	// Camera inheritance
	for name, camera := range cfg.Cameras {
		if camera.Enabled == nil {
			enabled := true
			camera.Enabled = &enabled
		}
		if camera.Record.Retain.Days == nil {
			days := *cfg.Record.Retain.Days
			camera.Record.Retain.Days = &days
		}
		if camera.Record.Events.Retain.Mode == "" {
			camera.Record.Events.Retain.Mode = cfg.Record.Events.Retain.Mode
		}
		cfg.Cameras[name] = camera
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Tracing.SampleRatio == nil {
		ratio := DefaultTracingSampleRatio
		cfg.Telemetry.Tracing.SampleRatio = &ratio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}

// Default returns a configuration with every default applied and no cameras.
func Default() *Config {
	cfg := &Config{Cameras: map[string]CameraConfig{}}
	ApplyDefaults(cfg)
	return cfg
}
