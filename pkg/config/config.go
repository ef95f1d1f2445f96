package config

import "time"

// Config is the root configuration structure for keeper.
// It contains the catalog database, storage paths, recording retention,
// per-camera overrides, and telemetry settings.
type Config struct {
	// Database contains configuration for the recordings catalog.
	Database DatabaseConfig `yaml:"database"`

	// Storage contains the on-disk locations of recordings and scratch clips.
	Storage StorageConfig `yaml:"storage"`

	// Record contains the process-wide retention settings. Cameras inherit
	// any value they do not set, and recordings of cameras that are no longer
	// configured expire after Record.Retain.Days.
	Record RecordConfig `yaml:"record"`

	// Cameras contains per-camera overrides keyed by camera name.
	// A camera is "configured" when it appears in this map.
	Cameras map[string]CameraConfig `yaml:"cameras"`

	// Telemetry contains configuration for logging, metrics, and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DatabaseConfig contains configuration for the SQLite recordings catalog.
type DatabaseConfig struct {
	// Path is the database file path.
	// Default: "/config/opengate.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// JournalMode is the SQLite journal mode.
	// Options: "wal", "delete", "truncate"
	// Default: "wal"
	JournalMode string `yaml:"journal_mode"`

	// BusyTimeout is how long a statement waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 1
	MaxOpenConns int `yaml:"max_open_conns"`
}

// StorageConfig contains filesystem locations.
type StorageConfig struct {
	// RecordingsDir is the root of the segment tree.
	// Default: "/media/opengate/recordings"
	RecordingsDir string `yaml:"recordings_dir"`

	// CacheDir is the scratch directory where clip exports are assembled.
	// Default: "/tmp/cache"
	CacheDir string `yaml:"cache_dir"`

	// TmpClipPattern is the glob matched against scratch file names.
	// Default: "clip_*.mp4"
	TmpClipPattern string `yaml:"tmp_clip_pattern"`

	// TmpClipMaxAge is the age after which a scratch clip is removed.
	// Default: 60s
	TmpClipMaxAge time.Duration `yaml:"tmp_clip_max_age"`
}

// RecordConfig contains the global recording retention settings.
type RecordConfig struct {
	// Retain is the default retention window.
	Retain RetainConfig `yaml:"retain"`

	// Events controls how event corroboration affects expiration.
	Events EventsConfig `yaml:"events"`

	// SyncRecordings enables catalog/filesystem reconciliation at startup
	// and once a day.
	// Default: false
	SyncRecordings bool `yaml:"sync_recordings"`

	// SyncHour is the UTC hour of the daily limited sync.
	// Default: 3
	SyncHour *int `yaml:"sync_hour"`

	// SyncWindow is how far back the daily limited sync looks.
	// Default: 36h
	SyncWindow time.Duration `yaml:"sync_window"`

	// ExpireInterval is the number of ticks between expiration passes.
	// Default: 60
	ExpireInterval int `yaml:"expire_interval"`

	// TickInterval is the scheduler wake period and the upper bound on
	// shutdown latency.
	// Default: 60s
	TickInterval time.Duration `yaml:"tick_interval"`

	// DeleteBatchSize is the maximum number of ids per delete statement.
	// Default: 100000
	DeleteBatchSize int `yaml:"delete_batch_size"`

	// DryRun computes expiration decisions without removing anything.
	// Default: false
	DryRun bool `yaml:"dry_run"`
}

// RetainConfig is a retention window in days.
type RetainConfig struct {
	// Days is the number of days to keep recordings. Fractions are allowed.
	// Default: 10
	Days *float64 `yaml:"days"`
}

// EventsConfig selects the retention mode.
type EventsConfig struct {
	Retain EventsRetainConfig `yaml:"retain"`
}

// EventsRetainConfig holds the retention mode.
type EventsRetainConfig struct {
	// Mode decides which event-corroborated recordings survive.
	// Options: "all", "motion", "active_objects"
	// Default: "motion"
	Mode string `yaml:"mode"`
}

// CameraConfig contains per-camera settings. Unset values inherit Record.
type CameraConfig struct {
	// Enabled mirrors the capture setting. A disabled camera is still
	// configured, so its recordings follow its own retention.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Record overrides the global retention for this camera.
	Record CameraRecordConfig `yaml:"record"`
}

// CameraRecordConfig is the subset of RecordConfig a camera may override.
type CameraRecordConfig struct {
	Retain RetainConfig `yaml:"retain"`
	Events EventsConfig `yaml:"events"`
}

// RetainDays returns the effective retention in days.
func (c CameraConfig) RetainDays() float64 {
	if c.Record.Retain.Days == nil {
		return DefaultRetainDays
	}
	return *c.Record.Retain.Days
}

// RetainMode returns the effective retention mode.
func (c CameraConfig) RetainMode() string {
	if c.Record.Events.Retain.Mode == "" {
		return DefaultRetainMode
	}
	return c.Record.Events.Retain.Mode
}

// IsEnabled reports whether capture is enabled for the camera.
func (c CameraConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// DefaultRetainDays returns the effective global retention in days.
func (r RecordConfig) DefaultRetainDays() float64 {
	if r.Retain.Days == nil {
		return DefaultRetainDays
	}
	return *r.Retain.Days
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes the source file and line in each record.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics and health endpoint configuration.
type MetricsConfig struct {
	// Enabled starts the ops HTTP server with /metrics and /health endpoints.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the ops server address.
	// Default: "127.0.0.1:9108"
	ListenAddress string `yaml:"listen_address"`

	// Path is the metrics endpoint path.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "keeper"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the fraction of passes traced, in [0, 1].
	// Default: 1.0
	SampleRatio *float64 `yaml:"sample_ratio"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "keeper"
	ServiceName string `yaml:"service_name"`

	// Timeout bounds exporter connection and shutdown.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
