package metrics

import (
	"opengate-hq/keeper/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RetentionMetrics tracks expiration passes.
type RetentionMetrics struct {
	// expired counts deleted recordings by camera and reason.
	// Labels: camera, reason
	expired *prometheus.CounterVec

	// Labels: camera
	filesRemoved *prometheus.CounterVec
	fileErrors   *prometheus.CounterVec

	// cameraFailures counts cameras skipped because a stage failed.
	// Labels: camera, stage
	cameraFailures *prometheus.CounterVec

	// Labels: status
	passDuration *prometheus.HistogramVec

	lastPass prometheus.Gauge
}

// NewRetentionMetrics creates and registers retention metrics.
func NewRetentionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RetentionMetrics {
	const subsystem = "retention"

	m := &RetentionMetrics{
		expired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "recordings_expired_total",
				Help:      "Recordings deleted by the expirer",
			},
			[]string{"camera", "reason"},
		),
		filesRemoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "files_removed_total",
				Help:      "Segment files unlinked by the expirer",
			},
			[]string{"camera"},
		),
		fileErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "file_errors_total",
				Help:      "Segment files the expirer failed to unlink",
			},
			[]string{"camera"},
		),
		cameraFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "camera_failures_total",
				Help:      "Cameras skipped during a pass because a stage failed",
			},
			[]string{"camera", "stage"},
		),
		passDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "pass_duration_seconds",
				Help:      "Duration of complete expiration passes",
				Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
			[]string{"status"},
		),
		lastPass: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: subsystem,
				Name:      "last_pass_timestamp_seconds",
				Help:      "Unix time the last expiration pass finished",
			},
		),
	}

	registry.MustRegister(
		m.expired,
		m.filesRemoved,
		m.fileErrors,
		m.cameraFailures,
		m.passDuration,
		m.lastPass,
	)

	return m
}
