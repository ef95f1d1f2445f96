package metrics

import (
	"opengate-hq/keeper/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// MaintenanceMetrics tracks the housekeeping jobs that run beside expiration:
// tmp clip reaping, directory compaction, catalog sync and disk usage.
type MaintenanceMetrics struct {
	reaped    prometheus.Counter
	compacted prometheus.Counter

	// Labels: mode, status
	syncRuns *prometheus.CounterVec

	// Labels: change ("created" or "removed")
	syncRows *prometheus.CounterVec

	diskUsed prometheus.Gauge
	diskFree prometheus.Gauge
}

// NewMaintenanceMetrics creates and registers maintenance metrics.
func NewMaintenanceMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *MaintenanceMetrics {
	m := &MaintenanceMetrics{
		reaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "cache",
			Name:      "tmp_clips_removed_total",
			Help:      "Stale temporary clips removed from the cache directory",
		}),
		compacted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "storage",
			Name:      "directories_removed_total",
			Help:      "Empty recording directories removed",
		}),
		syncRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "sync",
				Name:      "runs_total",
				Help:      "Catalog reconciliation runs",
			},
			[]string{"mode", "status"},
		),
		syncRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "sync",
				Name:      "rows_total",
				Help:      "Catalog rows created or removed by reconciliation",
			},
			[]string{"change"},
		),
		diskUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "storage",
			Name:      "used_percent",
			Help:      "Used space on the recordings filesystem",
		}),
		diskFree: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "storage",
			Name:      "free_bytes",
			Help:      "Free bytes on the recordings filesystem",
		}),
	}

	registry.MustRegister(m.reaped, m.compacted, m.syncRuns, m.syncRows, m.diskUsed, m.diskFree)
	return m
}
