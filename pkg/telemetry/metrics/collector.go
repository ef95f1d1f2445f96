package metrics

import (
	"time"

	"opengate-hq/keeper/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every Prometheus metric the keeper exports. Components take
// a *Collector and call its Record methods; a nil collector or a collector
// built from a disabled config records nothing.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	retention   *RetentionMetrics
	maintenance *MaintenanceMetrics
}

// NewCollector creates a collector and registers its metrics with registry.
// If registry is nil a fresh registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{Enabled: true, Namespace: "keeper"}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:      cfg,
		registry:    registry,
		retention:   NewRetentionMetrics(cfg, registry),
		maintenance: NewMaintenanceMetrics(cfg, registry),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordExpired counts recordings deleted for camera with the given reason.
func (c *Collector) RecordExpired(camera, reason string, count int) {
	if !c.enabled() || count <= 0 {
		return
	}
	c.retention.expired.WithLabelValues(camera, reason).Add(float64(count))
}

// RecordFiles counts segment files removed and files that could not be removed.
func (c *Collector) RecordFiles(camera string, removed, failed int) {
	if !c.enabled() {
		return
	}
	if removed > 0 {
		c.retention.filesRemoved.WithLabelValues(camera).Add(float64(removed))
	}
	if failed > 0 {
		c.retention.fileErrors.WithLabelValues(camera).Add(float64(failed))
	}
}

// RecordCameraFailure counts a camera whose expiration stopped at stage.
func (c *Collector) RecordCameraFailure(camera, stage string) {
	if !c.enabled() {
		return
	}
	c.retention.cameraFailures.WithLabelValues(camera, stage).Inc()
}

// RecordPass records the duration of a complete expiration pass.
func (c *Collector) RecordPass(duration time.Duration, failed bool) {
	if !c.enabled() {
		return
	}
	status := "success"
	if failed {
		status = "partial"
	}
	c.retention.passDuration.WithLabelValues(status).Observe(duration.Seconds())
	c.retention.lastPass.SetToCurrentTime()
}

// RecordReaped counts temporary clips removed from the cache.
func (c *Collector) RecordReaped(count int) {
	if !c.enabled() || count <= 0 {
		return
	}
	c.maintenance.reaped.Add(float64(count))
}

// RecordCompacted counts empty directories removed under the recordings root.
func (c *Collector) RecordCompacted(count int) {
	if !c.enabled() || count <= 0 {
		return
	}
	c.maintenance.compacted.Add(float64(count))
}

// RecordSync records a reconciliation run. Status is "success" or "error".
func (c *Collector) RecordSync(mode, status string, created, removed int64) {
	if !c.enabled() {
		return
	}
	c.maintenance.syncRuns.WithLabelValues(mode, status).Inc()
	if created > 0 {
		c.maintenance.syncRows.WithLabelValues("created").Add(float64(created))
	}
	if removed > 0 {
		c.maintenance.syncRows.WithLabelValues("removed").Add(float64(removed))
	}
}

// RecordDiskUsage sets the recordings filesystem usage gauges.
func (c *Collector) RecordDiskUsage(usedPercent float64, freeBytes uint64) {
	if !c.enabled() {
		return
	}
	c.maintenance.diskUsed.Set(usedPercent)
	c.maintenance.diskFree.Set(float64(freeBytes))
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
