package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"opengate-hq/keeper/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:   true,
		Namespace: "test",
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.registry != registry {
		t.Error("collector registry not set correctly")
	}
	if cfg.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("expected default namespace, got %q", cfg.Namespace)
	}
	if NewCollector(testConfig(), nil).Registry() == nil {
		t.Error("expected a registry to be created")
	}
}

func TestCollector_RecordExpired(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	tests := []struct {
		camera string
		reason string
		count  int
	}{
		{"front", "no_event", 3},
		{"front", "no_event", 2},
		{"front", "no_motion", 1},
		{"back", "orphan", 4},
		{"back", "orphan", 0},
	}
	for _, tt := range tests {
		collector.RecordExpired(tt.camera, tt.reason, tt.count)
	}

	expired := collector.retention.expired
	if got := testutil.ToFloat64(expired.WithLabelValues("front", "no_event")); got != 5 {
		t.Errorf("front/no_event: expected 5, got %v", got)
	}
	if got := testutil.ToFloat64(expired.WithLabelValues("front", "no_motion")); got != 1 {
		t.Errorf("front/no_motion: expected 1, got %v", got)
	}
	if got := testutil.ToFloat64(expired.WithLabelValues("back", "orphan")); got != 4 {
		t.Errorf("back/orphan: expected 4, got %v", got)
	}
}

func TestCollector_RecordFilesAndFailures(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordFiles("front", 10, 2)
	collector.RecordFiles("front", 5, 0)
	collector.RecordCameraFailure("back", "query_events")

	if got := testutil.ToFloat64(collector.retention.filesRemoved.WithLabelValues("front")); got != 15 {
		t.Errorf("files removed: expected 15, got %v", got)
	}
	if got := testutil.ToFloat64(collector.retention.fileErrors.WithLabelValues("front")); got != 2 {
		t.Errorf("file errors: expected 2, got %v", got)
	}
	if got := testutil.ToFloat64(collector.retention.cameraFailures.WithLabelValues("back", "query_events")); got != 1 {
		t.Errorf("camera failures: expected 1, got %v", got)
	}
}

func TestCollector_RecordPass(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordPass(2*time.Second, false)
	collector.RecordPass(time.Second, true)

	if n := testutil.CollectAndCount(collector.retention.passDuration); n != 2 {
		t.Errorf("expected 2 status series, got %d", n)
	}
	if got := testutil.ToFloat64(collector.retention.lastPass); got <= 0 {
		t.Errorf("expected last pass timestamp to be set, got %v", got)
	}
}

func TestCollector_Maintenance(t *testing.T) {
	collector := NewCollector(testConfig(), nil)

	collector.RecordReaped(3)
	collector.RecordCompacted(2)
	collector.RecordSync("full", "success", 7, 1)
	collector.RecordSync("limited", "error", 0, 0)
	collector.RecordDiskUsage(42.5, 1024)

	m := collector.maintenance
	if got := testutil.ToFloat64(m.reaped); got != 3 {
		t.Errorf("reaped: expected 3, got %v", got)
	}
	if got := testutil.ToFloat64(m.compacted); got != 2 {
		t.Errorf("compacted: expected 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.syncRuns.WithLabelValues("limited", "error")); got != 1 {
		t.Errorf("sync runs: expected 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.syncRows.WithLabelValues("created")); got != 7 {
		t.Errorf("sync created: expected 7, got %v", got)
	}
	if got := testutil.ToFloat64(m.diskUsed); got != 42.5 {
		t.Errorf("disk used: expected 42.5, got %v", got)
	}
	if got := testutil.ToFloat64(m.diskFree); got != 1024 {
		t.Errorf("disk free: expected 1024, got %v", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	collector := NewCollector(&config.MetricsConfig{Enabled: false}, nil)

	collector.RecordExpired("front", "no_event", 5)
	collector.RecordReaped(5)

	if got := testutil.ToFloat64(collector.retention.expired.WithLabelValues("front", "no_event")); got != 0 {
		t.Errorf("disabled collector recorded %v", got)
	}
	if got := testutil.ToFloat64(collector.maintenance.reaped); got != 0 {
		t.Errorf("disabled collector recorded %v", got)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var collector *Collector

	collector.RecordExpired("front", "no_event", 1)
	collector.RecordFiles("front", 1, 1)
	collector.RecordCameraFailure("front", "delete_rows")
	collector.RecordPass(time.Second, false)
	collector.RecordReaped(1)
	collector.RecordCompacted(1)
	collector.RecordSync("full", "success", 1, 1)
	collector.RecordDiskUsage(1, 1)
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), nil)
	collector.RecordExpired("front", "orphan", 2)

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `test_retention_recordings_expired_total{camera="front",reason="orphan"} 2`) {
		t.Errorf("metric missing from exposition:\n%s", body)
	}
}
