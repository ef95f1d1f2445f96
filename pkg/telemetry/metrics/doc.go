// Package metrics provides Prometheus metrics for the keeper.
//
// # Metrics
//
//   - keeper_retention_recordings_expired_total{camera,reason}
//   - keeper_retention_files_removed_total{camera}
//   - keeper_retention_file_errors_total{camera}
//   - keeper_retention_camera_failures_total{camera,stage}
//   - keeper_retention_pass_duration_seconds{status}
//   - keeper_retention_last_pass_timestamp_seconds
//   - keeper_cache_tmp_clips_removed_total
//   - keeper_storage_directories_removed_total
//   - keeper_storage_used_percent, keeper_storage_free_bytes
//   - keeper_sync_runs_total{mode,status}, keeper_sync_rows_total{change}
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordExpired("front", "no_event", 42)
//	http.Handle("/metrics", collector.Handler())
//
// Record methods are safe on a nil *Collector, so components can treat the
// collector as optional.
package metrics
