package tracing

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys use the "keeper.*" namespace.
const (
	AttrPassID  = "keeper.pass.id"
	AttrCameras = "keeper.pass.cameras"
	AttrDryRun  = "keeper.pass.dry_run"

	AttrCamera     = "keeper.camera"
	AttrRetainDays = "keeper.retain.days"
	AttrRetainMode = "keeper.retain.mode"
	AttrCutoff     = "keeper.cutoff"

	AttrScanned      = "keeper.recordings.scanned"
	AttrDeleted      = "keeper.recordings.deleted"
	AttrFilesRemoved = "keeper.files.removed"
	AttrFileErrors   = "keeper.files.errors"

	AttrSyncMode        = "keeper.sync.mode"
	AttrSyncRowsCreated = "keeper.sync.rows_created"
	AttrSyncRowsRemoved = "keeper.sync.rows_removed"
)

// SetPassAttributes annotates an expiration pass span.
func SetPassAttributes(span trace.Span, passID string, cameras int, dryRun bool) {
	span.SetAttributes(
		attribute.String(AttrPassID, passID),
		attribute.Int(AttrCameras, cameras),
		attribute.Bool(AttrDryRun, dryRun),
	)
}

// SetCameraAttributes annotates a per-camera span with its policy.
func SetCameraAttributes(span trace.Span, camera string, days float64, mode string, cutoff time.Time) {
	span.SetAttributes(
		attribute.String(AttrCamera, camera),
		attribute.Float64(AttrRetainDays, days),
		attribute.String(AttrRetainMode, mode),
		attribute.String(AttrCutoff, cutoff.UTC().Format(time.RFC3339)),
	)
}

// SetResultAttributes annotates a per-camera span with its outcome.
func SetResultAttributes(span trace.Span, scanned, deleted, filesRemoved, fileErrors int) {
	span.SetAttributes(
		attribute.Int(AttrScanned, scanned),
		attribute.Int(AttrDeleted, deleted),
		attribute.Int(AttrFilesRemoved, filesRemoved),
		attribute.Int(AttrFileErrors, fileErrors),
	)
}

// SetSyncAttributes annotates a sync span.
func SetSyncAttributes(span trace.Span, mode string, created, removed int64) {
	span.SetAttributes(
		attribute.String(AttrSyncMode, mode),
		attribute.Int64(AttrSyncRowsCreated, created),
		attribute.Int64(AttrSyncRowsRemoved, removed),
	)
}
