package recordfs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"opengate-hq/keeper/pkg/catalog"
	"opengate-hq/keeper/pkg/telemetry/tracing"
)

func TestSyncer_Full(t *testing.T) {
	root := t.TempDir()
	store := catalog.NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	present := SegmentPath(root, "front", start)
	orphan := SegmentPath(root, "back", start.Add(10*time.Second))
	junk := filepath.Join(root, "notes", "readme.mp4")

	touch(t, present, start.Add(10*time.Second))
	touch(t, orphan, start.Add(20*time.Second))
	touch(t, junk, now)

	_, err := store.AddRecordings(ctx, []*catalog.Recording{
		{ID: "present", Camera: "front", Path: present, StartTime: start, EndTime: start.Add(10 * time.Second)},
		{ID: "gone", Camera: "front", Path: SegmentPath(root, "front", start.Add(-time.Hour)), StartTime: start.Add(-time.Hour), EndTime: start.Add(-time.Hour + 10*time.Second)},
	})
	if err != nil {
		t.Fatalf("AddRecordings() failed: %v", err)
	}

	s := NewSyncer(store, &SyncConfig{Root: root})
	result, err := s.Sync(ctx, SyncFull)
	if err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}

	if result.FilesScanned != 3 || result.RowsChecked != 2 {
		t.Errorf("unexpected scan counts %+v", result)
	}
	if result.RowsRemoved != 1 || result.RowsCreated != 1 || result.Skipped != 1 {
		t.Errorf("unexpected changes %+v", result)
	}
	if store.Has("gone") || !store.Has("present") {
		t.Error("wrong rows removed")
	}
	if store.Len() != 2 {
		t.Errorf("expected 2 rows after sync, got %d", store.Len())
	}

	recCh, errCh, _ := store.StreamRecordings(ctx, &catalog.RecordingQuery{Camera: "back"})
	var created []*catalog.Recording
	for rec := range recCh {
		created = append(created, rec)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if len(created) != 1 || created[0].Path != orphan || !created[0].StartTime.Equal(start.Add(10*time.Second)) {
		t.Fatalf("unexpected created rows %+v", created)
	}

	// Second run changes nothing.
	again, err := s.Sync(ctx, SyncFull)
	if err != nil {
		t.Fatalf("second Sync() failed: %v", err)
	}
	if again.RowsRemoved != 0 || again.RowsCreated != 0 {
		t.Errorf("sync not idempotent: %+v", again)
	}
}

func TestSyncer_LimitedWindow(t *testing.T) {
	root := t.TempDir()
	store := catalog.NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	oldStart := now.Add(-72 * time.Hour)
	recentStart := now.Add(-time.Hour)

	// Old row whose file is gone: outside the window, so kept.
	// Recent row whose file is gone: removed.
	_, _ = store.AddRecordings(ctx, []*catalog.Recording{
		{ID: "old", Camera: "front", Path: SegmentPath(root, "front", oldStart), StartTime: oldStart, EndTime: oldStart.Add(10 * time.Second)},
		{ID: "recent", Camera: "front", Path: SegmentPath(root, "front", recentStart), StartTime: recentStart, EndTime: recentStart.Add(10 * time.Second)},
	})

	oldOrphan := SegmentPath(root, "back", oldStart)
	touch(t, oldOrphan, oldStart.Add(10*time.Second))

	s := NewSyncer(store, &SyncConfig{Root: root, Window: 36 * time.Hour})
	s.now = func() time.Time { return now }

	result, err := s.Sync(ctx, SyncLimited)
	if err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}

	if result.RowsChecked != 1 || result.RowsRemoved != 1 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.FilesScanned != 0 || result.RowsCreated != 0 {
		t.Errorf("old file should be outside the window: %+v", result)
	}
	if !store.Has("old") || store.Has("recent") {
		t.Error("limited sync touched rows outside its window")
	}
}

func TestSyncer_MissingRootFails(t *testing.T) {
	store := catalog.NewMemoryStore()
	_, _ = store.AddRecordings(context.Background(), []*catalog.Recording{{ID: "r", Path: "/nowhere/x.mp4"}})

	s := NewSyncer(store, &SyncConfig{Root: filepath.Join(t.TempDir(), "unmounted")})
	if _, err := s.Sync(context.Background(), SyncFull); err == nil {
		t.Fatal("expected error for missing root")
	}
	if !store.Has("r") {
		t.Error("rows must survive when the root is unavailable")
	}
}

func TestSyncer_Span(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tracing.NewWithProvider(provider)

	ok := NewSyncer(catalog.NewMemoryStore(), &SyncConfig{Root: t.TempDir()}, WithSyncTracer(tracer))
	if _, err := ok.Sync(context.Background(), SyncLimited); err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}

	missing := NewSyncer(catalog.NewMemoryStore(), &SyncConfig{Root: filepath.Join(t.TempDir(), "unmounted")}, WithSyncTracer(tracer))
	if _, err := missing.Sync(context.Background(), SyncFull); err == nil {
		t.Fatal("expected error for missing root")
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	for _, span := range spans {
		if span.Name() != "recordfs.sync" {
			t.Errorf("unexpected span %q", span.Name())
		}
	}
	if spans[0].Status().Code != codes.Ok || spans[1].Status().Code != codes.Error {
		t.Errorf("unexpected statuses %v, %v", spans[0].Status(), spans[1].Status())
	}
}

func TestDiskUsage(t *testing.T) {
	usage, err := DiskUsage(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("DiskUsage() failed: %v", err)
	}
	if usage.Total == 0 {
		t.Error("expected non-zero total")
	}
	if usage.UsedPercent < 0 || usage.UsedPercent > 100 {
		t.Errorf("used percent out of range: %v", usage.UsedPercent)
	}
}
