package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"opengate-hq/keeper/pkg/catalog"
	"opengate-hq/keeper/pkg/cli"
	"opengate-hq/keeper/pkg/recordfs"
	"opengate-hq/keeper/pkg/retention"
)

type testEnv struct {
	dir        string
	config     string
	recordings string
	cache      string
	database   string
}

func newTestEnv(t *testing.T, extra string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		config:     filepath.Join(dir, "keeper.yaml"),
		recordings: filepath.Join(dir, "recordings"),
		cache:      filepath.Join(dir, "cache"),
		database:   filepath.Join(dir, "keeper.db"),
	}
	for _, d := range []string{env.recordings, env.cache} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	content := fmt.Sprintf(`database:
  path: %s
storage:
  recordings_dir: %s
  cache_dir: %s
record:
  retain:
    days: 10
  events:
    retain:
      mode: all
cameras:
  back:
    record:
      retain:
        days: 1
%s`, env.database, env.recordings, env.cache, extra)
	if err := os.WriteFile(env.config, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	orig := cfgFile
	cfgFile = env.config
	t.Cleanup(func() { cfgFile = orig })
	return env
}

// segment writes a segment file and returns its catalog row.
func (e *testEnv) segment(t *testing.T, id, camera string, start time.Time) *catalog.Recording {
	t.Helper()
	path := recordfs.SegmentPath(e.recordings, camera, start)
	touch(t, path, start.Add(10*time.Second))
	return &catalog.Recording{
		ID:        id,
		Camera:    camera,
		Path:      path,
		StartTime: start,
		EndTime:   start.Add(10 * time.Second),
		Motion:    1,
		Objects:   1,
	}
}

func (e *testEnv) seed(t *testing.T, recordings []*catalog.Recording, events []*catalog.Event) {
	t.Helper()
	store, err := catalog.OpenSQLite(&catalog.SQLiteConfig{Path: e.database})
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if _, err := store.AddRecordings(ctx, recordings); err != nil {
		t.Fatalf("AddRecordings() failed: %v", err)
	}
	if err := store.AddEvents(ctx, events); err != nil {
		t.Fatalf("AddEvents() failed: %v", err)
	}
}

func (e *testEnv) rows(t *testing.T) map[string]bool {
	t.Helper()
	store, err := catalog.OpenSQLite(&catalog.SQLiteConfig{Path: e.database})
	if err != nil {
		t.Fatalf("OpenSQLite() failed: %v", err)
	}
	defer store.Close()

	recCh, errCh, err := store.StreamRecordings(context.Background(), &catalog.RecordingQuery{})
	if err != nil {
		t.Fatalf("StreamRecordings() failed: %v", err)
	}
	ids := make(map[string]bool)
	for rec := range recCh {
		ids[rec.ID] = true
	}
	if err := <-errCh; err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	return ids
}

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("segment"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func execute(t *testing.T, cmd *cobra.Command, run func(*cobra.Command, []string) error) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	t.Cleanup(func() { cmd.SetOut(nil) })
	err := run(cmd, nil)
	return buf.String(), err
}

func setExpireFlags(t *testing.T, camera string, dryRun bool, output string) {
	t.Helper()
	orig := expireFlags
	expireFlags.camera, expireFlags.dryRun, expireFlags.output = camera, dryRun, output
	t.Cleanup(func() { expireFlags = orig })
}

// scenario seeds the "back" camera (1 day retention, mode all) and one
// camera that is no longer configured.
func scenario(t *testing.T, env *testEnv) map[string]*catalog.Recording {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)

	recs := map[string]*catalog.Recording{
		"covered": env.segment(t, "covered", "back", now.Add(-5*24*time.Hour)),
		"idle":    env.segment(t, "idle", "back", now.Add(-4*24*time.Hour)),
		"fresh":   env.segment(t, "fresh", "back", now.Add(-time.Hour)),
		"orphan":  env.segment(t, "orphan", "gone", now.Add(-20*24*time.Hour)),
	}
	eventEnd := recs["covered"].EndTime.Add(time.Minute)
	events := []*catalog.Event{{
		ID:        "ev1",
		Camera:    "back",
		Label:     "person",
		StartTime: recs["covered"].StartTime.Add(-time.Minute),
		EndTime:   &eventEnd,
		HasClip:   true,
	}}

	env.seed(t, []*catalog.Recording{recs["covered"], recs["idle"], recs["fresh"], recs["orphan"]}, events)
	return recs
}

func TestExpireCommand(t *testing.T) {
	env := newTestEnv(t, "")
	recs := scenario(t, env)
	setExpireFlags(t, "", false, "json")

	out, err := execute(t, expireCmd, runExpire)
	if err != nil {
		t.Fatalf("expire failed: %v", err)
	}

	var result retention.ExpireResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if result.Deleted() != 2 || result.FilesRemoved() != 2 {
		t.Errorf("expected 2 deletions, got deleted=%d files=%d", result.Deleted(), result.FilesRemoved())
	}
	if result.Orphans == nil || result.Orphans.Reasons[retention.ReasonOrphan] != 1 {
		t.Errorf("unexpected orphan result %+v", result.Orphans)
	}

	rows := env.rows(t)
	for id, wantKept := range map[string]bool{"covered": true, "idle": false, "fresh": true, "orphan": false} {
		if rows[id] != wantKept {
			t.Errorf("%s: row kept=%v, want %v", id, rows[id], wantKept)
		}
		if exists(recs[id].Path) != wantKept {
			t.Errorf("%s: file kept=%v, want %v", id, exists(recs[id].Path), wantKept)
		}
	}
}

func TestExpireCommand_DryRun(t *testing.T) {
	env := newTestEnv(t, "")
	recs := scenario(t, env)
	setExpireFlags(t, "", true, "text")

	out, err := execute(t, expireCmd, runExpire)
	if err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if !strings.Contains(out, "(dry run)") || !strings.Contains(out, "Deleted 2 recordings") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if len(env.rows(t)) != 4 {
		t.Error("dry run removed rows")
	}
	for id, rec := range recs {
		if !exists(rec.Path) {
			t.Errorf("dry run removed file of %s", id)
		}
	}
}

func TestExpireCommand_SingleCamera(t *testing.T) {
	env := newTestEnv(t, "")
	recs := scenario(t, env)
	setExpireFlags(t, "back", false, "text")

	out, err := execute(t, expireCmd, runExpire)
	if err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if !strings.Contains(out, "no_event=1") {
		t.Errorf("unexpected output:\n%s", out)
	}

	rows := env.rows(t)
	if rows["idle"] || !rows["orphan"] {
		t.Errorf("single camera pass touched the wrong rows: %v", rows)
	}
	if !exists(recs["orphan"].Path) {
		t.Error("single camera pass removed an orphan file")
	}
}

func TestExpireCommand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		camera   string
		output   string
		extra    string
		wantCode int
	}{
		{"unknown camera", "garage", "text", "", cli.ExitConfig},
		{"bad output", "", "yaml", "", cli.ExitConfig},
		{"invalid config", "", "text", "  porch:\n    record:\n      retain:\n        days: -1\n", cli.ExitConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newTestEnv(t, tt.extra)
			setExpireFlags(t, tt.camera, false, tt.output)

			_, err := execute(t, expireCmd, runExpire)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := cli.ExitCode(err); got != tt.wantCode {
				t.Errorf("exit code %d, want %d (err: %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestSyncCommand(t *testing.T) {
	env := newTestEnv(t, "")
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	kept := env.segment(t, "kept", "back", start)
	env.segment(t, "stray", "back", start.Add(10*time.Second))
	env.seed(t, []*catalog.Recording{kept}, nil)

	orig := syncFlags
	syncFlags.limited, syncFlags.output = false, "json"
	t.Cleanup(func() { syncFlags = orig })

	out, err := execute(t, syncCmd, runSync)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	var result recordfs.SyncResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if result.Mode != recordfs.SyncFull || result.RowsCreated != 1 || result.RowsRemoved != 0 {
		t.Errorf("unexpected result %+v", result)
	}
	if len(env.rows(t)) != 2 {
		t.Errorf("expected stray file to be cataloged, rows: %v", env.rows(t))
	}
}

func TestSyncCommand_MissingRoot(t *testing.T) {
	env := newTestEnv(t, "")
	if err := os.RemoveAll(env.recordings); err != nil {
		t.Fatal(err)
	}

	orig := syncFlags
	syncFlags.limited, syncFlags.output = true, "text"
	t.Cleanup(func() { syncFlags = orig })

	_, err := execute(t, syncCmd, runSync)
	if cli.ExitCode(err) != cli.ExitFailure {
		t.Errorf("expected failure for missing root, got %v", err)
	}
}

func TestReapCommand(t *testing.T) {
	env := newTestEnv(t, "")
	stale := filepath.Join(env.cache, "clip_front-1.mp4")
	fresh := filepath.Join(env.cache, "clip_front-2.mp4")
	other := filepath.Join(env.cache, "export.mp4")
	touch(t, stale, time.Now().Add(-5*time.Minute))
	touch(t, fresh, time.Now())
	touch(t, other, time.Now().Add(-5*time.Minute))

	out, err := execute(t, reapCmd, runReap)
	if err != nil {
		t.Fatalf("reap failed: %v", err)
	}
	if !strings.Contains(out, "Removed 1 stale clips") {
		t.Errorf("unexpected output: %q", out)
	}
	if exists(stale) || !exists(fresh) || !exists(other) {
		t.Error("reap removed the wrong files")
	}
}

func TestConfigValidateCommand(t *testing.T) {
	newTestEnv(t, "  front:\n    enabled: false\n    record:\n      events:\n        retain:\n          mode: motion\n")

	out, err := execute(t, configValidateCmd, runConfigValidate)
	if err != nil {
		t.Fatalf("config validate failed: %v", err)
	}

	for _, want := range []string{"Configuration valid", "back", "front", "motion", "false", "(orphaned)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// front inherits the global 10 days.
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "front") && !strings.Contains(line, "10") {
			t.Errorf("front should inherit 10 days: %q", line)
		}
	}
}
