package recordfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"opengate-hq/keeper/pkg/catalog"
	"opengate-hq/keeper/pkg/telemetry/tracing"
)

// SyncMode selects how much of the catalog a sync reconciles.
type SyncMode string

const (
	// SyncFull reconciles every row and every file.
	SyncFull SyncMode = "full"

	// SyncLimited reconciles rows and files newer than the sync window.
	SyncLimited SyncMode = "limited"
)

// SyncConfig configures catalog/disk reconciliation.
type SyncConfig struct {
	// Root is the recordings directory.
	Root string

	// Window bounds a limited sync.
	// Default: 36h
	Window time.Duration

	// BatchSize caps ids per delete statement.
	// Default: catalog.MaxDeleteBatch
	BatchSize int
}

// SyncResult summarizes one reconciliation run.
type SyncResult struct {
	Mode         SyncMode      `json:"mode"`
	FilesScanned int           `json:"files_scanned"`
	RowsChecked  int           `json:"rows_checked"`
	RowsRemoved  int64         `json:"rows_removed"`
	RowsCreated  int64         `json:"rows_created"`
	Skipped      int           `json:"skipped"`
	Duration     time.Duration `json:"duration"`
}

// Syncer reconciles the catalog with the files on disk: rows whose file is
// gone are deleted, and segment files with no row are cataloged.
type Syncer struct {
	store  catalog.Store
	config *SyncConfig
	tracer *tracing.Tracer
	logger *slog.Logger
	now    func() time.Time
}

// SyncOption configures a Syncer.
type SyncOption func(*Syncer)

// WithSyncTracer wraps each run in a "recordfs.sync" span.
func WithSyncTracer(tracer *tracing.Tracer) SyncOption {
	return func(s *Syncer) { s.tracer = tracer }
}

// NewSyncer creates a syncer.
func NewSyncer(store catalog.Store, config *SyncConfig, opts ...SyncOption) *Syncer {
	c := *config
	if c.Window <= 0 {
		c.Window = 36 * time.Hour
	}
	if c.BatchSize <= 0 {
		c.BatchSize = catalog.MaxDeleteBatch
	}
	s := &Syncer{
		store:  store,
		config: &c,
		logger: slog.Default().With("component", "recordfs.sync"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const insertBatch = 1000

// Sync runs one reconciliation. It is idempotent. Only failures that make
// the comparison meaningless, such as an unreadable root or catalog, are
// returned; a missing root is one of them so an unmounted disk never empties
// the catalog.
func (s *Syncer) Sync(ctx context.Context, mode SyncMode) (*SyncResult, error) {
	ctx, span := s.tracer.Start(ctx, "recordfs.sync")
	defer span.End()

	result, err := s.sync(ctx, mode)
	if result != nil {
		tracing.SetSyncAttributes(span, string(mode), result.RowsCreated, result.RowsRemoved)
	}
	tracing.SetStatus(span, err)
	return result, err
}

func (s *Syncer) sync(ctx context.Context, mode SyncMode) (*SyncResult, error) {
	started := s.now()
	result := &SyncResult{Mode: mode}

	var since time.Time
	if mode == SyncLimited {
		since = started.Add(-s.config.Window)
	}

	if _, err := os.Stat(s.config.Root); err != nil {
		return nil, fmt.Errorf("recordings root unavailable: %w", err)
	}

	onDisk, err := s.scanFiles(ctx, since, result)
	if err != nil {
		return nil, err
	}

	missing, err := s.checkRows(ctx, since, onDisk, result)
	if err != nil {
		return nil, err
	}

	if len(missing) > 0 {
		n, err := catalog.DeleteInBatches(ctx, s.store, missing, s.config.BatchSize)
		result.RowsRemoved = n
		if err != nil {
			return result, fmt.Errorf("remove rows for missing files: %w", err)
		}
	}

	created, err := s.catalogOrphans(ctx, onDisk, result)
	result.RowsCreated = created
	if err != nil {
		return result, fmt.Errorf("catalog orphan files: %w", err)
	}

	result.Duration = s.now().Sub(started)
	s.logger.Info("recording sync completed",
		"mode", mode,
		"files_scanned", result.FilesScanned,
		"rows_checked", result.RowsChecked,
		"rows_removed", result.RowsRemoved,
		"rows_created", result.RowsCreated,
		"skipped", result.Skipped,
		"duration", result.Duration,
	)
	return result, nil
}

// scanFiles returns segment files modified at or after since, keyed by path,
// with their modification time. Entries are marked seen by checkRows.
func (s *Syncer) scanFiles(ctx context.Context, since time.Time, result *SyncResult) (map[string]*diskFile, error) {
	files := make(map[string]*diskFile)

	err := filepath.WalkDir(s.config.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.config.Root {
				return err
			}
			s.logger.Warn("sync walk error", "path", path, "error", err)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), segmentExt) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !since.IsZero() && info.ModTime().Before(since) {
			return nil
		}

		result.FilesScanned++
		files[path] = &diskFile{modTime: info.ModTime()}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan recordings: %w", err)
	}
	return files, nil
}

type diskFile struct {
	modTime time.Time
	seen    bool
}

// checkRows streams cataloged recordings and returns ids whose file is gone.
// A stat error other than "not exist" keeps the row.
func (s *Syncer) checkRows(ctx context.Context, since time.Time, onDisk map[string]*diskFile, result *SyncResult) ([]string, error) {
	query := &catalog.RecordingQuery{}
	if !since.IsZero() {
		query.StartAfter = &since
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	recCh, errCh, err := s.store.StreamRecordings(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var missing []string
	for rec := range recCh {
		result.RowsChecked++
		if f, ok := onDisk[rec.Path]; ok {
			f.seen = true
			continue
		}
		if _, err := os.Stat(rec.Path); errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, rec.ID)
		}
	}
	if err := <-errCh; err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return missing, nil
}

// catalogOrphans inserts rows for files no cataloged recording points at.
// Paths already cataloged outside the scanned window are skipped by the store.
func (s *Syncer) catalogOrphans(ctx context.Context, onDisk map[string]*diskFile, result *SyncResult) (int64, error) {
	var pending []*catalog.Recording
	var created int64

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		n, err := s.store.AddRecordings(ctx, pending)
		created += n
		pending = pending[:0]
		return err
	}

	for path, f := range onDisk {
		if f.seen {
			continue
		}

		camera, start, err := ParseSegmentPath(s.config.Root, path)
		if err != nil {
			result.Skipped++
			s.logger.Debug("skipping unrecognized file", "path", path, "error", err)
			continue
		}

		end := f.modTime.UTC()
		if end.Before(start) {
			end = start
		}
		pending = append(pending, &catalog.Recording{
			ID:        uuid.NewString(),
			Camera:    camera,
			Path:      path,
			StartTime: start,
			EndTime:   end,
		})

		if len(pending) >= insertBatch {
			if err := flush(); err != nil {
				return created, err
			}
		}
	}

	return created, flush()
}
