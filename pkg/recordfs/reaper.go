package recordfs

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"
)

// ReaperConfig configures the scratch-clip reaper.
type ReaperConfig struct {
	// Dir is scanned recursively.
	Dir string

	// Pattern is matched against file base names.
	// Default: "clip_*.mp4"
	Pattern string

	// MaxAge is the modification age after which a file is removed.
	// Default: 60s
	MaxAge time.Duration
}

// Reaper removes stale scratch clips left behind by clip exports.
type Reaper struct {
	config *ReaperConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewReaper creates a reaper.
func NewReaper(config *ReaperConfig) *Reaper {
	c := *config
	if c.Pattern == "" {
		c.Pattern = "clip_*.mp4"
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 60 * time.Second
	}
	return &Reaper{
		config: &c,
		logger: slog.Default().With("component", "recordfs.reaper"),
		now:    time.Now,
	}
}

// Reap deletes every matching file older than MaxAge and returns how many
// were removed. A missing scratch directory is not an error. Files that
// cannot be removed are logged and skipped.
func (r *Reaper) Reap(ctx context.Context) (int, error) {
	if _, err := filepath.Match(r.config.Pattern, ""); err != nil {
		return 0, err
	}

	threshold := r.now().Add(-r.config.MaxAge)
	removed := 0

	err := filepath.WalkDir(r.config.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			r.logger.Warn("scratch walk error", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(r.config.Pattern, d.Name()); !ok {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !info.ModTime().Before(threshold) {
			return nil
		}

		deleted, err := RemoveFile(path)
		if err != nil {
			r.logger.Warn("failed to remove scratch clip", "path", path, "error", err)
			return nil
		}
		if deleted {
			removed++
		}
		return nil
	})

	if removed > 0 {
		r.logger.Debug("removed stale scratch clips", "count", removed, "dir", r.config.Dir)
	}
	return removed, err
}
