package recordfs

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Compactor removes empty directories under the recordings root.
type Compactor struct {
	root   string
	logger *slog.Logger
}

// NewCompactor creates a compactor for root. The root itself is never removed.
func NewCompactor(root string) *Compactor {
	return &Compactor{
		root:   root,
		logger: slog.Default().With("component", "recordfs.compactor"),
	}
}

// Compact removes every directory below root that is empty once its own
// empty children are gone, working bottom-up. It returns the number of
// directories removed. A missing root is not an error.
func (c *Compactor) Compact(ctx context.Context) (int, error) {
	removed, err := c.compact(ctx, c.root)
	if errors.Is(err, fs.ErrNotExist) {
		return removed, nil
	}
	if removed > 0 {
		c.logger.Debug("removed empty directories", "count", removed, "root", c.root)
	}
	return removed, err
}

func (c *Compactor) compact(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		sub := filepath.Join(dir, entry.Name())
		n, err := c.compact(ctx, sub)
		removed += n
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return removed, err
			}
			c.logger.Warn("failed to scan directory", "path", sub, "error", err)
			continue
		}

		left, err := os.ReadDir(sub)
		if err == nil && len(left) == 0 {
			// A writer may have created a file since the read; Remove
			// refuses non-empty directories, so losing that race is safe.
			if err := os.Remove(sub); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
