package recordfs

import (
	"context"

	"github.com/shirou/gopsutil/v4/disk"
)

// Usage is the capacity of the filesystem holding a path.
type Usage struct {
	Path        string  `json:"path"`
	Total       uint64  `json:"total_bytes"`
	Used        uint64  `json:"used_bytes"`
	Free        uint64  `json:"free_bytes"`
	UsedPercent float64 `json:"used_percent"`
}

// DiskUsage reports usage of the filesystem containing path.
func DiskUsage(ctx context.Context, path string) (*Usage, error) {
	stat, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Usage{
		Path:        path,
		Total:       stat.Total,
		Used:        stat.Used,
		Free:        stat.Free,
		UsedPercent: stat.UsedPercent,
	}, nil
}
