package recordfs

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const segmentExt = ".mp4"

// SegmentPath returns where a segment of camera starting at start is stored.
func SegmentPath(root, camera string, start time.Time) string {
	start = start.UTC()
	return filepath.Join(root,
		start.Format("2006-01-02"),
		start.Format("15"),
		camera,
		start.Format("04.05")+segmentExt,
	)
}

// ParseSegmentPath recovers the camera and start time from a segment path
// under root.
func ParseSegmentPath(root, path string) (camera string, start time.Time, err error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", time.Time{}, err
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 4 {
		return "", time.Time{}, fmt.Errorf("unexpected segment layout %q", rel)
	}
	day, hour, camera, name := parts[0], parts[1], parts[2], parts[3]

	if !strings.HasSuffix(name, segmentExt) || camera == "" {
		return "", time.Time{}, fmt.Errorf("unexpected segment name %q", rel)
	}

	stamp := fmt.Sprintf("%s %s:%s", day, hour, strings.Replace(strings.TrimSuffix(name, segmentExt), ".", ":", 1))
	start, err = time.ParseInLocation("2006-01-02 15:04:05", stamp, time.UTC)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("unexpected segment time %q: %w", rel, err)
	}
	return camera, start, nil
}
