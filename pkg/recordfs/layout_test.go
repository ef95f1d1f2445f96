package recordfs

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSegmentPath_RoundTrip(t *testing.T) {
	root := "/media/opengate/recordings"
	start := time.Date(2024, 3, 9, 7, 5, 42, 0, time.UTC)

	path := SegmentPath(root, "front_door", start)
	want := filepath.Join(root, "2024-03-09", "07", "front_door", "05.42.mp4")
	if path != want {
		t.Fatalf("expected %q, got %q", want, path)
	}

	camera, parsed, err := ParseSegmentPath(root, path)
	if err != nil {
		t.Fatalf("ParseSegmentPath() failed: %v", err)
	}
	if camera != "front_door" || !parsed.Equal(start) {
		t.Errorf("got %s %v", camera, parsed)
	}
}

func TestSegmentPath_ConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	start := time.Date(2024, 1, 1, 1, 0, 0, 0, loc)

	path := SegmentPath("/r", "cam", start)
	if want := filepath.Join("/r", "2023-12-31", "23", "cam", "00.00.mp4"); path != want {
		t.Errorf("expected %q, got %q", want, path)
	}
}

func TestParseSegmentPath_Rejects(t *testing.T) {
	root := "/r"
	tests := []struct {
		name string
		path string
	}{
		{"too shallow", "/r/2024-01-01/cam/00.00.mp4"},
		{"too deep", "/r/2024-01-01/00/cam/extra/00.00.mp4"},
		{"wrong extension", "/r/2024-01-01/00/cam/00.00.ts"},
		{"bad date", "/r/2024-13-01/00/cam/00.00.mp4"},
		{"bad minute", "/r/2024-01-01/00/cam/61.00.mp4"},
		{"outside root", "/elsewhere/2024-01-01/00/cam/00.00.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseSegmentPath(root, tt.path); err == nil {
				t.Errorf("expected error for %q", tt.path)
			}
		})
	}
}
