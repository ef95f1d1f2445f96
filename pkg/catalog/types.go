package catalog

import (
	"context"
	"math"
	"time"
)

// Recording is one stored video segment. StartTime and EndTime bound a
// closed interval. Per camera, recordings do not overlap and start times
// increase.
type Recording struct {
	ID        string    `json:"id"`
	Camera    string    `json:"camera"`
	Path      string    `json:"path"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Objects   int       `json:"objects"` // Tracked objects seen in the segment
	Motion    int       `json:"motion"`  // Motion score; 0 means no motion
}

// Event is a detection with a time range. A nil EndTime marks an event
// still in progress. Events of one camera may overlap.
type Event struct {
	ID        string     `json:"id"`
	Camera    string     `json:"camera"`
	Label     string     `json:"label,omitempty"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	HasClip   bool       `json:"has_clip"`
}

// InProgress reports whether the event has not ended yet.
func (e *Event) InProgress() bool {
	return e.EndTime == nil
}

// RecordingQuery filters recordings. Results are always ordered by
// start_time ascending, then id.
type RecordingQuery struct {
	// Camera restricts results to one camera when set.
	Camera string

	// ExcludeCameras drops recordings of the listed cameras.
	ExcludeCameras []string

	// EndBefore keeps recordings with end_time strictly before it.
	EndBefore *time.Time

	// StartAfter keeps recordings with start_time at or after it.
	StartAfter *time.Time

	// Pagination
	Limit  int
	Offset int
}

// EventQuery filters events. Results are ordered by start_time ascending,
// then id.
type EventQuery struct {
	// Camera restricts results to one camera when set.
	Camera string

	// StartBefore keeps events with start_time strictly before it.
	StartBefore *time.Time

	// ClipsOnly keeps events that have a saved clip.
	ClipsOnly bool

	// Pagination
	Limit  int
	Offset int
}

// Store is the recordings catalog. Implementations must be safe for
// concurrent use.
type Store interface {
	// StreamRecordings sends matching recordings in order. Both channels are
	// closed when the query completes; at most one error is sent. Callers
	// that stop reading early must cancel ctx.
	StreamRecordings(ctx context.Context, query *RecordingQuery) (<-chan *Recording, <-chan error, error)

	// QueryEvents returns matching events in order.
	QueryEvents(ctx context.Context, query *EventQuery) ([]*Event, error)

	// AddRecordings inserts recordings, skipping any whose path is already
	// cataloged. Returns the number inserted.
	AddRecordings(ctx context.Context, recordings []*Recording) (int64, error)

	// DeleteRecordings removes the given ids with a single statement and
	// returns the number of rows removed. Unknown ids are ignored.
	DeleteRecordings(ctx context.Context, ids []string) (int64, error)

	// Ping verifies the catalog is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}

// toEpoch converts t to fractional UTC epoch seconds, the catalog's time encoding.
func toEpoch(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// fromEpoch converts epoch seconds back to a UTC time, rounded to the microsecond.
func fromEpoch(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	nanos := math.Round(frac*1e6) * 1e3
	return time.Unix(int64(whole), int64(nanos)).UTC()
}
