package catalog

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryStore implements Store in memory. It backs tests and dry runs.
type MemoryStore struct {
	mu         sync.RWMutex
	recordings map[string]*Recording
	paths      map[string]string // path -> id
	events     map[string]*Event
	closed     bool
}

// NewMemoryStore creates an empty in-memory catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		recordings: make(map[string]*Recording),
		paths:      make(map[string]string),
		events:     make(map[string]*Event),
	}
}

// StreamRecordings sends a snapshot of matching recordings ordered by start_time.
func (s *MemoryStore) StreamRecordings(ctx context.Context, query *RecordingQuery) (<-chan *Recording, <-chan error, error) {
	if query == nil {
		query = &RecordingQuery{}
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, nil, NewStorageError("memory", "stream_recordings", ErrClosed)
	}
	var matched []*Recording
	for _, rec := range s.recordings {
		if matchesRecording(rec, query) {
			c := *rec
			matched = append(matched, &c)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *Recording) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	matched = paginate(matched, query.Limit, query.Offset)

	recordsCh := make(chan *Recording, 256)
	errCh := make(chan error, 1)

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		for _, rec := range matched {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- rec:
			}
		}
	}()

	return recordsCh, errCh, nil
}

func matchesRecording(rec *Recording, query *RecordingQuery) bool {
	if query.Camera != "" && rec.Camera != query.Camera {
		return false
	}
	if slices.Contains(query.ExcludeCameras, rec.Camera) {
		return false
	}
	if query.EndBefore != nil && !rec.EndTime.Before(*query.EndBefore) {
		return false
	}
	if query.StartAfter != nil && rec.StartTime.Before(*query.StartAfter) {
		return false
	}
	return true
}

// QueryEvents returns matching events ordered by start_time.
func (s *MemoryStore) QueryEvents(ctx context.Context, query *EventQuery) ([]*Event, error) {
	if query == nil {
		query = &EventQuery{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageError("memory", "query_events", ErrClosed)
	}

	events := []*Event{}
	for _, ev := range s.events {
		if query.Camera != "" && ev.Camera != query.Camera {
			continue
		}
		if query.StartBefore != nil && !ev.StartTime.Before(*query.StartBefore) {
			continue
		}
		if query.ClipsOnly && !ev.HasClip {
			continue
		}
		events = append(events, copyEvent(ev))
	}

	slices.SortFunc(events, func(a, b *Event) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	return paginate(events, query.Limit, query.Offset), nil
}

// AddRecordings stores copies of recordings, skipping known paths.
func (s *MemoryStore) AddRecordings(ctx context.Context, recordings []*Recording) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, NewStorageError("memory", "add_recordings", ErrClosed)
	}

	var inserted int64
	for _, rec := range recordings {
		if _, ok := s.recordings[rec.ID]; ok {
			continue
		}
		if _, ok := s.paths[rec.Path]; ok {
			continue
		}
		c := *rec
		s.recordings[rec.ID] = &c
		s.paths[rec.Path] = rec.ID
		inserted++
	}
	return inserted, nil
}

// AddEvents stores copies of events, replacing any with the same id.
func (s *MemoryStore) AddEvents(ctx context.Context, events []*Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageError("memory", "add_events", ErrClosed)
	}

	for _, ev := range events {
		s.events[ev.ID] = copyEvent(ev)
	}
	return nil
}

// DeleteRecordings removes the given ids.
func (s *MemoryStore) DeleteRecordings(ctx context.Context, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, NewStorageError("memory", "delete", ErrClosed)
	}

	var count int64
	for _, id := range ids {
		rec, ok := s.recordings[id]
		if !ok {
			continue
		}
		delete(s.paths, rec.Path)
		delete(s.recordings, id)
		count++
	}
	return count, nil
}

// Len returns the number of cataloged recordings.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recordings)
}

// Has reports whether id is cataloged.
func (s *MemoryStore) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.recordings[id]
	return ok
}

// Ping reports whether the store is open.
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return NewStorageError("memory", "ping", ErrClosed)
	}
	return nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func copyEvent(ev *Event) *Event {
	c := *ev
	if ev.EndTime != nil {
		end := *ev.EndTime
		c.EndTime = &end
	}
	return &c
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
