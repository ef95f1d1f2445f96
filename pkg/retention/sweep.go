package retention

import (
	"opengate-hq/keeper/pkg/catalog"
)

// Reason explains why a recording was selected for deletion.
type Reason string

const (
	ReasonNoEvent   Reason = "no_event"
	ReasonNoMotion  Reason = "no_motion"
	ReasonNoObjects Reason = "no_objects"
	ReasonOrphan    Reason = "orphan"
)

// Decision is the outcome for one recording.
type Decision struct {
	RecordingID string `json:"recording_id"`
	Delete      bool   `json:"delete"`
	Reason      Reason `json:"reason,omitempty"`
}

// sweeper walks one camera's recordings against its events. Both inputs must
// be ordered by start time. The event cursor only moves forward, so a whole
// sweep is linear in recordings plus events.
type sweeper struct {
	events []*catalog.Event
	cursor int
	mode   Mode
}

func newSweeper(events []*catalog.Event, mode Mode) *sweeper {
	return &sweeper{events: events, mode: mode}
}

// decide reports whether rec should be deleted. Recordings must be passed in
// start time order.
func (s *sweeper) decide(rec *catalog.Recording) (bool, Reason) {
	if !s.keptByEvent(rec) {
		return true, ReasonNoEvent
	}

	switch {
	case s.mode == ModeMotion && rec.Motion == 0:
		return true, ReasonNoMotion
	case s.mode == ModeActiveObjects && rec.Objects == 0:
		return true, ReasonNoObjects
	}
	return false, ""
}

// keptByEvent reports whether any event overlaps rec. An event still in
// progress overlaps everything after its start. Events that ended before rec
// started also ended before every later recording, so the cursor skips them
// from then on.
func (s *sweeper) keptByEvent(rec *catalog.Recording) bool {
	for idx := s.cursor; idx < len(s.events); idx++ {
		ev := s.events[idx]

		if ev.StartTime.After(rec.EndTime) {
			return false
		}
		if ev.EndTime == nil || !ev.EndTime.Before(rec.StartTime) {
			return true
		}
		s.cursor = idx
	}
	return false
}

// Decide runs the keep/delete sweep over recordings and events of a single
// camera, both ordered by start time, and returns one decision per recording
// in input order. It has no side effects.
func Decide(events []*catalog.Event, recordings []*catalog.Recording, mode Mode) []Decision {
	s := newSweeper(events, mode)

	decisions := make([]Decision, len(recordings))
	for i, rec := range recordings {
		del, reason := s.decide(rec)
		decisions[i] = Decision{RecordingID: rec.ID, Delete: del, Reason: reason}
	}
	return decisions
}
