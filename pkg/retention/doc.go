// Package retention expires recording segments that fall outside the
// configured retention window.
//
// A pass runs per camera. Events older than the camera's cutoff are loaded
// once, ordered by start time, and recordings older than the cutoff are
// streamed in start order. Each recording is kept only if some event
// overlaps it and the camera's retain mode is satisfied:
//
//   - all: any overlap keeps the segment
//   - motion: the segment must also have motion
//   - active_objects: the segment must also contain active objects
//
// Because both sequences are ordered, a single cursor over the events is
// enough; it only moves forward and the sweep stays linear.
//
// Segments from cameras that are no longer configured are removed once
// they are older than the default retention, regardless of events.
//
// The Scheduler wraps the Expirer in the maintenance loop that also reaps
// scratch clips, compacts empty directories and reconciles the catalog
// with disk once a day.
package retention
