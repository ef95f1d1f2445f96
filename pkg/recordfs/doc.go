// Package recordfs holds the filesystem side of recording retention: the
// scratch-clip reaper, the empty-directory compactor, catalog/disk
// reconciliation, and disk usage reporting.
//
// Segments live under the recordings root as
//
//	<root>/<YYYY-MM-DD>/<HH>/<camera>/<MM>.<SS>.mp4
//
// with the date and time of the segment start in UTC.
package recordfs
