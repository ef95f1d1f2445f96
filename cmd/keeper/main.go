// Keeper is the recording retention daemon of an OpenGate recorder.
//
// It expires recording segments once they fall outside their camera's
// retention window, keeping only segments corroborated by events, and
// handles the housekeeping around it:
//   - Per-camera retention in days with all, motion and active_objects modes
//   - Removal of recordings from cameras that are no longer configured
//   - Stale scratch clip cleanup and empty directory compaction
//   - Daily reconciliation of the catalog with the files on disk
//
// Usage:
//
//	# Start the maintenance loop
//	keeper run --config /config/keeper.yaml
//
//	# Preview one expiration pass
//	keeper expire --dry-run
//
//	# Reconcile the catalog with the recordings directory
//	keeper sync
//
//	# Check a configuration file
//	keeper config validate -c keeper.yaml
package main

import "os"

func main() {
	os.Exit(Execute())
}
