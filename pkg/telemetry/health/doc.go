// Package health provides liveness and readiness probes for the keeper's ops
// server.
//
// Readiness aggregates named checks. The keeper registers two:
//
//   - catalog: the recordings database answers a ping
//   - scheduler: the maintenance loop ticked within the last three intervals
//
// # Usage
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("catalog", health.PingCheck(store))
//	checker.RegisterCheck("scheduler", health.HeartbeatCheck(scheduler.LastTick, 3*tick))
//	health.Register(mux, checker, version.Version, version.Commit, version.BuildTime)
package health
