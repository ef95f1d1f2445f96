// Package server provides the ops HTTP server of the keeper daemon.
//
// The server is started only when metrics are enabled and exposes:
//
//   - GET <metrics.path> - Prometheus metrics (default /metrics)
//   - GET /health/live - liveness probe
//   - GET /health/ready - readiness probe (catalog ping, scheduler heartbeat)
//   - GET /version - build information
//
// Start blocks until its context is cancelled and then shuts down
// gracefully:
//
//	srv := server.NewServer(&cfg.Telemetry.Metrics, collector, checker, build)
//	go func() {
//	    if err := srv.Start(ctx); err != nil {
//	        slog.Error("ops server failed", "error", err)
//	    }
//	}()
package server
