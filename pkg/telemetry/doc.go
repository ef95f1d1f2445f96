// Package telemetry groups the keeper's observability packages.
//
//   - logging: log/slog setup with pass, camera and trace fields
//   - metrics: Prometheus counters for expiration and housekeeping
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//   - health: liveness and readiness probes
package telemetry
