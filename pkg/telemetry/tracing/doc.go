// Package tracing provides OpenTelemetry tracing for expiration passes and
// catalog syncs.
//
// Spans are exported over OTLP gRPC when telemetry.tracing.enabled is set;
// otherwise every span is a noop. The span tree of one pass is:
//
//	retention.expire
//	├── retention.orphans
//	└── retention.camera (one per configured camera)
//
// Syncs produce a single recordfs.sync span.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version.Version)
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "retention.camera")
//	defer span.End()
package tracing
