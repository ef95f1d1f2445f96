// Package logging builds the keeper's structured logger on log/slog.
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	if err != nil {
//		return err
//	}
//	slog.SetDefault(logger)
//
// Records logged through the *Context methods pick up fields stored in the
// context:
//
//	ctx = logging.WithPassID(ctx, passID)
//	ctx = logging.WithCamera(ctx, "front")
//	logger.InfoContext(ctx, "camera expired", "deleted", 12)
//	// {"msg":"camera expired","deleted":12,"pass_id":"...","camera":"front"}
//
// When the context carries a recording OpenTelemetry span, trace_id and
// span_id are added as well.
package logging
