package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Context keys for common log fields.
type contextKey string

const (
	// PassIDKey is the context key for the expiration pass id.
	PassIDKey contextKey = "pass_id"

	// CameraKey is the context key for the camera being processed.
	CameraKey contextKey = "camera"
)

// WithPassID adds an expiration pass id to the context.
func WithPassID(ctx context.Context, passID string) context.Context {
	return context.WithValue(ctx, PassIDKey, passID)
}

// GetPassID retrieves the pass id from the context.
func GetPassID(ctx context.Context) string {
	if id, ok := ctx.Value(PassIDKey).(string); ok {
		return id
	}
	return ""
}

// WithCamera adds a camera name to the context.
func WithCamera(ctx context.Context, camera string) context.Context {
	return context.WithValue(ctx, CameraKey, camera)
}

// GetCamera retrieves the camera name from the context.
func GetCamera(ctx context.Context) string {
	if camera, ok := ctx.Value(CameraKey).(string); ok {
		return camera
	}
	return ""
}

// extractContextFields returns the log fields carried by ctx, including the
// trace and span ids of any recording span.
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if id := GetPassID(ctx); id != "" {
		fields = append(fields, string(PassIDKey), id)
	}
	if camera := GetCamera(ctx); camera != "" {
		fields = append(fields, string(CameraKey), camera)
	}

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		fields = append(fields,
			"trace_id", sc.TraceID().String(),
			"span_id", sc.SpanID().String(),
		)
	}

	return fields
}
