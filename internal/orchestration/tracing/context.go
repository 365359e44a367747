package tracing

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const traceIDKey contextKey = "trace_id"

// TraceIDFromContext returns the trace ID a transport attached to ctx, or
// the ID of the active span, or "".
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(traceIDKey).(string); ok && v != "" {
		return v
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// ContextWithTraceID returns a new context with the trace ID set.
// If traceID is empty, the original context is returned unchanged.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GenerateTraceID creates a random W3C trace-id (32 hex chars).
func GenerateTraceID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// StampCommand copies the trace ID from ctx onto cmd so the inbound request
// and the saga it starts share one id in logs. Commands that cannot carry a
// trace ID are left alone.
func StampCommand(ctx context.Context, cmd any) {
	traceID := TraceIDFromContext(ctx)
	if traceID == "" {
		return
	}
	if setter, ok := cmd.(interface{ SetTraceID(string) }); ok {
		setter.SetTraceID(traceID)
	}
}
