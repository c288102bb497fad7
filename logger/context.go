package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type sessionKey struct{}

// ContextWithSession attaches a playback session ID to ctx.
func ContextWithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFromContext returns the session ID attached to ctx, if any.
func SessionFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// WithContext adds the session ID and the active span's trace and span IDs
// found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	fields := make(map[string]interface{}, 3)
	if id := SessionFromContext(ctx); id != "" {
		fields[FieldSessionID] = id
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields[FieldTraceID] = sc.TraceID().String()
		fields[FieldSpanID] = sc.SpanID().String()
	}
	if len(fields) == 0 {
		return l
	}
	return l.WithFields(fields)
}
