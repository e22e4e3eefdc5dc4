package shared

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// ContextKey namespaces values stored in the request context.
type ContextKey string

const (
	// SessionIDContextKey holds the authenticated session ID.
	SessionIDContextKey ContextKey = "sessionID"

	// TraceIDKey holds the trace ID reported in logs and error responses.
	TraceIDKey ContextKey = "traceID"
)

// SetTraceID stores the request's trace ID in ctx. When ctx carries a valid
// span the span's trace ID is used, so responses and logs line up with the
// exported spans. Otherwise a random 32-character hex ID is generated.
func SetTraceID(ctx context.Context) context.Context {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return context.WithValue(ctx, TraceIDKey, sc.TraceID().String())
	}
	return context.WithValue(ctx, TraceIDKey, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// GetTraceID returns the trace ID stored in ctx, or "" when there is none.
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(TraceIDKey).(string)
	return traceID
}
