// Package ctxkeys defines the context keys the engine threads through a
// request: trace_id for TraceCollector correlation, session_id for
// ConversationStore correlation, and mode for carrying the retrieval mode
// across boundaries that don't otherwise receive it.
package ctxkeys

import "context"

// contextKey is the unexported type used for every key this package
// defines, so values set here never collide with keys from other packages.
type contextKey string

const (
	traceIDKey   contextKey = "trace_id"
	sessionIDKey contextKey = "session_id"
	modeKey      contextKey = "mode"
)

// WithTraceID attaches a trace ID to ctx.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID reads the trace ID from ctx, if any.
func TraceID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(traceIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithSessionID attaches a conversation session ID to ctx.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// SessionID reads the conversation session ID from ctx, if any.
func SessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// WithMode attaches the retrieval mode to ctx.
func WithMode(ctx context.Context, mode string) context.Context {
	return context.WithValue(ctx, modeKey, mode)
}

// Mode reads the retrieval mode from ctx, if any.
func Mode(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(modeKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
