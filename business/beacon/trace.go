package beacon

import "context"

type ctxKey string

const TraceIDKey ctxKey = "trace_id"

// WithTraceID tags ctx with the request id so pipeline logs can be correlated.
func WithTraceID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, TraceIDKey, id)
}

func TraceIDFromContext(ctx context.Context) string {
	if v := ctx.Value(TraceIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
