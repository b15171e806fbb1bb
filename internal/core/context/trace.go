package context

import "context"

// Trace carries request correlation identifiers.
type Trace struct {
	RequestID string
}

type traceKey struct{}

// WithTrace adds Trace to context.
func WithTrace(ctx context.Context, trace *Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, trace)
}

// GetTrace returns the Trace or nil.
func GetTrace(ctx context.Context) *Trace {
	if t, ok := ctx.Value(traceKey{}).(*Trace); ok {
		return t
	}
	return nil
}
