package ctxutil

import "context"

type traceDataKey struct{}

// TraceData identifies the request a unit of work belongs to.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	if td == nil {
		return ctx
	}
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// LogFields returns trace_id/request_id key-value pairs for structured logs,
// or nil when ctx carries no trace data.
func LogFields(ctx context.Context) []interface{} {
	td := GetTraceData(ctx)
	if td == nil {
		return nil
	}
	var kv []interface{}
	if td.TraceID != "" {
		kv = append(kv, "trace_id", td.TraceID)
	}
	if td.RequestID != "" {
		kv = append(kv, "request_id", td.RequestID)
	}
	return kv
}
