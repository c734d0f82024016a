package tracing

// NoopTracer discards every call. It is the default tracer when no backend
// is configured.
type NoopTracer struct{}

// NewNoopTracer builds a NoopTracer.
func NewNoopTracer() *NoopTracer { return &NoopTracer{} }

func (*NoopTracer) StartSpan(string, map[string]any, TraceMetadata) SpanHandle { return nil }
func (*NoopTracer) EndSpan(SpanHandle, string, map[string]any)                 {}
func (*NoopTracer) RecordEvent(string, map[string]any, TraceMetadata)          {}
func (*NoopTracer) IsEnabled() bool                                           { return false }
