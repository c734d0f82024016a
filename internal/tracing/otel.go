package tracing

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/haasonsaas/turnruntime/internal/observability"
)

type otelSpan struct {
	span oteltrace.Span
}

// OTelTracer adapts observability.Tracer, an OpenTelemetry wrapper, to the
// Tracer contract: every call is deny-list filtered and panic-guarded
// before it reaches the OTel SDK.
type OTelTracer struct {
	tracer *observability.Tracer
	alarm  *Alarm
}

// NewOTelTracer wraps an already-constructed observability.Tracer.
func NewOTelTracer(tracer *observability.Tracer, alarm *Alarm) *OTelTracer {
	return &OTelTracer{tracer: tracer, alarm: alarm}
}

func (t *OTelTracer) IsEnabled() bool { return true }

func (t *OTelTracer) StartSpan(name string, metadata map[string]any, traceMeta TraceMetadata) SpanHandle {
	var handle SpanHandle
	guard(t.alarm, "otel_tracer_panic", func() {
		clean := sanitizeMetadata(metadata, t.alarm)
		_, span := t.tracer.TraceNode(context.Background(), name, traceMeta.TraceID, traceMeta.ConversationID)
		if traceMeta.UserID != "" {
			t.tracer.SetAttributes(span, "user_id", traceMeta.UserID)
		}
		t.tracer.SetAttributes(span, flattenMetadata(clean)...)
		handle = &otelSpan{span: span}
	})
	return handle
}

func (t *OTelTracer) EndSpan(span SpanHandle, status string, metadata map[string]any) {
	s, ok := span.(*otelSpan)
	if !ok || s == nil {
		t.alarm.Record("invalid_span_handle", "EndSpan called with a handle not produced by OTelTracer")
		return
	}
	guard(t.alarm, "otel_tracer_panic", func() {
		clean := sanitizeMetadata(metadata, t.alarm)
		t.tracer.SetAttributes(s.span, flattenMetadata(clean)...)
		if status == "error" {
			s.span.SetStatus(codes.Error, "turn completed with error status")
		}
		s.span.End()
	})
}

func (t *OTelTracer) RecordEvent(name string, metadata map[string]any, traceMeta TraceMetadata) {
	guard(t.alarm, "otel_tracer_panic", func() {
		clean := sanitizeMetadata(metadata, t.alarm)
		// RecordEvent carries no context.Context from its caller, so it
		// cannot attach to an ambient span; it records its own short-lived
		// span via TraceNode, the same helper StartSpan uses, so trace_id
		// and conversation_id land on the event regardless.
		_, span := t.tracer.TraceNode(context.Background(), name, traceMeta.TraceID, traceMeta.ConversationID)
		defer span.End()
		if traceMeta.UserID != "" {
			t.tracer.SetAttributes(span, "user_id", traceMeta.UserID)
		}
		t.tracer.AddEvent(span, name, flattenMetadata(clean)...)
	})
}

func flattenMetadata(m map[string]any) []any {
	kv := make([]any, 0, len(m)*2)
	for k, v := range m {
		kv = append(kv, k, v)
	}
	return kv
}
