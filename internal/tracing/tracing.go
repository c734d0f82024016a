// Package tracing defines the turn runtime's tracer contract: fail-silent
// spans and events that never influence control flow and never generate the
// identifiers they carry. Every call into a Tracer implementation is wrapped
// by this package in a panic-recovering guard, and every metadata map passed
// to a backend is filtered through a deny-list before it can reach a span.
package tracing

import (
	"context"

	"github.com/haasonsaas/turnruntime/internal/observability"
)

// TraceMetadata is the immutable carrier of caller-supplied identifiers.
// The tracer never synthesizes any of these fields.
type TraceMetadata struct {
	TraceID        string
	ConversationID string
	UserID         string
}

// SpanHandle is an opaque handle returned by StartSpan and passed back to
// EndSpan. Callers must not inspect its contents.
type SpanHandle any

// Tracer is the fail-silent tracing contract. Every method must be safe to
// call even when tracing is disabled or the backend is unreachable; no
// method may panic or propagate an error to the caller.
type Tracer interface {
	StartSpan(name string, metadata map[string]any, traceMeta TraceMetadata) SpanHandle
	EndSpan(span SpanHandle, status string, metadata map[string]any)
	RecordEvent(name string, metadata map[string]any, traceMeta TraceMetadata)
	IsEnabled() bool
}

// DenyListedKeys are metadata keys a backend must never receive — raw
// prompts, full model outputs, memory contents, and credentials. The core
// only ever passes structural fields (counts, statuses, node names,
// durations); this list exists to catch a caller mistake before it reaches
// an exported span.
var DenyListedKeys = map[string]bool{
	"prompt":         true,
	"system_prompt":  true,
	"raw_input":      true,
	"output":         true,
	"final_output":   true,
	"memory_context": true,
	"tool_context":   true,
	"memory_value":   true,
	"api_key":        true,
	"credentials":    true,
	"password":       true,
	"token":          true,
	"secret":         true,
}

// Alarm records non-blocking contract-violation events: an attempted
// identifier generation, a denied metadata key, or a panic recovered from a
// backend call. Recording an alarm never itself throws.
type Alarm struct {
	metrics *observability.Metrics
	logger  *observability.Logger
}

// NewAlarm builds an Alarm. Either argument may be nil; a nil metrics/logger
// degrades recording to a no-op for that sink rather than panicking.
func NewAlarm(metrics *observability.Metrics, logger *observability.Logger) *Alarm {
	return &Alarm{metrics: metrics, logger: logger}
}

// Record increments the invariant-alarm counter for kind and logs it. Never
// returns an error and never panics.
func (a *Alarm) Record(kind string, detail string) {
	if a == nil {
		return
	}
	defer func() { _ = recover() }()
	if a.metrics != nil {
		a.metrics.InvariantAlarms.WithLabelValues(kind).Inc()
	}
	if a.logger != nil {
		a.logger.Warn(context.Background(), "tracer invariant alarm", "kind", kind, "detail", detail)
	}
}

// sanitizeMetadata drops deny-listed keys from metadata, reporting each
// dropped key to alarm. Returns a new map; the input is never mutated.
func sanitizeMetadata(metadata map[string]any, alarm *Alarm) map[string]any {
	if len(metadata) == 0 {
		return metadata
	}
	clean := make(map[string]any, len(metadata))
	for k, v := range metadata {
		if DenyListedKeys[k] {
			alarm.Record("denied_metadata_key", k)
			continue
		}
		clean[k] = v
	}
	return clean
}

// guard invokes fn, recovering any panic and reporting it to alarm instead
// of letting it propagate. This is the exception-swallowing guard every
// tracer call site wraps itself in.
func guard(alarm *Alarm, kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			alarm.Record(kind, "recovered panic in tracer backend")
		}
	}()
	fn()
}
