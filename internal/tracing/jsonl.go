package tracing

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// jsonlRecord is one line written by JSONLTracer: a span start, span end, or
// standalone event.
type jsonlRecord struct {
	Kind           string         `json:"kind"` // "span_start" | "span_end" | "event"
	Name           string         `json:"name"`
	Timestamp      time.Time      `json:"timestamp"`
	TraceID        string         `json:"trace_id"`
	ConversationID string         `json:"conversation_id"`
	UserID         string         `json:"user_id,omitempty"`
	Status         string         `json:"status,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

type jsonlSpan struct {
	name      string
	traceMeta TraceMetadata
}

// JSONLTracer appends one JSON object per line to a file, the way a local
// development or CI trace sink is expected to work when no OTLP collector is
// configured. It is internally synchronized and never returns an error to
// its caller — write failures are reported to the invariant alarm instead.
type JSONLTracer struct {
	mu    sync.Mutex
	file  *os.File
	alarm *Alarm
}

// NewJSONLTracer opens (creating if necessary) path for append and returns a
// JSONLTracer writing to it. The caller is responsible for calling Close.
func NewJSONLTracer(path string, alarm *Alarm) (*JSONLTracer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLTracer{file: f, alarm: alarm}, nil
}

// Close closes the underlying file.
func (t *JSONLTracer) Close() error {
	return t.file.Close()
}

func (t *JSONLTracer) IsEnabled() bool { return true }

func (t *JSONLTracer) StartSpan(name string, metadata map[string]any, traceMeta TraceMetadata) SpanHandle {
	guard(t.alarm, "jsonl_tracer_panic", func() {
		t.write(jsonlRecord{
			Kind:           "span_start",
			Name:           name,
			Timestamp:      time.Now(),
			TraceID:        traceMeta.TraceID,
			ConversationID: traceMeta.ConversationID,
			UserID:         traceMeta.UserID,
			Metadata:       sanitizeMetadata(metadata, t.alarm),
		})
	})
	return &jsonlSpan{name: name, traceMeta: traceMeta}
}

func (t *JSONLTracer) EndSpan(span SpanHandle, status string, metadata map[string]any) {
	s, ok := span.(*jsonlSpan)
	if !ok || s == nil {
		t.alarm.Record("invalid_span_handle", "EndSpan called with a handle not produced by JSONLTracer")
		return
	}
	guard(t.alarm, "jsonl_tracer_panic", func() {
		t.write(jsonlRecord{
			Kind:           "span_end",
			Name:           s.name,
			Timestamp:      time.Now(),
			TraceID:        s.traceMeta.TraceID,
			ConversationID: s.traceMeta.ConversationID,
			UserID:         s.traceMeta.UserID,
			Status:         status,
			Metadata:       sanitizeMetadata(metadata, t.alarm),
		})
	})
}

func (t *JSONLTracer) RecordEvent(name string, metadata map[string]any, traceMeta TraceMetadata) {
	guard(t.alarm, "jsonl_tracer_panic", func() {
		t.write(jsonlRecord{
			Kind:           "event",
			Name:           name,
			Timestamp:      time.Now(),
			TraceID:        traceMeta.TraceID,
			ConversationID: traceMeta.ConversationID,
			UserID:         traceMeta.UserID,
			Metadata:       sanitizeMetadata(metadata, t.alarm),
		})
	})
}

func (t *JSONLTracer) write(rec jsonlRecord) {
	line, err := json.Marshal(rec)
	if err != nil {
		t.alarm.Record("jsonl_marshal_failed", err.Error())
		return
	}
	line = append(line, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.file.Write(line); err != nil {
		t.alarm.Record("jsonl_write_failed", err.Error())
	}
}
