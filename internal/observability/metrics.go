package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides a centralized interface for collecting turn-runtime metrics.
//
// The metrics system is built on Prometheus and tracks:
//   - Graph node visits per turn
//   - Model backend request performance and outcomes
//   - Tool execution counts and latencies
//   - Memory boundary read/write outcomes
//   - Invariant-alarm events raised by the tracer (contract violations)
//
// Usage:
//
//	metrics := observability.NewMetrics()
//	metrics.RecordNodeVisit("call_model")
//	defer metrics.RecordModelRequest("anthropic", "success", time.Since(start).Seconds())
type Metrics struct {
	// NodeVisits counts graph node visits by node name.
	NodeVisits *prometheus.CounterVec

	// TurnsCompleted counts completed turns by termination reason
	// (format|budget_exhausted).
	TurnsCompleted *prometheus.CounterVec

	// ModelRequestDuration measures model backend call latency in seconds.
	// Labels: provider, status (success|error)
	ModelRequestDuration *prometheus.HistogramVec

	// ModelRequestCounter counts model backend calls by provider and status.
	ModelRequestCounter *prometheus.CounterVec

	// ToolExecutionCounter counts tool invocations by tool name and outcome.
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution time in seconds.
	ToolExecutionDuration *prometheus.HistogramVec

	// MemoryOperationCounter counts memory boundary operations by
	// operation (read|write) and status.
	MemoryOperationCounter *prometheus.CounterVec

	// InvariantAlarms counts contract-violation events raised by the
	// tracer (e.g. an attempted id generation, a denied metadata key).
	InvariantAlarms *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics. Call once at
// startup; the returned *Metrics is safe for concurrent use across turns.
func NewMetrics() *Metrics {
	return &Metrics{
		NodeVisits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnruntime_node_visits_total",
				Help: "Total number of graph node visits by node name",
			},
			[]string{"node"},
		),
		TurnsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnruntime_turns_completed_total",
				Help: "Total number of completed turns by termination reason",
			},
			[]string{"reason"},
		),
		ModelRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "turnruntime_model_request_duration_seconds",
				Help:    "Duration of model backend requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "status"},
		),
		ModelRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnruntime_model_requests_total",
				Help: "Total number of model backend requests by provider and status",
			},
			[]string{"provider", "status"},
		),
		ToolExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnruntime_tool_executions_total",
				Help: "Total number of tool executions by tool name and outcome",
			},
			[]string{"tool_name", "outcome"},
		),
		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "turnruntime_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"tool_name"},
		),
		MemoryOperationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnruntime_memory_operations_total",
				Help: "Total number of memory boundary operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		InvariantAlarms: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnruntime_invariant_alarms_total",
				Help: "Total number of tracer contract-violation events by kind",
			},
			[]string{"kind"},
		),
	}
}

// RecordNodeVisit increments the node-visit counter for the given node.
func (m *Metrics) RecordNodeVisit(node string) {
	m.NodeVisits.WithLabelValues(node).Inc()
}

// RecordTurnCompleted increments the turn-completion counter for the given
// termination reason.
func (m *Metrics) RecordTurnCompleted(reason string) {
	m.TurnsCompleted.WithLabelValues(reason).Inc()
}

// RecordModelRequest records metrics for a model backend call.
func (m *Metrics) RecordModelRequest(provider, status string, durationSeconds float64) {
	m.ModelRequestCounter.WithLabelValues(provider, status).Inc()
	m.ModelRequestDuration.WithLabelValues(provider, status).Observe(durationSeconds)
}

// RecordToolExecution records metrics for a tool execution.
func (m *Metrics) RecordToolExecution(toolName, outcome string, durationSeconds float64) {
	m.ToolExecutionCounter.WithLabelValues(toolName, outcome).Inc()
	m.ToolExecutionDuration.WithLabelValues(toolName).Observe(durationSeconds)
}

// RecordMemoryOperation records a memory boundary read or write outcome.
func (m *Metrics) RecordMemoryOperation(operation, status string) {
	m.MemoryOperationCounter.WithLabelValues(operation, status).Inc()
}

// RecordInvariantAlarm increments the invariant-alarm counter for the given
// violation kind. The recording path itself never panics or returns an
// error: invariant alarms are a fail-silent subsystem.
func (m *Metrics) RecordInvariantAlarm(kind string) {
	m.InvariantAlarms.WithLabelValues(kind).Inc()
}
