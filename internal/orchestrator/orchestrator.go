// Package orchestrator compiles the graph-node functions in
// internal/graphnodes into a directed graph with a single entry
// (state-init), a single terminal (format-response), and decision-logic as
// the one node with conditional edges. It owns the only loop that
// re-enters decision-logic and the only place a node-visit budget is
// enforced.
package orchestrator

import (
	"context"
	"time"

	"github.com/haasonsaas/turnruntime/internal/config"
	"github.com/haasonsaas/turnruntime/internal/graphnodes"
	"github.com/haasonsaas/turnruntime/internal/guardrail"
	"github.com/haasonsaas/turnruntime/internal/memory"
	"github.com/haasonsaas/turnruntime/internal/modelbackend"
	"github.com/haasonsaas/turnruntime/internal/toolbox"
	"github.com/haasonsaas/turnruntime/internal/tracing"
	"github.com/haasonsaas/turnruntime/internal/turnstate"
)

// Status is the outcome reported to the orchestrator's caller.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the orchestrator entry's return value.
type Result struct {
	Output         string
	Status         Status
	ConversationID string
	TraceID        string
}

// Orchestrator wires the graph-node functions to the boundaries they're
// each permitted to call, plus the node-visit budget that guarantees
// termination.
type Orchestrator struct {
	memoryBackend memory.Backend
	modelBackend  modelbackend.Backend
	registry      *toolbox.Registry
	tracer        tracing.Tracer
	policy        guardrail.Policy
	maxNodeVisits int
	now           func() time.Time
}

// Dependencies collects everything Invoke needs beyond the per-turn input.
type Dependencies struct {
	MemoryBackend memory.Backend
	ModelBackend  modelbackend.Backend
	Registry      *toolbox.Registry
	Tracer        tracing.Tracer
}

// New builds an Orchestrator. Tracer defaults to a no-op when nil;
// Registry defaults to an empty registry.
func New(cfg config.GuardrailConfig, deps Dependencies) *Orchestrator {
	tracer := deps.Tracer
	if tracer == nil {
		tracer = tracing.NewNoopTracer()
	}
	registry := deps.Registry
	if registry == nil {
		registry = toolbox.NewRegistry()
	}

	policy := guardrail.NewPolicy(cfg)
	maxVisits := cfg.MaxNodeVisitsPerTurn
	if maxVisits <= 0 {
		maxVisits = 25
	}

	return &Orchestrator{
		memoryBackend: deps.MemoryBackend,
		modelBackend:  deps.ModelBackend,
		registry:      registry,
		tracer:        tracer,
		policy:        policy,
		maxNodeVisits: maxVisits,
		now:           time.Now,
	}
}

// Invoke runs one turn to completion. conversationID and traceID are
// honored verbatim; generating them for a caller that omits them is the
// responsibility of whatever transport shim sits in front of this package,
// not of Invoke itself.
func (o *Orchestrator) Invoke(ctx context.Context, rawInput, conversationID, traceID string) Result {
	s := turnstate.New(conversationID, traceID, rawInput, turnstate.InputText, "", o.now())

	for {
		decision := graphnodes.Decide(s, o.policy)
		s = turnstate.Apply(s, decision)

		if s.NodeVisits > o.maxNodeVisits {
			s = o.forceFormat(s)
			return o.finish(s, true)
		}

		switch s.Command {
		case turnstate.CommandPreprocess:
			s = turnstate.Apply(s, graphnodes.Preprocess(s))
		case turnstate.CommandMemoryRead:
			s = turnstate.Apply(s, graphnodes.MemoryRead(ctx, o.memoryBackend, s))
		case turnstate.CommandCallModel:
			s = turnstate.Apply(s, graphnodes.ModelCall(ctx, o.modelBackend, o.tracer, o.policy, s))
		case turnstate.CommandExecuteTool:
			s = turnstate.Apply(s, graphnodes.ToolExecute(ctx, o.registry, o.tracer, o.policy, s))
		case turnstate.CommandMemoryWrite:
			s = turnstate.Apply(s, graphnodes.MemoryWrite(ctx, o.memoryBackend, s))
		case turnstate.CommandFormat:
			s = turnstate.Apply(s, graphnodes.Format(s))
			return o.finish(s, false)
		default:
			s = o.forceFormat(s)
			return o.finish(s, true)
		}

		if s.NodeVisits > o.maxNodeVisits {
			s = o.forceFormat(s)
			return o.finish(s, true)
		}
	}
}

// forceFormat runs the format node directly and marks the turn degraded,
// the node-visit-budget-exhaustion path.
func (o *Orchestrator) forceFormat(s turnstate.State) turnstate.State {
	s = turnstate.Apply(s, graphnodes.Format(s))
	return turnstate.Apply(s, turnstate.Delta{Degraded: turnstate.BoolPtr(true)})
}

func (o *Orchestrator) finish(s turnstate.State, degraded bool) Result {
	status := StatusSuccess
	if degraded && s.FinalOutput == "" {
		status = StatusError
	}
	return Result{
		Output:         s.FinalOutput,
		Status:         status,
		ConversationID: s.ConversationID,
		TraceID:        s.TraceID,
	}
}
