package graphnodes

import (
	"context"

	"github.com/haasonsaas/turnruntime/internal/guardrail"
	"github.com/haasonsaas/turnruntime/internal/modelbackend"
	"github.com/haasonsaas/turnruntime/internal/promptbuilder"
	"github.com/haasonsaas/turnruntime/internal/tracing"
	"github.com/haasonsaas/turnruntime/internal/turnstate"
)

// ModelCall implements the model-call node: assembles a
// prompt via internal/promptbuilder and calls the model backend. It emits
// model_call_attempted/model_call_completed trace events and never lets a
// backend exception reach the orchestrator — a backend failure becomes a
// degraded ModelResponse so decision-logic can still route to format.
//
// Setting a fresh ModelResponse resets ToolCallHandled: the latch guards
// re-execution of the specific tool call attached to the *current*
// response, and a new response always carries an unhandled call (or none).
func ModelCall(ctx context.Context, backend modelbackend.Backend, tracer tracing.Tracer, policy guardrail.Policy, s turnstate.State) turnstate.Delta {
	userText := s.RawInput
	if s.PreprocessingResult != nil {
		userText = s.PreprocessingResult.Text
	}

	prompt := promptbuilder.Build(policy, userText, s.MemoryContext, s.ToolContext)

	traceMeta := tracing.TraceMetadata{TraceID: s.TraceID, ConversationID: s.ConversationID}
	span := tracer.StartSpan("model_call_node", nil, traceMeta)
	tracer.RecordEvent("model_call_attempted", map[string]any{"conversation_id": s.ConversationID}, traceMeta)

	resp := safeGenerate(backend, ctx, modelbackend.Request{
		Prompt:       prompt,
		SystemPrompt: promptbuilder.SystemContract,
	})

	status := string(resp.Status)
	tracer.RecordEvent("model_call_completed", map[string]any{"status": status}, traceMeta)
	tracer.EndSpan(span, status, nil)

	modelResponse := &turnstate.ModelResponse{
		Output: resp.Output,
		Status: status,
	}
	if resp.Metadata.ToolCall != nil {
		modelResponse.ToolCall = &turnstate.ToolCall{
			Name:      resp.Metadata.ToolCall.Name,
			Arguments: resp.Metadata.ToolCall.Arguments,
		}
	}

	return turnstate.Delta{
		ModelResponse:   modelResponse,
		ToolCallHandled: turnstate.BoolPtr(false),
	}
}

// safeGenerate recovers a panicking backend into a degraded response; the
// contract (modelbackend.Backend) already forbids panicking, but the node
// that calls across a foreign boundary is the correct place to enforce it
// defensively rather than trust every future implementation.
func safeGenerate(backend modelbackend.Backend, ctx context.Context, req modelbackend.Request) (resp modelbackend.Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = modelbackend.Response{
				Status:   modelbackend.StatusError,
				Metadata: modelbackend.Metadata{Error: "model backend panicked"},
			}
		}
	}()
	return backend.Generate(ctx, req)
}
