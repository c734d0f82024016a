package graphnodes

import (
	"context"

	"github.com/haasonsaas/turnruntime/internal/guardrail"
	"github.com/haasonsaas/turnruntime/internal/toolbox"
	"github.com/haasonsaas/turnruntime/internal/tracing"
	"github.com/haasonsaas/turnruntime/internal/turnstate"
)

// ToolExecute implements the tool-execution node. It runs at
// most once per turn (enforced by decision-logic's ToolCallHandled latch,
// not by this node) and never touches the memory boundary or any
// memory-authorization field.
func ToolExecute(ctx context.Context, registry *toolbox.Registry, tracer tracing.Tracer, policy guardrail.Policy, s turnstate.State) turnstate.Delta {
	traceMeta := tracing.TraceMetadata{TraceID: s.TraceID, ConversationID: s.ConversationID}

	if s.ModelResponse == nil || s.ModelResponse.ToolCall == nil {
		return turnstate.Delta{ClearToolCall: true}
	}
	call := s.ModelResponse.ToolCall

	if !policy.CheckToolCallLimit(s.ToolCallCount) {
		return turnstate.Delta{
			ToolResults:   []turnstate.ToolResult{},
			ToolContext:   turnstate.StringPtr(""),
			ClearToolCall: true,
		}
	}

	tracer.RecordEvent("tool_call_detected", map[string]any{"tool": call.Name}, traceMeta)

	span := tracer.StartSpan("tool_execution_node", map[string]any{"tool": call.Name}, traceMeta)
	tracer.RecordEvent("tool_execution_started", map[string]any{"tool": call.Name}, traceMeta)

	result := registry.ExecuteByName(ctx, call.Name, call.Arguments)

	if result.Success {
		tracer.RecordEvent("tool_execution_completed", map[string]any{"tool": call.Name}, traceMeta)
		tracer.EndSpan(span, "success", nil)
	} else {
		tracer.RecordEvent("tool_execution_failed", map[string]any{"tool": call.Name, "error": result.Error}, traceMeta)
		tracer.EndSpan(span, "error", nil)
	}

	raw := toolResultsFromData(result)
	sanitized := policy.SanitizeResults(raw)
	toolContext := policy.FormatToolContext(sanitized)

	return turnstate.Delta{
		ToolCallCount: turnstate.IntPtr(s.ToolCallCount + 1),
		ToolResults:   sanitized,
		ToolContext:   turnstate.StringPtr(toolContext),
		ClearToolCall: true,
	}
}

// toolResultsFromData extracts a raw []turnstate.ToolResult from a
// ToolResult's data payload. The web-search tool (and any tool returning a
// list of {title,url,snippet}-shaped results) stores them under "results";
// a failed or single-value result yields an empty list rather than a
// fabricated entry — the guardrail sanitizes what's there, it doesn't
// invent content.
func toolResultsFromData(result toolbox.ToolResult) []turnstate.ToolResult {
	if !result.Success || result.Data == nil {
		return nil
	}
	raw, ok := result.Data["results"].([]any)
	if !ok {
		return nil
	}

	out := make([]turnstate.ToolResult, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, turnstate.ToolResult{
			Title:   stringField(entry, "title"),
			URL:     stringField(entry, "url"),
			Snippet: stringField(entry, "snippet"),
		})
	}
	return out
}

func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}
