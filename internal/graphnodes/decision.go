// Package graphnodes holds the orchestration graph's node functions: pure
// functions from a turnstate.State to a turnstate.Delta (plus the I/O a node
// is explicitly permitted, such as a memory or model backend call). The
// orchestrator is the only caller; nodes never see the merged state, only
// the Delta they return.
package graphnodes

import (
	"strings"

	"github.com/haasonsaas/turnruntime/internal/guardrail"
	"github.com/haasonsaas/turnruntime/internal/turnstate"
)

// recallCues are phrases whose presence in the user's text suggests the
// turn wants recall of prior conversational context. Kept intentionally
// small and literal rather than model-driven: decision-logic must stay a
// pure, deterministic function of state.
var recallCues = []string{
	"remember", "recall", "earlier", "last time", "previously",
	"what did i", "what's my", "what is my", "you told me", "we talked about",
}

// persistCues are phrases whose presence suggests the user is stating a
// fact worth carrying into future turns.
var persistCues = []string{
	"remember that", "remember this", "my name is", "call me",
	"i live in", "i prefer", "i like", "i am a", "i'm a", "note that",
}

// Decide implements the decision-logic node's six-step routing algorithm.
// It never reads memory contents and never performs I/O;
// it routes only on presence/absence of fields and a literal-cue scan over
// the preprocessed input text. policy supplies the tool-call limit; it is
// config, not state, so passing it keeps Decide a pure function.
func Decide(s turnstate.State, policy guardrail.Policy) turnstate.Delta {
	if s.PreprocessingResult == nil {
		return turnstate.Delta{Command: turnstate.CommandPtr(turnstate.CommandPreprocess)}
	}

	if s.MemoryReadResult == nil && !s.MemoryReadAuthorized && recallWarranted(s.PreprocessingResult.Text) {
		return turnstate.Delta{
			Command:              turnstate.CommandPtr(turnstate.CommandMemoryRead),
			MemoryReadAuthorized: turnstate.BoolPtr(true),
		}
	}

	if s.ModelResponse == nil {
		return turnstate.Delta{Command: turnstate.CommandPtr(turnstate.CommandCallModel)}
	}

	if s.ModelResponse.ToolCall != nil && policy.CheckToolCallLimit(s.ToolCallCount) && !s.ToolCallHandled {
		return turnstate.Delta{
			Command:         turnstate.CommandPtr(turnstate.CommandExecuteTool),
			ToolCallHandled: turnstate.BoolPtr(true),
		}
	}

	if s.MemoryWriteStatus == turnstate.MemoryWriteUnset && !s.MemoryWriteAuthorized && factWorthPersisting(s) {
		return turnstate.Delta{
			Command:               turnstate.CommandPtr(turnstate.CommandMemoryWrite),
			MemoryWriteAuthorized: turnstate.BoolPtr(true),
		}
	}

	return turnstate.Delta{Command: turnstate.CommandPtr(turnstate.CommandFormat)}
}

func recallWarranted(text string) bool {
	lower := strings.ToLower(text)
	for _, cue := range recallCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// factWorthPersisting reports whether the turn produced output worth
// carrying into future turns: the model call succeeded and the user's
// input carries a persistence cue.
func factWorthPersisting(s turnstate.State) bool {
	if s.ModelResponse == nil || s.ModelResponse.Status != "success" {
		return false
	}
	text := strings.ToLower(s.RawInput)
	if s.PreprocessingResult != nil {
		text = strings.ToLower(s.PreprocessingResult.Text)
	}
	for _, cue := range persistCues {
		if strings.Contains(text, cue) {
			return true
		}
	}
	return false
}
