package graphnodes

import (
	"testing"

	"github.com/haasonsaas/turnruntime/internal/config"
	"github.com/haasonsaas/turnruntime/internal/guardrail"
	"github.com/haasonsaas/turnruntime/internal/turnstate"
)

func testPolicy() guardrail.Policy {
	return guardrail.NewPolicy(config.GuardrailConfig{})
}

func TestDecideRoutesToPreprocessWhenMissing(t *testing.T) {
	s := turnstate.State{}
	d := Decide(s, testPolicy())
	if d.Command == nil || *d.Command != turnstate.CommandPreprocess {
		t.Fatalf("expected preprocess, got %+v", d.Command)
	}
}

func TestDecideRoutesToMemoryReadWhenRecallCuePresent(t *testing.T) {
	s := turnstate.State{
		PreprocessingResult: &turnstate.PreprocessingResult{Text: "what did I tell you earlier?"},
	}
	d := Decide(s, testPolicy())
	if d.Command == nil || *d.Command != turnstate.CommandMemoryRead {
		t.Fatalf("expected memory_read, got %+v", d.Command)
	}
	if d.MemoryReadAuthorized == nil || !*d.MemoryReadAuthorized {
		t.Fatal("expected memory_read_authorized to be set")
	}
}

func TestDecideSkipsMemoryReadWithoutRecallCue(t *testing.T) {
	s := turnstate.State{
		PreprocessingResult: &turnstate.PreprocessingResult{Text: "hello"},
	}
	d := Decide(s, testPolicy())
	if d.Command == nil || *d.Command != turnstate.CommandCallModel {
		t.Fatalf("expected call_model, got %+v", d.Command)
	}
}

func TestDecideDoesNotReenterMemoryReadOnceAuthorized(t *testing.T) {
	s := turnstate.State{
		PreprocessingResult:  &turnstate.PreprocessingResult{Text: "remember what I said"},
		MemoryReadAuthorized: true,
	}
	d := Decide(s, testPolicy())
	if d.Command == nil || *d.Command != turnstate.CommandCallModel {
		t.Fatalf("expected call_model (no re-entry), got %+v", d.Command)
	}
}

func TestDecideRoutesToExecuteToolWhenToolCallPresent(t *testing.T) {
	s := turnstate.State{
		PreprocessingResult: &turnstate.PreprocessingResult{Text: "latest AI news"},
		ModelResponse: &turnstate.ModelResponse{
			Status:   "success",
			ToolCall: &turnstate.ToolCall{Name: "web_search"},
		},
	}
	d := Decide(s, testPolicy())
	if d.Command == nil || *d.Command != turnstate.CommandExecuteTool {
		t.Fatalf("expected execute_tool, got %+v", d.Command)
	}
	if d.ToolCallHandled == nil || !*d.ToolCallHandled {
		t.Fatal("expected tool_call_handled to be set")
	}
}

func TestDecideSkipsToolWhenLimitReached(t *testing.T) {
	s := turnstate.State{
		PreprocessingResult: &turnstate.PreprocessingResult{Text: "latest AI news"},
		ModelResponse: &turnstate.ModelResponse{
			Status:   "success",
			ToolCall: &turnstate.ToolCall{Name: "web_search"},
		},
		ToolCallCount: 1,
	}
	d := Decide(s, testPolicy())
	if d.Command == nil || *d.Command != turnstate.CommandFormat {
		t.Fatalf("expected format once tool call limit reached, got %+v", d.Command)
	}
}

func TestDecideSkipsToolWhenAlreadyHandled(t *testing.T) {
	s := turnstate.State{
		PreprocessingResult: &turnstate.PreprocessingResult{Text: "latest AI news"},
		ModelResponse: &turnstate.ModelResponse{
			Status:   "success",
			ToolCall: &turnstate.ToolCall{Name: "web_search"},
		},
		ToolCallHandled: true,
	}
	d := Decide(s, testPolicy())
	if d.Command == nil || *d.Command != turnstate.CommandFormat {
		t.Fatalf("expected format, got %+v", d.Command)
	}
}

func TestDecideRoutesToMemoryWriteWhenPersistCuePresent(t *testing.T) {
	s := turnstate.State{
		PreprocessingResult: &turnstate.PreprocessingResult{Text: "remember that I like tea"},
		ModelResponse:       &turnstate.ModelResponse{Status: "success", Output: "Got it."},
	}
	d := Decide(s, testPolicy())
	if d.Command == nil || *d.Command != turnstate.CommandMemoryWrite {
		t.Fatalf("expected memory_write, got %+v", d.Command)
	}
	if d.MemoryWriteAuthorized == nil || !*d.MemoryWriteAuthorized {
		t.Fatal("expected memory_write_authorized to be set")
	}
}

func TestDecideFallsThroughToFormat(t *testing.T) {
	s := turnstate.State{
		PreprocessingResult: &turnstate.PreprocessingResult{Text: "hello"},
		ModelResponse:       &turnstate.ModelResponse{Status: "success", Output: "hi."},
	}
	d := Decide(s, testPolicy())
	if d.Command == nil || *d.Command != turnstate.CommandFormat {
		t.Fatalf("expected format, got %+v", d.Command)
	}
}

func TestDecideDoesNotReenterMemoryWriteOnceStatusSet(t *testing.T) {
	s := turnstate.State{
		PreprocessingResult: &turnstate.PreprocessingResult{Text: "remember that I like tea"},
		ModelResponse:       &turnstate.ModelResponse{Status: "success", Output: "Got it."},
		MemoryWriteStatus:   turnstate.MemoryWriteSuccess,
	}
	d := Decide(s, testPolicy())
	if d.Command == nil || *d.Command != turnstate.CommandFormat {
		t.Fatalf("expected format, got %+v", d.Command)
	}
}
