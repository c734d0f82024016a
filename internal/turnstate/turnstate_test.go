package turnstate

import (
	"testing"
	"time"
)

func TestNewSetsImmutableFields(t *testing.T) {
	now := time.Now()
	s := New("conv-1", "trace-1", "hello", InputText, "", now)

	if s.ConversationID != "conv-1" || s.TraceID != "trace-1" {
		t.Fatalf("expected caller-supplied ids to be carried verbatim, got %+v", s)
	}
	if !s.MemoryAvailable {
		t.Fatal("expected memory_available to start true")
	}
}

func TestApplyMergesOnlySetFields(t *testing.T) {
	s := New("c", "t", "hi", InputText, "", time.Now())
	s.RawInput = "hi"

	pre := &PreprocessingResult{Text: "hi", InputType: InputText}
	next := Apply(s, Delta{PreprocessingResult: pre})

	if next.PreprocessingResult != pre {
		t.Fatal("expected preprocessing_result to be set")
	}
	if next.RawInput != "hi" {
		t.Fatal("expected unrelated fields to be preserved")
	}
}

func TestMemoryAvailableNeverRevertsToTrue(t *testing.T) {
	s := New("c", "t", "hi", InputText, "", time.Now())
	s = Apply(s, Delta{MemoryAvailable: BoolPtr(false)})
	if s.MemoryAvailable {
		t.Fatal("expected memory_available to become false")
	}

	s = Apply(s, Delta{MemoryAvailable: BoolPtr(true)})
	if s.MemoryAvailable {
		t.Fatal("memory_available must never revert from false to true within a turn")
	}
}

func TestApplyClearsToolCallWithoutDroppingOutput(t *testing.T) {
	s := New("c", "t", "hi", InputText, "", time.Now())
	s.ModelResponse = &ModelResponse{Output: "working on it", ToolCall: &ToolCall{Name: "web_search"}}

	next := Apply(s, Delta{ClearToolCall: true})

	if next.ModelResponse == nil {
		t.Fatal("expected model_response to survive")
	}
	if next.ModelResponse.ToolCall != nil {
		t.Fatal("expected tool_call to be cleared")
	}
	if next.ModelResponse.Output != "working on it" {
		t.Fatal("expected output text to survive the tool_call clear")
	}
}

func TestApplyIncrementsNodeVisits(t *testing.T) {
	s := New("c", "t", "hi", InputText, "", time.Now())
	if s.NodeVisits != 0 {
		t.Fatalf("expected zero node visits at init, got %d", s.NodeVisits)
	}
	s = Apply(s, Delta{})
	s = Apply(s, Delta{})
	if s.NodeVisits != 2 {
		t.Fatalf("expected 2 node visits, got %d", s.NodeVisits)
	}
}
