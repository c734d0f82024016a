package graphnodes

import (
	"testing"

	"github.com/haasonsaas/turnruntime/internal/turnstate"
)

func TestFormatUsesModelOutput(t *testing.T) {
	s := turnstate.State{ModelResponse: &turnstate.ModelResponse{Status: "success", Output: "  hi.  "}}
	d := Format(s)
	if *d.FinalOutput != "hi." {
		t.Fatalf("unexpected final output: %q", *d.FinalOutput)
	}
	if *d.FormattedResponse != "hi." {
		t.Fatalf("unexpected formatted response: %q", *d.FormattedResponse)
	}
}

func TestFormatFallsBackOnMissingModelResponse(t *testing.T) {
	d := Format(turnstate.State{})
	if *d.FinalOutput != degradedFallback {
		t.Fatalf("expected degraded fallback, got %q", *d.FinalOutput)
	}
}

func TestFormatFallsBackOnEmptyModelOutput(t *testing.T) {
	s := turnstate.State{ModelResponse: &turnstate.ModelResponse{Status: "error", Output: ""}}
	d := Format(s)
	if *d.FinalOutput != degradedFallback {
		t.Fatalf("expected degraded fallback, got %q", *d.FinalOutput)
	}
}
