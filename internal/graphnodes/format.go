package graphnodes

import (
	"strings"

	"github.com/haasonsaas/turnruntime/internal/turnstate"
)

// degradedFallback is the fixed response the format node emits when the
// model never produced any usable output at all.
const degradedFallback = "I couldn't complete that just now. Please try again."

// Format implements the format-response node: a pure function that turns
// whatever ModelResponse the turn accumulated into FinalOutput and
// FormattedResponse. It never fails — a missing or errored model response
// yields degradedFallback rather than an empty string.
func Format(s turnstate.State) turnstate.Delta {
	output := degradedFallback
	if s.ModelResponse != nil {
		trimmed := strings.TrimSpace(s.ModelResponse.Output)
		if trimmed != "" {
			output = trimmed
		}
	}

	return turnstate.Delta{
		FinalOutput:       turnstate.StringPtr(output),
		FormattedResponse: turnstate.StringPtr(output),
	}
}
