package graphnodes

import (
	"strings"

	"github.com/haasonsaas/turnruntime/internal/turnstate"
)

// Preprocess implements the task-preprocessing node: trims
// whitespace, records input_type, and carries any media reference through
// unchanged. Deterministic; never fails.
func Preprocess(s turnstate.State) turnstate.Delta {
	result := &turnstate.PreprocessingResult{
		Text:      strings.TrimSpace(s.RawInput),
		InputType: s.InputType,
		MediaURL:  s.MediaURL,
	}
	return turnstate.Delta{PreprocessingResult: result}
}
