// Package turnstate defines the single record that flows through the
// orchestration graph for one turn. Nodes are pure functions from a State to
// a Delta; the orchestrator owns merging deltas back into the state between
// node visits. No node ever mutates a State value in place.
package turnstate

import "time"

// InputType enumerates the kinds of raw input a turn can carry.
type InputType string

const (
	InputText  InputType = "text"
	InputAudio InputType = "audio"
	InputImage InputType = "image"
)

// MemoryWriteStatus mirrors internal/memory.WriteStatus plus the turn-local
// "unset" zero value, held until memory-write runs.
type MemoryWriteStatus string

const (
	MemoryWriteUnset        MemoryWriteStatus = ""
	MemoryWriteSuccess      MemoryWriteStatus = "success"
	MemoryWriteFailed       MemoryWriteStatus = "failed"
	MemoryWriteUnauthorized MemoryWriteStatus = "unauthorized"
)

// Command is the closed set of values decision-logic may return.
type Command string

const (
	CommandPreprocess  Command = "preprocess"
	CommandMemoryRead  Command = "memory_read"
	CommandCallModel   Command = "call_model"
	CommandExecuteTool Command = "execute_tool"
	CommandMemoryWrite Command = "memory_write"
	CommandFormat      Command = "format"
	CommandEnd         Command = "end"
)

// ToolCall is the structured directive a model emits to invoke a tool.
type ToolCall struct {
	Name      string
	Arguments map[string]any
}

// ModelResponse records the outcome of a model-call node invocation.
type ModelResponse struct {
	Output   string
	ToolCall *ToolCall
	Status   string // "success" | "error"
}

// ToolResult is the sanitized, bounded shape of a single tool result, ready
// for inclusion in tool_context. Raw tool output never reaches the state
// record directly — it is sanitized by internal/guardrail first.
type ToolResult struct {
	Title   string
	URL     string
	Snippet string
}

// PreprocessingResult is the normalized-input record produced by the
// task-preprocessing node.
type PreprocessingResult struct {
	Text      string
	InputType InputType
	MediaURL  string
}

// State is the turn's single carrier record. Every node reads a State and
// returns a Delta (see Apply); no node holds a *State it can mutate.
type State struct {
	ConversationID string
	TraceID        string
	CreatedAt      time.Time

	RawInput  string
	InputType InputType
	MediaURL  string

	PreprocessingResult *PreprocessingResult

	MemoryReadAuthorized  bool
	MemoryWriteAuthorized bool
	MemoryReadResult      map[string]string
	MemoryAvailable       bool
	MemoryWriteStatus     MemoryWriteStatus

	ModelResponse  *ModelResponse
	ToolCallCount  int
	ToolResults    []ToolResult
	ToolContext    string
	MemoryContext  string

	// ToolCallHandled marks that tool-execution has already run for the
	// tool-call currently attached to ModelResponse, so decision-logic does
	// not re-enter execute_tool for the same call.
	ToolCallHandled bool

	Command Command

	FinalOutput       string
	FormattedResponse string

	// Degraded marks a turn that terminated via the node-visit budget
	// exhaustion path rather than a natural format command.
	Degraded bool

	// NodeVisits counts total node executions this turn, enforced by the
	// orchestrator against MaxNodeVisitsPerTurn.
	NodeVisits int
}

// New creates the initial State for a turn. conversationID and traceID must
// already be resolved by the caller — the core never generates them.
func New(conversationID, traceID, rawInput string, inputType InputType, mediaURL string, createdAt time.Time) State {
	return State{
		ConversationID: conversationID,
		TraceID:        traceID,
		CreatedAt:      createdAt,
		RawInput:       rawInput,
		InputType:      inputType,
		MediaURL:       mediaURL,
		MemoryAvailable: true,
	}
}

// Delta is a partial State update returned by a node. Only non-nil/non-zero
// fields that a node is responsible for should be set; Apply merges them
// field by field rather than replacing the whole record.
type Delta struct {
	PreprocessingResult *PreprocessingResult

	MemoryReadAuthorized  *bool
	MemoryWriteAuthorized *bool
	MemoryReadResult      map[string]string
	MemoryAvailable       *bool
	MemoryWriteStatus     *MemoryWriteStatus

	ModelResponse *ModelResponse
	ClearToolCall bool

	ToolCallCount   *int
	ToolResults     []ToolResult
	ToolContext     *string
	MemoryContext   *string
	ToolCallHandled *bool

	Command *Command

	FinalOutput       *string
	FormattedResponse *string

	Degraded *bool
}

// Apply merges a Delta into a copy of State and returns the result. The
// orchestrator is the only caller; nodes never see the merged result, only
// the Delta they produced.
func Apply(s State, d Delta) State {
	next := s

	if d.PreprocessingResult != nil {
		next.PreprocessingResult = d.PreprocessingResult
	}
	if d.MemoryReadAuthorized != nil {
		next.MemoryReadAuthorized = *d.MemoryReadAuthorized
	}
	if d.MemoryWriteAuthorized != nil {
		next.MemoryWriteAuthorized = *d.MemoryWriteAuthorized
	}
	if d.MemoryReadResult != nil {
		next.MemoryReadResult = d.MemoryReadResult
	}
	if d.MemoryAvailable != nil {
		// memory_available never reverts from false to true within a turn.
		next.MemoryAvailable = next.MemoryAvailable && *d.MemoryAvailable
	}
	if d.MemoryWriteStatus != nil {
		next.MemoryWriteStatus = *d.MemoryWriteStatus
	}
	if d.ModelResponse != nil {
		next.ModelResponse = d.ModelResponse
	}
	if d.ClearToolCall && next.ModelResponse != nil {
		cleared := *next.ModelResponse
		cleared.ToolCall = nil
		next.ModelResponse = &cleared
	}
	if d.ToolCallCount != nil {
		next.ToolCallCount = *d.ToolCallCount
	}
	if d.ToolResults != nil {
		next.ToolResults = d.ToolResults
	}
	if d.ToolContext != nil {
		next.ToolContext = *d.ToolContext
	}
	if d.MemoryContext != nil {
		next.MemoryContext = *d.MemoryContext
	}
	if d.ToolCallHandled != nil {
		next.ToolCallHandled = *d.ToolCallHandled
	}
	if d.Command != nil {
		next.Command = *d.Command
	}
	if d.FinalOutput != nil {
		next.FinalOutput = *d.FinalOutput
	}
	if d.FormattedResponse != nil {
		next.FormattedResponse = *d.FormattedResponse
	}
	if d.Degraded != nil {
		next.Degraded = *d.Degraded
	}

	next.NodeVisits++
	return next
}

func BoolPtr(b bool) *bool                           { return &b }
func StringPtr(s string) *string                     { return &s }
func IntPtr(i int) *int                              { return &i }
func CommandPtr(c Command) *Command                  { return &c }
func WriteStatusPtr(s MemoryWriteStatus) *MemoryWriteStatus { return &s }
