package graphnodes

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/haasonsaas/turnruntime/internal/memory"
	"github.com/haasonsaas/turnruntime/internal/turnstate"
)

// memoryContextKey is the single key this runtime stores per-conversation
// context under. A richer keyspace would live behind the long-term-memory
// interface, which this node does not reach into.
const memoryContextKey = "conversation_context"

// MemoryRead implements the memory-read node. It runs only when
// MemoryReadAuthorized, and never lets a panic or error from the boundary
// escape: both surface as memory_available=false.
//
// The boundary stores a single opaque string per (conversation_id, key);
// this node is the bridge between that shape and turnstate.State's
// map[string]string, round-tripping through JSON so the write path's value
// stays serializable on both sides.
func MemoryRead(ctx context.Context, backend memory.Backend, s turnstate.State) (d turnstate.Delta) {
	if !s.MemoryReadAuthorized {
		return turnstate.Delta{}
	}
	defer func() {
		if recover() != nil {
			d = turnstate.Delta{MemoryAvailable: turnstate.BoolPtr(false)}
		}
	}()

	result := backend.Read(ctx, s.ConversationID, memoryContextKey, true)
	switch result.Status {
	case memory.ReadSuccess:
		data, ok := decodeMemoryValue(result.Value)
		if !ok {
			// Stored value isn't decodable context; treat as no result but
			// memory itself is reachable.
			return turnstate.Delta{MemoryAvailable: turnstate.BoolPtr(true)}
		}
		return turnstate.Delta{
			MemoryReadResult: data,
			MemoryContext:    turnstate.StringPtr(formatMemoryContext(data)),
			MemoryAvailable:  turnstate.BoolPtr(true),
		}
	case memory.ReadUnavailable:
		return turnstate.Delta{MemoryAvailable: turnstate.BoolPtr(false)}
	default: // ReadNotFound, ReadUnauthorized
		return turnstate.Delta{MemoryAvailable: turnstate.BoolPtr(true)}
	}
}

// MemoryWrite implements the memory-write node. It runs
// only when MemoryWriteAuthorized and persists the turn's final output
// under the conversation's context key, never propagating a boundary
// failure as anything other than a recorded status.
func MemoryWrite(ctx context.Context, backend memory.Backend, s turnstate.State) (d turnstate.Delta) {
	if !s.MemoryWriteAuthorized {
		return turnstate.Delta{}
	}
	defer func() {
		if recover() != nil {
			d = turnstate.Delta{
				MemoryWriteStatus: turnstate.WriteStatusPtr(turnstate.MemoryWriteFailed),
				MemoryAvailable:   turnstate.BoolPtr(false),
			}
		}
	}()

	payload := map[string]string{
		"final_output": s.FinalOutput,
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return turnstate.Delta{
			MemoryWriteStatus: turnstate.WriteStatusPtr(turnstate.MemoryWriteFailed),
			MemoryAvailable:   turnstate.BoolPtr(false),
		}
	}

	result := backend.Write(ctx, s.ConversationID, memoryContextKey, string(value), true)
	switch result.Status {
	case memory.WriteSuccess:
		return turnstate.Delta{
			MemoryWriteStatus: turnstate.WriteStatusPtr(turnstate.MemoryWriteSuccess),
			MemoryAvailable:   turnstate.BoolPtr(true),
		}
	case memory.WriteFailed:
		return turnstate.Delta{
			MemoryWriteStatus: turnstate.WriteStatusPtr(turnstate.MemoryWriteFailed),
			MemoryAvailable:   turnstate.BoolPtr(true),
		}
	default: // WriteUnauthorized
		return turnstate.Delta{
			MemoryWriteStatus: turnstate.WriteStatusPtr(turnstate.MemoryWriteUnauthorized),
			MemoryAvailable:   turnstate.BoolPtr(true),
		}
	}
}

// formatMemoryContext renders a decoded memory record into the plain-text
// form the prompt assembler injects as memory_context. Keys are sorted for
// deterministic output.
func formatMemoryContext(data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(data[k])
	}
	return b.String()
}

// decodeMemoryValue unmarshals a stored context value back into the map
// shape turnstate.State carries. A value written by a previous, differently
// shaped release or a foreign writer that isn't a JSON object decodes to
// (nil, false) rather than panicking.
func decodeMemoryValue(value string) (map[string]string, bool) {
	if value == "" {
		return nil, false
	}
	var data map[string]string
	if err := json.Unmarshal([]byte(value), &data); err != nil {
		return nil, false
	}
	return data, true
}
