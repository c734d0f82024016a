// Package promptbuilder assembles the structured user-facing prompt handed
// to the model backend: memory context, tool results, user input, and an
// "Answer:" marker, bounded by internal/guardrail's injection budget.
package promptbuilder

import (
	"strings"

	"github.com/haasonsaas/turnruntime/internal/guardrail"
)

// SystemContract is the authoritative behavioral contract shared across
// model backends. It is injected separately into the model request's
// system-role field, handled out of band rather than concatenated into the
// returned string — Build never embeds it in the returned prompt, which
// would double-inject it.
const SystemContract = `You are a focused, high-performance personal assistant.

Core Behavior:
- Be concise (max 5 sentences unless explicitly asked for more).
- No filler. No greetings. No meta-commentary.
- Do not explain your internal reasoning.
- Do not say you might use a tool — decide and act.

Tool Usage:
- If the question refers to: today, latest, current, recent, breaking, or news, use web_search.
- If the answer requires up-to-date information not in your training data, use web_search.
- When using a tool, respond ONLY with the exact tool call below and nothing else.

Tool Call Format (copy exactly, no extra text):
[TOOL_CALL]{"name": "web_search", "arguments": {"query": "<your concise search query>"}}

Personal Memory:
- If the user shares personal facts (birthday, preferences, workplace, etc.), acknowledge briefly.
- Recalled personal facts are provided in Memory Context — use them naturally.`

// Build assembles the structured prompt body: memory context (if any), tool
// results (if any), the user's input, and a trailing "Answer:" marker.
// userInput is never truncated; memoryContext and toolContext are bounded by
// policy.BudgetInjection before assembly, with tool_context given priority.
func Build(policy guardrail.Policy, userInput, memoryContext, toolContext string) string {
	memoryContext, toolContext = policy.BudgetInjection(memoryContext, toolContext)

	var parts []string
	if s := strings.TrimSpace(memoryContext); s != "" {
		parts = append(parts, "Memory Context:\n"+s)
	}
	if s := strings.TrimSpace(toolContext); s != "" {
		parts = append(parts, "Tool Results:\n"+s)
	}
	parts = append(parts, "User:\n"+userInput)
	parts = append(parts, "Answer:")

	return strings.Join(parts, "\n\n")
}
