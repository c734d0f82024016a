// Package guardrail holds the pure policy functions that bound tool output
// size, tool call counts, and prompt-injection budgets. Nothing here performs
// I/O or touches turn state directly — callers (internal/graphnodes) read the
// state fields they need and write the results back as a Delta.
package guardrail

import (
	"strings"

	"github.com/haasonsaas/turnruntime/internal/config"
	"github.com/haasonsaas/turnruntime/internal/turnstate"
)

// Policy is a bound set of guardrail constants. Constructed once from
// configuration and then treated as immutable for the life of the process.
type Policy struct {
	MaxToolCallsPerTurn   int
	MaxResults            int
	MaxSnippetLen         int
	MaxTotalChars         int
	MaxToolContextChars   int
	MaxMemoryContextChars int
	MaxCombinedInject     int
}

// NewPolicy builds a Policy from configuration, falling back to documented
// defaults for any zero value.
func NewPolicy(cfg config.GuardrailConfig) Policy {
	p := Policy{
		MaxToolCallsPerTurn:   cfg.MaxToolCallsPerTurn,
		MaxResults:            cfg.MaxResults,
		MaxSnippetLen:         cfg.MaxSnippetLen,
		MaxTotalChars:         cfg.MaxTotalChars,
		MaxToolContextChars:   cfg.MaxToolContextChars,
		MaxMemoryContextChars: cfg.MaxMemoryContextChars,
		MaxCombinedInject:     cfg.MaxCombinedInjectChars,
	}
	if p.MaxToolCallsPerTurn == 0 {
		p.MaxToolCallsPerTurn = 1
	}
	if p.MaxResults == 0 {
		p.MaxResults = 5
	}
	if p.MaxSnippetLen == 0 {
		p.MaxSnippetLen = 300
	}
	if p.MaxTotalChars == 0 {
		p.MaxTotalChars = 1500
	}
	if p.MaxToolContextChars == 0 {
		p.MaxToolContextChars = 2048
	}
	if p.MaxMemoryContextChars == 0 {
		p.MaxMemoryContextChars = 2048
	}
	if p.MaxCombinedInject == 0 {
		p.MaxCombinedInject = 1500
	}
	return p
}

// CheckToolCallLimit reports whether a tool call is still permitted at the
// current count.
func (p Policy) CheckToolCallLimit(currentCount int) bool {
	return currentCount < p.MaxToolCallsPerTurn
}

// SanitizeResults applies the URL-scheme filter, per-snippet truncation,
// result cap, and total character budget to a raw tool result list.
func (p Policy) SanitizeResults(raw []turnstate.ToolResult) []turnstate.ToolResult {
	sanitized := make([]turnstate.ToolResult, 0, p.MaxResults)
	totalChars := 0

	for _, r := range raw {
		if len(sanitized) >= p.MaxResults {
			break
		}
		if !hasHTTPScheme(r.URL) {
			continue
		}

		snippet := truncate(r.Snippet, p.MaxSnippetLen)
		entryChars := len(r.Title) + len(r.URL) + len(snippet)
		if totalChars+entryChars > p.MaxTotalChars {
			remaining := p.MaxTotalChars - totalChars
			if remaining <= 0 {
				break
			}
			snippet = truncate(snippet, max(0, remaining-len(r.Title)-len(r.URL)))
		}

		sanitized = append(sanitized, turnstate.ToolResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: snippet,
		})
		totalChars += len(r.Title) + len(r.URL) + len(snippet)
		if totalChars >= p.MaxTotalChars {
			break
		}
	}

	return sanitized
}

// FormatToolContext renders a sanitized result list into a bounded string
// for injection into the prompt, capped at MaxToolContextChars.
func (p Policy) FormatToolContext(results []turnstate.ToolResult) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(r.Title)
		b.WriteString("\n")
		b.WriteString(r.URL)
		if r.Snippet != "" {
			b.WriteString("\n")
			b.WriteString(r.Snippet)
		}
	}
	return truncate(b.String(), p.MaxToolContextChars)
}

// BudgetInjection applies the per-field caps and the combined-cap rule:
// tool_context has priority — it is kept in full, memory_context shrinks to
// fit the remainder, and only if tool_context alone exceeds the joint cap
// is it truncated.
func (p Policy) BudgetInjection(memoryContext, toolContext string) (string, string) {
	memoryContext = truncate(memoryContext, p.MaxMemoryContextChars)
	toolContext = truncate(toolContext, p.MaxToolContextChars)

	if len(memoryContext)+len(toolContext) <= p.MaxCombinedInject {
		return memoryContext, toolContext
	}

	if len(toolContext) >= p.MaxCombinedInject {
		return "", truncate(toolContext, p.MaxCombinedInject)
	}

	remaining := p.MaxCombinedInject - len(toolContext)
	return truncate(memoryContext, remaining), toolContext
}

func hasHTTPScheme(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
