package websearch

import (
	"context"
	"time"

	"github.com/haasonsaas/turnruntime/internal/toolbox"
)

// Tool adapts Client to the toolbox.Tool contract, the one web-search tool
// the model-call node may invoke.
type Tool struct {
	client *Client
}

// NewTool wraps a Client as a registrable toolbox.Tool.
func NewTool(client *Client) Tool {
	return Tool{client: client}
}

func (Tool) Name() string { return "web_search" }

func (Tool) Description() string {
	return "Search the web for current information and return a short list of titled, linked snippets."
}

func (Tool) InputSchema() toolbox.InputSchema {
	minResults, maxResults := 1, 5
	return toolbox.InputSchema{
		Properties: map[string]toolbox.Property{
			"query": {
				Type:        "string",
				Description: "search query, minimum 3 characters",
			},
			"max_results": {
				Type:        "integer",
				Description: "number of results to return (1-5)",
				Minimum:     &minResults,
				Maximum:     &maxResults,
			},
		},
		Required: []string{"query"},
	}
}

func (t Tool) Execute(ctx context.Context, arguments map[string]any) toolbox.ToolResult {
	query, _ := arguments["query"].(string)

	maxResults := 3
	switch v := arguments["max_results"].(type) {
	case float64:
		maxResults = int(v)
	case int:
		maxResults = v
	}

	start := time.Now()
	resp := t.client.Search(ctx, query, maxResults)
	elapsed := time.Since(start).Milliseconds()

	if resp.Status != StatusSuccess {
		return toolbox.ToolResult{
			Success:         false,
			Error:           resp.Reason,
			ExecutionTimeMs: elapsed,
		}
	}

	rawResults := make([]any, 0, len(resp.Results))
	for _, r := range resp.Results {
		rawResults = append(rawResults, map[string]any{
			"title":   r.Title,
			"url":     r.URL,
			"snippet": r.Snippet,
		})
	}

	return toolbox.ToolResult{
		Success:         true,
		Data:            map[string]any{"results": rawResults},
		ExecutionTimeMs: elapsed,
	}
}
