// Package anthropic adapts Anthropic's Messages API to the
// modelbackend.Backend contract: one synchronous request in, one response
// out, never an error returned to the caller.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/haasonsaas/turnruntime/internal/modelbackend"
)

const defaultModel = "claude-sonnet-4-20250514"
const defaultMaxTokens = 1024

// Backend is a modelbackend.Backend implementation backed by the Anthropic
// SDK client.
type Backend struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// Config configures a Backend.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// New builds a Backend from config. APIKey is required.
func New(cfg Config) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Backend{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Generate sends req.Prompt as a single user message, with req.SystemPrompt
// carried in Anthropic's separate system field. It never returns a Go
// error; transient or protocol failures surface as
// modelbackend.Response{Status: StatusError}.
func (b *Backend) Generate(ctx context.Context, req modelbackend.Request) modelbackend.Response {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: b.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.SystemPrompt}}
	}

	msg, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return modelbackend.Response{
			Status:   modelbackend.StatusError,
			Metadata: modelbackend.Metadata{Model: b.model, Error: err.Error()},
		}
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	output, toolCall := modelbackend.ExtractToolCall(text)
	return modelbackend.Response{
		Status: modelbackend.StatusSuccess,
		Output: output,
		Metadata: modelbackend.Metadata{
			ToolCall: toolCall,
			Model:    b.model,
		},
	}
}
