// Package openai adapts OpenAI's chat completion API to the
// modelbackend.Backend contract.
package openai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"github.com/haasonsaas/turnruntime/internal/modelbackend"
)

const defaultModel = openai.GPT4o

// Backend is a modelbackend.Backend implementation backed by go-openai.
type Backend struct {
	client *openai.Client
	model  string
}

// Config configures a Backend.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// New builds a Backend from config. APIKey is required.
func New(cfg Config) (*Backend, error) {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	return &Backend{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Generate sends req.Prompt as the single user message and req.SystemPrompt
// as the system message. It never returns a Go error; failures surface as
// modelbackend.Response{Status: StatusError}.
func (b *Backend) Generate(ctx context.Context, req modelbackend.Request) modelbackend.Response {
	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    b.model,
		Messages: messages,
	})
	if err != nil {
		return modelbackend.Response{
			Status:   modelbackend.StatusError,
			Metadata: modelbackend.Metadata{Model: b.model, Error: err.Error()},
		}
	}
	if len(resp.Choices) == 0 {
		return modelbackend.Response{
			Status:   modelbackend.StatusError,
			Metadata: modelbackend.Metadata{Model: b.model, Error: "openai: empty choices in response"},
		}
	}

	text := resp.Choices[0].Message.Content
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
