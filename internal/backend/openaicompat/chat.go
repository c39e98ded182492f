package openaicompat

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ekisa-team/vani/internal/backend"
	"github.com/openai/openai-go"
)

// Chat implements backend.Backend with chat completions.
type Chat struct {
	client openai.Client
}

// NewChat creates a chat backend.
func NewChat(client openai.Client) *Chat {
	return &Chat{client: client}
}

// Provider implements backend.Backend.
func (c *Chat) Provider() backend.BackendProvider {
	return backend.BackendProviderOpenAI
}

// Close implements backend.Backend.
func (c *Chat) Close() error { return nil }

// Infer implements backend.Backend.
func (c *Chat) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	prompt, err := io.ReadAll(req.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt: %w", err)
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(string(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, backend.ErrEmptyOutput
	}

	return backend.NewTextResponse(c.Provider(), resp.Model, resp.Choices[0].Message.Content, start, map[string]any{
		"finish_reason":     string(resp.Choices[0].FinishReason),
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
	}), nil
}
