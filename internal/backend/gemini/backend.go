package gemini

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ekisa-team/vani/internal/backend"
	"google.golang.org/genai"
)

// Generator is the subset of the genai models service used here.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Backend implements backend.Backend with the Gemini API.
type Backend struct {
	models Generator
}

// NewBackend creates a Gemini backend authenticated with apiKey.
func NewBackend(ctx context.Context, apiKey string) (*Backend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}

	return NewBackendWithGenerator(client.Models), nil
}

// NewBackendWithGenerator wraps an existing Generator.
func NewBackendWithGenerator(g Generator) *Backend {
	return &Backend{models: g}
}

// Provider implements backend.Backend.
func (b *Backend) Provider() backend.BackendProvider {
	return backend.BackendProviderGemini
}

// Close implements backend.Backend.
func (b *Backend) Close() error { return nil }

// Infer implements backend.Backend.
func (b *Backend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	prompt, err := io.ReadAll(req.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt: %w", err)
	}

	start := time.Now()
	resp, err := b.models.GenerateContent(ctx, req.Model, []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: string(prompt)}}},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("genai generate: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, backend.ErrEmptyOutput
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	return backend.NewTextResponse(b.Provider(), req.Model, sb.String(), start, map[string]any{
		"finish_reason": string(resp.Candidates[0].FinishReason),
	}), nil
}
