package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ekisa-team/vani/internal/backend"
)

const DefaultURL = "http://127.0.0.1:11434"

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// ChatResponse is the non-streaming reply of /api/chat. Message is kept raw
// because some gateways in front of Ollama flatten it into a string.
type ChatResponse struct {
	Model     string          `json:"model"`
	CreatedAt time.Time       `json:"created_at"`
	Message   json.RawMessage `json:"message"`
	Done      bool            `json:"done"`
	Error     string          `json:"error,omitempty"`
}

// Backend implements backend.Backend against the Ollama HTTP API.
type Backend struct {
	url    string
	client *http.Client
}

// NewBackend creates an Ollama backend for the server at url.
func NewBackend(url string, client *http.Client) *Backend {
	if url == "" {
		url = DefaultURL
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Backend{url: strings.TrimRight(url, "/"), client: client}
}

// Provider implements backend.Backend.
func (b *Backend) Provider() backend.BackendProvider {
	return backend.BackendProviderOllama
}

// Close implements backend.Backend.
func (b *Backend) Close() error { return nil }

// Infer implements backend.Backend. The input is the user prompt.
func (b *Backend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	prompt, err := io.ReadAll(req.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt: %w", err)
	}

	payload, err := json.Marshal(ChatRequest{
		Model:    req.Model,
		Messages: []Message{{Role: "user", Content: string(prompt)}},
		Stream:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, out.Error)
	}

	text, err := messageText(out.Message)
	if err != nil {
		return nil, err
	}

	return backend.NewTextResponse(b.Provider(), req.Model, text, start, map[string]any{
		"done": out.Done,
	}), nil
}

// messageText extracts the reply from either {"role","content"} or a bare string.
func messageText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", backend.ErrEmptyOutput
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err == nil {
		return msg.Content, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("unexpected message shape: %w", err)
	}
	return s, nil
}
