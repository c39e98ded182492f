package llama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/ekisa-team/vani/internal/backend"
	"github.com/ekisa-team/vani/internal/backend/openaicompat"
)

const (
	DefaultPort = 8083

	serverName = "llama.cpp"

	// llama-server accepts any key unless started with --api-key.
	placeholderAPIKey = "sk-no-key-required"
)

// Options configures the llama.cpp backend. With BinPath set llama-server is
// spawned on first use with the provisioned model; otherwise URL is used as is.
type Options struct {
	URL         string
	BinPath     string
	Port        int
	ContextSize int
	GPULayers   int
	Client      *http.Client
}

// Backend implements backend.Backend for a llama.cpp server. Completions go
// through the server's OpenAI-compatible endpoint.
type Backend struct {
	opts          Options
	serverManager *backend.ServerManager

	mu   sync.Mutex
	chat *openaicompat.Chat
	base string
}

// NewBackend creates a new llama.cpp backend.
func NewBackend(opts Options, serverManager *backend.ServerManager) (*Backend, error) {
	if opts.BinPath == "" && opts.URL == "" {
		return nil, fmt.Errorf("llama: either a server URL or a binary path is required")
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if serverManager == nil {
		serverManager = backend.NewServerManager()
	}

	return &Backend{
		opts:          opts,
		serverManager: serverManager,
	}, nil
}

// Provider implements backend.Backend.
func (b *Backend) Provider() backend.BackendProvider {
	return backend.BackendProviderLlamaCPP
}

// ServesModelPath implements backend.ModelServer.
func (b *Backend) ServesModelPath() bool {
	return b.opts.BinPath != ""
}

// Close stops llama-server when this backend started it.
func (b *Backend) Close() error {
	if b.opts.BinPath == "" || !b.serverManager.Running(serverName, b.opts.Port) {
		return nil
	}
	return b.serverManager.StopServer(serverName, b.opts.Port)
}

// Infer implements backend.Backend.
func (b *Backend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	chat, err := b.client(ctx, req.ModelPath)
	if err != nil {
		return nil, err
	}

	resp, err := chat.Infer(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("llama: %w", err)
	}
	resp.Metadata.Provider = b.Provider()

	return resp, nil
}

// client returns the chat client for the running server, starting it first
// when needed.
func (b *Backend) client(ctx context.Context, modelPath string) (*openaicompat.Chat, error) {
	base, err := b.baseURL(ctx, modelPath)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.chat == nil || b.base != base {
		b.chat = openaicompat.NewChat(openaicompat.NewClient(base+"/v1", placeholderAPIKey, b.opts.Client))
		b.base = base
	}
	return b.chat, nil
}

func (b *Backend) baseURL(ctx context.Context, modelPath string) (string, error) {
	if b.opts.BinPath == "" {
		return strings.TrimRight(b.opts.URL, "/"), nil
	}

	if modelPath == "" {
		return "", fmt.Errorf("llama: model path is required to start the server")
	}

	err := b.serverManager.StartServer(ctx, backend.ServerConfig{
		Name:    serverName,
		BinPath: b.opts.BinPath,
		Args:    b.serverArgs(modelPath),
		Port:    b.opts.Port,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start server: %w", err)
	}

	return fmt.Sprintf("http://127.0.0.1:%d", b.opts.Port), nil
}

// serverArgs builds the llama-server command line.
func (b *Backend) serverArgs(modelPath string) []string {
	args := []string{
		"--model", modelPath,
		"--port", fmt.Sprintf("%d", b.opts.Port),
		"--host", "127.0.0.1",
	}

	if b.opts.ContextSize > 0 {
		args = append(args, "--ctx-size", fmt.Sprintf("%d", b.opts.ContextSize))
	}
	if b.opts.GPULayers != 0 {
		args = append(args, "-ngl", fmt.Sprintf("%d", b.opts.GPULayers))
	}

	return args
}
