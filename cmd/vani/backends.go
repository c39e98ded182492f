package main

import (
	"context"
	"fmt"

	"github.com/ekisa-team/vani/internal/backend"
	"github.com/ekisa-team/vani/internal/backend/gemini"
	"github.com/ekisa-team/vani/internal/backend/google"
	"github.com/ekisa-team/vani/internal/backend/llama"
	"github.com/ekisa-team/vani/internal/backend/ollama"
	"github.com/ekisa-team/vani/internal/backend/openaicompat"
	"github.com/ekisa-team/vani/internal/backend/whisper"
	"github.com/ekisa-team/vani/internal/config"
)

// newSTTBackends registers the configured speech-to-text provider.
func newSTTBackends(ctx context.Context, cfg *config.Config, sm *backend.ServerManager) (*backend.Registry, error) {
	var (
		b   backend.Backend
		err error
	)

	switch cfg.STT.Provider {
	case config.ProviderWhisperCPP:
		b, err = whisper.NewBackend(whisper.Options{
			URL:     cfg.STT.Whisper.URL,
			BinPath: cfg.STT.Whisper.BinPath,
			Port:    cfg.STT.Whisper.Port,
		}, sm)
	case config.ProviderOpenAI:
		b = openaicompat.NewTranscriber(openaicompat.NewClient(cfg.STT.OpenAI.BaseURL, cfg.STT.OpenAI.APIKey, nil))
	case config.ProviderGoogleSpeech:
		b, err = google.NewBackend(ctx, cfg.STT.Google.LanguageCode, cfg.STT.Google.CredentialsFile)
	default:
		err = fmt.Errorf("unsupported stt provider %q", cfg.STT.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create stt backend: %w", err)
	}

	r := backend.NewRegistry()
	if err := r.Register(b); err != nil {
		return nil, err
	}
	return r, nil
}

// newChatBackends registers the configured chat provider.
func newChatBackends(ctx context.Context, cfg *config.Config, sm *backend.ServerManager) (*backend.Registry, error) {
	var (
		b   backend.Backend
		err error
	)

	switch cfg.Chat.Provider {
	case config.ProviderOllama:
		b = ollama.NewBackend(cfg.Chat.Ollama.URL, nil)
	case config.ProviderOpenAI:
		b = openaicompat.NewChat(openaicompat.NewClient(cfg.Chat.OpenAI.BaseURL, cfg.Chat.OpenAI.APIKey, nil))
	case config.ProviderGemini:
		b, err = gemini.NewBackend(ctx, cfg.Chat.Gemini.APIKey)
	case config.ProviderLlamaCPP:
		b, err = llama.NewBackend(llama.Options{
			URL:         cfg.Chat.Llama.URL,
			BinPath:     cfg.Chat.Llama.BinPath,
			Port:        cfg.Chat.Llama.Port,
			ContextSize: cfg.Chat.Llama.ContextSize,
			GPULayers:   cfg.Chat.Llama.GPULayers,
		}, sm)
	default:
		err = fmt.Errorf("unsupported chat provider %q", cfg.Chat.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create chat backend: %w", err)
	}

	r := backend.NewRegistry()
	if err := r.Register(b); err != nil {
		return nil, err
	}
	return r, nil
}
