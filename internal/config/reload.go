package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrRestartRequired is returned when a reloaded config changes settings
// that are bound when the process starts.
var ErrRestartRequired = errors.New("config change requires a restart")

// CheckReload reports whether next can replace prev without a restart.
// Backends, the pipeline client, the upstream guards and the listeners are
// built once from the startup config, so changes to their settings are
// rejected. Local whisper.cpp and llama.cpp servers stay bound to the model
// they were started with.
func CheckReload(prev, next *Config) error {
	var changed []string
	check := func(name string, same bool) {
		if !same {
			changed = append(changed, name)
		}
	}

	check("server.http_port", prev.Server.HTTPPort == next.Server.HTTPPort)
	check("server.grpc_port", prev.Server.GRPCPort == next.Server.GRPCPort)
	check("server.cors_origins", slices.Equal(prev.Server.CORSOrigins, next.Server.CORSOrigins))
	check("server.max_upload_mb", prev.Server.MaxUploadMB == next.Server.MaxUploadMB)

	check("stt.provider", prev.STT.Provider == next.STT.Provider)
	check("stt.whisper", prev.STT.Whisper == next.STT.Whisper)
	check("stt.openai", prev.STT.OpenAI == next.STT.OpenAI)
	check("stt.google", prev.STT.Google == next.STT.Google)
	if prev.STT.Provider == ProviderWhisperCPP {
		check("stt.model", prev.STT.Model == next.STT.Model)
	}

	check("chat.provider", prev.Chat.Provider == next.Chat.Provider)
	check("chat.ollama", prev.Chat.Ollama == next.Chat.Ollama)
	check("chat.openai", prev.Chat.OpenAI == next.Chat.OpenAI)
	check("chat.gemini", prev.Chat.Gemini == next.Chat.Gemini)
	check("chat.llama", prev.Chat.Llama == next.Chat.Llama)
	if prev.Chat.Provider == ProviderLlamaCPP {
		check("chat.model", prev.Chat.Model == next.Chat.Model)
	}

	check("pipeline.base_url", prev.Pipeline.BaseURL == next.Pipeline.BaseURL)
	check("pipeline.authorization", prev.Pipeline.Authorization == next.Pipeline.Authorization)
	check("upstreams", prev.Upstreams == next.Upstreams)

	if len(changed) > 0 {
		return fmt.Errorf("%w: %s", ErrRestartRequired, strings.Join(changed, ", "))
	}
	return nil
}
