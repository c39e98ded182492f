package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

const (
	defaultHTTPPort             = 5000
	defaultGRPCPort             = 5001
	defaultMaxUploadMB          = 25
	defaultTranslationServiceID = "ai4bharat/indictrans-v2-all-gpu--t4"
	defaultVoiceGender          = "female"
	defaultSamplingRate         = 8000

	ProviderWhisperCPP   = "whisper.cpp"
	ProviderOpenAI       = "openai"
	ProviderGoogleSpeech = "google-speech"
	ProviderOllama       = "ollama"
	ProviderGemini       = "gemini"
	ProviderLlamaCPP     = "llama.cpp"
)

// DefaultHTTPPort returns the default HTTP port.
func DefaultHTTPPort() int { return defaultHTTPPort }

// DefaultGRPCPort returns the default gRPC health port.
func DefaultGRPCPort() int { return defaultGRPCPort }

// DefaultConfigPath returns the default path for the vani config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "vani", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "vani")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "vani")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "vani")
		}
		return filepath.Join(home, ".config", "vani")
	}
}

// DefaultModelsPath returns the default path for the vani models directory.
func DefaultModelsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "vani", "models")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "vani", "models")
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "vani", "models")
	default:
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "vani", "models")
		}
		return filepath.Join(home, ".cache", "vani", "models")
	}
}

// Default returns the configuration used when no file is given. Secrets and
// the pipeline URL are left empty and must come from the environment.
func Default() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			HTTPPort:    defaultHTTPPort,
			GRPCPort:    defaultGRPCPort,
			CORSOrigins: []string{"*"},
			MaxUploadMB: defaultMaxUploadMB,
		},
		Models: map[string]ModelConfig{
			"whisper-large-v3-turbo": {
				Type:    "stt",
				Backend: ProviderWhisperCPP,
				Source: SourceConfig{HuggingFace: &HuggingFaceSource{
					Repo:    "ggerganov/whisper.cpp",
					Include: []string{"ggml-large-v3-turbo.bin"},
				}},
			},
		},
		STT: STTConfig{
			Provider: ProviderWhisperCPP,
			Model:    "whisper-large-v3-turbo",
			Whisper: WhisperConfig{
				URL:  "http://127.0.0.1:8082",
				Port: 8082,
			},
			Google: GoogleSpeechConfig{LanguageCode: "en-US"},
		},
		Chat: ChatConfig{
			Provider: ProviderOllama,
			Model:    "llama3.2",
			Ollama:   OllamaConfig{URL: "http://127.0.0.1:11434"},
		},
		Pipeline: PipelineConfig{
			TranslationServiceID: defaultTranslationServiceID,
			Voice: VoiceConfig{
				Gender:       defaultVoiceGender,
				SamplingRate: defaultSamplingRate,
			},
			Routes: DefaultRoutes(),
		},
		Upstreams: UpstreamsConfig{
			STT:         UpstreamPolicy{Timeout: 5 * time.Minute, MaxFailures: 5, OpenTimeout: 30 * time.Second},
			Chat:        UpstreamPolicy{Timeout: 2 * time.Minute, MaxFailures: 5, OpenTimeout: 30 * time.Second},
			Translation: UpstreamPolicy{Timeout: 30 * time.Second, MaxFailures: 5, OpenTimeout: 30 * time.Second},
			TTS:         UpstreamPolicy{Timeout: 60 * time.Second, MaxFailures: 5, OpenTimeout: 30 * time.Second},
		},
	}
}
