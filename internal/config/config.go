package config

import (
	"errors"
	"time"
)

// ErrMissingConfig is returned when a required setting is absent after
// merging the config file, defaults and environment.
var ErrMissingConfig = errors.New("missing required configuration")

// SourceType represents the type of model source.
type SourceType string

const (
	// SourceTypeHuggingFace represents a Hugging Face model repository source.
	SourceTypeHuggingFace SourceType = "huggingface"
)

// Config holds the main configuration for the application.
type Config struct {
	Version   string                 `json:"version"           yaml:"version"`
	Server    ServerConfig           `json:"server"            yaml:"server"`
	Storage   StorageConfig          `json:"storage,omitempty" yaml:"storage,omitempty"`
	Models    map[string]ModelConfig `json:"models,omitempty"  yaml:"models,omitempty"`
	STT       STTConfig              `json:"stt"               yaml:"stt"`
	Chat      ChatConfig             `json:"chat"              yaml:"chat"`
	Pipeline  PipelineConfig         `json:"pipeline"          yaml:"pipeline"`
	Upstreams UpstreamsConfig        `json:"upstreams"         yaml:"upstreams"`
}

// ServerConfig holds the HTTP and gRPC listener settings.
type ServerConfig struct {
	HTTPPort    int      `json:"http_port"               yaml:"http_port"`
	GRPCPort    int      `json:"grpc_port,omitempty"     yaml:"grpc_port,omitempty"` // 0 disables gRPC
	CORSOrigins []string `json:"cors_origins,omitempty"  yaml:"cors_origins,omitempty"`
	TempDir     string   `json:"temp_dir,omitempty"      yaml:"temp_dir,omitempty"`
	MaxUploadMB int64    `json:"max_upload_mb,omitempty" yaml:"max_upload_mb,omitempty"`
}

// StorageConfig holds configuration for model downloads.
type StorageConfig struct {
	ModelsDir string `json:"models_dir,omitempty" yaml:"models_dir,omitempty"`
}

// ModelConfig holds configuration for a specific model.
type ModelConfig struct {
	Source  SourceConfig `json:"source"         yaml:"source"`
	Type    string       `json:"type"           yaml:"type"`
	Backend string       `json:"backend"        yaml:"backend"`
	Tags    []string     `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// SourceConfig wraps optional sources (only one should be set).
type SourceConfig struct {
	HuggingFace *HuggingFaceSource `json:"huggingface,omitempty" yaml:"huggingface,omitempty"`
}

// STTConfig selects and configures the speech-to-text backend.
type STTConfig struct {
	Provider string             `json:"provider"          yaml:"provider"`
	Model    string             `json:"model"             yaml:"model"`
	Whisper  WhisperConfig      `json:"whisper,omitempty" yaml:"whisper,omitempty"`
	OpenAI   OpenAIConfig       `json:"openai,omitempty"  yaml:"openai,omitempty"`
	Google   GoogleSpeechConfig `json:"google,omitempty"  yaml:"google,omitempty"`
}

// WhisperConfig configures the whisper.cpp server backend. When BinPath is
// set the server is started on demand, otherwise URL must point at a
// running instance.
type WhisperConfig struct {
	URL     string `json:"url,omitempty"      yaml:"url,omitempty"`
	BinPath string `json:"bin_path,omitempty" yaml:"bin_path,omitempty"`
	Port    int    `json:"port,omitempty"     yaml:"port,omitempty"`
}

// OpenAIConfig configures an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKey  string `json:"api_key,omitempty"  yaml:"api_key,omitempty"`
}

// GoogleSpeechConfig configures Google Cloud Speech-to-Text.
type GoogleSpeechConfig struct {
	LanguageCode    string `json:"language_code,omitempty"    yaml:"language_code,omitempty"`
	CredentialsFile string `json:"credentials_file,omitempty" yaml:"credentials_file,omitempty"`
}

// ChatConfig selects and configures the chat-completion backend.
type ChatConfig struct {
	Provider string       `json:"provider"         yaml:"provider"`
	Model    string       `json:"model"            yaml:"model"`
	Ollama   OllamaConfig `json:"ollama,omitempty" yaml:"ollama,omitempty"`
	OpenAI   OpenAIConfig `json:"openai,omitempty" yaml:"openai,omitempty"`
	Gemini   GeminiConfig `json:"gemini,omitempty" yaml:"gemini,omitempty"`
	Llama    LlamaConfig  `json:"llama,omitempty"  yaml:"llama,omitempty"`
}

// OllamaConfig configures the Ollama chat backend.
type OllamaConfig struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// LlamaConfig configures the llama.cpp chat backend. As with whisper, a
// BinPath makes vani run llama-server itself.
type LlamaConfig struct {
	URL         string `json:"url,omitempty"         yaml:"url,omitempty"`
	BinPath     string `json:"bin_path,omitempty"    yaml:"bin_path,omitempty"`
	Port        int    `json:"port,omitempty"        yaml:"port,omitempty"`
	ContextSize int    `json:"ctx_size,omitempty"    yaml:"ctx_size,omitempty"`
	GPULayers   int    `json:"gpu_layers,omitempty"  yaml:"gpu_layers,omitempty"`
}

// GeminiConfig configures the Gemini chat backend.
type GeminiConfig struct {
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// PipelineConfig configures the remote translation and speech synthesis
// pipeline.
type PipelineConfig struct {
	BaseURL              string          `json:"base_url,omitempty"               yaml:"base_url,omitempty"`
	Authorization        string          `json:"authorization,omitempty"          yaml:"authorization,omitempty"`
	TranslationServiceID string          `json:"translation_service_id,omitempty" yaml:"translation_service_id,omitempty"`
	Voice                VoiceConfig     `json:"voice,omitempty"                  yaml:"voice,omitempty"`
	Routes               []LanguageRoute `json:"routes,omitempty"                 yaml:"routes,omitempty"`
}

// VoiceConfig holds the fixed synthesis parameters sent with every TTS task.
type VoiceConfig struct {
	Gender       string `json:"gender,omitempty"        yaml:"gender,omitempty"`
	SamplingRate int    `json:"sampling_rate,omitempty" yaml:"sampling_rate,omitempty"`
}

// UpstreamsConfig holds the call policy of every outbound dependency.
type UpstreamsConfig struct {
	STT         UpstreamPolicy `json:"stt"         yaml:"stt"`
	Chat        UpstreamPolicy `json:"chat"        yaml:"chat"`
	Translation UpstreamPolicy `json:"translation" yaml:"translation"`
	TTS         UpstreamPolicy `json:"tts"         yaml:"tts"`
}

// UpstreamPolicy bounds a single outbound dependency.
type UpstreamPolicy struct {
	Timeout     time.Duration `json:"timeout"      yaml:"timeout"`
	MaxFailures uint32        `json:"max_failures" yaml:"max_failures"`
	OpenTimeout time.Duration `json:"open_timeout" yaml:"open_timeout"`
}

// -------------------------
// Source definitions
// -------------------------

// ModelSource represents a source for a model.
type ModelSource interface {
	Type() SourceType
}

// HuggingFaceSource represents a Hugging Face model repository source.
type HuggingFaceSource struct {
	Repo          string   `json:"repo"                     yaml:"repo"`
	Revision      string   `json:"revision,omitempty"       yaml:"revision,omitempty"`
	RepoType      string   `json:"repo_type,omitempty"      yaml:"repo_type,omitempty"`
	Token         string   `json:"token,omitempty"          yaml:"token,omitempty"`
	Include       []string `json:"include,omitempty"        yaml:"include,omitempty"`
	Exclude       []string `json:"exclude,omitempty"        yaml:"exclude,omitempty"`
	MaxWorkers    int      `json:"max_workers,omitempty"    yaml:"max_workers,omitempty"`
	ForceDownload bool     `json:"force_download,omitempty" yaml:"force_download,omitempty"`
}

// Type returns the Hugging Face source type.
func (h HuggingFaceSource) Type() SourceType {
	return SourceTypeHuggingFace
}

// GetSource returns the active source for the model.
func (m *ModelConfig) GetSource() (ModelSource, error) {
	if m.Source.HuggingFace != nil {
		return *m.Source.HuggingFace, nil
	}

	return nil, errors.New("no source configured for model")
}

// Provider exposes the current configuration snapshot. Implementations must
// return a value that is never mutated afterwards.
type Provider interface {
	Snapshot() *Config
}

// Static is a Provider that always returns the same snapshot.
type Static struct {
	cfg *Config
}

// NewStatic wraps cfg as a Provider.
func NewStatic(cfg *Config) *Static {
	return &Static{cfg: cfg}
}

// Snapshot implements Provider.
func (s *Static) Snapshot() *Config {
	return s.cfg
}
