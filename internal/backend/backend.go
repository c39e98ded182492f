package backend

import (
	"context"
	"io"
	"time"
)

// BackendProvider is a string identifier for a backend provider.
type BackendProvider string

const (
	BackendProviderWhisperCPP   BackendProvider = "whisper.cpp"
	BackendProviderOpenAI       BackendProvider = "openai"
	BackendProviderGoogleSpeech BackendProvider = "google-speech"
	BackendProviderOllama       BackendProvider = "ollama"
	BackendProviderGemini       BackendProvider = "gemini"
	BackendProviderLlamaCPP     BackendProvider = "llama.cpp"
)

// Backend defines the core interface for all inference backends.
type Backend interface {
	// Provider returns the backend identifier.
	Provider() BackendProvider

	// Infer executes inference and returns the complete result.
	Infer(ctx context.Context, req *Request) (*Response, error)

	// Close cleans up resources.
	Close() error
}

// ModelServer is implemented by backends that can start a local server
// process loaded with Request.ModelPath.
type ModelServer interface {
	// ServesModelPath reports whether requests make the backend load
	// ModelPath itself rather than use an external server.
	ServesModelPath() bool
}

// Request encapsulates all parameters for an inference call.
type Request struct {
	// Model is the model name for hosted providers.
	Model string

	// ModelPath is the path to a local model file.
	ModelPath string

	// Input is the raw input data (prompt text or audio bytes).
	Input io.Reader

	// Filename hints the input format for audio uploads.
	Filename string

	// Parameters contains backend-specific inference parameters.
	Parameters map[string]any
}

// Response contains the result of an inference operation.
type Response struct {
	// Output is the plain-text result.
	Output io.Reader

	// Metadata contains backend-specific information.
	Metadata *ResponseMetadata
}

// ResponseMetadata contains metadata about the response.
type ResponseMetadata struct {
	Provider        BackendProvider `json:"provider"`
	Model           string          `json:"model"`
	Timestamp       time.Time       `json:"timestamp"`
	DurationSeconds float64         `json:"duration_seconds"`
	OutputBytes     int64           `json:"output_bytes"`
	BackendSpecific map[string]any  `json:"backend_specific,omitempty"`
}

// Common parameter keys understood by every speech-to-text backend.
const (
	ParamLanguage   = "language"
	ParamTimestamps = "timestamps"
)
