package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ekisa-team/vani/internal/backend"
	"github.com/ekisa-team/vani/internal/mapsafe"
)

const (
	DefaultPort = 8082

	serverName = "whisper.cpp"
)

// Options configures the whisper.cpp backend. With BinPath set the server
// is spawned on first use, listening on Port; otherwise URL is used as is.
type Options struct {
	URL     string
	BinPath string
	Port    int
	Client  *http.Client
}

// Backend implements backend.Backend for a whisper.cpp server.
type Backend struct {
	opts          Options
	serverManager *backend.ServerManager
	client        *http.Client
}

// TranscriptionRequest holds the form parameters sent to whisper-server.
type TranscriptionRequest struct {
	Language     string  `json:"language,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
	BeamSize     int     `json:"beam_size,omitempty"`
	BestOf       int     `json:"best_of,omitempty"`
	Translate    bool    `json:"translate,omitempty"`
	NoTimestamps bool    `json:"no_timestamps,omitempty"`
	Prompt       string  `json:"prompt,omitempty"`
}

// TranscriptionResponse is the verbose_json payload of whisper-server.
type TranscriptionResponse struct {
	Task                        string              `json:"task,omitempty"`
	Language                    string              `json:"language,omitempty"`
	Duration                    float64             `json:"duration,omitempty"`
	Text                        string              `json:"text"`
	Segments                    []TranscriptSegment `json:"segments,omitempty"`
	DetectedLanguage            string              `json:"detected_language,omitempty"`
	DetectedLanguageProbability float64             `json:"detected_language_probability,omitempty"`
}

// TranscriptSegment represents a single timed segment in the transcription.
type TranscriptSegment struct {
	ID           int     `json:"id"`
	Text         string  `json:"text"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Temperature  float64 `json:"temperature,omitempty"`
	AvgLogprob   float64 `json:"avg_logprob,omitempty"`
	NoSpeechProb float64 `json:"no_speech_prob,omitempty"`
}

// NewBackend creates a new Backend instance.
func NewBackend(opts Options, serverManager *backend.ServerManager) (*Backend, error) {
	if opts.BinPath == "" && opts.URL == "" {
		return nil, fmt.Errorf("whisper: either a server URL or a binary path is required")
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if serverManager == nil {
		serverManager = backend.NewServerManager()
	}

	client := opts.Client
	if client == nil {
		// timeouts come from the caller's context
		client = &http.Client{}
	}

	return &Backend{
		opts:          opts,
		serverManager: serverManager,
		client:        client,
	}, nil
}

// Provider implements backend.Backend.
func (b *Backend) Provider() backend.BackendProvider {
	return backend.BackendProviderWhisperCPP
}

// ServesModelPath implements backend.ModelServer.
func (b *Backend) ServesModelPath() bool {
	return b.opts.BinPath != ""
}

// Close implements backend.Backend.
func (b *Backend) Close() error {
	if b.opts.BinPath == "" || !b.serverManager.Running(serverName, b.opts.Port) {
		return nil
	}
	return b.serverManager.StopServer(serverName, b.opts.Port)
}

func (b *Backend) baseURL(ctx context.Context, modelPath string) (string, error) {
	if b.opts.BinPath == "" {
		return strings.TrimRight(b.opts.URL, "/"), nil
	}

	if modelPath == "" {
		return "", fmt.Errorf("whisper: model path is required to start the server")
	}

	err := b.serverManager.StartServer(ctx, backend.ServerConfig{
		Name:    serverName,
		BinPath: b.opts.BinPath,
		Args: []string{
			"--model", modelPath,
			"--port", fmt.Sprintf("%d", b.opts.Port),
			"--host", "127.0.0.1",
		},
		Port:       b.opts.Port,
		HealthPath: "/", // whisper-server has no dedicated health endpoint
	})
	if err != nil {
		return "", fmt.Errorf("failed to start server: %w", err)
	}

	return fmt.Sprintf("http://127.0.0.1:%d", b.opts.Port), nil
}

// Infer implements backend.Backend.
func (b *Backend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	base, err := b.baseURL(ctx, req.ModelPath)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	filename := req.Filename
	if filename == "" {
		filename = "audio.wav"
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, req.Input); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := addTranscriptionParams(writer, buildTranscriptionRequest(req.Parameters)); err != nil {
		return nil, fmt.Errorf("failed to add parameters: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/inference", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("request failed with status code %d: %s", resp.StatusCode, msg)
	}

	var out TranscriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return backend.NewTextResponse(b.Provider(), req.ModelPath, out.Text, start, map[string]any{
		"language": out.Language,
		"duration": out.Duration,
		"segments": len(out.Segments),
	}), nil
}

// buildTranscriptionRequest maps generic parameters onto whisper-server fields.
func buildTranscriptionRequest(p map[string]any) *TranscriptionRequest {
	return &TranscriptionRequest{
		Language:     mapsafe.Get(p, backend.ParamLanguage, ""),
		Temperature:  mapsafe.Get(p, "temperature", 0.0),
		Translate:    mapsafe.Get(p, "translate", false),
		NoTimestamps: !mapsafe.Get(p, backend.ParamTimestamps, true),
		Prompt:       mapsafe.Get(p, "prompt", ""),
		BeamSize:     mapsafe.Get(p, "beam_size", -1),
		BestOf:       mapsafe.Get(p, "best_of", 2),
	}
}

// addTranscriptionParams adds transcription parameters to the multipart writer.
func addTranscriptionParams(w *multipart.Writer, req *TranscriptionRequest) error {
	params := map[string]string{
		"response_format": "verbose_json",
		"temperature":     fmt.Sprintf("%.2f", req.Temperature),
		"translate":       fmt.Sprintf("%t", req.Translate),
		"no_timestamps":   fmt.Sprintf("%t", req.NoTimestamps),
	}

	if req.Language != "" {
		params["language"] = req.Language
	}
	if req.BeamSize >= 0 {
		params["beam_size"] = fmt.Sprintf("%d", req.BeamSize)
	}
	if req.BestOf > 0 {
		params["best_of"] = fmt.Sprintf("%d", req.BestOf)
	}
	if req.Prompt != "" {
		params["prompt"] = req.Prompt
	}

	for key, value := range params {
		if err := w.WriteField(key, value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	return nil
}
