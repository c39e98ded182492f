package openaicompat

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"time"

	"github.com/ekisa-team/vani/internal/backend"
	"github.com/ekisa-team/vani/internal/mapsafe"
	"github.com/openai/openai-go"
)

// Transcriber implements backend.Backend with the audio transcription API.
type Transcriber struct {
	client openai.Client
}

// NewTranscriber creates a speech-to-text backend.
func NewTranscriber(client openai.Client) *Transcriber {
	return &Transcriber{client: client}
}

// Provider implements backend.Backend.
func (t *Transcriber) Provider() backend.BackendProvider {
	return backend.BackendProviderOpenAI
}

// Close implements backend.Backend.
func (t *Transcriber) Close() error { return nil }

// Infer implements backend.Backend. The verbose JSON format is always
// requested so segment timestamps are produced server-side.
func (t *Transcriber) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	filename := req.Filename
	if filename == "" {
		filename = "audio.wav"
	}
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	model := req.Model
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}

	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(req.Input, filename, contentType),
		Model:          openai.AudioModel(model),
		ResponseFormat: openai.AudioResponseFormatVerboseJSON,
	}
	if lang := mapsafe.Get(req.Parameters, backend.ParamLanguage, ""); lang != "" {
		params.Language = openai.String(lang)
	}
	if prompt := mapsafe.Get(req.Parameters, "prompt", ""); prompt != "" {
		params.Prompt = openai.String(prompt)
	}

	start := time.Now()
	tr, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai transcription: %w", err)
	}

	return backend.NewTextResponse(t.Provider(), model, tr.Text, start, nil), nil
}
