package google

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/ekisa-team/vani/internal/backend"
	"github.com/ekisa-team/vani/internal/mapsafe"
	"github.com/go-audio/wav"
	"google.golang.org/api/option"
)

const (
	defaultOpusRate = 48000

	wavFormatPCM = 1
)

// Recognizer is the subset of the Cloud Speech client used here.
type Recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	Close() error
}

type clientRecognizer struct {
	client *speech.Client
}

func (c clientRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return c.client.Recognize(ctx, req)
}

func (c clientRecognizer) Close() error {
	return c.client.Close()
}

// Backend implements backend.Backend with Google Cloud Speech-to-Text.
type Backend struct {
	recognizer   Recognizer
	languageCode string
}

// NewBackend dials Cloud Speech. Credentials come from credentialsFile when
// set, otherwise from Application Default Credentials.
func NewBackend(ctx context.Context, languageCode, credentialsFile string) (*Backend, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	return NewBackendWithRecognizer(clientRecognizer{client: client}, languageCode), nil
}

// NewBackendWithRecognizer wraps an existing Recognizer.
func NewBackendWithRecognizer(r Recognizer, languageCode string) *Backend {
	if languageCode == "" {
		languageCode = "en-US"
	}
	return &Backend{recognizer: r, languageCode: languageCode}
}

// Provider implements backend.Backend.
func (b *Backend) Provider() backend.BackendProvider {
	return backend.BackendProviderGoogleSpeech
}

// Close implements backend.Backend.
func (b *Backend) Close() error {
	return b.recognizer.Close()
}

// Infer implements backend.Backend.
func (b *Backend) Infer(ctx context.Context, req *backend.Request) (*backend.Response, error) {
	data, err := io.ReadAll(req.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio input: %w", err)
	}

	cfg := recognitionConfig(data, req.Filename)
	cfg.LanguageCode = mapsafe.Get(req.Parameters, backend.ParamLanguage, b.languageCode)
	cfg.EnableWordTimeOffsets = mapsafe.Get(req.Parameters, backend.ParamTimestamps, true)
	cfg.EnableAutomaticPunctuation = true
	if req.Model != "" {
		cfg.Model = req.Model
	}

	start := time.Now()
	resp, err := b.recognizer.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("speech recognize: %w", err)
	}

	var parts []string
	for _, result := range resp.GetResults() {
		if alts := result.GetAlternatives(); len(alts) > 0 {
			parts = append(parts, strings.TrimSpace(alts[0].GetTranscript()))
		}
	}

	return backend.NewTextResponse(b.Provider(), cfg.Model, strings.Join(parts, " "), start, map[string]any{
		"encoding":    cfg.Encoding.String(),
		"sample_rate": cfg.SampleRateHertz,
	}), nil
}

// recognitionConfig derives the encoding from the WAV header when there is
// one and from the file extension otherwise. Only 16-bit PCM is LINEAR16;
// other WAV encodings are left for the service to read from the header.
func recognitionConfig(data []byte, filename string) *speechpb.RecognitionConfig {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if dec.IsValidFile() {
		if dec.BitDepth != 16 || dec.WavAudioFormat != wavFormatPCM {
			return &speechpb.RecognitionConfig{Encoding: speechpb.RecognitionConfig_ENCODING_UNSPECIFIED}
		}
		return &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   int32(dec.SampleRate),
			AudioChannelCount: int32(dec.NumChans),
		}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".flac":
		return &speechpb.RecognitionConfig{Encoding: speechpb.RecognitionConfig_FLAC}
	case ".ogg", ".opus":
		return &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_OGG_OPUS,
			SampleRateHertz: defaultOpusRate,
		}
	case ".webm":
		return &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_WEBM_OPUS,
			SampleRateHertz: defaultOpusRate,
		}
	default:
		return &speechpb.RecognitionConfig{Encoding: speechpb.RecognitionConfig_ENCODING_UNSPECIFIED}
	}
}
