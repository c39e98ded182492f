package service

import (
	"context"
	"errors"

	"github.com/ekisa-team/vani/internal/config"
	"github.com/ekisa-team/vani/internal/pipeline"
)

// ErrNoVoice is returned when no synthesis route exists for a language.
var ErrNoVoice = errors.New("no voice configured for language")

// Synthesizer turns text into base64 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, s pipeline.Synthesis) (string, error)
}

// TTS is a service abstraction for text-to-speech over the remote pipeline.
type TTS struct {
	cfg         config.Provider
	synthesizer Synthesizer
}

// NewTTS creates a new TTS service.
func NewTTS(cfg config.Provider, synthesizer Synthesizer) *TTS {
	return &TTS{
		cfg:         cfg,
		synthesizer: synthesizer,
	}
}

// Synthesize speaks text in language using the first matching route of the
// current configuration. It returns ErrNoVoice when no route matches.
func (s *TTS) Synthesize(ctx context.Context, language, text string) (string, error) {
	snap := s.cfg.Snapshot()

	route, ok := snap.Pipeline.Route(language)
	if !ok {
		return "", ErrNoVoice
	}

	audio, err := s.synthesizer.Synthesize(ctx, pipeline.Synthesis{
		ServiceID:    route.ServiceID,
		Language:     route.SourceLanguage,
		ScriptCode:   route.SourceScriptCode,
		Gender:       snap.Pipeline.Voice.Gender,
		SamplingRate: snap.Pipeline.Voice.SamplingRate,
		Text:         text,
	})
	if err != nil {
		return "", upstreamFailure(err)
	}

	return audio, nil
}
