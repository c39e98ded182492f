package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ekisa-team/vani/internal/config"
	"github.com/ekisa-team/vani/internal/pipeline"
)

// Result messages reported by Translate.
const (
	MessageTranslated        = "Translation successful"
	MessageTranslationFailed = "Translation failed: "
)

// Translator translates text.
type Translator interface {
	Translate(ctx context.Context, t pipeline.Translation) (string, error)
}

// TranslateRequest is the input of Translation.Translate.
type TranslateRequest struct {
	SourceLanguage string
	TargetLanguage string
	Content        string
}

// TranslateResult is the outcome of a translation. StatusCode is the
// domain status carried in the response body, independent of the HTTP
// status chosen by the transport.
type TranslateResult struct {
	StatusCode        int
	Message           string
	TranslatedContent string
	AudioContent      string
}

// OK reports whether the translation succeeded.
func (r *TranslateResult) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Translation translates text and, when a voice exists for the target
// language, speaks the translation.
type Translation struct {
	cfg        config.Provider
	translator Translator
	tts        *TTS
}

// NewTranslation creates a new Translation service.
func NewTranslation(cfg config.Provider, translator Translator, tts *TTS) *Translation {
	return &Translation{
		cfg:        cfg,
		translator: translator,
		tts:        tts,
	}
}

// Translate validates req and runs the translation. Upstream failures are
// reported in the result, never as an error; the only error is ErrInvalidInput.
func (s *Translation) Translate(ctx context.Context, req TranslateRequest) (*TranslateResult, error) {
	if req.SourceLanguage == "" || req.TargetLanguage == "" || req.Content == "" {
		return nil, invalidInput("Invalid input data")
	}

	snap := s.cfg.Snapshot()

	translated, err := s.translator.Translate(ctx, pipeline.Translation{
		ServiceID:      snap.Pipeline.TranslationServiceID,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
		Content:        req.Content,
	})
	if err != nil {
		slog.Error("Translation failed", "source_language", req.SourceLanguage, "target_language", req.TargetLanguage, "error", err)
		return &TranslateResult{
			StatusCode: http.StatusInternalServerError,
			Message:    MessageTranslationFailed + err.Error(),
		}, nil
	}

	result := &TranslateResult{
		StatusCode:        http.StatusOK,
		Message:           MessageTranslated,
		TranslatedContent: translated,
	}

	if s.tts == nil {
		return result, nil
	}

	audio, err := s.tts.Synthesize(ctx, req.TargetLanguage, translated)
	switch {
	case errors.Is(err, ErrNoVoice):
		slog.Debug("No voice for language, skipping synthesis", "language", req.TargetLanguage)
	case err != nil:
		slog.Warn("Speech synthesis failed, omitting audio", "language", req.TargetLanguage, "error", err)
	default:
		result.AudioContent = audio
	}

	return result, nil
}
