package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ekisa-team/vani/internal/backend"
	"github.com/ekisa-team/vani/internal/config"
	"github.com/ekisa-team/vani/internal/mapsafe"
	"github.com/ekisa-team/vani/internal/model"
	"github.com/ekisa-team/vani/internal/upstream"
	"github.com/ekisa-team/vani/internal/xfs"
)

// TranscribeRequest is an uploaded audio file with optional backend parameters.
type TranscribeRequest struct {
	Audio      io.Reader
	Filename   string
	Parameters map[string]any
}

// STT is a service abstraction for speech-to-text.
type STT struct {
	cfg      config.Provider
	backends *backend.Registry
	models   *model.Registry
	guard    *upstream.Guard
}

// NewSTT creates a new STT service.
func NewSTT(cfg config.Provider, backends *backend.Registry, models *model.Registry, guard *upstream.Guard) *STT {
	return &STT{
		cfg:      cfg,
		backends: backends,
		models:   models,
		guard:    guard,
	}
}

// Transcribe stores the upload in a private temporary file, runs the
// configured speech-to-text backend on it and returns the plain text. The
// temporary file is removed before Transcribe returns.
func (s *STT) Transcribe(ctx context.Context, req TranscribeRequest) (string, error) {
	if req.Audio == nil {
		return "", invalidInput("No audio file provided")
	}

	snap := s.cfg.Snapshot()
	provider := backend.BackendProvider(snap.STT.Provider)

	b, ok := s.backends.Get(provider)
	if !ok {
		return "", upstreamFailure(fmt.Errorf("%w: %s", backend.ErrNotFound, provider))
	}

	breq := &backend.Request{
		Model:      snap.STT.Model,
		Filename:   req.Filename,
		Parameters: mapsafe.Clone(req.Parameters),
	}
	if breq.Parameters == nil {
		breq.Parameters = make(map[string]any)
	}
	if _, ok := breq.Parameters[backend.ParamTimestamps]; !ok {
		breq.Parameters[backend.ParamTimestamps] = true
	}

	// an external whisper server holds its own model; ModelPath only matters
	// when the backend spawns the server
	if provider == backend.BackendProviderWhisperCPP {
		path, err := s.models.LocalPath(snap.STT.Model)
		if err != nil {
			return "", upstreamFailure(err)
		}
		breq.ModelPath = path
	}

	path, err := xfs.SaveTemp(snap.Server.TempDir, req.Filename, req.Audio)
	if err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove temporary upload", "path", path, "error", err)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()
	breq.Input = f

	text, err := upstream.Call(ctx, s.guard, func(ctx context.Context) (string, error) {
		resp, err := b.Infer(ctx, breq)
		if err != nil {
			return "", err
		}
		return backend.ReadText(resp)
	})
	if err != nil {
		return "", upstreamFailure(err)
	}
	markLoaded(s.models, b, snap.STT.Model, breq)

	return text, nil
}

// markLoaded records the model as loaded once a backend that serves
// ModelPath itself has answered with it.
func markLoaded(models *model.Registry, b backend.Backend, id string, req *backend.Request) {
	ms, ok := b.(backend.ModelServer)
	if !ok || !ms.ServesModelPath() || req.ModelPath == "" {
		return
	}
	models.MarkLoaded(id)
}
