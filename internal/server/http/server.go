package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/ekisa-team/vani/internal/backend"
	"github.com/ekisa-team/vani/internal/model"
	"github.com/ekisa-team/vani/internal/service"
	"github.com/ekisa-team/vani/internal/upstream"
	"github.com/rs/cors"
)

const shutdownTimeout = 10 * time.Second

// Options configures the HTTP server.
type Options struct {
	Port        int
	Version     string
	CORSOrigins []string
	MaxUploadMB int64
	Guards      []*upstream.Guard

	// Backends and Models are reported by /healthz.
	Backends map[string]*backend.Registry
	Models   *model.Registry
}

// NewConfig returns the huma config for the API. Response bodies carry only
// their documented fields, so the "$schema" link is not added.
func NewConfig(version string) huma.Config {
	cfg := huma.DefaultConfig("vani", version)
	cfg.Info.Description = "Speech transcription, chat responses and Indic translation with speech synthesis."
	cfg.CreateHooks = nil
	return cfg
}

// NewAPI creates the huma API on mux.
func NewAPI(mux *http.ServeMux, version string) huma.API {
	return humago.New(mux, NewConfig(version))
}

// Register registers every route on api.
func Register(api huma.API, deps service.Deps, opts Options) {
	NewHealthHandler(api, opts)
	NewSTTHandler(api, deps.STT, opts.MaxUploadMB)
	NewChatHandler(api, deps.Chat)
	NewTranslateHandler(api, deps.Translation)
}

// NewHandler wraps h with CORS, request id and request logging.
func NewHandler(h http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{HeaderRequestID},
	})

	return requestID(logRequests(c.Handler(h)))
}

// Server serves the API over HTTP.
type Server struct {
	server *http.Server
}

// NewServer builds a server for deps.
func NewServer(deps service.Deps, opts Options) *Server {
	mux := http.NewServeMux()
	api := NewAPI(mux, opts.Version)
	Register(api, deps, opts)

	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			Handler:           NewHandler(mux, opts.CORSOrigins),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// ListenAndServe blocks until the server stops. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	slog.Info("HTTP server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, forcing the close after a timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		slog.Warn("Graceful shutdown failed, forcing close", "error", err)
		if err := s.server.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}
	return nil
}
