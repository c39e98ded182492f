package http

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ekisa-team/vani/internal/backend"
	"github.com/ekisa-team/vani/internal/model"
	"github.com/ekisa-team/vani/internal/upstream"
)

type (
	HealthResponseDTO struct {
		Status    string                    `json:"status" example:"ok"`
		Version   string                    `json:"version"`
		Upstreams map[string]string         `json:"upstreams,omitempty" doc:"Circuit breaker state per upstream"`
		Backends  map[string][]string       `json:"backends,omitempty" doc:"Registered providers per capability"`
		Models    map[string]ModelHealthDTO `json:"models,omitempty" doc:"State of each provisioned local model"`
	}

	ModelHealthDTO struct {
		Status   string     `json:"status" enum:"unloaded,loaded,failed"`
		LoadedAt *time.Time `json:"loaded_at,omitempty"`
		Error    string     `json:"error,omitempty"`
	}

	HealthOutput struct {
		Body HealthResponseDTO
	}
)

// HealthHandler reports liveness.
type HealthHandler struct {
	version  string
	guards   []*upstream.Guard
	backends map[string]*backend.Registry
	models   *model.Registry
}

// NewHealthHandler creates a new HealthHandler instance.
func NewHealthHandler(api huma.API, opts Options) *HealthHandler {
	h := &HealthHandler{
		version:  opts.Version,
		guards:   opts.Guards,
		backends: opts.Backends,
		models:   opts.Models,
	}

	huma.Register(api, huma.Operation{
		OperationID:   "healthz",
		Method:        http.MethodGet,
		Path:          "/healthz",
		Summary:       "Liveness probe",
		Tags:          []string{"health"},
		DefaultStatus: http.StatusOK,
	}, h.handleHealth)

	return h
}

func (h *HealthHandler) handleHealth(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{Body: HealthResponseDTO{Status: "ok", Version: h.version}}

	if len(h.guards) > 0 {
		out.Body.Upstreams = make(map[string]string, len(h.guards))
		for _, g := range h.guards {
			out.Body.Upstreams[g.Name()] = g.State()
		}
	}

	if len(h.backends) > 0 {
		out.Body.Backends = make(map[string][]string, len(h.backends))
		for capability, r := range h.backends {
			providers := []string{}
			for _, p := range r.Providers() {
				providers = append(providers, string(p))
			}
			out.Body.Backends[capability] = providers
		}
	}

	if h.models != nil {
		if snap := h.models.Snapshot(); len(snap) > 0 {
			out.Body.Models = make(map[string]ModelHealthDTO, len(snap))
			for id, m := range snap {
				out.Body.Models[id] = ModelHealthDTO{Status: string(m.Status), LoadedAt: m.LoadedAt, Error: m.Error}
			}
		}
	}

	return out, nil
}
