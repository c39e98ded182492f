package model

import (
	"time"

	"github.com/ekisa-team/vani/internal/config"
)

// ModelStatus is the current loading status of a model.
type ModelStatus string

const (
	// ModelStatusUnloaded indicates that the model files are present but no backend serves them yet.
	ModelStatusUnloaded ModelStatus = "unloaded"

	// ModelStatusLoaded indicates that a backend has loaded the model.
	ModelStatusLoaded ModelStatus = "loaded"

	// ModelStatusFailed indicates that the model could not be provisioned.
	ModelStatusFailed ModelStatus = "failed"
)

// ModelInstance represents a provisioned model.
type ModelInstance struct {
	Config   *config.ModelConfig `json:"config"`
	LoadedAt *time.Time          `json:"loaded_at,omitempty"`
	ID       string              `json:"id"`
	Path     string              `json:"-"`
	Status   ModelStatus         `json:"status"`
	Error    string              `json:"error,omitempty"`
}

// NewModelInstance creates a new model instance.
func NewModelInstance(cfg *config.ModelConfig, id, path string) *ModelInstance {
	return &ModelInstance{
		ID:     id,
		Path:   path,
		Config: cfg,
		Status: ModelStatusUnloaded,
	}
}

// SetStatus sets the status of the model instance.
func (mi *ModelInstance) SetStatus(status ModelStatus) {
	mi.Status = status
	if status == ModelStatusLoaded {
		now := time.Now()
		mi.LoadedAt = &now
	}
}

// SetError marks the instance as failed.
func (mi *ModelInstance) SetError(err error) {
	mi.Status = ModelStatusFailed
	mi.Error = err.Error()
}
