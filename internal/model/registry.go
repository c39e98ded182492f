package model

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores provisioned model instances.
type Registry struct {
	models map[string]*ModelInstance
	mu     sync.RWMutex
}

// NewRegistry creates a new model registry.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]*ModelInstance),
	}
}

// Set adds a model instance to the registry.
func (r *Registry) Set(instance *ModelInstance) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.models[instance.ID] = instance
}

// Get returns the model instance with the given ID.
func (r *Registry) Get(id string) (*ModelInstance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instance, ok := r.models[id]
	return instance, ok
}

// LocalPath returns the file a local backend should load for id. An id that
// was never provisioned yields an empty path, which lets backends pointed at
// an external server run without one.
func (r *Registry) LocalPath(id string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instance, ok := r.models[id]
	if !ok {
		return "", nil
	}
	if instance.Status == ModelStatusFailed {
		return "", fmt.Errorf("%w: %s: %s", ErrFailed, id, instance.Error)
	}
	return instance.Path, nil
}

// MarkLoaded records that a backend has loaded the model. It is a no-op for
// unknown, failed or already loaded models.
func (r *Registry) MarkLoaded(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	instance, ok := r.models[id]
	if !ok || instance.Status != ModelStatusUnloaded {
		return
	}
	instance.SetStatus(ModelStatusLoaded)
}

// Snapshot returns a copy of every model instance by ID.
func (r *Registry) Snapshot() map[string]ModelInstance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]ModelInstance, len(r.models))
	for id, instance := range r.models {
		out[id] = *instance
	}
	return out
}

// List returns all model instances ordered by ID.
func (r *Registry) List() []*ModelInstance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instances := make([]*ModelInstance, 0, len(r.models))
	for _, instance := range r.models {
		instances = append(instances, instance)
	}
	sort.Slice(instances, func(i, j int) bool { return instances[i].ID < instances[j].ID })

	return instances
}

// Delete deletes the model instance with the given ID.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.models, id)
}
