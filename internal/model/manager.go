package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/ekisa-team/vani/internal/config"
	"github.com/ekisa-team/vani/internal/config/source"
	"github.com/ekisa-team/vani/internal/envvar"
	"github.com/ekisa-team/vani/internal/xfs"
)

// DownloaderFunc resolves the downloader for a model source.
type DownloaderFunc func(ctx context.Context, sourceType config.SourceType) (source.Downloader, error)

// Manager provisions the models that the configured backends need.
type Manager struct {
	registry    *Registry
	downloaders DownloaderFunc
	mu          sync.Mutex
}

// NewManager creates a Manager that uses the built-in downloaders.
func NewManager() *Manager {
	return NewManagerWithDownloaders(source.GetDownloader)
}

// NewManagerWithDownloaders creates a Manager with a custom downloader lookup.
func NewManagerWithDownloaders(fn DownloaderFunc) *Manager {
	return &Manager{
		registry:    NewRegistry(),
		downloaders: fn,
	}
}

// Registry returns the model registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// LoadModelsFromConfig downloads the models referenced by the active
// providers and syncs the registry with them. Only local backends need model
// files; hosted providers reference models by name.
//
// A model that fails to download is registered as failed when its backend
// would spawn the server itself, so requests report the cause.
func (m *Manager) LoadModelsFromConfig(ctx context.Context, cfg *config.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// model id -> whether the backend starts its own server with it
	assigned := map[string]bool{}
	if cfg.STT.Provider == config.ProviderWhisperCPP && cfg.STT.Model != "" {
		assigned[cfg.STT.Model] = cfg.STT.Whisper.BinPath != ""
	}
	if cfg.Chat.Provider == config.ProviderLlamaCPP && cfg.Chat.Model != "" {
		assigned[cfg.Chat.Model] = cfg.Chat.Llama.BinPath != ""
	}

	for _, instance := range m.registry.List() {
		if _, ok := assigned[instance.ID]; !ok {
			m.registry.Delete(instance.ID)
			slog.Info("Model removed from registry", "model_id", instance.ID)
		}
	}

	if len(assigned) == 0 {
		return nil
	}

	modelsPath := resolveModelsPath(cfg)
	if err := source.EnsureModelsDirectory(modelsPath); err != nil {
		return fmt.Errorf("failed to prepare models directory %s: %w", modelsPath, err)
	}

	var errs []error
	for modelID, spawns := range assigned {
		err := m.provision(ctx, cfg, modelID, modelsPath)
		if err == nil {
			continue
		}
		errs = append(errs, err)

		if spawns {
			failed := NewModelInstance(nil, modelID, "")
			if mc, ok := cfg.Models[modelID]; ok {
				failed.Config = &mc
			}
			failed.SetError(err)
			m.registry.Set(failed)
		}
	}

	return errors.Join(errs...)
}

func (m *Manager) provision(ctx context.Context, cfg *config.Config, modelID, modelsPath string) error {
	modelConfig, ok := cfg.Models[modelID]
	if !ok {
		return fmt.Errorf("%w: %s is not declared under models", ErrNotFound, modelID)
	}

	modelSource, err := modelConfig.GetSource()
	if err != nil {
		return fmt.Errorf("failed to get model source for %s: %w", modelID, err)
	}

	downloader, err := m.downloaders(ctx, modelSource.Type())
	if err != nil {
		return fmt.Errorf("failed to get downloader for %s: %w", modelID, err)
	}

	downloadPath, cached, err := downloader.Download(ctx, &modelConfig, modelsPath)
	if err != nil {
		return fmt.Errorf("failed to download model %s into %s: %w", modelID, modelsPath, err)
	}

	m.registry.Set(NewModelInstance(&modelConfig, modelID, downloadPath))
	slog.Info("Model ready", "model_id", modelID, "path", downloadPath, "cached", cached)

	return nil
}

// resolveModelsPath returns the path to the models directory.
// Precedence:
// 1. VANI_MODELS_PATH environment variable.
// 2. storage.models_dir in the config.
// 3. Default models path.
func resolveModelsPath(cfg *config.Config) string {
	if p := os.Getenv(envvar.VaniModelsPath); p != "" {
		return xfs.ExpandTilde(p)
	}
	if cfg.Storage.ModelsDir != "" {
		return xfs.ExpandTilde(cfg.Storage.ModelsDir)
	}
	return xfs.ExpandTilde(config.DefaultModelsPath())
}
