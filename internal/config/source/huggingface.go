package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ekisa-team/vani/internal/config"
)

const (
	defaultRetryDelay = 2 * time.Second
	defaultMaxRetries = 3
	defaultTimeout    = 10 * time.Minute
	markerFilename    = ".vani-downloaded"
)

// Downloader fetches a model into targetDir and returns the path of the
// model file (or directory) to load, and whether it was already present.
type Downloader interface {
	Download(ctx context.Context, modelConfig *config.ModelConfig, targetDir string) (string, bool, error)
}

// RunFunc executes an external command and returns its combined output.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// GetDownloader returns the downloader for a source type.
func GetDownloader(_ context.Context, sourceType config.SourceType) (Downloader, error) {
	switch sourceType {
	case config.SourceTypeHuggingFace:
		return &HuggingFaceDownloader{}, nil
	default:
		return nil, fmt.Errorf("unsupported model source %q", sourceType)
	}
}

// EnsureModelsDirectory creates the models directory if needed.
func EnsureModelsDirectory(path string) error {
	if path == "" {
		return errors.New("models directory is empty")
	}
	return os.MkdirAll(path, 0o755)
}

// HuggingFaceDownloader downloads a model with the `hf` CLI.
type HuggingFaceDownloader struct {
	// Run replaces command execution; nil runs the real binary.
	Run RunFunc
	// RetryDelay overrides the pause between attempts.
	RetryDelay time.Duration
}

// Download downloads a Hugging Face model to the local cache.
func (d *HuggingFaceDownloader) Download(ctx context.Context, modelConfig *config.ModelConfig, targetDir string) (string, bool, error) {
	source, err := modelConfig.GetSource()
	if err != nil {
		return "", false, fmt.Errorf("failed to get model source: %w", err)
	}

	hfSource, ok := source.(config.HuggingFaceSource)
	if !ok {
		return "", false, fmt.Errorf("invalid source type: %T", source)
	}

	repo := strings.TrimSpace(hfSource.Repo)
	if repo == "" || strings.Contains(repo, "..") {
		return "", false, fmt.Errorf("invalid repo name: %q", hfSource.Repo)
	}

	fullPath := filepath.Join(targetDir, repo)
	markerPath := filepath.Join(fullPath, markerFilename)
	markerContent := d.markerContent(hfSource)

	if _, err := os.Stat(markerPath); err == nil && !d.shouldRedownload(markerPath, markerContent) {
		slog.Info("Model already downloaded (marker match), skipping", "repo", repo, "path", fullPath)
		modelPath, err := resolveModelPath(fullPath, hfSource.Include)
		return modelPath, true, err
	}

	if err := os.MkdirAll(fullPath, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create directory: %w", err)
	}

	args := d.args(hfSource, fullPath)

	run := d.Run
	if run == nil {
		run = execRun
	}
	delay := d.RetryDelay
	if delay == 0 {
		delay = defaultRetryDelay
	}

	var lastErr error
	for attempt := range defaultMaxRetries {
		if attempt > 0 {
			slog.Info("Retrying download", "repo", repo, "attempt", attempt+1, "last_error", lastErr)
			select {
			case <-ctx.Done():
				return "", false, fmt.Errorf("download canceled: %w", ctx.Err())
			case <-time.After(delay):
			}
		} else {
			slog.Info("Downloading model", "repo", repo, "path", fullPath)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
		output, err := run(attemptCtx, "hf", args...)
		attemptErr := attemptCtx.Err()
		cancel()

		if err == nil {
			if err := os.WriteFile(markerPath, []byte(markerContent), 0o644); err != nil {
				slog.Warn("Failed to write download marker", "path", markerPath, "error", err)
			}

			slog.Info("Model downloaded successfully", "repo", repo, "path", fullPath, "attempt", attempt+1)
			modelPath, err := resolveModelPath(fullPath, hfSource.Include)
			return modelPath, false, err
		}

		lastErr = err
		slog.Error("Failed to download model", "repo", repo, "attempt", attempt+1, "error", err, "output", string(output))

		if errors.Is(attemptErr, context.DeadlineExceeded) {
			slog.Warn("Download timed out", "repo", repo, "attempt", attempt+1)
		} else if ctx.Err() != nil {
			return "", false, fmt.Errorf("download canceled: %w", err)
		}
	}

	return "", false, fmt.Errorf("download %s failed after %d attempts: %w", repo, defaultMaxRetries, lastErr)
}

func (d *HuggingFaceDownloader) args(src config.HuggingFaceSource, dir string) []string {
	args := []string{"download", strings.TrimSpace(src.Repo), "--local-dir", dir}

	if src.Revision != "" {
		args = append(args, "--revision", src.Revision)
	}
	if src.RepoType != "" {
		args = append(args, "--repo-type", src.RepoType)
	}
	for _, inc := range src.Include {
		args = append(args, "--include", inc)
	}
	for _, exc := range src.Exclude {
		args = append(args, "--exclude", exc)
	}
	if src.ForceDownload {
		args = append(args, "--force-download")
	}
	if src.Token != "" {
		args = append(args, "--token", src.Token)
	}
	if src.MaxWorkers > 0 {
		args = append(args, "--max-workers", fmt.Sprintf("%d", src.MaxWorkers))
	}

	return args
}

// markerContent identifies a download; a change forces a fresh download.
func (d *HuggingFaceDownloader) markerContent(src config.HuggingFaceSource) string {
	return fmt.Sprintf("repo: %s\nrevision: %s\ninclude: %s\n",
		strings.TrimSpace(src.Repo), src.Revision, strings.Join(src.Include, ","))
}

func (d *HuggingFaceDownloader) shouldRedownload(markerPath, expected string) bool {
	content, err := os.ReadFile(markerPath)
	if err != nil {
		slog.Debug("Marker file unreadable", "path", markerPath, "error", err)
		return true
	}

	if string(content) != expected {
		slog.Info("Model config changed (marker mismatch), will redownload", "marker_path", markerPath)
		return true
	}

	return false
}

// resolveModelPath returns the single model file selected by the include
// patterns, or baseDir when the patterns do not pin one file down.
func resolveModelPath(baseDir string, includePatterns []string) (string, error) {
	if len(includePatterns) == 0 {
		return baseDir, nil
	}

	var files []string
	for _, pattern := range includePatterns {
		matches, err := filepath.Glob(filepath.Join(baseDir, pattern))
		if err != nil {
			slog.Warn("Invalid glob pattern", "pattern", pattern, "error", err)
			continue
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && !info.IsDir() {
				files = append(files, m)
			}
		}
	}

	switch len(files) {
	case 0:
		return baseDir, nil
	case 1:
		return files[0], nil
	}

	// ggml weights first, whisper.cpp loads a single .bin file
	for _, ext := range []string{".bin", ".gguf", ".onnx"} {
		for _, f := range files {
			if strings.HasSuffix(strings.ToLower(f), ext) {
				return f, nil
			}
		}
	}

	slog.Warn("Multiple files matched, using base directory", "count", len(files))
	return baseDir, nil
}
