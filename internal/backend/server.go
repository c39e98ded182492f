package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"time"
)

// ServerManager manages locally spawned backend server processes.
type ServerManager struct {
	servers map[string]*ServerProcess
	mu      sync.Mutex
}

// ServerProcess represents a running server process.
type ServerProcess struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
}

// ServerConfig defines how to start and check a backend server.
type ServerConfig struct {
	Env          map[string]string
	Name         string
	BinPath      string
	HealthPath   string
	Args         []string
	Port         int
	ReadyTimeout time.Duration
}

// NewServerManager initializes a ServerManager.
func NewServerManager() *ServerManager {
	return &ServerManager{
		servers: map[string]*ServerProcess{},
	}
}

func serverKey(name string, port int) string {
	return fmt.Sprintf("%s-%d", name, port)
}

// StartServer starts a backend server unless one is already running for
// the same name and port. It returns once the health endpoint answers 200.
func (sm *ServerManager) StartServer(ctx context.Context, cfg ServerConfig) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	key := serverKey(cfg.Name, cfg.Port)
	if _, exists := sm.servers[key]; exists {
		return nil
	}

	info, err := os.Stat(cfg.BinPath)
	if err != nil {
		return fmt.Errorf("manager: failed to start %s server: %w", cfg.Name, err)
	}
	if info.IsDir() {
		return fmt.Errorf("manager: failed to start %s server: %s is a directory", cfg.Name, cfg.BinPath)
	}

	// The process outlives the request that triggered it.
	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, cfg.BinPath, cfg.Args...)

	if len(cfg.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range cfg.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("manager: failed to start %s server: %w", cfg.Name, err)
	}

	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = "/health"
	}

	timeout := cfg.ReadyTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	url := fmt.Sprintf("http://127.0.0.1:%d%s", cfg.Port, healthPath)
	if err := waitForServer(ctx, url, timeout); err != nil {
		cancel()
		_ = cmd.Wait()
		return fmt.Errorf("manager: %s server did not become ready: %w", cfg.Name, err)
	}

	sm.servers[key] = &ServerProcess{cmd: cmd, cancel: cancel}

	slog.Info("Server started", "name", cfg.Name, "port", cfg.Port, "pid", cmd.Process.Pid)
	return nil
}

// Running reports whether a server is tracked for name and port.
func (sm *ServerManager) Running(name string, port int) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	_, ok := sm.servers[serverKey(name, port)]
	return ok
}

// StopServer terminates a backend server.
func (sm *ServerManager) StopServer(name string, port int) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	key := serverKey(name, port)
	srv, exists := sm.servers[key]
	if !exists {
		return fmt.Errorf("manager: server %s not found", key)
	}

	srv.stop()
	delete(sm.servers, key)

	slog.Info("Server stopped", "name", name, "port", port)
	return nil
}

// StopAll terminates all running servers.
func (sm *ServerManager) StopAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for _, srv := range sm.servers {
		srv.stop()
	}
	sm.servers = map[string]*ServerProcess{}

	slog.Info("All servers stopped")
}

func (p *ServerProcess) stop() {
	p.cancel()
	if err := p.cmd.Wait(); err != nil {
		slog.Debug("Server process exited", "error", err)
	}
}

// waitForServer polls url until it answers 200, the timeout elapses or ctx ends.
func waitForServer(ctx context.Context, url string, timeout time.Duration) error {
	client := &http.Client{Timeout: time.Second}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		if resp, err := client.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("server failed to respond at %s within %v: %w", url, timeout, ctx.Err())
		case <-ticker.C:
		}
	}
}
