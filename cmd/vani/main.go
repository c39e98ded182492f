package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ekisa-team/vani/internal/backend"
	"github.com/ekisa-team/vani/internal/config"
	"github.com/ekisa-team/vani/internal/env"
	"github.com/ekisa-team/vani/internal/envvar"
	"github.com/ekisa-team/vani/internal/logger"
	"github.com/ekisa-team/vani/internal/model"
	"github.com/ekisa-team/vani/internal/pipeline"
	grpcserver "github.com/ekisa-team/vani/internal/server/grpc"
	httpserver "github.com/ekisa-team/vani/internal/server/http"
	"github.com/ekisa-team/vani/internal/service"
	"github.com/ekisa-team/vani/internal/upstream"
	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	var (
		flagHTTPPort   = flag.Int("http-port", config.DefaultHTTPPort(), "HTTP port to listen on, overrides server.http_port when set")
		flagGRPCPort   = flag.Int("grpc-port", config.DefaultGRPCPort(), "gRPC health port, 0 disables, overrides server.grpc_port when set")
		flagConfigPath = flag.String("config", filepath.Join(config.DefaultConfigPath(), configFileName), "Path to config file, "+envvar.VaniConfig+" is used when not set")
		flagWatch      = flag.Bool("watch", false, "Reload the config file when it changes")
		flagLogFile    = flag.String("log-file", "logs/vani.log", "Path to the rotating log file, empty disables it")
	)
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	// a missing .env is fine, variables may come from the environment
	_ = godotenv.Load()

	environment := env.FromEnv()

	slog.SetDefault(
		logger.New(environment,
			logger.WithLogToFile(*flagLogFile != ""),
			logger.WithLogFile(*flagLogFile),
		),
	)

	configPath := resolveConfigPath(*flagConfigPath, set["config"], os.LookupEnv)
	if configPath == "" {
		slog.Info("No config file found, using built-in defaults", "searched", *flagConfigPath)
	}

	// negative ports defer to the config file
	httpPort, grpcPort := -1, -1
	if set["http-port"] {
		httpPort = *flagHTTPPort
	}
	if set["grpc-port"] {
		grpcPort = *flagGRPCPort
	}

	if err := run(configPath, *flagWatch, httpPort, grpcPort); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

const configFileName = "vani.yaml"

// resolveConfigPath picks the config file to load. An explicit -config or
// VANI_CONFIG is returned as is so a missing file fails loudly; the per-user
// default is only used when it exists, otherwise "" selects built-in defaults.
func resolveConfigPath(path string, explicit bool, lookup config.LookupFunc) string {
	if explicit {
		return path
	}
	if v, ok := lookup(envvar.VaniConfig); ok && v != "" {
		return v
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func run(configPath string, watch bool, httpPort, grpcPort int) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager := model.NewManager()

	var (
		provider config.Provider
		cfg      *config.Config
	)
	if watch && configPath != "" {
		watcher, err := config.NewWatcher(configPath, os.LookupEnv, func(cfg *config.Config, err error) {
			if errors.Is(err, config.ErrRestartRequired) {
				slog.Warn("Restart vani to apply the config change", "config", configPath)
			}
			if err != nil {
				return
			}
			if err := manager.LoadModelsFromConfig(ctx, cfg); err != nil {
				slog.Error("Failed to load models from config", "error", err)
			}
			slog.Info("Config reloaded", "config", configPath)
		})
		if err != nil {
			return err
		}
		defer watcher.Close()

		provider, cfg = watcher, watcher.Snapshot()
	} else {
		var err error
		if cfg, err = config.Load(configPath, os.LookupEnv); err != nil {
			return err
		}
		provider = config.NewStatic(cfg)
	}

	if httpPort < 0 {
		httpPort = cfg.Server.HTTPPort
	}
	if grpcPort < 0 {
		grpcPort = cfg.Server.GRPCPort
	}

	slog.Info("Config loaded",
		"config", configPath,
		"stt_provider", cfg.STT.Provider,
		"chat_provider", cfg.Chat.Provider,
		"chat_model", cfg.Chat.Model,
		"routes", len(cfg.Pipeline.Routes),
	)

	// external whisper and llama servers bring their own models, so this is not fatal
	if err := manager.LoadModelsFromConfig(ctx, cfg); err != nil {
		slog.Error("Failed to load models from config", "error", err)
	}

	serverManager := backend.NewServerManager()
	defer serverManager.StopAll()

	sttBackends, err := newSTTBackends(ctx, cfg, serverManager)
	if err != nil {
		return err
	}
	defer sttBackends.Close()

	chatBackends, err := newChatBackends(ctx, cfg, serverManager)
	if err != nil {
		return err
	}
	defer chatBackends.Close()

	guards := struct{ stt, chat, translation, tts *upstream.Guard }{
		stt:         upstream.New("stt", cfg.Upstreams.STT),
		chat:        upstream.New("chat", cfg.Upstreams.Chat),
		translation: upstream.New("translation", cfg.Upstreams.Translation),
		tts:         upstream.New("tts", cfg.Upstreams.TTS),
	}

	client := pipeline.NewClient(pipeline.Options{
		BaseURL:       cfg.Pipeline.BaseURL,
		Authorization: cfg.Pipeline.Authorization,
		Translation:   guards.translation,
		TTS:           guards.tts,
	})

	deps := service.Deps{
		STT:         service.NewSTT(provider, sttBackends, manager.Registry(), guards.stt),
		Chat:        service.NewChat(provider, chatBackends, manager.Registry(), guards.chat),
		Translation: service.NewTranslation(provider, client, service.NewTTS(provider, client)),
	}

	httpSrv := httpserver.NewServer(deps, httpserver.Options{
		Port:        httpPort,
		Version:     version,
		CORSOrigins: cfg.Server.CORSOrigins,
		MaxUploadMB: cfg.Server.MaxUploadMB,
		Guards:      []*upstream.Guard{guards.stt, guards.chat, guards.translation, guards.tts},
		Backends:    map[string]*backend.Registry{"stt": sttBackends, "chat": chatBackends},
		Models:      manager.Registry(),
	})

	errs := make(chan error, 2)
	go func() { errs <- httpSrv.ListenAndServe() }()

	var grpcSrv *grpcserver.Server
	if grpcPort > 0 {
		grpcSrv = grpcserver.NewServer(grpcPort)
		for _, name := range []string{
			grpcserver.ServiceOverall,
			grpcserver.ServiceTranscribe,
			grpcserver.ServiceChat,
			grpcserver.ServiceTranslation,
		} {
			grpcSrv.SetServing(name, true)
		}
		go func() { errs <- grpcSrv.ListenAndServe() }()
	}

	slog.Info("vani started", "version", version, "http_port", httpPort, "grpc_port", grpcPort)

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err = <-errs:
		if err != nil {
			slog.Error("Listener failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if grpcSrv != nil {
		grpcSrv.Stop()
	}
	if serr := httpSrv.Shutdown(shutdownCtx); serr != nil {
		err = errors.Join(err, serr)
	}

	return err
}
