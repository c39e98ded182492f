package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ekisa-team/vani/internal/envvar"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.yaml.in/yaml/v3"
)

const schemaURL = "https://ekisa-team.github.io/vani/vani.v1.schema.json"

//go:embed vani.v1.schema.json
var schemaJSON string

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// Load builds the effective configuration: defaults, then the YAML file at
// path when it is not empty, then environment overrides. The result is
// validated before it is returned.
func Load(path string, lookup LookupFunc) (*Config, error) {
	cfg := Default()

	if path != "" {
		var err error
		if cfg, err = LoadAndValidate(path); err != nil {
			return nil, err
		}
	}

	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := ApplyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadAndValidate reads the YAML file at path, validates it against the
// embedded JSON schema and decodes it on top of Default().
func LoadAndValidate(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: invalid YAML: %w", err)
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("config: failed to compile schema: %w", err)
	}

	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal into Config struct: %w", err)
	}

	return cfg, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
}

// ApplyEnv overrides cfg with values taken from the environment.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if v, ok := lookup(envvar.APIBaseURL); ok && v != "" {
		cfg.Pipeline.BaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := lookup(envvar.HeaderAuthorization); ok && v != "" {
		cfg.Pipeline.Authorization = v
	}

	if v, ok := lookup(envvar.VaniServerHTTPPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid %s %q: %w", envvar.VaniServerHTTPPort, v, err)
		}
		cfg.Server.HTTPPort = port
	}
	if v, ok := lookup(envvar.VaniServerGRPCPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid %s %q: %w", envvar.VaniServerGRPCPort, v, err)
		}
		cfg.Server.GRPCPort = port
	}

	if v, ok := lookup(envvar.OpenAIAPIKey); ok && v != "" {
		if cfg.STT.OpenAI.APIKey == "" {
			cfg.STT.OpenAI.APIKey = v
		}
		if cfg.Chat.OpenAI.APIKey == "" {
			cfg.Chat.OpenAI.APIKey = v
		}
	}
	if v, ok := lookup(envvar.GeminiAPIKey); ok && v != "" && cfg.Chat.Gemini.APIKey == "" {
		cfg.Chat.Gemini.APIKey = v
	}
	if v, ok := lookup(envvar.OllamaHost); ok && v != "" {
		cfg.Chat.Ollama.URL = v
	}

	return nil
}

// Validate checks cross-field requirements that the schema cannot express.
func (c *Config) Validate() error {
	var missing []string
	if c.Pipeline.BaseURL == "" {
		missing = append(missing, envvar.APIBaseURL)
	}
	if c.Pipeline.Authorization == "" {
		missing = append(missing, envvar.HeaderAuthorization)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	switch c.STT.Provider {
	case ProviderWhisperCPP:
		if c.STT.Whisper.BinPath == "" && c.STT.Whisper.URL == "" {
			return fmt.Errorf("%w: stt.whisper.url or stt.whisper.bin_path", ErrMissingConfig)
		}
	case ProviderOpenAI, ProviderGoogleSpeech:
	default:
		return fmt.Errorf("config: unknown stt provider %q", c.STT.Provider)
	}

	switch c.Chat.Provider {
	case ProviderOllama, ProviderOpenAI:
	case ProviderLlamaCPP:
		if c.Chat.Llama.BinPath == "" && c.Chat.Llama.URL == "" {
			return fmt.Errorf("%w: chat.llama.url or chat.llama.bin_path", ErrMissingConfig)
		}
	case ProviderGemini:
		if c.Chat.Gemini.APIKey == "" {
			return fmt.Errorf("%w: %s", ErrMissingConfig, envvar.GeminiAPIKey)
		}
	default:
		return fmt.Errorf("config: unknown chat provider %q", c.Chat.Provider)
	}

	if c.Server.HTTPPort <= 0 {
		return errors.New("config: server.http_port must be positive")
	}

	return nil
}
