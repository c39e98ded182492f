package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckReload(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		changed string
	}{
		{name: "routes", mutate: func(c *Config) {
			c.Pipeline.Routes = append(c.Pipeline.Routes, LanguageRoute{})
		}},
		{name: "voice", mutate: func(c *Config) { c.Pipeline.Voice.Gender = "male" }},
		{name: "temp dir", mutate: func(c *Config) { c.Server.TempDir = "/var/tmp" }},
		{name: "hosted chat model", mutate: func(c *Config) { c.Chat.Model = "mistral" }},
		{name: "stt provider", mutate: func(c *Config) { c.STT.Provider = ProviderOpenAI }, changed: "stt.provider"},
		{name: "chat provider", mutate: func(c *Config) { c.Chat.Provider = ProviderGemini }, changed: "chat.provider"},
		{name: "pipeline base url", mutate: func(c *Config) { c.Pipeline.BaseURL = "https://other.example.com" }, changed: "pipeline.base_url"},
		{name: "pipeline authorization", mutate: func(c *Config) { c.Pipeline.Authorization = "rotated" }, changed: "pipeline.authorization"},
		{name: "upstream timeout", mutate: func(c *Config) { c.Upstreams.TTS.Timeout = time.Minute }, changed: "upstreams"},
		{name: "whisper url", mutate: func(c *Config) { c.STT.Whisper.URL = "http://10.0.0.2:8082" }, changed: "stt.whisper"},
		{name: "whisper model", mutate: func(c *Config) { c.STT.Model = "whisper-small" }, changed: "stt.model"},
		{name: "http port", mutate: func(c *Config) { c.Server.HTTPPort = 8080 }, changed: "server.http_port"},
		{name: "cors origins", mutate: func(c *Config) { c.Server.CORSOrigins = []string{"https://app.example.com"} }, changed: "server.cors_origins"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := Default()
			next := Default()
			tt.mutate(next)

			err := CheckReload(prev, next)
			if tt.changed == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrRestartRequired)
			assert.ErrorContains(t, err, tt.changed)
		})
	}
}

func TestCheckReload_LlamaModel(t *testing.T) {
	prev := Default()
	prev.Chat.Provider = ProviderLlamaCPP
	prev.Chat.Model = "qwen2.5-0.5b"

	next := Default()
	next.Chat.Provider = ProviderLlamaCPP
	next.Chat.Model = "llama-3.2-1b"

	err := CheckReload(prev, next)
	assert.ErrorIs(t, err, ErrRestartRequired)
	assert.ErrorContains(t, err, "chat.model")
}
