package service

import (
	"context"
	"testing"

	"github.com/ekisa-team/vani/internal/backend"
	"github.com/ekisa-team/vani/internal/config"
	"github.com/ekisa-team/vani/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{name: "plain", reply: "Hi there", want: "Hi there"},
		{name: "stringified message", reply: "role='assistant' content='Hello!' images=None tool_calls=None", want: "Hello!"},
		{name: "whitespace", reply: "  \n Hello \n", want: "Hello"},
		{name: "prefix only", reply: "role='assistant' content=' Namaste", want: "Namaste"},
		{name: "boilerplate in the middle", reply: "say role='assistant' content='x'", want: "say role='assistant' content='x'"},
		{name: "empty", reply: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeReply(tt.reply))
		})
	}
}

func TestChat_Respond(t *testing.T) {
	cfg := testConfig(t)
	b := &fakeBackend{provider: backend.BackendProviderOllama, reply: "role='assistant' content='Hello!' images=None tool_calls=None"}
	svc := NewChat(config.NewStatic(cfg), registryWith(t, b), model.NewRegistry(), guard("chat"))

	reply, err := svc.Respond(context.Background(), "Hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", reply)
	assert.Equal(t, "llama3.2", b.req.Model)
	assert.Equal(t, "Hi", b.input)
}

func TestChat_Errors(t *testing.T) {
	cfg := testConfig(t)

	b := &fakeBackend{provider: backend.BackendProviderOllama, err: errBoom}
	svc := NewChat(config.NewStatic(cfg), registryWith(t, b), model.NewRegistry(), guard("chat"))

	_, err := svc.Respond(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.EqualError(t, err, "No text provided")
	assert.Zero(t, b.calls)

	_, err = svc.Respond(context.Background(), "Hi")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, errBoom)
}

func TestChat_LlamaModelPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Chat.Provider = config.ProviderLlamaCPP
	cfg.Chat.Model = "qwen2.5-0.5b"

	models := model.NewRegistry()
	models.Set(model.NewModelInstance(&config.ModelConfig{}, "qwen2.5-0.5b", "/models/qwen.gguf"))

	b := &fakeBackend{provider: backend.BackendProviderLlamaCPP, reply: "Vanakkam"}
	svc := NewChat(config.NewStatic(cfg), registryWith(t, b), models, guard("chat"))

	reply, err := svc.Respond(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Vanakkam", reply)
	assert.Equal(t, "/models/qwen.gguf", b.req.ModelPath)

	inst, _ := models.Get("qwen2.5-0.5b")
	inst.SetError(errBoom)

	_, err = svc.Respond(context.Background(), "Hello")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, 1, b.calls)
}

func TestChat_MarksSpawnedModelLoaded(t *testing.T) {
	cfg := testConfig(t)
	cfg.Chat.Provider = config.ProviderLlamaCPP
	cfg.Chat.Model = "qwen2.5-0.5b"

	models := model.NewRegistry()
	models.Set(model.NewModelInstance(&config.ModelConfig{}, "qwen2.5-0.5b", "/models/qwen.gguf"))

	fake := &fakeBackend{provider: backend.BackendProviderLlamaCPP, err: errBoom}
	svc := NewChat(config.NewStatic(cfg), registryWith(t, spawningBackend{fake}), models, guard("chat"))

	_, err := svc.Respond(context.Background(), "Hello")
	require.Error(t, err)
	assert.Equal(t, model.ModelStatusUnloaded, models.Snapshot()["qwen2.5-0.5b"].Status)

	fake.err = nil
	fake.reply = "Vanakkam"
	_, err = svc.Respond(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, model.ModelStatusLoaded, models.Snapshot()["qwen2.5-0.5b"].Status)
}

func TestChat_ExternalServerLeavesModelUnloaded(t *testing.T) {
	cfg := testConfig(t)
	cfg.Chat.Provider = config.ProviderLlamaCPP
	cfg.Chat.Model = "qwen2.5-0.5b"

	models := model.NewRegistry()
	models.Set(model.NewModelInstance(&config.ModelConfig{}, "qwen2.5-0.5b", "/models/qwen.gguf"))

	b := &fakeBackend{provider: backend.BackendProviderLlamaCPP, reply: "Vanakkam"}
	svc := NewChat(config.NewStatic(cfg), registryWith(t, b), models, guard("chat"))

	_, err := svc.Respond(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, model.ModelStatusUnloaded, models.Snapshot()["qwen2.5-0.5b"].Status)
}
