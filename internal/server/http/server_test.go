package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ekisa-team/vani/internal/backend"
	"github.com/ekisa-team/vani/internal/backend/ollama"
	"github.com/ekisa-team/vani/internal/backend/whisper"
	"github.com/ekisa-team/vani/internal/config"
	"github.com/ekisa-team/vani/internal/model"
	"github.com/ekisa-team/vani/internal/pipeline"
	"github.com/ekisa-team/vani/internal/service"
	"github.com/ekisa-team/vani/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreams struct {
	pipeline    *httptest.Server
	whisper     *httptest.Server
	ollama      *httptest.Server
	translation atomic.Int32
	tts         atomic.Int32
}

func newUpstreams(t *testing.T) *upstreams {
	t.Helper()
	u := &upstreams{}

	u.pipeline = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req pipeline.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")

		switch req.PipelineTasks[0].TaskType {
		case pipeline.TaskTranslation:
			u.translation.Add(1)
			_, _ = w.Write([]byte(`{"pipelineResponse":[{"output":[{"target":"नमस्ते"}]}]}`))
		case pipeline.TaskTTS:
			u.tts.Add(1)
			_, _ = w.Write([]byte(`{"pipelineResponse":[{"audio":[{"audioContent":"UklGRg=="}]}]}`))
		}
	}))
	t.Cleanup(u.pipeline.Close)

	u.whisper = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":" And so my fellow Americans.","segments":[{"id":0,"text":" And so","start":0,"end":1}]}`))
	}))
	t.Cleanup(u.whisper.Close)

	u.ollama = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"llama3.2","message":{"role":"assistant","content":" Hello! "},"done":true}`))
	}))
	t.Cleanup(u.ollama.Close)

	return u
}

func newTestServer(t *testing.T, u *upstreams) http.Handler {
	t.Helper()

	cfg := config.Default()
	cfg.Server.TempDir = t.TempDir()
	cfg.Pipeline.BaseURL = u.pipeline.URL
	cfg.Pipeline.Authorization = "secret"
	provider := config.NewStatic(cfg)

	stt := backend.NewRegistry()
	wb, err := whisper.NewBackend(whisper.Options{URL: u.whisper.URL}, nil)
	require.NoError(t, err)
	require.NoError(t, stt.Register(wb))

	chat := backend.NewRegistry()
	require.NoError(t, chat.Register(ollama.NewBackend(u.ollama.URL, nil)))

	models := model.NewRegistry()
	m := model.NewModelInstance(&config.ModelConfig{Type: "stt"}, cfg.STT.Model, "/models/ggml.bin")
	m.SetStatus(model.ModelStatusLoaded)
	models.Set(m)

	client := pipeline.NewClient(pipeline.Options{BaseURL: cfg.Pipeline.BaseURL, Authorization: cfg.Pipeline.Authorization})
	deps := service.Deps{
		STT:         service.NewSTT(provider, stt, models, upstream.New("stt", cfg.Upstreams.STT)),
		Chat:        service.NewChat(provider, chat, models, upstream.New("chat", cfg.Upstreams.Chat)),
		Translation: service.NewTranslation(provider, client, service.NewTTS(provider, client)),
	}

	return NewServer(deps, Options{Version: "test", CORSOrigins: cfg.Server.CORSOrigins}).Handler()
}

func TestServer_EndToEnd(t *testing.T) {
	u := newUpstreams(t)
	h := newTestServer(t, u)

	t.Run("transcribe", func(t *testing.T) {
		ct, body := multipartBody(t, "RIFF....WAVE", nil)
		req := httptest.NewRequest(http.MethodPost, "/transcribe", body)
		req.Header.Set("Content-Type", ct[len("Content-Type: "):])
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, map[string]any{"transcription": " And so my fellow Americans."}, decode(t, rec.Body))
	})

	t.Run("getResponse", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/getResponse", bytes.NewBufferString(`{"text":"Hi"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, map[string]any{"response": "Hello!"}, decode(t, rec.Body))
	})

	t.Run("getResponse without body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/getResponse", nil)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, map[string]any{"error": "No text provided"}, decode(t, rec.Body))
	})

	t.Run("translate twice", func(t *testing.T) {
		for range 2 {
			req := httptest.NewRequest(http.MethodPost, "/translate",
				bytes.NewBufferString(`{"sourceLanguage":"en","targetLanguage":"hi","content":"Hello"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			body := decode(t, rec.Body)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.NotContains(t, body, "$schema")
			assert.EqualValues(t, rec.Code, body["status_code"])
			assert.Equal(t, "नमस्ते", body["translated_content"])
			assert.Equal(t, "UklGRg==", body["audioContent"])
		}

		assert.Equal(t, int32(2), u.translation.Load())
		assert.Equal(t, int32(2), u.tts.Load())
	})

	t.Run("docs", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
