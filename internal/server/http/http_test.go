package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/ekisa-team/vani/internal/backend"
	"github.com/ekisa-team/vani/internal/config"
	"github.com/ekisa-team/vani/internal/model"
	"github.com/ekisa-team/vani/internal/service"
	"github.com/ekisa-team/vani/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, req service.TranscribeRequest) (string, error) {
	var audio string
	if req.Audio != nil {
		data, _ := io.ReadAll(req.Audio)
		audio = string(data)
	}
	args := m.Called(audio, req.Filename, req.Parameters)
	return args.String(0), args.Error(1)
}

type MockResponder struct {
	mock.Mock
}

func (m *MockResponder) Respond(ctx context.Context, text string) (string, error) {
	args := m.Called(text)
	return args.String(0), args.Error(1)
}

type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, req service.TranslateRequest) (*service.TranslateResult, error) {
	args := m.Called(req)
	res, _ := args.Get(0).(*service.TranslateResult)
	return res, args.Error(1)
}

func decode(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func multipartBody(t *testing.T, file string, fields map[string]string) (string, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if file != "" {
		fw, err := w.CreateFormFile("audio", "clip.wav")
		require.NoError(t, err)
		_, err = fw.Write([]byte(file))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return "Content-Type: " + w.FormDataContentType(), buf
}

func TestTranscribe(t *testing.T) {
	_, api := humatest.New(t, NewConfig("test"))
	svc := new(MockTranscriber)
	NewSTTHandler(api, svc, 25)

	svc.On("Transcribe", "RIFF", "clip.wav", map[string]any{"language": "hi"}).Return(" Namaste ", nil).Once()

	ct, body := multipartBody(t, "RIFF", map[string]string{"parameters": `{"language":"hi"}`})
	resp := api.Post("/transcribe", ct, body)

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, " Namaste ", decode(t, resp.Body)["transcription"])
	svc.AssertExpectations(t)
}

func TestTranscribe_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, api := humatest.New(t, NewConfig("test"))
		svc := new(MockTranscriber)
		NewSTTHandler(api, svc, 0)

		svc.On("Transcribe", "", "", mock.Anything).Return("", service.ErrInvalidInput)

		ct, body := multipartBody(t, "", map[string]string{"parameters": "{}"})
		resp := api.Post("/transcribe", ct, body)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, decode(t, resp.Body), "error")
	})

	t.Run("invalid parameters", func(t *testing.T) {
		_, api := humatest.New(t, NewConfig("test"))
		svc := new(MockTranscriber)
		NewSTTHandler(api, svc, 0)

		ct, body := multipartBody(t, "RIFF", map[string]string{"parameters": "{"})
		resp := api.Post("/transcribe", ct, body)

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		svc.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("upstream failure", func(t *testing.T) {
		_, api := humatest.New(t, NewConfig("test"))
		svc := new(MockTranscriber)
		NewSTTHandler(api, svc, 0)

		svc.On("Transcribe", "RIFF", "clip.wav", map[string]any(nil)).
			Return("", errors.New("whisper unreachable"))

		ct, body := multipartBody(t, "RIFF", nil)
		resp := api.Post("/transcribe", ct, body)

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
		assert.Equal(t, "Error transcribing audio: whisper unreachable", decode(t, resp.Body)["error"])
	})
}

func TestGetResponse(t *testing.T) {
	_, api := humatest.New(t, NewConfig("test"))
	svc := new(MockResponder)
	NewChatHandler(api, svc)

	svc.On("Respond", "Hi").Return("Hello!", nil)

	resp := api.Post("/getResponse", map[string]any{"text": "Hi"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Hello!", decode(t, resp.Body)["response"])
}

func TestGetResponse_Errors(t *testing.T) {
	_, api := humatest.New(t, NewConfig("test"))
	svc := new(MockResponder)
	NewChatHandler(api, svc)

	svc.On("Respond", "").Return("", &invalid{"No text provided"})
	svc.On("Respond", "boom").Return("", errors.New("connection refused"))

	resp := api.Post("/getResponse", map[string]any{"prompt": "Hi"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "No text provided", decode(t, resp.Body)["error"])

	resp = api.Post("/getResponse", map[string]any{"text": "boom"})
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "Error generating response: connection refused", decode(t, resp.Body)["error"])

	resp = api.Post("/getResponse", "Content-Type: application/json", bytes.NewBufferString(""))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "No text provided", decode(t, resp.Body)["error"])

	resp = api.Post("/getResponse", "Content-Type: application/json", bytes.NewBufferString("{not json"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, decode(t, resp.Body), "error")
}

// invalid behaves like the service's invalid input errors.
type invalid struct{ msg string }

func (e *invalid) Error() string        { return e.msg }
func (e *invalid) Is(target error) bool { return target == service.ErrInvalidInput }

func TestTranslate(t *testing.T) {
	_, api := humatest.New(t, NewConfig("test"))
	svc := new(MockTranslator)
	NewTranslateHandler(api, svc)

	svc.On("Translate", service.TranslateRequest{SourceLanguage: "en", TargetLanguage: "hi", Content: "Hello"}).
		Return(&service.TranslateResult{
			StatusCode:        http.StatusOK,
			Message:           service.MessageTranslated,
			TranslatedContent: "नमस्ते",
			AudioContent:      "UklGRg==",
		}, nil)

	resp := api.Post("/translate", map[string]any{"sourceLanguage": "en", "targetLanguage": "hi", "content": "Hello"})
	body := decode(t, resp.Body)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.EqualValues(t, resp.Code, body["status_code"])
	assert.Equal(t, "Translation successful", body["message"])
	assert.Equal(t, "नमस्ते", body["translated_content"])
	assert.Equal(t, "UklGRg==", body["audioContent"])
}

func TestTranslate_FailureStatusMatchesBody(t *testing.T) {
	_, api := humatest.New(t, NewConfig("test"))
	svc := new(MockTranslator)
	NewTranslateHandler(api, svc)

	svc.On("Translate", mock.Anything).Return(&service.TranslateResult{
		StatusCode: http.StatusInternalServerError,
		Message:    "Translation failed: 502 Bad Gateway",
	}, nil)

	resp := api.Post("/translate", map[string]any{"sourceLanguage": "en", "targetLanguage": "hi", "content": "Hello"})
	body := decode(t, resp.Body)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.EqualValues(t, http.StatusInternalServerError, body["status_code"])
	assert.NotContains(t, body, "audioContent")
	assert.NotContains(t, body, "translated_content")
}

func TestTranslate_InvalidInput(t *testing.T) {
	_, api := humatest.New(t, NewConfig("test"))
	svc := new(MockTranslator)
	NewTranslateHandler(api, svc)

	svc.On("Translate", mock.Anything).Return(nil, &invalid{"Invalid input data"})

	for _, payload := range []map[string]any{
		{"targetLanguage": "hi", "content": "Hello"},
		{"sourceLanguage": "en", "content": "Hello"},
		{"sourceLanguage": "en", "targetLanguage": "hi"},
	} {
		resp := api.Post("/translate", payload)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "Invalid input data", decode(t, resp.Body)["error"])
	}

	resp := api.Post("/translate", "Content-Type: application/json", bytes.NewBufferString(""))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid input data", decode(t, resp.Body)["error"])
	svc.AssertCalled(t, "Translate", service.TranslateRequest{})
}

func TestHealth(t *testing.T) {
	_, api := humatest.New(t, NewConfig("test"))

	stt := backend.NewRegistry()
	require.NoError(t, stt.Register(stubBackend{provider: backend.BackendProviderWhisperCPP}))
	require.NoError(t, stt.Register(stubBackend{provider: backend.BackendProviderOpenAI}))

	models := model.NewRegistry()
	models.Set(model.NewModelInstance(nil, "whisper-large-v3-turbo", "/models/ggml.bin"))
	models.MarkLoaded("whisper-large-v3-turbo")

	NewHealthHandler(api, Options{
		Version:  "1.2.3",
		Guards:   []*upstream.Guard{upstream.New("chat", config.UpstreamPolicy{})},
		Backends: map[string]*backend.Registry{"stt": stt, "chat": backend.NewRegistry()},
		Models:   models,
	})

	resp := api.Get("/healthz")
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode(t, resp.Body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, map[string]any{"chat": "closed"}, body["upstreams"])
	assert.Equal(t, map[string]any{
		"stt":  []any{string(backend.BackendProviderOpenAI), string(backend.BackendProviderWhisperCPP)},
		"chat": []any{},
	}, body["backends"])
	modelsBody := body["models"].(map[string]any)
	whisperModel := modelsBody["whisper-large-v3-turbo"].(map[string]any)
	assert.Equal(t, "loaded", whisperModel["status"])
	assert.NotEmpty(t, whisperModel["loaded_at"])
}

type stubBackend struct {
	provider backend.BackendProvider
}

func (s stubBackend) Provider() backend.BackendProvider { return s.provider }

func (stubBackend) Infer(context.Context, *backend.Request) (*backend.Response, error) {
	return nil, backend.ErrNotFound
}

func (stubBackend) Close() error { return nil }

func TestNewHandler_RequestIDAndCORS(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get(HeaderRequestID))
		w.WriteHeader(http.StatusTeapot)
	})
	h := NewHandler(inner, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}

func TestNewError(t *testing.T) {
	err := newError(http.StatusUnprocessableEntity, "validation failed", errors.New("expected string"))
	assert.Equal(t, http.StatusBadRequest, err.GetStatus())
	assert.Equal(t, "validation failed: expected string", err.Error())

	err = newError(http.StatusNotFound, "Not Found")
	assert.Equal(t, http.StatusNotFound, err.GetStatus())
	assert.Equal(t, "Not Found", err.Error())
}
