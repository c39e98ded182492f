// Package openaicompat talks to OpenAI and OpenAI-compatible servers
// (vLLM, LocalAI, llama.cpp server) for chat and transcription.
package openaicompat

import (
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// NewClient builds an openai.Client. Retries are disabled; the caller's
// guard decides how failures are handled.
func NewClient(baseURL, apiKey string, httpClient *http.Client) openai.Client {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return openai.NewClient(opts...)
}
