package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ekisa-team/vani/internal/config"
	"github.com/ekisa-team/vani/internal/upstream"
)

// ErrMalformedResponse is returned when the reply lacks the expected field.
var ErrMalformedResponse = errors.New("pipeline: malformed response")

// Options configures a Client.
type Options struct {
	BaseURL       string
	Authorization string
	HTTPClient    *http.Client
	Translation   *upstream.Guard
	TTS           *upstream.Guard
}

// Client calls the remote translation and speech synthesis pipeline.
type Client struct {
	endpoint      string
	authorization string
	http          *http.Client
	translation   *upstream.Guard
	tts           *upstream.Guard
}

// NewClient creates a pipeline client.
func NewClient(opts Options) *Client {
	c := &Client{
		endpoint:      strings.TrimRight(opts.BaseURL, "/") + "/pipeline",
		authorization: opts.Authorization,
		http:          opts.HTTPClient,
		translation:   opts.Translation,
		tts:           opts.TTS,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.translation == nil {
		c.translation = upstream.New("translation", config.UpstreamPolicy{})
	}
	if c.tts == nil {
		c.tts = upstream.New("tts", config.UpstreamPolicy{})
	}
	return c
}

// Translate returns the translated text of t.Content.
func (c *Client) Translate(ctx context.Context, t Translation) (string, error) {
	req := Request{
		PipelineTasks: []Task{{
			TaskType: TaskTranslation,
			Config: TaskConfig{
				Language: Language{
					SourceLanguage: t.SourceLanguage,
					TargetLanguage: t.TargetLanguage,
				},
				ServiceID: t.ServiceID,
			},
		}},
		InputData: InputData{Input: []Input{{Source: t.Content}}},
	}

	return upstream.Call(ctx, c.translation, func(ctx context.Context) (string, error) {
		resp, err := c.do(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.PipelineResponse) == 0 || len(resp.PipelineResponse[0].Output) == 0 {
			return "", fmt.Errorf("%w: missing pipelineResponse[0].output[0]", ErrMalformedResponse)
		}
		return resp.PipelineResponse[0].Output[0].Target, nil
	})
}

// Synthesize returns base64 audio for s.Text.
func (c *Client) Synthesize(ctx context.Context, s Synthesis) (string, error) {
	req := Request{
		PipelineTasks: []Task{{
			TaskType: TaskTTS,
			Config: TaskConfig{
				Language: Language{
					SourceLanguage:   s.Language,
					SourceScriptCode: s.ScriptCode,
				},
				ServiceID:    s.ServiceID,
				Gender:       s.Gender,
				SamplingRate: s.SamplingRate,
			},
		}},
		InputData: InputData{Input: []Input{{Source: s.Text}}},
	}

	return upstream.Call(ctx, c.tts, func(ctx context.Context) (string, error) {
		resp, err := c.do(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.PipelineResponse) == 0 || len(resp.PipelineResponse[0].Audio) == 0 ||
			resp.PipelineResponse[0].Audio[0].AudioContent == "" {
			return "", fmt.Errorf("%w: missing pipelineResponse[0].audio[0].audioContent", ErrMalformedResponse)
		}
		return resp.PipelineResponse[0].Audio[0].AudioContent, nil
	})
}

func (c *Client) do(ctx context.Context, body Request) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pipeline request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.authorization)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("pipeline returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return &out, nil
}
