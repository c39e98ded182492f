package backend

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// NewTextResponse wraps a plain-text result with its metadata.
func NewTextResponse(provider BackendProvider, model, text string, started time.Time, extra map[string]any) *Response {
	return &Response{
		Output: strings.NewReader(text),
		Metadata: &ResponseMetadata{
			Provider:        provider,
			Model:           model,
			Timestamp:       time.Now(),
			DurationSeconds: time.Since(started).Seconds(),
			OutputBytes:     int64(len(text)),
			BackendSpecific: extra,
		},
	}
}

// ReadText drains resp.Output into a string.
func ReadText(resp *Response) (string, error) {
	if resp == nil || resp.Output == nil {
		return "", ErrEmptyOutput
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, resp.Output); err != nil {
		return "", fmt.Errorf("failed to read backend output: %w", err)
	}

	return sb.String(), nil
}
