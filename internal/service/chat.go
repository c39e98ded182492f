package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ekisa-team/vani/internal/backend"
	"github.com/ekisa-team/vani/internal/config"
	"github.com/ekisa-team/vani/internal/model"
	"github.com/ekisa-team/vani/internal/upstream"
)

// Boilerplate some chat clients leave around a stringified reply.
const (
	replyPrefix = "role='assistant' content='"
	replySuffix = "' images=None tool_calls=None"
)

// Chat is a service abstraction for chat completion.
type Chat struct {
	cfg      config.Provider
	backends *backend.Registry
	models   *model.Registry
	guard    *upstream.Guard
}

// NewChat creates a new Chat service.
func NewChat(cfg config.Provider, backends *backend.Registry, models *model.Registry, guard *upstream.Guard) *Chat {
	return &Chat{
		cfg:      cfg,
		backends: backends,
		models:   models,
		guard:    guard,
	}
}

// Respond sends text to the configured chat model as a single user message
// and returns the normalized reply.
func (c *Chat) Respond(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", invalidInput("No text provided")
	}

	snap := c.cfg.Snapshot()
	provider := backend.BackendProvider(snap.Chat.Provider)

	b, ok := c.backends.Get(provider)
	if !ok {
		return "", upstreamFailure(fmt.Errorf("%w: %s", backend.ErrNotFound, provider))
	}

	breq := &backend.Request{
		Model: snap.Chat.Model,
		Input: strings.NewReader(text),
	}
	if provider == backend.BackendProviderLlamaCPP {
		path, err := c.models.LocalPath(snap.Chat.Model)
		if err != nil {
			return "", upstreamFailure(err)
		}
		breq.ModelPath = path
	}

	reply, err := upstream.Call(ctx, c.guard, func(ctx context.Context) (string, error) {
		resp, err := b.Infer(ctx, breq)
		if err != nil {
			return "", err
		}
		return backend.ReadText(resp)
	})
	if err != nil {
		return "", upstreamFailure(err)
	}
	markLoaded(c.models, b, snap.Chat.Model, breq)

	return NormalizeReply(reply), nil
}

// NormalizeReply strips the stringified-message boilerplate from a reply and
// trims surrounding whitespace. Other text is returned trimmed and otherwise
// unchanged.
func NormalizeReply(reply string) string {
	reply = strings.TrimPrefix(reply, replyPrefix)
	reply = strings.TrimSuffix(reply, replySuffix)
	return strings.TrimSpace(reply)
}
