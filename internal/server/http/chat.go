package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Responder produces a chat reply.
type Responder interface {
	Respond(ctx context.Context, text string) (string, error)
}

type (
	ChatRequestDTO struct {
		_    struct{} `json:"-" additionalProperties:"true"`
		Text string   `json:"text,omitempty" doc:"Prompt sent to the chat model"`
	}

	ChatResponseDTO struct {
		Response string `json:"response"`
	}
)

type (
	ChatInput struct {
		Body *ChatRequestDTO
	}

	ChatOutput struct {
		Body ChatResponseDTO
	}
)

// ChatHandler handles HTTP requests for chat responses.
type ChatHandler struct {
	service Responder
}

// NewChatHandler creates a new ChatHandler instance.
func NewChatHandler(api huma.API, service Responder) *ChatHandler {
	h := &ChatHandler{service: service}

	huma.Register(api, huma.Operation{
		OperationID:   "get-response",
		Method:        http.MethodPost,
		Path:          "/getResponse",
		Summary:       "Generate a chat response for a prompt",
		Tags:          []string{"chat"},
		DefaultStatus: http.StatusOK,
	}, h.handleRespond)

	return h
}

func (h *ChatHandler) handleRespond(ctx context.Context, input *ChatInput) (*ChatOutput, error) {
	var text string
	if input.Body != nil {
		text = input.Body.Text
	}

	reply, err := h.service.Respond(ctx, text)
	if err != nil {
		return nil, serviceError("Error generating response: ", err)
	}

	return &ChatOutput{Body: ChatResponseDTO{Response: reply}}, nil
}
