package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ekisa-team/vani/internal/service"
)

// Translator runs a translation request.
type Translator interface {
	Translate(ctx context.Context, req service.TranslateRequest) (*service.TranslateResult, error)
}

type (
	TranslateRequestDTO struct {
		_              struct{} `json:"-" additionalProperties:"true"`
		SourceLanguage string   `json:"sourceLanguage,omitempty" example:"en"`
		TargetLanguage string   `json:"targetLanguage,omitempty" example:"hi"`
		Content        string   `json:"content,omitempty" example:"Hello"`
	}

	TranslateResponseDTO struct {
		StatusCode        int    `json:"status_code"`
		Message           string `json:"message"`
		TranslatedContent string `json:"translated_content,omitempty"`
		AudioContent      string `json:"audioContent,omitempty" doc:"Base64 encoded speech of the translation"`
	}
)

type (
	TranslateInput struct {
		Body *TranslateRequestDTO
	}

	TranslateOutput struct {
		Status int
		Body   TranslateResponseDTO
	}
)

// TranslateHandler handles HTTP requests for translation.
type TranslateHandler struct {
	service Translator
}

// NewTranslateHandler creates a new TranslateHandler instance.
func NewTranslateHandler(api huma.API, service Translator) *TranslateHandler {
	h := &TranslateHandler{service: service}

	huma.Register(api, huma.Operation{
		OperationID:   "translate",
		Method:        http.MethodPost,
		Path:          "/translate",
		Summary:       "Translate text and synthesize speech for the target language",
		Tags:          []string{"translation"},
		DefaultStatus: http.StatusOK,
	}, h.handleTranslate)

	return h
}

func (h *TranslateHandler) handleTranslate(ctx context.Context, input *TranslateInput) (*TranslateOutput, error) {
	var req service.TranslateRequest
	if b := input.Body; b != nil {
		req = service.TranslateRequest{
			SourceLanguage: b.SourceLanguage,
			TargetLanguage: b.TargetLanguage,
			Content:        b.Content,
		}
	}

	res, err := h.service.Translate(ctx, req)
	if err != nil {
		return nil, serviceError("Translation failed: ", err)
	}

	status := http.StatusOK
	if !res.OK() {
		status = http.StatusInternalServerError
	}

	return &TranslateOutput{
		Status: status,
		Body: TranslateResponseDTO{
			StatusCode:        res.StatusCode,
			Message:           res.Message,
			TranslatedContent: res.TranslatedContent,
			AudioContent:      res.AudioContent,
		},
	}, nil
}
