package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ekisa-team/vani/internal/service"
)

// Transcriber transcribes uploaded audio.
type Transcriber interface {
	Transcribe(ctx context.Context, req service.TranscribeRequest) (string, error)
}

type (
	TranscribeForm struct {
		Audio      huma.FormFile `form:"audio" required:"false" doc:"Audio file to transcribe"`
		Parameters string        `form:"parameters" required:"false" doc:"JSON object of backend parameters, e.g. {\"language\":\"hi\"}"`
	}

	TranscribeResponseDTO struct {
		Transcription string `json:"transcription"`
	}
)

type (
	TranscribeInput struct {
		RawBody huma.MultipartFormFiles[TranscribeForm]
	}

	TranscribeOutput struct {
		Body TranscribeResponseDTO
	}
)

// STTHandler handles HTTP requests for STT.
type STTHandler struct {
	service Transcriber
}

// NewSTTHandler creates a new STTHandler instance.
func NewSTTHandler(api huma.API, service Transcriber, maxUploadMB int64) *STTHandler {
	h := &STTHandler{service: service}

	op := huma.Operation{
		OperationID:   "transcribe",
		Method:        http.MethodPost,
		Path:          "/transcribe",
		Summary:       "Transcribe an audio file",
		Tags:          []string{"stt"},
		DefaultStatus: http.StatusOK,
	}
	if maxUploadMB > 0 {
		op.MaxBodyBytes = maxUploadMB << 20
	}
	huma.Register(api, op, h.handleTranscribe)

	return h
}

func (h *STTHandler) handleTranscribe(ctx context.Context, input *TranscribeInput) (*TranscribeOutput, error) {
	form := input.RawBody.Data()

	req := service.TranscribeRequest{}
	if form.Parameters != "" {
		if err := json.Unmarshal([]byte(form.Parameters), &req.Parameters); err != nil {
			return nil, huma.Error400BadRequest("Invalid parameters: " + err.Error())
		}
	}
	if form.Audio.IsSet {
		defer form.Audio.Close()
		req.Audio = form.Audio
		req.Filename = form.Audio.Filename
	}

	text, err := h.service.Transcribe(ctx, req)
	if err != nil {
		return nil, serviceError("Error transcribing audio: ", err)
	}

	return &TranscribeOutput{Body: TranscribeResponseDTO{Transcription: text}}, nil
}
