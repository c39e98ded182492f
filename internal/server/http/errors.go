package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ekisa-team/vani/internal/service"
)

// ErrorBody is the error envelope shared by every route.
type ErrorBody struct {
	Status  int    `json:"-"`
	Message string `json:"error" doc:"Human readable error message"`
}

// Error implements error.
func (e *ErrorBody) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *ErrorBody) GetStatus() int {
	return e.Status
}

func init() {
	huma.NewError = newError
}

// newError replaces huma's problem+json errors with ErrorBody. Request
// validation failures are reported as 400.
func newError(status int, msg string, errs ...error) huma.StatusError {
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}

	details := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			details = append(details, err.Error())
		}
	}
	if len(details) > 0 {
		msg = msg + ": " + strings.Join(details, "; ")
	}

	return &ErrorBody{Status: status, Message: msg}
}

// serviceError maps a service error to a response. prefix is prepended to
// upstream failures.
func serviceError(prefix string, err error) error {
	if errors.Is(err, service.ErrInvalidInput) {
		return huma.Error400BadRequest(err.Error())
	}
	return huma.Error500InternalServerError(prefix + err.Error())
}
