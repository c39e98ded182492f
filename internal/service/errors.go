package service

import "errors"

// Error kinds returned by every service. Handlers map them to HTTP statuses
// with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUpstream     = errors.New("upstream failure")
)

// kindError tags err with a kind while keeping err's own message.
type kindError struct {
	kind error
	err  error
}

func (e *kindError) Error() string {
	return e.err.Error()
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.err}
}

func invalidInput(msg string) error {
	return &kindError{kind: ErrInvalidInput, err: errors.New(msg)}
}

func upstreamFailure(err error) error {
	return &kindError{kind: ErrUpstream, err: err}
}
