package api

import (
	"errors"
	"net/http"

	"github.com/samcharles93/scanstack/internal/stack"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// classify maps a read error to an HTTP status and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, stack.ErrUnsupportedIndex):
		return http.StatusBadRequest, "unsupported_index"
	case errors.Is(err, stack.ErrOutOfRange):
		return http.StatusBadRequest, "out_of_range"
	case errors.Is(err, stack.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
