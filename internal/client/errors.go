package client

import (
	"errors"
	"fmt"
)

// DefaultMaxInputLength is the largest accepted submission, in characters.
const DefaultMaxInputLength = 10000

// ErrNotFound is returned when the backend has no analysis with the given id.
var ErrNotFound = errors.New("analysis not found")

// InputError rejects a submission before any request is made.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// APIError is a non-success response. Message is the server's own text when it
// sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func newInputTooLongError(limit int) *InputError {
	return &InputError{Message: fmt.Sprintf("Input is too long: the limit is %d characters.", limit)}
}
