package api

import (
	"errors"
	"fmt"
)

// ErrUnavailable indicates the backend could not be reached at all. It is
// distinct from a rejected request: the caller may not assume anything was
// processed.
var ErrUnavailable = errors.New("cannot connect to server")

// ErrUnauthorized indicates the bearer token was missing, expired or bad.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from the backend. Message carries the
// server-supplied text verbatim; it is empty when the server sent none, and
// callers are expected to substitute their own per-action fallback then.
type Error struct {
	Status  int
	Message string
}

// Error renders the server message when present.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server rejected request with status %d", e.Status)
}

// ServerMessage returns the verbatim backend message for err, or fallback
// when the failure carried none.
func ServerMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

type actionError struct {
	msg   string
	cause error
}

func (e *actionError) Error() string { return e.msg }

func (e *actionError) Unwrap() error { return e.cause }

// WithFallback wraps err so its message is the server-supplied text when
// present, the given per-action fallback otherwise. Connectivity failures
// keep the generic unavailable wording.
func WithFallback(err error, fallback string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return &actionError{msg: ServerMessage(err, fallback), cause: err}
}
