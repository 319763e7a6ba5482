package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/jafarshop/cartsync/internal/domain"
)

// ErrNotFound is returned when the backend has no such resource
type ErrNotFound struct {
	Resource string
	ID       string
	Message  string
}

func (e *ErrNotFound) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when there is no usable session
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message == "" {
		return "unauthorized"
	}
	return e.Message
}

// ErrValidation is a request the server (or a client-side guard) refused
type ErrValidation struct {
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Message == "" {
		return "validation failed"
	}
	return e.Message
}

// ErrInvalidStateTransition is returned for a draw action not allowed in the current state
type ErrInvalidStateTransition struct {
	From domain.DrawState
	To   domain.DrawState
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// ErrTransport covers failures where no usable response came back
type ErrTransport struct {
	Op  string
	Err error
}

func (e *ErrTransport) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ErrTransport) Unwrap() error {
	return e.Err
}

// ErrUpstream is any other non-success response
type ErrUpstream struct {
	Status  int
	Message string
}

func (e *ErrUpstream) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error: status %d", e.Status)
	}
	return fmt.Sprintf("backend error: status %d: %s", e.Status, e.Message)
}

// UserMessage returns the server-provided text carried by err, or fallback.
// The text is passed through as-is.
func UserMessage(err error, fallback string) string {
	if msg := ServerMessage(err); msg != "" {
		return msg
	}
	return fallback
}

// ServerMessage extracts the message the backend sent, if any
func ServerMessage(err error) string {
	var validation *ErrValidation
	if stderrors.As(err, &validation) {
		return validation.Message
	}
	var notFound *ErrNotFound
	if stderrors.As(err, &notFound) {
		return notFound.Message
	}
	var unauthorized *ErrUnauthorized
	if stderrors.As(err, &unauthorized) {
		return unauthorized.Message
	}
	var upstream *ErrUpstream
	if stderrors.As(err, &upstream) {
		return upstream.Message
	}
	return ""
}

// IsUnauthorized reports whether err means the session is missing or rejected
func IsUnauthorized(err error) bool {
	var unauthorized *ErrUnauthorized
	return stderrors.As(err, &unauthorized)
}

// IsTransport reports whether err is a transport-level failure
func IsTransport(err error) bool {
	var transport *ErrTransport
	return stderrors.As(err, &transport)
}
