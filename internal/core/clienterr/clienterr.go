// Package clienterr defines the typed failures reported by the RSO client.
package clienterr

import (
	"errors"
	"fmt"
)

// Kind classifies a client failure.
type Kind string

const (
	KindTransport Kind = "TRANSPORT" // connection failure or non-2xx status
	KindDecode    Kind = "DECODE"    // malformed JSON or an unclassifiable record
	KindHandshake Kind = "HANDSHAKE" // backend answered the probe with the wrong body
)

// Error is a structured client failure.
type Error struct {
	Kind    Kind
	Status  int // HTTP status when one was received
	Message string
	Cause   error
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewTransport wraps a network-level failure.
func NewTransport(msg string, cause error) *Error {
	return &Error{
		Kind:    KindTransport,
		Message: msg,
		Cause:   cause,
	}
}

// NewStatus reports a non-2xx HTTP response.
func NewStatus(status int, url, body string) *Error {
	return &Error{
		Kind:    KindTransport,
		Status:  status,
		Message: fmt.Sprintf("http %d from %s", status, url),
		Details: map[string]any{"url": url, "body": body},
	}
}

// NewDecode wraps a payload that could not be turned into domain values.
func NewDecode(cause error) *Error {
	return &Error{
		Kind:    KindDecode,
		Message: "decode response",
		Cause:   cause,
	}
}

// NewHandshake reports a probe response whose body was not the acknowledgment.
func NewHandshake(want, got string) *Error {
	return &Error{
		Kind:    KindHandshake,
		Message: "invalid response from server",
		Details: map[string]any{"want": want, "got": got},
	}
}

// Is reports whether err is, or wraps, a client Error of the given kind.
func Is(err error, kind Kind) bool {
	var cErr *Error
	if errors.As(err, &cErr) {
		return cErr.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first client Error in err's chain, or "".
func KindOf(err error) Kind {
	var cErr *Error
	if errors.As(err, &cErr) {
		return cErr.Kind
	}
	return ""
}
