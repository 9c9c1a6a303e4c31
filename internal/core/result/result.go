// Package result carries the outcome of an asynchronous operation.
package result

import (
	"errors"
	"fmt"
)

// ErrNilCause is stored when Error is called with a nil error.
var ErrNilCause = errors.New("result: error result created without a cause")

// AccessError is returned when the value of a failed Result is requested.
type AccessError struct {
	Cause error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("result holds an error, not a value: %v", e.Cause)
}

func (e *AccessError) Unwrap() error {
	return e.Cause
}

// Result is either a value or the error that prevented producing one.
type Result[T any] struct {
	value T
	err   error
}

// Value wraps a successful outcome.
func Value[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Error wraps a failed outcome.
func Error[T any](err error) Result[T] {
	if err == nil {
		err = ErrNilCause
	}
	return Result[T]{err: err}
}

// Get returns the value, or an *AccessError wrapping the cause.
func (r Result[T]) Get() (T, error) {
	if r.err != nil {
		var zero T
		return zero, &AccessError{Cause: r.err}
	}
	return r.value, nil
}

// Err returns the cause of a failed Result, or nil.
func (r Result[T]) Err() error {
	return r.err
}

// OK reports whether r holds a value.
func (r Result[T]) OK() bool {
	return r.err == nil
}
