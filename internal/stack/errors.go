package stack

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by backends when the named stack does not exist.
var ErrNotFound = errors.New("stack not found")

// NotFoundError reports that no deployment with Name exists.
type NotFoundError struct {
	Name    string
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Stack with id %s does not exist", e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// BackendError is an opaque failure of a backend call. Message is the
// backend's own text.
type BackendError struct {
	Op      string
	Code    string
	Message string

	// Retryable is set only when the request provably never reached the
	// backend.
	Retryable bool

	Err error
}

func (e *BackendError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s failed", e.Op)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// DeployError reports a failed submission.
type DeployError struct {
	Name string
	Err  error
}

func (e *DeployError) Error() string {
	return e.Err.Error()
}

func (e *DeployError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a backend failure that happened before
// the backend acknowledged the request.
func IsRetryable(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Retryable
}

// asBackendError returns err as a *BackendError, wrapping foreign errors.
func asBackendError(op string, err error) *BackendError {
	var be *BackendError
	if errors.As(err, &be) {
		return be
	}
	return &BackendError{Op: op, Message: err.Error(), Err: err}
}
