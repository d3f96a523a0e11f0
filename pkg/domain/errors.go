package domain

import (
	"errors"
	"fmt"
)

// ErrConversion is returned when a tree value cannot be expressed as a flat record, or vice versa.
var ErrConversion = errors.New("value conversion failed")

// ErrNotSupported is returned when the backend has no handler for the target path.
var ErrNotSupported = errors.New("operation not supported")

// ErrValidation is returned when an assembled reply tree fails structural validation.
var ErrValidation = errors.New("reply validation failed")

// ErrResource is returned when a tree or record buffer cannot be built.
var ErrResource = errors.New("resource allocation failed")

// ErrNoAction is returned when an action envelope does not contain an action node.
var ErrNoAction = errors.New("action node not found")

// ErrUnknownSchema is returned when a path does not resolve to a schema node.
var ErrUnknownSchema = errors.New("unknown schema node")

// BackendError is a failure reported by the backend after it accepted the call.
type BackendError struct {
	Code    Status
	Message string
	Path    string // Data path the backend attributed the failure to (optional)
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: %s", e.Code)
	}
	return fmt.Sprintf("backend: %s: %s", e.Code, e.Message)
}

// NotSupported reports whether the backend code means it has no implementation for the target.
func (e *BackendError) NotSupported() bool {
	return e.Code == StatusUnknownModel || e.Code == StatusNotFound
}

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// AsBackendError keeps a *BackendError found in err and reports anything
// else as StatusOperationFailed carrying the error text.
func AsBackendError(err error) *BackendError {
	var be *BackendError
	if errors.As(err, &be) {
		return be
	}
	return &BackendError{Code: StatusOperationFailed, Message: err.Error()}
}
