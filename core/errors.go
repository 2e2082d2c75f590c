package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnknownResource is matched by every UnknownResourceError
	ErrUnknownResource = errors.New("unknown resource")
	// ErrInvalidEnvelope is returned when a list response cannot be trusted
	ErrInvalidEnvelope = errors.New("invalid list envelope")
	// ErrInvalidInput marks caller data that cannot be sent to the backend
	ErrInvalidInput = errors.New("invalid input")
)

// UnknownResourceError is returned when a resource name has no backend path
type UnknownResourceError struct {
	Name string
}

func (e *UnknownResourceError) Error() string {
	return fmt.Sprintf("unknown resource %q", e.Name)
}

// Is lets errors.Is match ErrUnknownResource
func (e *UnknownResourceError) Is(target error) bool {
	return target == ErrUnknownResource
}

// BackendError is a non-2xx response from the backend
type BackendError struct {
	Method  string
	URL     string
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("backend error (status %d) %s %s: %s", e.Status, e.Method, e.URL, msg)
}

// TransportError means the request never completed: DNS, connection, timeout, cancellation
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s %s failed: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusCode returns the backend status carried by err, or 0
func StatusCode(err error) int {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr.Status
	}
	return 0
}
