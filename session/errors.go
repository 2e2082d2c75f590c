package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned by CheckSession when no marker is persisted
	ErrNoSession = errors.New("no active session")
	// ErrNoIdentity is returned by GetIdentity when the marker is missing or unreadable
	ErrNoIdentity = errors.New("no identity available")
)

// AuthError is a failed login. It wraps the backend, transport or decode failure.
type AuthError struct {
	Username string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login failed for %q: %v", e.Username, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
