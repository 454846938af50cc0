package api

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is returned by any authenticated call that receives 401.
// It is a signal to reset the client, not a user-facing error.
var ErrSessionExpired = errors.New("session expired")

// AuthError is a rejected login.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// ValidationError is input the backend refused. Message comes from the
// response body and is shown next to the form that caused it.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// OperationError is a failed mutation such as a delete.
type OperationError struct {
	Op      string
	Status  int
	Message string
}

func (e *OperationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed (status %d)", e.Op, e.Status)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

// NetworkError wraps a transport-level failure. Callers may offer a retry.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response on a read that has no narrower kind.
type StatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// UserMessage extracts the text to show inline for a mutation failure.
func UserMessage(err error) string {
	var (
		ve *ValidationError
		oe *OperationError
		ae *AuthError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &ae):
		return ae.Message
	case errors.As(err, &oe):
		if oe.Message != "" {
			return oe.Message
		}
		return oe.Error()
	case errors.Is(err, ErrSessionExpired):
		return "Session expired, please log in again."
	case IsNetwork(err):
		return "Cannot reach the server. Press R to retry."
	default:
		return err.Error()
	}
}
