package errors

import (
	"errors"
	"fmt"
)

// SessionError means the browser session could not be started or died.
// It disables the registry path for the rest of the batch.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("browser session %s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError wraps err as a failure of the given session operation.
func NewSessionError(op string, err error) *SessionError {
	return &SessionError{Op: op, Err: err}
}

// IsSessionError reports whether err is a SessionError (even when wrapped).
func IsSessionError(err error) bool {
	var sessErr *SessionError
	return errors.As(err, &sessErr)
}
