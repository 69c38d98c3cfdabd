package remote

import (
	"errors"
	"fmt"
)

// TransportError means the remote was unreachable or the request never
// completed. Always retryable; never treated as data loss.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError means the remote rejected the payload. The record is kept
// in error state for manual retry and the message is surfaced to the user.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Msg)
}

// NotFoundError means the remote record vanished. Callers treat the record
// as already deleted.
type NotFoundError struct {
	ServerID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("remote task %s not found", e.ServerID)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
