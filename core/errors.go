package core

import "github.com/pkg/errors"

// ErrStoreClosed is the cause of shutdown errors returned by a KV repository once its store is closed.
var ErrStoreClosed = errors.New("kv store is closed")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned for bad input; the API answers it with 400.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// ShutdownError marks a failure the process cannot recover from, such as a closed store.
// The API server shuts down gracefully when a handler returns one.
type ShutdownError struct {
	Reason string
	Err    error
}

func NewShutdownError(reason string, err error) error {
	return &ShutdownError{Reason: reason, Err: err}
}

func (s *ShutdownError) Error() string {
	if s.Err == nil {
		return s.Reason
	}
	return s.Reason + ": " + s.Err.Error()
}

func (s *ShutdownError) Unwrap() error { return s.Err }

// IsShutdown reports whether any error in err's chain is a ShutdownError.
func IsShutdown(err error) bool {
	var s *ShutdownError
	return errors.As(err, &s)
}
