package tts

import (
	"errors"
	"fmt"
)

// Common errors for the dispatch core.
var (
	// ErrEmptyText indicates a speak request with no text.
	ErrEmptyText = errors.New("text must not be empty")

	// ErrUnknownBackend indicates a backend name this server does not
	// understand.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrUnconfiguredBackend indicates a backend that was requested
	// explicitly but has neither an explicit speaker nor a configured
	// default.
	ErrUnconfiguredBackend = errors.New("backend has no default speaker configured")
)

// ErrorCode identifies the failure class of an engine or resolution
// error. Codes are stable: clients may match on them.
type ErrorCode string

const (
	// CodeUnknownBackend: the request named a backend that does not exist.
	CodeUnknownBackend ErrorCode = "UNKNOWN_BACKEND"
	// CodeUnconfiguredBackend: resolution failed for lack of a speaker.
	CodeUnconfiguredBackend ErrorCode = "UNCONFIGURED_BACKEND"
	// CodeUnavailable: the engine process/service could not be reached.
	CodeUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	// CodeInvalidSpeaker: the engine rejected the speaker id.
	CodeInvalidSpeaker ErrorCode = "INVALID_SPEAKER"
	// CodeTimeout: the synthesize+play budget was exhausted.
	CodeTimeout ErrorCode = "TIMEOUT"
	// CodeUnexpected: anything else.
	CodeUnexpected ErrorCode = "UNEXPECTED"
)

// Error is the typed error produced by the resolver and the engines.
// The dispatcher folds it into a DispatchResult; it never crosses the
// protocol boundary as-is.
type Error struct {
	Code    ErrorCode
	Backend Backend
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Cause }

// NewError creates a typed dispatch error.
func NewError(code ErrorCode, backend Backend, message string, cause error) *Error {
	return &Error{Code: code, Backend: backend, Message: message, Cause: cause}
}

// CodeOf extracts the ErrorCode from err, or CodeUnexpected if err is
// not a dispatch error.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeUnexpected
}
