// Package errors provides structured error handling for Wrangler.
//
// Every failure surfaced by the dataset providers and pipeline sinks is an
// *Error carrying one of the ErrorType kinds below. Callers map the kind to
// whatever transport status they need; this package does not know about HTTP.
//
//	if errors.IsType(err, errors.ErrorTypeNotFound) {
//	    // respond 404
//	}
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeInvalidArgument represents missing or contradictory inputs
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
	// ErrorTypeNotFound represents an absent local path or remote object
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeUpstream represents a non-success response from a remote server
	ErrorTypeUpstream ErrorType = "upstream"
	// ErrorTypeFormat represents content that is neither valid CSV nor valid JSON
	ErrorTypeFormat ErrorType = "format"
	// ErrorTypeEncoding represents content that is not valid UTF-8
	ErrorTypeEncoding ErrorType = "encoding"
	// ErrorTypeConfig represents invalid storage or process configuration
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeDisabled represents remote storage that is explicitly turned off
	ErrorTypeDisabled ErrorType = "disabled"
	// ErrorTypeFile represents local file operation errors
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeConnection represents transport-level errors talking to a remote
	ErrorTypeConnection ErrorType = "connection"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsRetryable returns true if the error is retryable. Nothing inside this
// module retries; the answer is a hint for callers.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == ErrorTypeConnection
}

// IsType checks if the outermost *Error in the chain is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the type of the outermost *Error in the chain, or
// ErrorTypeInternal for foreign errors.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// Detail returns a detail value from the outermost *Error in the chain.
func Detail(err error, key string) (interface{}, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Details == nil {
		return nil, false
	}
	v, ok := e.Details[key]
	return v, ok
}

// Details returns the details of the outermost *Error in the chain.
func Details(err error) map[string]interface{} {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}
	return e.Details
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
