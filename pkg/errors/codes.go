package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a unique identifier for specific error conditions in Protoscribe.
type ErrorCode int

const (
	ErrCodeUnknown       ErrorCode = 1000
	ErrCodeConfigInvalid ErrorCode = 1001

	// Input: drafts and documents
	ErrCodeDraftRead      ErrorCode = 2001
	ErrCodeDraftDecode    ErrorCode = 2002
	ErrCodeDocumentDecode ErrorCode = 2003
	ErrCodeInvalidRole    ErrorCode = 2004
	ErrCodeInvalidVerb    ErrorCode = 2005

	// Authoring sessions
	ErrCodeSessionNotFound ErrorCode = 3001
	ErrCodeStepOrder       ErrorCode = 3002
	ErrCodePatchScope      ErrorCode = 3003
	ErrCodeSessionClosed   ErrorCode = 3004
	ErrCodeNothingToUndo   ErrorCode = 3005
	ErrCodeNothingToRedo   ErrorCode = 3006
	ErrCodeUnknownStep     ErrorCode = 3007

	// Persistence
	ErrCodeStoreFailed ErrorCode = 4001
)

// ProtoscribeError is a custom error type that provides structured error information,
// including an error code, the operation being performed, and the underlying cause.
type ProtoscribeError struct {
	// Code is the specific error code.
	Code ErrorCode
	// Msg is a human-readable description of the error.
	Msg string
	// Operation describes the action being performed when the error occurred.
	Operation string
	// Err is the underlying error that caused this error, if any.
	Err error
}

// Error returns a formatted string representation of the error.
func (e *ProtoscribeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %s (cause: %v)", e.Code, e.Operation, e.Msg, e.Err)
	}
	return fmt.Sprintf("[%d] %s: %s", e.Code, e.Operation, e.Msg)
}

// Unwrap returns the underlying error.
func (e *ProtoscribeError) Unwrap() error {
	return e.Err
}

// New creates a new ProtoscribeError with the specified code, operation, message, and underlying error.
func New(code ErrorCode, op, msg string, err error) error {
	return &ProtoscribeError{
		Code:      code,
		Msg:       msg,
		Operation: op,
		Err:       err,
	}
}

// CodeOf returns the code of the first ProtoscribeError in err's chain,
// or ErrCodeUnknown when there is none.
func CodeOf(err error) ErrorCode {
	var pe *ProtoscribeError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ErrCodeUnknown
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// Personal.AI order the ending
