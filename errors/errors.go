package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified error type of the module.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an *AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Constructors ---

// NullArgument creates an error for a required argument that was nil.
func NullArgument(param string) *AppError {
	return &AppError{
		Code:    ErrCodeNullArgument,
		Message: fmt.Sprintf("argument %q must not be nil", param),
		Details: map[string]any{"param": param},
	}
}

// TypeMismatch creates an error for an assignability violation.
func TypeMismatch(reason string) *AppError {
	return &AppError{Code: ErrCodeTypeMismatch, Message: reason}
}

// NotAssignable creates a TypeMismatch error for a value of type got that
// cannot be stored as want.
func NotAssignable(want, got fmt.Stringer) *AppError {
	return &AppError{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf("%s is not assignable from %s", want, got),
		Details: map[string]any{"want": want.String(), "got": got.String()},
	}
}

// InvalidState creates an error for an operation invalid in the current state.
func InvalidState(reason string) *AppError {
	return &AppError{Code: ErrCodeInvalidState, Message: reason}
}

// Construction wraps a failure of the construction primitive for typ. An
// error that already carries ErrCodeConstruction is returned as is.
func Construction(typ string, cause error) *AppError {
	if appErr, ok := AsAppError(cause); ok && appErr.Code == ErrCodeConstruction {
		return appErr
	}
	return &AppError{
		Code:    ErrCodeConstruction,
		Message: fmt.Sprintf("cannot construct %s", typ),
		Details: map[string]any{"type": typ},
		Cause:   cause,
	}
}

// InvalidConfig creates an error for configuration that failed validation.
func InvalidConfig(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidConfig, Message: message}
}

// --- Inspection ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is, or wraps, an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// CodeOf returns the code of err, or "" if err is not an AppError.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}
