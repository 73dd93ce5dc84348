package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios. A clip that is inactive, missing,
// or never existed always surfaces as the same ErrNotFound so callers cannot
// probe for existence.
var (
	ErrNotFound             = New("NOT_FOUND", http.StatusNotFound, "audio clip not found")
	ErrInvalidPassword      = New("INVALID_PASSWORD", http.StatusUnauthorized, "incorrect password")
	ErrContentMissing       = New("CONTENT_MISSING", http.StatusNotFound, "audio file not found")
	ErrStorageWrite         = New("STORAGE_WRITE", http.StatusInternalServerError, "failed to store audio file")
	ErrStorageRead          = New("STORAGE_READ", http.StatusInternalServerError, "failed to read audio file")
	ErrInvalidRange         = New("INVALID_RANGE", http.StatusBadRequest, "invalid range header")
	ErrRangeNotSatisfiable  = New("RANGE_NOT_SATISFIABLE", http.StatusRequestedRangeNotSatisfiable, "range not satisfiable")
	ErrValidation           = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrUnauthorized         = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden            = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrInternal             = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss            = New("CACHE_MISS", http.StatusNotFound, "cache miss")
	ErrUnsupportedMimeType  = New("UNSUPPORTED_MIME_TYPE", http.StatusBadRequest, "only audio files are allowed")
	ErrUploadTooLarge       = New("UPLOAD_TOO_LARGE", http.StatusBadRequest, "file too large")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
