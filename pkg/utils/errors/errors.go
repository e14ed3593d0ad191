package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an application error.
type ErrorType uint

const (
	// ErrorTypeUnknown represents an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInvalidArgument represents an invalid argument error.
	ErrorTypeInvalidArgument
	// ErrorTypeNotFound represents a failed lookup.
	ErrorTypeNotFound
	// ErrorTypeNumerical represents a numerical degeneracy (NaN, singular
	// system, zero-width range).
	ErrorTypeNumerical
	// ErrorTypeInternal represents an internal error.
	ErrorTypeInternal
)

// AppError is the error value used throughout the backtester.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new unclassified error.
func New(message string) error {
	return &AppError{Type: ErrorTypeUnknown, Message: message}
}

// Newf creates a new unclassified error from a format string.
func Newf(format string, args ...interface{}) error {
	return &AppError{Type: ErrorTypeUnknown, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a message, preserving the wrapped type.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	t := ErrorTypeUnknown
	var appErr *AppError
	if errors.As(err, &appErr) {
		t = appErr.Type
	}
	return &AppError{Type: t, Message: message, Err: err}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown for foreign errors.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// IsNotFound reports whether err is a failed lookup.
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// InvalidArgument creates a new InvalidArgument error.
func InvalidArgument(message string) error {
	return &AppError{Type: ErrorTypeInvalidArgument, Message: message}
}

// InvalidArgumentf creates a new InvalidArgument error from a format string.
func InvalidArgumentf(format string, args ...interface{}) error {
	return &AppError{Type: ErrorTypeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a new NotFound error.
func NotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NotFoundf creates a new NotFound error from a format string.
func NotFoundf(format string, args ...interface{}) error {
	return &AppError{Type: ErrorTypeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Numerical creates a new Numerical error.
func Numerical(message string) error {
	return &AppError{Type: ErrorTypeNumerical, Message: message}
}

// Internal creates a new Internal error.
func Internal(message string) error {
	return &AppError{Type: ErrorTypeInternal, Message: message}
}
