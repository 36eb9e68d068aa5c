package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrTypeParse marks a source layout that drifted from what a normalizer expects.
	ErrTypeParse ErrorType = "PARSE"
	// ErrTypeLookup marks a country, source or category label absent in a period.
	ErrTypeLookup ErrorType = "LOOKUP"
	// ErrTypeMissingValue marks a cell that could not be read as a number.
	ErrTypeMissingValue ErrorType = "MISSING_VALUE"
	ErrTypeConfig       ErrorType = "CONFIG"
	ErrTypeStorage      ErrorType = "STORAGE"
	ErrTypeIO           ErrorType = "IO"
	ErrTypeRender       ErrorType = "RENDER"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	if ctx := e.contextString(); ctx != "" {
		msg += " (" + ctx + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// contextString renders the context map with keys in a stable order.
func (e *AppError) contextString() string {
	if len(e.Context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
	}
	return strings.Join(parts, ", ")
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Helper functions for common error types

// NewParseError creates an error for a source table whose layout does not match
// the vintage a normalizer was written against.
func NewParseError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParse, message, cause)
}

// NewLookupError creates an error for a label that is not present in a period.
func NewLookupError(message string) *AppError {
	return NewAppError(ErrTypeLookup, message, nil)
}

// NewMissingValueError creates an error for a cell that holds no number.
func NewMissingValueError(raw string) *AppError {
	return NewAppError(ErrTypeMissingValue, "value is not numeric", nil).WithContext("raw", raw)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewIOError creates a file system error
func NewIOError(message string, cause error) *AppError {
	return NewAppError(ErrTypeIO, message, cause)
}

// NewRenderError creates a chart rendering error
func NewRenderError(message string, cause error) *AppError {
	return NewAppError(ErrTypeRender, message, cause)
}

// TypeOf returns the type of the first AppError in err's chain, or "" if none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err's chain contains an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Type == errType {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// IsParse reports whether err is a layout parse error.
func IsParse(err error) bool { return IsType(err, ErrTypeParse) }

// IsLookup reports whether err is a label lookup error.
func IsLookup(err error) bool { return IsType(err, ErrTypeLookup) }

// IsMissingValue reports whether err is a non-numeric cell error.
func IsMissingValue(err error) bool { return IsType(err, ErrTypeMissingValue) }
