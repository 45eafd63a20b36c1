package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Manifest errors
	ErrManifestParse ErrorCode = "MANIFEST_PARSE"
	ErrManifestWrite ErrorCode = "MANIFEST_WRITE"

	// Plugin cache / settings errors
	ErrCacheScan     ErrorCode = "CACHE_SCAN"
	ErrScanPartial   ErrorCode = "SCAN_PARTIAL"
	ErrSettingsParse ErrorCode = "SETTINGS_PARSE"
	ErrSettingsWrite ErrorCode = "SETTINGS_WRITE"

	// Reconciliation errors
	ErrSymlinkCreate ErrorCode = "SYMLINK_CREATE"
	ErrSymlinkRemove ErrorCode = "SYMLINK_REMOVE"

	// Adapter errors
	ErrAdapterFailed ErrorCode = "ADAPTER_FAILED"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
)

// MyceliumError represents a structured error with code and details
type MyceliumError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *MyceliumError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *MyceliumError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *MyceliumError) Is(target error) bool {
	var targetErr *MyceliumError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new MyceliumError with the given code and message
func New(code ErrorCode, message string) *MyceliumError {
	return &MyceliumError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new MyceliumError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *MyceliumError {
	return &MyceliumError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a MyceliumError
func Wrap(err error, code ErrorCode, message string) *MyceliumError {
	if err == nil {
		return nil
	}
	return &MyceliumError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *MyceliumError {
	if err == nil {
		return nil
	}
	return &MyceliumError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *MyceliumError) WithDetail(key string, value interface{}) *MyceliumError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var merr *MyceliumError
	if errors.As(err, &merr) {
		return merr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a MyceliumError
func GetErrorCode(err error) ErrorCode {
	var merr *MyceliumError
	if errors.As(err, &merr) {
		return merr.Code
	}
	return ErrUnknown
}
