// Package errors provides standardized error classification for ticket searches.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeTypeUnresolved   ErrorCode = "TYPE_UNRESOLVED"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrCodeQueryBuildFailed ErrorCode = "QUERY_BUILD_FAILED"

	ErrCodeRemoteError      ErrorCode = "REMOTE_ERROR"
	ErrCodeRemoteTimeout    ErrorCode = "REMOTE_TIMEOUT"
	ErrCodeTransportFailure ErrorCode = "TRANSPORT_FAILURE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. Error Constructors
// ==========================

// NewTypeUnresolvedError is returned when no record type keyword was found.
// The message is shown to the caller as-is.
func NewTypeUnresolvedError(guidance string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTypeUnresolved,
		Message:   guidance,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidDateError wraps a date that matched a pattern but is not a calendar date.
func NewInvalidDateError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidDate,
		Message:   err.Error(),
		Details:   "date-like text does not form a valid calendar date",
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInvalidRequestError creates a non-retryable input validation error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryBuildFailedError wraps a failure while building the filter query.
func NewQueryBuildFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryBuildFailed,
		Message:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewRemoteError keeps the raw response body of a failed store call as the message.
func NewRemoteError(statusCode int, body string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteError,
		Message:   body,
		Details:   fmt.Sprintf("status: %d", statusCode),
		Retryable: false,
		Metadata:  map[string]interface{}{"statusCode": statusCode},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewRemoteTimeoutError creates a timeout error for a store call.
func NewRemoteTimeoutError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteTimeout,
		Message:   err.Error(),
		Details:   "record store did not answer in time",
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewTransportFailureError wraps a network or decoding failure talking to the store.
func NewTransportFailureError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTransportFailure,
		Message:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInternalError wraps anything unexpected.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   err.Error(),
		Details:   "Unexpected error",
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the retry budget for an error code. Searches are
// single-attempt, so every code maps to zero.
func GetRetryCount(code ErrorCode) int {
	return 0
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "REMOTE") || strings.Contains(codeStr, "TRANSPORT"):
		return "REMOTE"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "UNRESOLVED"):
		return "VALIDATION"
	case strings.Contains(codeStr, "QUERY"):
		return "QUERY"
	default:
		return "OTHER"
	}
}
