// internal/common/errors/handler.go
package errors

import (
	"context"
	stderrors "errors"
	"net"
)

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler classifies and logs failed searches in one place.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle normalizes err, logs it with its category and returns the StandardError.
func (h *ErrorHandler) Handle(err error, fields map[string]interface{}) *StandardError {
	stdErr := Normalize(err)

	logFields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	h.logger.Error("search failed", logFields)

	return stdErr
}

// Normalize ensures we always have a StandardError. Context deadlines and
// network timeouts are reported as remote timeouts.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewRemoteTimeoutError(err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return NewRemoteTimeoutError(err)
	}
	return NewInternalError(err)
}
