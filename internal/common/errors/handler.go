// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
)

// ErrorHandler writes failed requests as a StandardError envelope.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ErrorResponse is the JSON body for every non-2xx API response.
type ErrorResponse struct {
	Error *StandardError `json:"error"`
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle normalizes err, logs it and writes the response.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"code":     stdErr.Code,
		"message":  stdErr.Message,
		"details":  stdErr.Details,
		"status":   status,
		"category": GetErrorCategory(stdErr.Code),
	}
	if r != nil {
		fields["method"] = r.Method
		fields["path"] = r.URL.Path
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
	} else {
		h.logger.Warn("request rejected", fields)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: stdErr})
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("request")
	}
	return NewInternalError(err)
}
