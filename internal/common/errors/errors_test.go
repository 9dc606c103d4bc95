package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warns  []string
	errors []string
}

func (l *recordingLogger) Warn(msg string, _ map[string]interface{})  { l.warns = append(l.warns, msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.errors = append(l.errors, msg) }

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeInvalidEmiMonth, http.StatusBadRequest},
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeResourceNotFound, http.StatusNotFound},
		{ErrCodeBusinessRule, http.StatusConflict},
		{ErrCodeSuperseded, http.StatusConflict},
		{ErrCodeQueryTimeout, http.StatusGatewayTimeout},
		{ErrCodeSearchQueryFailed, http.StatusBadGateway},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeQueryExecutionFailed, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestNormalize(t *testing.T) {
	original := NewBusinessRuleError("not pending", "")
	wrapped := fmt.Errorf("approve: %w", original)
	assert.Same(t, original, Normalize(wrapped))

	assert.Equal(t, ErrCodeTimeout, Normalize(context.DeadlineExceeded).Code)
	assert.Equal(t, ErrCodeInternal, Normalize(fmt.Errorf("boom")).Code)
}

func TestErrorHandler_Handle(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/collections/summary?emi_month=July", nil)
	h.Handle(rec, req, NewInvalidEmiMonthError("July"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrCodeInvalidEmiMonth, body.Error.Code)
	assert.Len(t, log.warns, 1)
	assert.Empty(t, log.errors)

	rec = httptest.NewRecorder()
	h.Handle(rec, req, fmt.Errorf("unexpected"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, log.errors, 1)
}

func TestRetryableAndCategory(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeQueryExecutionFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeBusinessRule))
	assert.Equal(t, "database", GetErrorCategory(ErrCodeDatabaseInsertFailed))
	assert.Equal(t, "search", GetErrorCategory(ErrCodeSearchQueryFailed))
	assert.Equal(t, "validation", GetErrorCategory(ErrCodeInvalidFilterFormat))
	assert.Equal(t, "internal", GetErrorCategory(ErrCodeInternal))
}

func TestStandardError_WithMetadata(t *testing.T) {
	err := NewResourceNotFoundError("application", "id: app-1").WithMetadata("applicationId", "app-1")
	assert.Equal(t, "app-1", err.Metadata["applicationId"])
	assert.Equal(t, "application not found", err.Message)
	assert.Contains(t, err.Error(), "RESOURCE_NOT_FOUND")
}
