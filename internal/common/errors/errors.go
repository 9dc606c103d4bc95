// Package errors provides the standardized error envelope returned by the collections API.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidFilterFormat ErrorCode = "INVALID_FILTER_FORMAT"
	ErrCodeInvalidEmiMonth     ErrorCode = "INVALID_EMI_MONTH"
	ErrCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"

	ErrCodeResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeBusinessRule     ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeSuperseded       ErrorCode = "REQUEST_SUPERSEDED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchDisabled    ErrorCode = "SEARCH_DISABLED"

	ErrCodeExternalService        ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeExportFailed           ErrorCode = "EXPORT_FAILED"
	ErrCodeTimeout                ErrorCode = "TIMEOUT"
	ErrCodeRateLimited            ErrorCode = "RATE_LIMITED"

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
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidFilterFormatError creates a non-retryable filter format error.
func NewInvalidFilterFormatError(details string) *StandardError {
	return newError(ErrCodeInvalidFilterFormat, "Invalid filter format", details, false)
}

// NewInvalidEmiMonthError reports an EMI month that is not in Mon-YY form.
func NewInvalidEmiMonthError(value string) *StandardError {
	return newError(ErrCodeInvalidEmiMonth,
		"Invalid emi_month format. Expected format: 'Mon-YY' (e.g., 'Jul-25')",
		fmt.Sprintf("emi_month: %q", value), false)
}

func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Request validation failed", details, false)
}

// NewResourceNotFoundError creates a non-retryable not found error.
func NewResourceNotFoundError(resource, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("%s not found", resource), details, false)
}

func NewBusinessRuleError(message, details string) *StandardError {
	return newError(ErrCodeBusinessRule, message, details, false)
}

// NewSupersededError reports a list request replaced by a newer one from the same client.
func NewSupersededError() *StandardError {
	return newError(ErrCodeSuperseded, "Request superseded by a newer request", "", false)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout",
		fmt.Sprintf("queryType: %s", queryType), true)
}

// NewDatabaseInsertFailedError creates a retryable insert error.
func NewDatabaseInsertFailedError(table string, err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert error",
		fmt.Sprintf("table: %s, error: %s", table, err.Error()), true)
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewSearchDisabledError() *StandardError {
	return newError(ErrCodeSearchDisabled, "Application search is not enabled", "", false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("%s request failed", service), err.Error(), true)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Failed to send notification",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewExportFailedError(err error) *StandardError {
	return newError(ErrCodeExportFailed, "Failed to build export", err.Error(), false)
}

func NewTimeoutError(operation string) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("%s timed out", operation), "", true)
}

func NewRateLimitedError() *StandardError {
	return newError(ErrCodeRateLimited, "Too many requests", "", true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// ==========================
// 3. HTTP Mapping
// ==========================

// HTTPStatus maps an error code to the response status written by ErrorHandler.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidFilterFormat, ErrCodeInvalidEmiMonth, ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeResourceNotFound:
		return http.StatusNotFound
	case ErrCodeBusinessRule, ErrCodeSuperseded:
		return http.StatusConflict
	case ErrCodeSearchDisabled:
		return http.StatusNotImplemented
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeQueryTimeout, ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeDatabaseConnectionFailed, ErrCodeSearchQueryFailed, ErrCodeExternalService,
		ErrCodeNotificationSendFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeDatabaseConnectionFailed, ErrCodeQueryExecutionFailed, ErrCodeQueryTimeout,
		ErrCodeDatabaseInsertFailed, ErrCodeSearchQueryFailed, ErrCodeExternalService,
		ErrCodeNotificationSendFailed, ErrCodeTimeout, ErrCodeRateLimited:
		return true
	default:
		return false
	}
}

// GetErrorCategory groups codes for metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch {
	case code == ErrCodeInvalidFilterFormat || code == ErrCodeInvalidEmiMonth || code == ErrCodeValidationFailed:
		return "validation"
	case code == ErrCodeBusinessRule || code == ErrCodeResourceNotFound || code == ErrCodeSuperseded:
		return "business"
	case strings.HasPrefix(string(code), "DATABASE") || strings.HasPrefix(string(code), "QUERY"):
		return "database"
	case strings.HasPrefix(string(code), "SEARCH"):
		return "search"
	case code == ErrCodeExternalService || code == ErrCodeNotificationSendFailed:
		return "external"
	default:
		return "internal"
	}
}
