package shared

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrorCategory represents different types of errors that can occur
type ErrorCategory string

const (
	ErrorCategoryConfiguration  ErrorCategory = "configuration"
	ErrorCategoryNetwork        ErrorCategory = "network"
	ErrorCategoryValidation     ErrorCategory = "validation"
	ErrorCategoryProcessing     ErrorCategory = "processing"
	ErrorCategoryTimeout        ErrorCategory = "timeout"
	ErrorCategoryAuthentication ErrorCategory = "authentication"
)

// Error codes raised by the snapshot pipeline
const (
	CodeFetchFailed   = "FETCH_FAILED"
	CodePublishFailed = "PUBLISH_FAILED"
	CodeStartupFailed = "STARTUP_FAILED"
	CodeInvalidConfig = "INVALID_CONFIG"
)

// ServiceError represents a standardized error with additional context
type ServiceError struct {
	Category    ErrorCategory `json:"category"`
	Code        string        `json:"code"`
	Message     string        `json:"message"`
	Details     interface{}   `json:"details,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	ServiceName string        `json:"service_name"`
	Operation   string        `json:"operation"`
	Retryable   bool          `json:"retryable"`
	Cause       error         `json:"-"` // Original error, not serialized
}

// Error implements the error interface
func (e *ServiceError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// NewServiceError creates a new service error
func NewServiceError(category ErrorCategory, code, message, serviceName, operation string, retryable bool, cause error) *ServiceError {
	return &ServiceError{
		Category:    category,
		Code:        code,
		Message:     message,
		Timestamp:   time.Now(),
		ServiceName: serviceName,
		Operation:   operation,
		Retryable:   retryable,
		Cause:       cause,
	}
}

// NewFetchError reports that the market snapshot could not be fetched after all attempts
func NewFetchError(attempts int, cause error) *ServiceError {
	return NewServiceError(
		ErrorCategoryNetwork,
		CodeFetchFailed,
		fmt.Sprintf("failed to fetch market data after %d attempts: %s", attempts, rootMessage(cause)),
		"MarketFetcher",
		"FetchMarketSnapshot",
		true,
		cause,
	).WithDetails(map[string]interface{}{"attempts": attempts})
}

// NewPublishError reports that the post could not be published after all attempts
func NewPublishError(attempts int, cause error) *ServiceError {
	return NewServiceError(
		ErrorCategoryNetwork,
		CodePublishFailed,
		fmt.Sprintf("failed to post tweet after %d attempts: %s", attempts, rootMessage(cause)),
		"TwitterClient",
		"PostTweet",
		true,
		cause,
	).WithDetails(map[string]interface{}{"attempts": attempts})
}

// NewStartupError reports a fatal initialization failure
func NewStartupError(message string, cause error) *ServiceError {
	return NewServiceError(ErrorCategoryAuthentication, CodeStartupFailed, message, "App", "Initialize", false, cause)
}

// WithDetails adds additional details to the error
func (e *ServiceError) WithDetails(details interface{}) *ServiceError {
	e.Details = details
	return e
}

// IsRetryable returns whether the error is retryable
func (e *ServiceError) IsRetryable() bool {
	return e.Retryable
}

// GetCategory returns the error category
func (e *ServiceError) GetCategory() ErrorCategory {
	return e.Category
}

// LogError logs the error with structured fields
func (e *ServiceError) LogError() {
	logrus.WithFields(logrus.Fields{
		"error_category":   e.Category,
		"error_code":       e.Code,
		"error_message":    e.Message,
		"service_name":     e.ServiceName,
		"operation":        e.Operation,
		"retryable":        e.Retryable,
		"timestamp":        e.Timestamp,
		"details":          e.Details,
		"underlying_error": e.Cause,
	}).Error("Service error occurred")
}

// WrapError wraps an existing error with service error context
func WrapError(err error, category ErrorCategory, code, serviceName, operation string, retryable bool) *ServiceError {
	if err == nil {
		return nil
	}

	// If it's already a ServiceError, just update the context
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		serviceErr.ServiceName = serviceName
		serviceErr.Operation = operation
		return serviceErr
	}

	return NewServiceError(category, code, err.Error(), serviceName, operation, retryable, err)
}

// HasCode reports whether err is, or wraps, a ServiceError carrying code
func HasCode(err error, code string) bool {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code == code
	}
	return false
}

// IsFetchError reports whether err is a fetch failure
func IsFetchError(err error) bool {
	return HasCode(err, CodeFetchFailed)
}

// IsPublishError reports whether err is a publish failure
func IsPublishError(err error) bool {
	return HasCode(err, CodePublishFailed)
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.IsRetryable()
	}

	// Default heuristics for standard errors
	errorMsg := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout", "connection refused", "connection reset",
		"temporary failure", "service unavailable", "too many requests",
		"network", "dns", "socket",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errorMsg, pattern) {
			return true
		}
	}

	return false
}

// rootMessage unwraps a RetryExhaustedError so the final message carries only
// the last underlying failure text
func rootMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	var exhausted *RetryExhaustedError
	if errors.As(err, &exhausted) && exhausted.Err != nil {
		return exhausted.Err.Error()
	}
	return err.Error()
}
