package errors

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeDashboard  = "DASHBOARD_ERROR"
	CodeAPIError   = "API_ERROR"
	CodeAuth       = "AUTH_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeCache      = "CACHE_ERROR"
	CodeService    = "SERVICE_ERROR"
)

type DashboardError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *DashboardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DashboardError) Unwrap() error {
	return e.Cause
}

func NewDashboardError(message, code string, statusCode int, context map[string]any) *DashboardError {
	return &DashboardError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *DashboardError) WithCause(cause error) *DashboardError {
	e.Cause = cause
	return e
}

type APIError struct {
	*DashboardError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		DashboardError: &DashboardError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

// AuthError marks an expired or invalid credential. It is fatal to the
// current dashboard operation: surfaced verbatim, never retried.
type AuthError struct {
	*DashboardError
}

func NewAuthError(message string, statusCode int, cause error) *AuthError {
	return &AuthError{
		DashboardError: &DashboardError{
			Message:    message,
			Code:       CodeAuth,
			StatusCode: statusCode,
			Cause:      cause,
		},
	}
}

func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

type ValidationError struct {
	*DashboardError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		DashboardError: &DashboardError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*DashboardError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		DashboardError: &DashboardError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ServiceError struct {
	*DashboardError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		DashboardError: &DashboardError{
			Message:    message,
			Code:       CodeService,
			StatusCode: 500,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}
