// Package errors provides standardized error handling for BPMN workflow integration.
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
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeTemplateNotFound  ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeStaleStatus       ErrorCode = "STALE_REQUEST_STATUS"
	ErrCodeRequestNotFound   ErrorCode = "REQUEST_NOT_FOUND"
	ErrCodePermissionDenied  ErrorCode = "PERMISSION_DENIED"

	ErrCodeActivationValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeActivationFailed           ErrorCode = "ACTIVATION_FAILED"
	ErrCodeDuplicateBusinessNumber    ErrorCode = "DUPLICATE_BUSINESS_NUMBER"
	ErrCodeBusinessNumberFailed       ErrorCode = "BUSINESS_NUMBER_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseWriteFailed      ErrorCode = "DATABASE_WRITE_FAILED"

	ErrCodeDirectoryUnavailable ErrorCode = "DIRECTORY_UNAVAILABLE"
	ErrCodeBusinessNotFound     ErrorCode = "BUSINESS_NOT_FOUND"

	ErrCodeIdentityProviderFailed ErrorCode = "IDENTITY_PROVIDER_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeBrokerTimeout     ErrorCode = "BROKER_TIMEOUT"
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

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
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

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidation, "Input validation failed", details, false)
}

// NewTemplateNotFoundError creates a non-retryable template error.
func NewTemplateNotFoundError(businessModel string) *StandardError {
	return newError(ErrCodeTemplateNotFound, "Template not found in registry",
		fmt.Sprintf("businessModel: %s", businessModel), false)
}

// NewInvalidTransitionError creates a non-retryable state machine error.
func NewInvalidTransitionError(from, to string) *StandardError {
	return newError(ErrCodeInvalidTransition, "Status transition not allowed",
		fmt.Sprintf("from: %s, to: %s", from, to), false)
}

// NewStaleStatusError signals the stored status moved underneath the caller.
func NewStaleStatusError(requestID string) *StandardError {
	return newError(ErrCodeStaleStatus, "Service request status changed concurrently",
		fmt.Sprintf("requestId: %s", requestID), false)
}

func NewRequestNotFoundError(requestID string) *StandardError {
	return newError(ErrCodeRequestNotFound, "Service request not found",
		fmt.Sprintf("requestId: %s", requestID), false)
}

func NewPermissionDeniedError(actor, permission string) *StandardError {
	return newError(ErrCodePermissionDenied, "Actor lacks the required permission",
		fmt.Sprintf("actor: %s, permission: %s", actor, permission), false)
}

// NewActivationValidationError carries the activation guard message verbatim.
func NewActivationValidationError(requestID, details string) *StandardError {
	return newError(ErrCodeActivationValidationFailed, "Business activation prerequisites not met", details, false).
		WithMetadata("requestId", requestID)
}

func NewActivationFailedError(requestID string, err error) *StandardError {
	return newError(ErrCodeActivationFailed, "Business activation failed", err.Error(), false).
		WithMetadata("requestId", requestID)
}

// NewDuplicateBusinessNumberError is retryable: a fresh number is drawn on the next attempt.
func NewDuplicateBusinessNumberError(number string) *StandardError {
	return newError(ErrCodeDuplicateBusinessNumber, "Business number already in use",
		fmt.Sprintf("businessNumber: %s", number), true)
}

func NewBusinessNumberFailedError(err error) *StandardError {
	return newError(ErrCodeBusinessNumberFailed, "Business number allocation failed", err.Error(), true)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewDatabaseWriteFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeDatabaseWriteFailed, "Database write failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewDirectoryUnavailableError(err error) *StandardError {
	return newError(ErrCodeDirectoryUnavailable, "Business directory unavailable", err.Error(), true)
}

func NewBusinessNotFoundError(details string) *StandardError {
	return newError(ErrCodeBusinessNotFound, "Business not found", details, false)
}

func NewIdentityProviderFailedError(err error) *StandardError {
	return newError(ErrCodeIdentityProviderFailed, "Identity provider request failed", err.Error(), true)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewBrokerUnavailableError(details string) *StandardError {
	return newError(ErrCodeBrokerUnavailable, "Workflow broker unavailable", details, true)
}

func NewBrokerTimeoutError(details string) *StandardError {
	return newError(ErrCodeBrokerTimeout, "Workflow broker request timed out", details, true)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes. Codes absent
// from the table are thrown unchanged.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeActivationValidationFailed: "ACTIVATION_VALIDATION_FAILED",
	ErrCodeStaleStatus:                "INVALID_TRANSITION",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseWriteFailed,
		ErrCodeDuplicateBusinessNumber,
		ErrCodeBusinessNumberFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeDirectoryUnavailable,
		ErrCodeIdentityProviderFailed,
		ErrCodeBrokerUnavailable,
		ErrCodeBrokerTimeout:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TEMPLATE"):
		return "TEMPLATE"
	case strings.Contains(codeStr, "TRANSITION") || strings.Contains(codeStr, "STATUS"):
		return "LIFECYCLE"
	case strings.Contains(codeStr, "BUSINESS_NUMBER") || codeStr == string(ErrCodeActivationFailed):
		return "ACTIVATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "DIRECTORY") || strings.Contains(codeStr, "BUSINESS_NOT_FOUND"):
		return "DIRECTORY"
	case strings.Contains(codeStr, "PERMISSION") || strings.Contains(codeStr, "IDENTITY"):
		return "AUTH"
	case strings.Contains(codeStr, "BROKER"):
		return "BROKER"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
