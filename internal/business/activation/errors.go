package activation

import (
	"errors"
	"fmt"
)

// ErrActivation matches every *ActivationError.
var ErrActivation = errors.New("ACTIVATION_ERROR")

type ErrorCode string

const (
	CodeValidationFailed         ErrorCode = "VALIDATION_FAILED"
	CodeTemplateResolutionFailed ErrorCode = "TEMPLATE_RESOLUTION_FAILED"
	CodeBusinessNumberFailed     ErrorCode = "BUSINESS_NUMBER_FAILED"
	CodeAuditFailed              ErrorCode = "AUDIT_FAILED"
)

// ActivationError carries a machine-readable code and the offending request id.
type ActivationError struct {
	Code      ErrorCode
	Message   string
	RequestID string
	Err       error
}

func newActivationError(code ErrorCode, requestID string, err error, format string, args ...interface{}) *ActivationError {
	return &ActivationError{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		RequestID: requestID,
		Err:       err,
	}
}

func (e *ActivationError) Error() string {
	if e.RequestID == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (request %s)", e.Code, e.Message, e.RequestID)
}

func (e *ActivationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrActivation}
	}
	return []error{ErrActivation, e.Err}
}
