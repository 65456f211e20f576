package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name            string
		err             *StandardError
		expectedCode    string
		expectedRetries int
	}{
		{
			name:            "activation guard maps to dedicated BPMN code",
			err:             NewActivationValidationError("req-1", "status is draft"),
			expectedCode:    "ACTIVATION_VALIDATION_FAILED",
			expectedRetries: 0,
		},
		{
			name:            "duplicate business number is retried",
			err:             NewDuplicateBusinessNumberError("BIZ-2026-0001"),
			expectedCode:    "DUPLICATE_BUSINESS_NUMBER",
			expectedRetries: 3,
		},
		{
			name:            "template not found is thrown unchanged",
			err:             NewTemplateNotFoundError("barter"),
			expectedCode:    "TEMPLATE_NOT_FOUND",
			expectedRetries: 0,
		},
		{
			name:            "stale status surfaces as invalid transition",
			err:             NewStaleStatusError("req-2"),
			expectedCode:    "INVALID_TRANSITION",
			expectedRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.expectedCode, bpmnErr.Code)
			assert.Equal(t, tt.expectedRetries, bpmnErr.Retries)
			assert.Equal(t, string(tt.err.Code), bpmnErr.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestConvertToBPMNError_CarriesMetadata(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewActivationValidationError("req-9", "business model is missing"))

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "req-9", vars["requestId"])
	assert.Equal(t, "business model is missing", vars["errorDetails"])
	assert.Equal(t, false, vars["retryable"])
}

func TestNormalize(t *testing.T) {
	t.Run("wrapped standard error is unwrapped", func(t *testing.T) {
		original := NewRequestNotFoundError("req-3")
		wrapped := fmt.Errorf("load request: %w", original)

		got := Normalize(wrapped)
		require.NotNil(t, got)
		assert.Same(t, original, got)
	})

	t.Run("plain error becomes internal error", func(t *testing.T) {
		got := Normalize(fmt.Errorf("boom"))
		assert.Equal(t, ErrorCode("INTERNAL_ERROR"), got.Code)
		assert.Equal(t, "boom", got.Details)
		assert.False(t, got.Retryable)
	})
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeTemplateNotFound:           "TEMPLATE",
		ErrCodeInvalidTransition:          "LIFECYCLE",
		ErrCodeDuplicateBusinessNumber:    "ACTIVATION",
		ErrCodeQueryExecutionFailed:       "DATABASE",
		ErrCodeDirectoryUnavailable:       "DIRECTORY",
		ErrCodePermissionDenied:           "AUTH",
		ErrCodeNotificationSendFailed:     "NOTIFICATION",
		ErrCodeActivationValidationFailed: "VALIDATION",
		ErrorCode("SOMETHING_ELSE"):       "OTHER",
	}

	for code, expected := range tests {
		assert.Equal(t, expected, GetErrorCategory(code), string(code))
	}
}
