package store

import (
	"errors"

	apperrors "business-workers/internal/common/errors"
)

// AsStandardError maps the store sentinels to job error codes. Errors that
// carry no store sentinel are returned unchanged.
func AsStandardError(err error, requestID string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrRequestNotFound):
		return apperrors.NewRequestNotFoundError(requestID)
	case errors.Is(err, ErrStaleStatus):
		return apperrors.NewStaleStatusError(requestID)
	case errors.Is(err, ErrRequestNotApproved):
		return apperrors.NewActivationValidationError(requestID, "service request is no longer approved")
	case errors.Is(err, ErrDuplicateBusinessNumber):
		return apperrors.NewDuplicateBusinessNumberError(err.Error())
	case errors.Is(err, ErrQueryExecutionFailed):
		return apperrors.NewQueryExecutionFailedError("service_requests", err)
	case errors.Is(err, ErrDatabaseWriteFailed), errors.Is(err, ErrDuplicateSlug), errors.Is(err, ErrAlreadyResubmitted):
		return apperrors.NewDatabaseWriteFailedError("business_activation", err)
	}
	return err
}
