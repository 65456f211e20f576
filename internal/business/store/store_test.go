package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"business-workers/internal/business/activation"
	apperrors "business-workers/internal/common/errors"
	"business-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var testNow = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func serviceRequestRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "business_name", "phone", "address", "manager_phone",
		"email", "logo_url", "description", "business_type", "business_model",
		"status", "rejection_reason", "previous_request_id", "reviewed_by",
		"submitted_at", "reviewed_at", "approved_at", "rejected_at", "activated_at",
		"created_at", "updated_at",
	})
}

func createTestResult() *activation.ActivationResult {
	return &activation.ActivationResult{
		BusinessProfile: models.BusinessProfile{
			ID:                 "profile-1",
			ServiceRequestID:   "req-1",
			OwnerUserID:        "user-1",
			BusinessNumber:     "BIZ-2026-0042",
			Name:               "Al Noor",
			Slug:               "al-noor",
			BusinessModel:      models.BusinessModelCommerce,
			Category:           "retail",
			TemplateInstanceID: "instance-1",
			Status:             models.BusinessStatusActive,
			ActivatedAt:        testNow,
		},
		TemplateInstance: models.TemplateInstance{
			ID:                "instance-1",
			TemplateID:        "commerce-template-v1",
			TemplateVersion:   "1.0.0",
			BusinessProfileID: "profile-1",
			CreatedAt:         testNow,
		},
		InitializedCollections: []string{"customers", "products"},
		ActivationDate:         testNow,
		ActivatedBy:            "admin-1",
	}
}

// ==========================
// ServiceRequestStore Tests
// ==========================

func TestServiceRequestStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM service_requests WHERE id = \$1`).
		WithArgs("req-1").
		WillReturnRows(serviceRequestRows().AddRow(
			"req-1", "user-1", "Al Noor", "+966500000001", "Riyadh", "+966500000002",
			nil, nil, "corner shop", "grocery", "commerce",
			"approved", nil, nil, "admin-1",
			testNow, testNow, testNow, nil, nil,
			testNow, testNow,
		))

	s := NewServiceRequestStore(db)
	req, err := s.Get(context.Background(), "req-1")
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, req.Status)
	require.NotNil(t, req.Model)
	assert.Equal(t, models.BusinessModelCommerce, *req.Model)
	assert.Empty(t, req.Email)
	assert.Equal(t, "corner shop", req.Description)
	assert.NotNil(t, req.ApprovedAt)
	assert.Nil(t, req.ActivatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRequestStore_Get_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM service_requests`).
		WithArgs("missing").
		WillReturnRows(serviceRequestRows())

	_, err = NewServiceRequestStore(db).Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrRequestNotFound))
}

func TestServiceRequestStore_UpdateStatus_Stale(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE service_requests`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated := &models.ServiceRequest{ID: "req-1", Status: models.StatusReviewed, UpdatedAt: testNow}
	err = NewServiceRequestStore(db).UpdateStatus(context.Background(), updated, models.StatusSubmitted)
	assert.True(t, errors.Is(err, ErrStaleStatus))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRequestStore_ApplyTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE service_requests`).
		WithArgs("reviewed", sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"req-1", "submitted").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO service_request_status_history`).
		WithArgs("req-1", "submitted", "reviewed", sqlmock.AnyArg(), sqlmock.AnyArg(), testNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	updated := &models.ServiceRequest{ID: "req-1", Status: models.StatusReviewed, ReviewedBy: "admin-1", UpdatedAt: testNow}
	err = NewServiceRequestStore(db).ApplyTransition(context.Background(), updated, models.StatusTransition{
		RequestID: "req-1",
		From:      models.StatusSubmitted,
		To:        models.StatusReviewed,
		Actor:     "admin-1",
		At:        testNow,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRequestStore_ApplyTransition_RollsBackOnStale(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE service_requests`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	updated := &models.ServiceRequest{ID: "req-1", Status: models.StatusApproved, UpdatedAt: testNow}
	err = NewServiceRequestStore(db).ApplyTransition(context.Background(), updated, models.StatusTransition{
		RequestID: "req-1", From: models.StatusReviewed, To: models.StatusApproved, At: testNow,
	})
	assert.True(t, errors.Is(err, ErrStaleStatus))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRequestStore_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO service_requests`).
		WillReturnError(errors.New("connection reset"))

	err = NewServiceRequestStore(db).Create(context.Background(), &models.ServiceRequest{ID: "req-2", Status: models.StatusDraft})
	assert.True(t, errors.Is(err, ErrDatabaseWriteFailed))
}

func TestServiceRequestStore_Create_AlreadyResubmitted(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO service_requests`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "service_requests_previous_request_key"})

	err = NewServiceRequestStore(db).Create(context.Background(), &models.ServiceRequest{
		ID: "req-3", Status: models.StatusDraft, PreviousRequestID: "req-1",
	})
	assert.True(t, errors.Is(err, ErrAlreadyResubmitted))
	assert.False(t, errors.Is(err, ErrDatabaseWriteFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRequestStore_GetResubmission(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM service_requests WHERE previous_request_id = \$1`).
		WithArgs("req-1").
		WillReturnRows(serviceRequestRows().AddRow(
			"req-2", "user-1", "Al Noor", "+966500000001", "Riyadh", "+966500000002",
			nil, nil, nil, "grocery", "commerce",
			"draft", nil, "req-1", nil,
			nil, nil, nil, nil, nil,
			testNow, testNow,
		))
	mock.ExpectQuery(`SELECT .* FROM service_requests WHERE previous_request_id = \$1`).
		WithArgs("req-9").
		WillReturnRows(serviceRequestRows())

	s := NewServiceRequestStore(db)
	draft, err := s.GetResubmission(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, "req-2", draft.ID)
	assert.Equal(t, "req-1", draft.PreviousRequestID)
	assert.Equal(t, models.StatusDraft, draft.Status)

	_, err = s.GetResubmission(context.Background(), "req-9")
	assert.True(t, errors.Is(err, ErrRequestNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// ActivationStore Tests
// ==========================

func TestActivationStore_SaveActivation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO template_instances`).
		WithArgs("instance-1", "commerce-template-v1", "1.0.0", "profile-1",
			sqlmock.AnyArg(), sqlmock.AnyArg(), testNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO business_profiles`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE service_requests`).
		WithArgs("activated", testNow, "req-1", "approved").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO service_request_status_history`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs("business_activated", "service_request", "req-1", sqlmock.AnyArg(), testNow).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = NewActivationStore(db).SaveActivation(context.Background(), createTestResult(), "req-1", "ok")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivationStore_SaveActivation_DuplicateNumber(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO template_instances`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO business_profiles`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "business_profiles_business_number_key"})
	mock.ExpectRollback()

	err = NewActivationStore(db).SaveActivation(context.Background(), createTestResult(), "req-1", "")
	assert.True(t, errors.Is(err, ErrDuplicateBusinessNumber))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivationStore_SaveActivation_DuplicateSlug(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO template_instances`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO business_profiles`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "business_profiles_slug_key"})
	mock.ExpectRollback()

	err = NewActivationStore(db).SaveActivation(context.Background(), createTestResult(), "req-1", "")
	assert.True(t, errors.Is(err, ErrDuplicateSlug))
}

func TestActivationStore_SaveActivation_RequestNoLongerApproved(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO template_instances`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO business_profiles`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE service_requests`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = NewActivationStore(db).SaveActivation(context.Background(), createTestResult(), "req-1", "")
	assert.True(t, errors.Is(err, ErrRequestNotApproved))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivationStore_SlugTaken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("al-noor").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := NewActivationStore(db).SlugTaken(context.Background(), "al-noor")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestAsStandardError(t *testing.T) {
	tests := []struct {
		err  error
		want apperrors.ErrorCode
	}{
		{ErrRequestNotFound, apperrors.ErrCodeRequestNotFound},
		{ErrStaleStatus, apperrors.ErrCodeStaleStatus},
		{ErrRequestNotApproved, apperrors.ErrCodeActivationValidationFailed},
		{ErrDuplicateBusinessNumber, apperrors.ErrCodeDuplicateBusinessNumber},
		{ErrQueryExecutionFailed, apperrors.ErrCodeQueryExecutionFailed},
		{ErrDatabaseWriteFailed, apperrors.ErrCodeDatabaseWriteFailed},
		{ErrDuplicateSlug, apperrors.ErrCodeDatabaseWriteFailed},
		{ErrAlreadyResubmitted, apperrors.ErrCodeDatabaseWriteFailed},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("%w: detail", tt.err)
			assert.Equal(t, tt.want, apperrors.Normalize(AsStandardError(wrapped, "req-1")).Code)
		})
	}

	plain := errors.New("boom")
	assert.Same(t, plain, AsStandardError(plain, "req-1"))
	assert.NoError(t, AsStandardError(nil, "req-1"))
}
