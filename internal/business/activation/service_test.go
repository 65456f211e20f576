package activation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"business-workers/internal/business/templates"
	"business-workers/internal/common/logger"
	"business-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type recordingAuditSink struct {
	entries []AuditEntry
	err     error
}

func (r *recordingAuditSink) RecordActivation(_ context.Context, entry AuditEntry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

type fixedNumberGenerator struct {
	number string
	err    error
}

func (f fixedNumberGenerator) Next(context.Context, time.Time) (string, error) {
	return f.number, f.err
}

var testActivationTime = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("0000000%d-aaaa-bbbb-cccc-dddddddddddd", n)
	}
}

func createTestService(t *testing.T, audit AuditSink, opts ...Option) *Service {
	t.Helper()
	base := []Option{
		WithClock(func() time.Time { return testActivationTime }),
		WithIDGenerator(sequentialIDs()),
	}
	return NewService(
		templates.NewResolver(nil),
		NewRandomNumberGenerator(42),
		audit,
		logger.NewTestLogger(t),
		append(base, opts...)...,
	)
}

func createApprovedRequest(model models.BusinessModel) *models.ServiceRequest {
	approved := testActivationTime.Add(-24 * time.Hour)
	return &models.ServiceRequest{
		ID:           "req-100",
		UserID:       "user-100",
		BusinessName: "سوبر ماركت النور",
		Phone:        "+966500000001",
		Address:      "الرياض",
		ManagerPhone: "+966500000002",
		Email:        "owner@alnoor.example",
		BusinessType: "grocery",
		Model:        models.BusinessModelPtr(model),
		Status:       models.StatusApproved,
		ApprovedAt:   &approved,
	}
}

// ==========================
// Validation Tests
// ==========================

func TestActivateBusiness_WrongStatus(t *testing.T) {
	for _, status := range []models.ServiceRequestStatus{
		models.StatusDraft, models.StatusSubmitted, models.StatusReviewed, models.StatusRejected,
	} {
		t.Run(string(status), func(t *testing.T) {
			audit := &recordingAuditSink{}
			svc := createTestService(t, audit)
			req := createApprovedRequest(models.BusinessModelCommerce)
			req.Status = status

			result, err := svc.ActivateBusiness(context.Background(), ActivationRequest{ServiceRequest: req, ActivatedBy: "admin-1"})
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Empty(t, audit.entries)

			var actErr *ActivationError
			require.True(t, errors.As(err, &actErr))
			assert.Equal(t, CodeValidationFailed, actErr.Code)
			assert.Equal(t, "req-100", actErr.RequestID)
			assert.Contains(t, actErr.Message, string(status))
			assert.True(t, errors.Is(err, ErrActivation))
		})
	}
}

func TestActivateBusiness_AlreadyActivated(t *testing.T) {
	svc := createTestService(t, &recordingAuditSink{})
	req := createApprovedRequest(models.BusinessModelCommerce)
	req.Status = models.StatusActivated

	_, err := svc.ActivateBusiness(context.Background(), ActivationRequest{ServiceRequest: req, ActivatedBy: "admin-1"})

	var actErr *ActivationError
	require.True(t, errors.As(err, &actErr))
	assert.Equal(t, CodeValidationFailed, actErr.Code)
	assert.Contains(t, actErr.Message, "already been activated")
}

func TestActivateBusiness_MissingBusinessModel(t *testing.T) {
	svc := createTestService(t, &recordingAuditSink{})
	req := createApprovedRequest(models.BusinessModelCommerce)
	req.Model = nil

	_, err := svc.ActivateBusiness(context.Background(), ActivationRequest{ServiceRequest: req, ActivatedBy: "admin-1"})

	var actErr *ActivationError
	require.True(t, errors.As(err, &actErr))
	assert.Equal(t, CodeValidationFailed, actErr.Code)
	assert.Contains(t, actErr.Message, "business model")
}

func TestActivateBusiness_UnknownBusinessModel(t *testing.T) {
	svc := createTestService(t, &recordingAuditSink{})
	req := createApprovedRequest("barbershop")

	_, err := svc.ActivateBusiness(context.Background(), ActivationRequest{ServiceRequest: req, ActivatedBy: "admin-1"})

	var actErr *ActivationError
	require.True(t, errors.As(err, &actErr))
	assert.Equal(t, CodeValidationFailed, actErr.Code)
	assert.Contains(t, actErr.Message, "barbershop")
}

func TestActivateBusiness_NilRequestAndActor(t *testing.T) {
	svc := createTestService(t, &recordingAuditSink{})

	_, err := svc.ActivateBusiness(context.Background(), ActivationRequest{ActivatedBy: "admin-1"})
	assert.True(t, errors.Is(err, ErrActivation))

	_, err = svc.ActivateBusiness(context.Background(), ActivationRequest{ServiceRequest: createApprovedRequest(models.BusinessModelFood)})
	var actErr *ActivationError
	require.True(t, errors.As(err, &actErr))
	assert.Equal(t, CodeValidationFailed, actErr.Code)
}

// ==========================
// Success Path Tests
// ==========================

func TestActivateBusiness_Commerce(t *testing.T) {
	audit := &recordingAuditSink{}
	svc := createTestService(t, audit)

	result, err := svc.ActivateBusiness(context.Background(), ActivationRequest{
		ServiceRequest: createApprovedRequest(models.BusinessModelCommerce),
		ActivatedBy:    "admin-1",
		Notes:          "documents verified",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	profile := result.BusinessProfile
	instance := result.TemplateInstance

	assert.Regexp(t, `^BIZ-\d{4}-\d{4}$`, profile.BusinessNumber)
	assert.True(t, strings.HasPrefix(profile.BusinessNumber, "BIZ-2026-"))
	assert.Equal(t, "swbr-markt-alnwr", profile.Slug)
	assert.NotContains(t, profile.Slug, " ")
	assert.NotContains(t, profile.Slug, "--")
	assert.Equal(t, "retail", profile.Category)
	assert.True(t, profile.Settings.AllowCreditPurchases)
	assert.Equal(t, "SAR", profile.Settings.DefaultCurrency)
	assert.True(t, profile.Settings.Notifications.Email)
	assert.Equal(t, models.BusinessStatusActive, profile.Status)
	assert.Equal(t, "user-100", profile.OwnerUserID)
	assert.Equal(t, "req-100", profile.ServiceRequestID)
	assert.Zero(t, profile.CustomersCount)
	assert.Zero(t, profile.OrdersCount)
	assert.Zero(t, profile.Balance)

	assert.Equal(t, profile.ID, instance.BusinessProfileID)
	assert.Equal(t, instance.ID, profile.TemplateInstanceID)
	assert.NotEqual(t, profile.ID, instance.ID)
	assert.Equal(t, "commerce-template-v1", instance.TemplateID)
	assert.Equal(t, instance.Configuration, instance.Customizations)
	assert.Contains(t, instance.Configuration.UISections, "inventory")
	assert.Contains(t, instance.Configuration.Permissions, "inventory:manage")

	assert.Equal(t, []string{CollectionCustomers, CollectionProducts}, result.InitializedCollections)
	assert.Equal(t, testActivationTime, result.ActivationDate)
	assert.Equal(t, "admin-1", result.ActivatedBy)

	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, "req-100", entry.RequestID)
	assert.Equal(t, profile.ID, entry.BusinessProfileID)
	assert.Equal(t, "commerce-template-v1", entry.TemplateID)
	assert.Equal(t, models.BusinessModelCommerce, entry.BusinessModel)
	assert.Equal(t, "admin-1", entry.ActivatedBy)
	assert.Equal(t, "documents verified", entry.Notes)
	assert.Equal(t, testActivationTime, entry.Timestamp)
}

func TestActivateBusiness_CategoryInference(t *testing.T) {
	tests := []struct {
		model       models.BusinessModel
		category    string
		collections []string
	}{
		{models.BusinessModelCommerce, "retail", []string{"customers", "products"}},
		{models.BusinessModelFood, "food_service", []string{"customers", "products", "bookings"}},
		{models.BusinessModelServices, "service_provider", []string{"customers", "services", "bookings"}},
		{models.BusinessModelRental, "rental", []string{"customers", "bookings", "assets"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.model), func(t *testing.T) {
			svc := createTestService(t, &recordingAuditSink{})
			result, err := svc.ActivateBusiness(context.Background(), ActivationRequest{
				ServiceRequest: createApprovedRequest(tt.model),
				ActivatedBy:    "admin-1",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.category, result.BusinessProfile.Category)
			assert.Equal(t, tt.collections, result.InitializedCollections)
		})
	}
}

func TestActivateBusiness_SettingsComeFromTemplate(t *testing.T) {
	for _, model := range models.BusinessModels {
		t.Run(string(model), func(t *testing.T) {
			svc := createTestService(t, &recordingAuditSink{}, WithProvisionalCurrency("USD"))
			tmpl, err := templates.DefaultRegistry().GetTemplateByBusinessModel(model)
			require.NoError(t, err)

			result, err := svc.ActivateBusiness(context.Background(), ActivationRequest{
				ServiceRequest: createApprovedRequest(model),
				ActivatedBy:    "admin-1",
			})
			require.NoError(t, err)

			settings := result.BusinessProfile.Settings
			assert.Equal(t, tmpl.DefaultSettings.AllowCreditPurchases, settings.AllowCreditPurchases)
			assert.Equal(t, tmpl.DefaultSettings.DefaultCurrency, settings.DefaultCurrency)
			assert.Equal(t, tmpl.DefaultSettings, result.TemplateInstance.Configuration.DefaultSettings)
		})
	}
}

func TestActivateBusiness_SlugFallback(t *testing.T) {
	svc := createTestService(t, &recordingAuditSink{})
	req := createApprovedRequest(models.BusinessModelFood)
	req.BusinessName = "☕☕"

	result, err := svc.ActivateBusiness(context.Background(), ActivationRequest{ServiceRequest: req, ActivatedBy: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, "business-00000001", result.BusinessProfile.Slug)
}

// ==========================
// Failure Path Tests
// ==========================

func TestActivateBusiness_NumberGeneratorFailure(t *testing.T) {
	audit := &recordingAuditSink{}
	svc := NewService(nil, fixedNumberGenerator{err: ErrSequenceExhausted}, audit, logger.NewTestLogger(t))

	_, err := svc.ActivateBusiness(context.Background(), ActivationRequest{
		ServiceRequest: createApprovedRequest(models.BusinessModelCommerce),
		ActivatedBy:    "admin-1",
	})

	var actErr *ActivationError
	require.True(t, errors.As(err, &actErr))
	assert.Equal(t, CodeBusinessNumberFailed, actErr.Code)
	assert.True(t, errors.Is(err, ErrSequenceExhausted))
	assert.Empty(t, audit.entries)
}

func TestActivateBusiness_AuditFailure(t *testing.T) {
	audit := &recordingAuditSink{err: errors.New("audit store down")}
	svc := createTestService(t, audit)

	result, err := svc.ActivateBusiness(context.Background(), ActivationRequest{
		ServiceRequest: createApprovedRequest(models.BusinessModelCommerce),
		ActivatedBy:    "admin-1",
	})
	assert.Nil(t, result)

	var actErr *ActivationError
	require.True(t, errors.As(err, &actErr))
	assert.Equal(t, CodeAuditFailed, actErr.Code)
}

func TestBuildActivation_DoesNotAudit(t *testing.T) {
	audit := &recordingAuditSink{}
	svc := createTestService(t, audit)

	result, err := svc.BuildActivation(context.Background(), ActivationRequest{
		ServiceRequest: createApprovedRequest(models.BusinessModelFood),
		ActivatedBy:    "admin-1",
		Notes:          "kitchen inspected",
	})
	require.NoError(t, err)
	assert.Empty(t, audit.entries)

	require.NoError(t, svc.RecordActivation(context.Background(), result, "req-100", "kitchen inspected"))
	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, "req-100", entry.RequestID)
	assert.Equal(t, result.BusinessProfile.ID, entry.BusinessProfileID)
	assert.Equal(t, result.BusinessProfile.BusinessNumber, entry.BusinessNumber)
	assert.Equal(t, "food-template-v1", entry.TemplateID)
	assert.Equal(t, models.BusinessModelFood, entry.BusinessModel)
	assert.Equal(t, "admin-1", entry.ActivatedBy)
	assert.Equal(t, "kitchen inspected", entry.Notes)
	assert.Equal(t, testActivationTime, entry.Timestamp)
}

func TestRecordActivation_SinkFailure(t *testing.T) {
	audit := &recordingAuditSink{}
	svc := createTestService(t, audit)

	result, err := svc.BuildActivation(context.Background(), ActivationRequest{
		ServiceRequest: createApprovedRequest(models.BusinessModelServices),
		ActivatedBy:    "admin-1",
	})
	require.NoError(t, err)

	audit.err = errors.New("audit store down")
	err = svc.RecordActivation(context.Background(), result, "req-100", "")
	var actErr *ActivationError
	require.True(t, errors.As(err, &actErr))
	assert.Equal(t, CodeAuditFailed, actErr.Code)
}

func TestNewService_NilLogger(t *testing.T) {
	svc := NewService(nil, fixedNumberGenerator{number: "BIZ-2026-0007"}, nil, nil,
		WithClock(func() time.Time { return testActivationTime }))

	var result *ActivationResult
	require.NotPanics(t, func() {
		var err error
		result, err = svc.ActivateBusiness(context.Background(), ActivationRequest{
			ServiceRequest: createApprovedRequest(models.BusinessModelRental),
			ActivatedBy:    "admin-1",
		})
		require.NoError(t, err)
	})
	assert.Equal(t, "BIZ-2026-0007", result.BusinessProfile.BusinessNumber)
}

// ==========================
// Eligibility Tests
// ==========================

func TestCanActivateBusiness(t *testing.T) {
	svc := createTestService(t, &recordingAuditSink{})

	ok := svc.CanActivateBusiness(createApprovedRequest(models.BusinessModelRental))
	assert.True(t, ok.CanActivate)
	assert.Empty(t, ok.Reason)

	draft := createApprovedRequest(models.BusinessModelRental)
	draft.Status = models.StatusDraft
	notOK := svc.CanActivateBusiness(draft)
	assert.False(t, notOK.CanActivate)
	assert.Contains(t, notOK.Reason, "draft")

	assert.False(t, svc.CanActivateBusiness(nil).CanActivate)
}

func TestCanActivateBusiness_ActorCheckedOnlyOnBuild(t *testing.T) {
	svc := createTestService(t, &recordingAuditSink{})
	req := createApprovedRequest(models.BusinessModelCommerce)

	assert.True(t, svc.CanActivateBusiness(req).CanActivate)

	_, err := svc.BuildActivation(context.Background(), ActivationRequest{ServiceRequest: req, ActivatedBy: " "})
	var actErr *ActivationError
	require.True(t, errors.As(err, &actErr))
	assert.Equal(t, CodeValidationFailed, actErr.Code)
	assert.Contains(t, actErr.Message, "actor")
}
