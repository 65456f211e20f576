package activation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"business-workers/internal/business/templates"
	"business-workers/internal/common/logger"
	"business-workers/internal/models"

	"github.com/google/uuid"
)

const defaultProvisionalCurrency = "SAR"

var categoryByModel = map[models.BusinessModel]string{
	models.BusinessModelCommerce: "retail",
	models.BusinessModelFood:     "food_service",
	models.BusinessModelServices: "service_provider",
	models.BusinessModelRental:   "rental",
}

// Collection names created by the initialization plan.
const (
	CollectionCustomers = "customers"
	CollectionProducts  = "products"
	CollectionServices  = "services"
	CollectionBookings  = "bookings"
	CollectionAssets    = "assets"
)

type ActivationRequest struct {
	ServiceRequest *models.ServiceRequest
	ActivatedBy    string
	Notes          string
}

type ActivationResult struct {
	BusinessProfile        models.BusinessProfile  `json:"businessProfile"`
	TemplateInstance       models.TemplateInstance `json:"templateInstance"`
	Template               models.Template         `json:"template"`
	InitializedCollections []string                `json:"initializedCollections"`
	ActivationDate         time.Time               `json:"activationDate"`
	ActivatedBy            string                  `json:"activatedBy"`
}

type Eligibility struct {
	CanActivate bool   `json:"canActivate"`
	Reason      string `json:"reason,omitempty"`
}

type Option func(*Service)

// WithClock overrides the activation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides how profile and instance ids are allocated.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithProvisionalCurrency sets the currency used before template settings are applied.
func WithProvisionalCurrency(currency string) Option {
	return func(s *Service) {
		if currency != "" {
			s.provisionalCurrency = currency
		}
	}
}

// Service converts an approved service request into a business profile and
// its template instance. It does not persist anything.
type Service struct {
	resolver            *templates.Resolver
	numbers             NumberGenerator
	audit               AuditSink
	logger              logger.Logger
	now                 func() time.Time
	newID               func() string
	provisionalCurrency string
}

// NewService builds the activation service. Nil dependencies fall back to the
// static resolver, a random number generator, a no-op logger and a log audit sink.
func NewService(resolver *templates.Resolver, numbers NumberGenerator, audit AuditSink, log logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if resolver == nil {
		resolver = templates.NewResolver(nil)
	}
	if numbers == nil {
		numbers = NewRandomNumberGenerator(time.Now().UnixNano())
	}
	if audit == nil {
		audit = NewLogAuditSink(log)
	}

	s := &Service{
		resolver:            resolver,
		numbers:             numbers,
		audit:               audit,
		logger:              log.WithFields(map[string]interface{}{"component": "business-activation"}),
		now:                 func() time.Time { return time.Now().UTC() },
		newID:               func() string { return uuid.New().String() },
		provisionalCurrency: defaultProvisionalCurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CanActivateBusiness runs the activation prerequisites without building
// anything. The activating actor is not part of them; BuildActivation checks
// it separately and the activate-business worker rejects a blank actor up front.
func (s *Service) CanActivateBusiness(req *models.ServiceRequest) Eligibility {
	if err := s.validate(req); err != nil {
		return Eligibility{CanActivate: false, Reason: err.Message}
	}
	return Eligibility{CanActivate: true}
}

func (s *Service) validate(req *models.ServiceRequest) *ActivationError {
	if req == nil {
		return newActivationError(CodeValidationFailed, "", nil, "service request is required")
	}
	if req.Status == models.StatusActivated {
		return newActivationError(CodeValidationFailed, req.ID, nil, "service request has already been activated")
	}
	if req.Status != models.StatusApproved {
		return newActivationError(CodeValidationFailed, req.ID, nil,
			"service request must be approved before activation, current status is %q", req.Status)
	}
	if req.Model == nil || *req.Model == "" {
		return newActivationError(CodeValidationFailed, req.ID, nil, "business model is required for activation")
	}
	if res := s.resolver.ValidateTemplateResolution(req.Model); !res.Valid {
		return newActivationError(CodeValidationFailed, req.ID, nil, "template resolution failed: %s", res.Error)
	}
	return nil
}

// ActivateBusiness builds the activation and records its audit entry. Callers
// that persist the result should use BuildActivation and RecordActivation so
// nothing is audited for a write that never commits.
func (s *Service) ActivateBusiness(ctx context.Context, in ActivationRequest) (*ActivationResult, error) {
	result, err := s.BuildActivation(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.RecordActivation(ctx, result, in.ServiceRequest.ID, in.Notes); err != nil {
		return nil, err
	}
	return result, nil
}

// BuildActivation builds the business profile and template instance for an
// approved request. Besides the eligibility checks it requires an activating
// actor. Nothing is audited.
func (s *Service) BuildActivation(ctx context.Context, in ActivationRequest) (*ActivationResult, error) {
	if err := s.validate(in.ServiceRequest); err != nil {
		return nil, err
	}
	req := in.ServiceRequest
	if strings.TrimSpace(in.ActivatedBy) == "" {
		return nil, newActivationError(CodeValidationFailed, req.ID, nil, "activating actor is required")
	}

	resolution, err := s.resolver.ResolveTemplate(req.Model)
	if err != nil {
		return nil, newActivationError(CodeTemplateResolutionFailed, req.ID, err, "resolve template: %v", err)
	}
	tmpl := resolution.Template

	activatedAt := s.now()

	number, err := s.numbers.Next(ctx, activatedAt)
	if err != nil {
		return nil, newActivationError(CodeBusinessNumberFailed, req.ID, err, "generate business number: %v", err)
	}

	profileID := s.newID()
	instanceID := s.newID()

	profile := s.buildProfile(req, profileID, instanceID, number, activatedAt)
	instance := buildInstance(tmpl, instanceID, profileID, activatedAt)
	collections := initializeCollections(tmpl.Initialization)

	// Template settings win over the provisional values.
	profile.Settings.AllowCreditPurchases = tmpl.DefaultSettings.AllowCreditPurchases
	profile.Settings.DefaultCurrency = tmpl.DefaultSettings.DefaultCurrency

	return &ActivationResult{
		BusinessProfile:        profile,
		TemplateInstance:       instance,
		Template:               tmpl,
		InitializedCollections: collections,
		ActivationDate:         activatedAt,
		ActivatedBy:            in.ActivatedBy,
	}, nil
}

// RecordActivation writes the audit entry for a built activation.
func (s *Service) RecordActivation(ctx context.Context, result *ActivationResult, requestID, notes string) error {
	entry := AuditEntry{
		RequestID:         requestID,
		BusinessProfileID: result.BusinessProfile.ID,
		BusinessNumber:    result.BusinessProfile.BusinessNumber,
		TemplateID:        result.Template.ID,
		BusinessModel:     result.Template.BusinessModel,
		ActivatedBy:       result.ActivatedBy,
		Notes:             notes,
		Timestamp:         result.ActivationDate,
	}
	if err := s.audit.RecordActivation(ctx, entry); err != nil {
		return newActivationError(CodeAuditFailed, requestID, err, "record activation audit: %v", err)
	}

	s.logger.Info("business activated", map[string]interface{}{
		"requestId":         requestID,
		"businessProfileId": result.BusinessProfile.ID,
		"businessNumber":    result.BusinessProfile.BusinessNumber,
		"templateId":        result.Template.ID,
		"collections":       result.InitializedCollections,
	})
	return nil
}

func (s *Service) buildProfile(req *models.ServiceRequest, profileID, instanceID, number string, at time.Time) models.BusinessProfile {
	slug := Slugify(req.BusinessName)
	if slug == "" {
		slug = fallbackSlug(profileID)
	}

	return models.BusinessProfile{
		ID:                 profileID,
		ServiceRequestID:   req.ID,
		OwnerUserID:        req.UserID,
		BusinessNumber:     number,
		Name:               req.BusinessName,
		Slug:               slug,
		Phone:              req.Phone,
		Address:            req.Address,
		ManagerPhone:       req.ManagerPhone,
		Email:              req.Email,
		LogoURL:            req.LogoURL,
		Description:        req.Description,
		BusinessType:       req.BusinessType,
		BusinessModel:      *req.Model,
		Category:           CategoryFor(*req.Model),
		TemplateInstanceID: instanceID,
		Status:             models.BusinessStatusActive,
		ActivatedAt:        at,
		Settings: models.BusinessSettings{
			AllowCreditPurchases: false,
			DefaultCurrency:      s.provisionalCurrency,
			Notifications: models.NotificationPreferences{
				Email: req.Email != "",
				SMS:   true,
				Push:  true,
			},
		},
	}
}

func buildInstance(tmpl models.Template, instanceID, profileID string, at time.Time) models.TemplateInstance {
	return models.TemplateInstance{
		ID:                instanceID,
		TemplateID:        tmpl.ID,
		TemplateVersion:   tmpl.Version,
		BusinessProfileID: profileID,
		Configuration:     configurationFor(tmpl),
		Customizations:    configurationFor(tmpl),
		CreatedAt:         at,
	}
}

// CategoryFor maps a business model to its directory category.
func CategoryFor(model models.BusinessModel) string {
	if c, ok := categoryByModel[model]; ok {
		return c
	}
	return "other"
}

func fallbackSlug(profileID string) string {
	hex := strings.ReplaceAll(profileID, "-", "")
	if len(hex) > 8 {
		hex = hex[:8]
	}
	return fmt.Sprintf("business-%s", hex)
}

func initializeCollections(plan models.InitializationPlan) []string {
	collections := make([]string, 0, 5)
	if plan.CreateCustomers {
		collections = append(collections, CollectionCustomers)
	}
	if plan.CreateProducts {
		collections = append(collections, CollectionProducts)
	}
	if plan.CreateServices {
		collections = append(collections, CollectionServices)
	}
	if plan.CreateBookings {
		collections = append(collections, CollectionBookings)
	}
	if plan.CreateAssets {
		collections = append(collections, CollectionAssets)
	}
	return collections
}

type featureSection struct {
	enabled    func(models.TemplateFeatures) bool
	section    string
	permission string
}

var featureSections = []featureSection{
	{func(f models.TemplateFeatures) bool { return f.CustomerManagement }, "customers", "customers:manage"},
	{func(f models.TemplateFeatures) bool { return f.OrderManagement }, "orders", "orders:manage"},
	{func(f models.TemplateFeatures) bool { return f.PaymentProcessing }, "payments", "payments:process"},
	{func(f models.TemplateFeatures) bool { return f.Inventory }, "inventory", "inventory:manage"},
	{func(f models.TemplateFeatures) bool { return f.MenuManagement }, "menu", "menu:manage"},
	{func(f models.TemplateFeatures) bool { return f.TableReservations }, "reservations", "reservations:manage"},
	{func(f models.TemplateFeatures) bool { return f.Appointments }, "appointments", "appointments:manage"},
	{func(f models.TemplateFeatures) bool { return f.StaffScheduling }, "staff", "staff:schedule"},
	{func(f models.TemplateFeatures) bool { return f.AssetTracking }, "assets", "assets:manage"},
	{func(f models.TemplateFeatures) bool { return f.RentalContracts }, "contracts", "contracts:manage"},
	{func(f models.TemplateFeatures) bool { return f.Reporting }, "reports", "reports:view"},
}

func configurationFor(tmpl models.Template) models.TemplateConfiguration {
	sections := []string{"dashboard"}
	permissions := []string{"business:view"}
	for _, fs := range featureSections {
		if fs.enabled(tmpl.Features) {
			sections = append(sections, fs.section)
			permissions = append(permissions, fs.permission)
		}
	}
	sections = append(sections, "settings")

	settings := tmpl.DefaultSettings
	settings.PaymentMethods = append([]string(nil), tmpl.DefaultSettings.PaymentMethods...)

	return models.TemplateConfiguration{
		Features:        tmpl.Features,
		DefaultSettings: settings,
		UISections:      sections,
		Permissions:     permissions,
	}
}
