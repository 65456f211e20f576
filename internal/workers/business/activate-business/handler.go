// internal/workers/business/activate-business/handler.go
package activatebusiness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"business-workers/internal/business/activation"
	"business-workers/internal/business/store"
	"business-workers/internal/common/auth"
	apperrors "business-workers/internal/common/errors"
	"business-workers/internal/common/logger"
	"business-workers/internal/common/metrics"
	"business-workers/internal/common/observability"
	"business-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TaskType = "activate-business"
)

type RequestReader interface {
	Get(ctx context.Context, id string) (*models.ServiceRequest, error)
}

type ActivationWriter interface {
	SaveActivation(ctx context.Context, result *activation.ActivationResult, requestID, notes string) error
	SlugTaken(ctx context.Context, slug string) (bool, error)
}

type ProfileIndexer interface {
	IndexProfile(ctx context.Context, profile models.BusinessProfile) error
}

type PermissionChecker interface {
	Require(ctx context.Context, userID string, p auth.Permission) error
}

type Handler struct {
	config      *Config
	requests    RequestReader
	activations ActivationWriter
	service     *activation.Service
	authz       PermissionChecker
	directory   ProfileIndexer
	obs         *observability.Observability
	logger      logger.Logger
	errHandler  *apperrors.ErrorHandler
}

// NewHandler wires the activation task. directory and obs may be nil.
func NewHandler(
	config *Config,
	requests RequestReader,
	activations ActivationWriter,
	service *activation.Service,
	authz PermissionChecker,
	directory ProfileIndexer,
	obs *observability.Observability,
	log logger.Logger,
) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:      config,
		requests:    requests,
		activations: activations,
		service:     service,
		authz:       authz,
		directory:   directory,
		obs:         obs,
		logger:      scoped,
		errHandler:  apperrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		err = apperrors.NewValidationError(fmt.Sprintf("parse input: %v", err))
		h.fail(ctx, client, job, err)
		return err
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return err
	}

	return h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (_ *Output, err error) {
	start := time.Now()
	ctx, span := h.obs.StartSpan(ctx, "business.activate", attribute.String("request_id", input.RequestID))
	defer func() { observability.EndSpan(span, err) }()

	if strings.TrimSpace(input.RequestID) == "" {
		return nil, apperrors.NewValidationError("requestId is required")
	}
	if strings.TrimSpace(input.ActivatedBy) == "" {
		return nil, apperrors.NewValidationError("activatedBy is required")
	}
	if err := h.authz.Require(ctx, input.ActivatedBy, auth.PermissionActivateBusiness); err != nil {
		return nil, err
	}

	req, err := h.requests.Get(ctx, input.RequestID)
	if err != nil {
		return nil, store.AsStandardError(err, input.RequestID)
	}
	model := ""
	if req.Model != nil {
		model = string(*req.Model)
	}

	result, err := h.activate(ctx, req, input)
	if err != nil {
		metrics.BusinessActivations.WithLabelValues(model, metrics.ResultFailed).Inc()
		h.obs.RecordActivation(ctx, model, metrics.ResultFailed, time.Since(start))
		return nil, err
	}

	indexed := h.index(ctx, result.BusinessProfile)

	metrics.BusinessActivations.WithLabelValues(model, metrics.ResultActivated).Inc()
	h.obs.RecordActivation(ctx, model, metrics.ResultActivated, time.Since(start))

	return outputFrom(result, indexed), nil
}

// activate builds and persists the activation, drawing a new business number
// each time the unique index rejects one.
func (h *Handler) activate(ctx context.Context, req *models.ServiceRequest, input *Input) (*activation.ActivationResult, error) {
	attempts := h.config.NumberRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := h.service.BuildActivation(ctx, activation.ActivationRequest{
			ServiceRequest: req,
			ActivatedBy:    input.ActivatedBy,
			Notes:          input.Notes,
		})
		if err != nil {
			return nil, activationError(req.ID, err)
		}

		if err := h.reserveSlug(ctx, &result.BusinessProfile); err != nil {
			return nil, err
		}

		err = h.activations.SaveActivation(ctx, result, req.ID, input.Notes)
		if errors.Is(err, store.ErrDuplicateSlug) {
			// another activation took the slug after the check above
			result.BusinessProfile.Slug = disambiguateSlug(result.BusinessProfile.Slug, result.BusinessProfile.BusinessNumber)
			err = h.activations.SaveActivation(ctx, result, req.ID, input.Notes)
		}

		switch {
		case err == nil:
			h.recordAudit(ctx, result, req.ID, input.Notes)
			return result, nil
		case errors.Is(err, store.ErrDuplicateBusinessNumber):
			metrics.BusinessNumberConflicts.Inc()
			h.logger.Warn("business number already taken, regenerating", map[string]interface{}{
				"requestId":      req.ID,
				"businessNumber": result.BusinessProfile.BusinessNumber,
				"attempt":        attempt,
			})
			lastErr = err
		default:
			return nil, store.AsStandardError(err, req.ID)
		}
	}

	return nil, store.AsStandardError(lastErr, req.ID)
}

// recordAudit runs only after SaveActivation committed. The audit_log row
// written in that transaction is the durable record, so a sink failure here is
// logged rather than failing a job whose activation already exists.
func (h *Handler) recordAudit(ctx context.Context, result *activation.ActivationResult, requestID, notes string) {
	if err := h.service.RecordActivation(ctx, result, requestID, notes); err != nil {
		h.logger.Error("activation audit sink failed", map[string]interface{}{
			"requestId":         requestID,
			"businessProfileId": result.BusinessProfile.ID,
			"error":             err.Error(),
		})
	}
}

func (h *Handler) reserveSlug(ctx context.Context, profile *models.BusinessProfile) error {
	taken, err := h.activations.SlugTaken(ctx, profile.Slug)
	if err != nil {
		return store.AsStandardError(err, profile.ServiceRequestID)
	}
	if taken {
		profile.Slug = disambiguateSlug(profile.Slug, profile.BusinessNumber)
	}
	return nil
}

// disambiguateSlug appends the year and sequence of the business number,
// e.g. "al-noor" + "BIZ-2026-0042" -> "al-noor-2026-0042".
func disambiguateSlug(slug, number string) string {
	suffix := strings.ToLower(strings.TrimPrefix(number, "BIZ-"))
	if suffix == "" || strings.HasSuffix(slug, "-"+suffix) {
		return slug
	}
	return slug + "-" + suffix
}

// index projects the profile into the directory. The database row is the
// source of truth, so a failure here is logged and reported but not fatal.
func (h *Handler) index(ctx context.Context, profile models.BusinessProfile) bool {
	if h.directory == nil {
		return false
	}
	ctx, span := h.obs.StartSpan(ctx, "business.index", attribute.String("business_number", profile.BusinessNumber))
	err := h.directory.IndexProfile(ctx, profile)
	observability.EndSpan(span, err)
	if err != nil {
		h.logger.Warn("failed to index business profile", map[string]interface{}{
			"businessProfileId": profile.ID,
			"error":             err.Error(),
		})
		return false
	}
	return true
}

func activationError(requestID string, err error) error {
	var aErr *activation.ActivationError
	if !errors.As(err, &aErr) {
		return apperrors.NewActivationFailedError(requestID, err)
	}
	switch aErr.Code {
	case activation.CodeValidationFailed:
		return apperrors.NewActivationValidationError(requestID, aErr.Message)
	case activation.CodeBusinessNumberFailed:
		return apperrors.NewBusinessNumberFailedError(aErr)
	}
	return apperrors.NewActivationFailedError(requestID, aErr)
}

func outputFrom(result *activation.ActivationResult, indexed bool) *Output {
	p := result.BusinessProfile
	return &Output{
		BusinessProfileID:      p.ID,
		BusinessNumber:         p.BusinessNumber,
		BusinessName:           p.Name,
		Slug:                   p.Slug,
		Category:               p.Category,
		BusinessModel:          p.BusinessModel,
		TemplateID:             result.TemplateInstance.TemplateID,
		TemplateInstanceID:     result.TemplateInstance.ID,
		InitializedCollections: result.InitializedCollections,
		OwnerUserID:            p.OwnerUserID,
		OwnerEmail:             p.Email,
		OwnerPhone:             p.Phone,
		NotifyEmail:            p.Settings.Notifications.Email,
		NotifySMS:              p.Settings.Notifications.SMS,
		DirectoryIndexed:       indexed,
		ActivatedAt:            result.ActivationDate,
		ActivatedBy:            result.ActivatedBy,
	}
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	return nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.Normalize(err).Code)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
