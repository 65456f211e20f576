// internal/workers/business/transition-request/handler.go
package transitionrequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"business-workers/internal/business/requeststate"
	"business-workers/internal/business/store"
	"business-workers/internal/common/auth"
	apperrors "business-workers/internal/common/errors"
	"business-workers/internal/common/logger"
	"business-workers/internal/common/metrics"
	"business-workers/internal/common/validation"
	"business-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "transition-service-request"
)

type Handler struct {
	config     *Config
	requests   *store.ServiceRequestStore
	authz      *auth.Authorizer
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
	now        func() time.Time
	newID      func() string
}

func NewHandler(config *Config, requests *store.ServiceRequestStore, authz *auth.Authorizer, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		requests:   requests,
		authz:      authz,
		logger:     scoped,
		errHandler: apperrors.NewErrorHandler(scoped),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	req, err := h.requests.Get(ctx, input.RequestID)
	if err != nil {
		return nil, store.AsStandardError(err, input.RequestID)
	}

	if err := h.authorize(ctx, input, req); err != nil {
		return nil, err
	}

	if input.TargetStatus == models.StatusDraft {
		return h.resubmit(ctx, input, req)
	}

	if input.TargetStatus == models.StatusSubmitted {
		if err := checkSubmission(req); err != nil {
			return nil, err
		}
	}

	at := h.now()
	next, err := requeststate.Transition(*req, input.TargetStatus, requeststate.TransitionOptions{
		Actor:           input.Actor,
		RejectionReason: input.Reason,
		At:              at,
	})
	if err != nil {
		return nil, transitionError(req.Status, input.TargetStatus, err)
	}

	if err := h.requests.ApplyTransition(ctx, &next, models.StatusTransition{
		RequestID: req.ID,
		From:      req.Status,
		To:        next.Status,
		Actor:     input.Actor,
		Reason:    input.Reason,
		At:        at,
	}); err != nil {
		return nil, store.AsStandardError(err, req.ID)
	}

	metrics.RequestTransitions.WithLabelValues(string(req.Status), string(next.Status)).Inc()
	h.logger.Info("service request transitioned", map[string]interface{}{
		"requestId": req.ID,
		"from":      req.Status,
		"to":        next.Status,
		"actor":     input.Actor,
	})

	return &Output{
		RequestID:      next.ID,
		PreviousStatus: req.Status,
		Status:         next.Status,
		StatusMessage:  requeststate.GetStatusMessage(next.Status, next.RejectionReason),
		Terminal:       requeststate.IsTerminalState(next.Status),
		TransitionedAt: at,
	}, nil
}

func (h *Handler) resubmit(ctx context.Context, input *Input, rejected *models.ServiceRequest) (*Output, error) {
	at := h.now()
	draft, err := requeststate.Resubmit(*rejected, h.newID(), at)
	if err != nil {
		return nil, transitionError(rejected.Status, models.StatusDraft, err)
	}

	err = h.requests.Create(ctx, &draft)
	if errors.Is(err, store.ErrAlreadyResubmitted) {
		return h.existingResubmission(ctx, input, rejected)
	}
	if err != nil {
		return nil, store.AsStandardError(err, draft.ID)
	}

	metrics.RequestTransitions.WithLabelValues(string(rejected.Status), string(draft.Status)).Inc()
	h.logger.Info("service request resubmitted", map[string]interface{}{
		"requestId":         draft.ID,
		"previousRequestId": rejected.ID,
		"actor":             input.Actor,
	})

	return &Output{
		RequestID:         draft.ID,
		PreviousRequestID: rejected.ID,
		PreviousStatus:    rejected.Status,
		Status:            draft.Status,
		StatusMessage:     requeststate.GetStatusMessage(draft.Status, ""),
		Terminal:          false,
		TransitionedAt:    at,
	}, nil
}

// existingResubmission answers a redelivered resubmit job with the draft the
// first delivery created.
func (h *Handler) existingResubmission(ctx context.Context, input *Input, rejected *models.ServiceRequest) (*Output, error) {
	draft, err := h.requests.GetResubmission(ctx, rejected.ID)
	if err != nil {
		return nil, store.AsStandardError(err, rejected.ID)
	}

	h.logger.Info("service request already resubmitted", map[string]interface{}{
		"requestId":         draft.ID,
		"previousRequestId": rejected.ID,
		"actor":             input.Actor,
	})

	return &Output{
		RequestID:         draft.ID,
		PreviousRequestID: rejected.ID,
		PreviousStatus:    rejected.Status,
		Status:            draft.Status,
		StatusMessage:     requeststate.GetStatusMessage(draft.Status, draft.RejectionReason),
		Terminal:          requeststate.IsTerminalState(draft.Status),
		TransitionedAt:    draft.CreatedAt,
	}, nil
}

// authorize checks the permission for the target status. Merchants may only
// submit or resubmit their own requests.
func (h *Handler) authorize(ctx context.Context, input *Input, req *models.ServiceRequest) error {
	perm := permissionFor(input.TargetStatus)

	roles, err := h.authz.Roles(ctx, input.Actor)
	if err != nil {
		return err
	}
	if !auth.HasPermission(roles, perm) {
		return apperrors.NewPermissionDeniedError(input.Actor, string(perm))
	}
	if perm == auth.PermissionSubmitRequests && input.Actor != req.UserID && !hasRole(roles, auth.RoleAdmin) {
		return apperrors.NewPermissionDeniedError(input.Actor, string(perm)).
			WithMetadata("requestOwner", req.UserID)
	}
	return nil
}

func permissionFor(target models.ServiceRequestStatus) auth.Permission {
	switch target {
	case models.StatusDraft, models.StatusSubmitted:
		return auth.PermissionSubmitRequests
	}
	return auth.PermissionReviewRequests
}

func hasRole(roles []auth.Role, want auth.Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}

func validateInput(input *Input) error {
	if strings.TrimSpace(input.RequestID) == "" {
		return apperrors.NewValidationError("requestId is required")
	}
	if strings.TrimSpace(input.Actor) == "" {
		return apperrors.NewValidationError("actor is required")
	}
	switch input.TargetStatus {
	case models.StatusDraft, models.StatusSubmitted, models.StatusReviewed,
		models.StatusApproved, models.StatusRejected:
		return nil
	case models.StatusActivated:
		return apperrors.NewValidationError("requests are activated by the activate-business task")
	}
	return apperrors.NewValidationError(fmt.Sprintf("unknown targetStatus %q", input.TargetStatus))
}

func checkSubmission(req *models.ServiceRequest) error {
	result, err := validation.ValidateSubmission(req)
	if err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if !result.Valid {
		return apperrors.NewValidationError(strings.Join(result.GetErrorMessages(), "; ")).
			WithMetadata("requestId", req.ID)
	}
	return nil
}

func transitionError(from, to models.ServiceRequestStatus, err error) error {
	if errors.Is(err, requeststate.ErrInvalidTransition) {
		stdErr := apperrors.NewInvalidTransitionError(string(from), string(to))
		stdErr.Details = err.Error()
		return stdErr
	}
	return err
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
