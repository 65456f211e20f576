// internal/workers/business/check-activation/handler.go
package checkactivation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"business-workers/internal/business/activation"
	"business-workers/internal/business/store"
	apperrors "business-workers/internal/common/errors"
	"business-workers/internal/common/logger"
	"business-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "check-activation-eligibility"
)

type Handler struct {
	config     *Config
	requests   *store.ServiceRequestStore
	service    *activation.Service
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, requests *store.ServiceRequestStore, service *activation.Service, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		requests:   requests,
		service:    service,
		logger:     scoped,
		errHandler: apperrors.NewErrorHandler(scoped),
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

// execute never fails on an ineligible request; the reason is returned for
// the process to branch on.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.RequestID) == "" {
		return nil, apperrors.NewValidationError("requestId is required")
	}

	req, err := h.requests.Get(ctx, input.RequestID)
	if err != nil {
		return nil, store.AsStandardError(err, input.RequestID)
	}

	eligibility := h.service.CanActivateBusiness(req)
	if !eligibility.CanActivate {
		h.logger.Info("request not eligible for activation", map[string]interface{}{
			"requestId": req.ID,
			"status":    req.Status,
			"reason":    eligibility.Reason,
		})
	}

	return &Output{
		RequestID:   req.ID,
		Status:      req.Status,
		CanActivate: eligibility.CanActivate,
		Reason:      eligibility.Reason,
	}, nil
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
