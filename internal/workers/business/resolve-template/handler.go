// internal/workers/business/resolve-template/handler.go
package resolvetemplate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"business-workers/internal/business/templates"
	apperrors "business-workers/internal/common/errors"
	"business-workers/internal/common/logger"
	"business-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "resolve-business-template"
)

type Handler struct {
	config     *Config
	resolver   *templates.Resolver
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, resolver *templates.Resolver, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		resolver:   resolver,
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	resolution, err := h.resolver.ResolveTemplate(input.BusinessModel)
	if err != nil {
		return nil, toStandardError(input, err)
	}

	tmpl := resolution.Template
	h.logger.Debug("template resolved", map[string]interface{}{
		"requestId":  input.RequestID,
		"templateId": tmpl.ID,
	})

	return &Output{
		TemplateID:      tmpl.ID,
		TemplateName:    tmpl.Name,
		TemplateVersion: tmpl.Version,
		BusinessModel:   resolution.BusinessModel,
		Features:        tmpl.Features,
		DefaultSettings: tmpl.DefaultSettings,
		Initialization:  tmpl.Initialization,
		ResolvedAt:      resolution.ResolvedAt,
	}, nil
}

func toStandardError(input *Input, err error) error {
	var vErr *templates.ValidationError
	switch {
	case errors.As(err, &vErr):
		return apperrors.NewValidationError(vErr.Error())
	case errors.Is(err, templates.ErrTemplateNotFound):
		model := ""
		if input.BusinessModel != nil {
			model = string(*input.BusinessModel)
		}
		return apperrors.NewTemplateNotFoundError(model)
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
