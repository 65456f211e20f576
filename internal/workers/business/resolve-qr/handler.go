// internal/workers/business/resolve-qr/handler.go
package resolveqr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"business-workers/internal/business/activation"
	"business-workers/internal/business/directory"
	apperrors "business-workers/internal/common/errors"
	"business-workers/internal/common/logger"
	"business-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "resolve-business-qr"

	matchedBySlug   = "slug"
	matchedByNumber = "businessNumber"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type BusinessLookup interface {
	Lookup(ctx context.Context, q directory.LookupQuery) (*directory.Entry, error)
}

type Handler struct {
	config     *Config
	directory  BusinessLookup
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, dir BusinessLookup, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		directory:  dir,
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	query, matchedBy, err := ParseCode(input.Code)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	entry, err := h.directory.Lookup(ctx, query)
	switch {
	case err == nil:
	case errors.Is(err, directory.ErrBusinessNotFound):
		return nil, apperrors.NewBusinessNotFoundError(err.Error())
	case errors.Is(err, directory.ErrInvalidLookup):
		return nil, apperrors.NewValidationError(err.Error())
	default:
		return nil, apperrors.NewDirectoryUnavailableError(err)
	}

	return &Output{
		BusinessProfileID: entry.ID,
		BusinessNumber:    entry.BusinessNumber,
		Slug:              entry.Slug,
		BusinessName:      entry.Name,
		Category:          entry.Category,
		BusinessModel:     entry.BusinessModel,
		Phone:             entry.Phone,
		Address:           entry.Address,
		LogoURL:           entry.LogoURL,
		MatchedBy:         matchedBy,
	}, nil
}

// ParseCode accepts a directory link (https://host/b/<slug>), a bare slug or
// a business number and returns the matching lookup.
func ParseCode(code string) (directory.LookupQuery, string, error) {
	value := strings.TrimSpace(code)
	if value == "" {
		return directory.LookupQuery{}, "", fmt.Errorf("qrCode is required")
	}

	if u, err := url.Parse(value); err == nil && u.Scheme != "" && u.Host != "" {
		value = path.Base(strings.TrimRight(u.Path, "/"))
		if value == "." || value == "/" {
			return directory.LookupQuery{}, "", fmt.Errorf("link %q does not name a business", code)
		}
		if unescaped, err := url.PathUnescape(value); err == nil {
			value = unescaped
		}
	}

	if upper := strings.ToUpper(value); activation.IsBusinessNumber(upper) {
		return directory.LookupQuery{BusinessNumber: upper}, matchedByNumber, nil
	}

	slug := strings.ToLower(value)
	if !slugPattern.MatchString(slug) {
		return directory.LookupQuery{}, "", fmt.Errorf("qrCode %q is neither a slug nor a business number", code)
	}
	return directory.LookupQuery{Slug: slug}, matchedBySlug, nil
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
