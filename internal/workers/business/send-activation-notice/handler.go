// internal/workers/business/send-activation-notice/handler.go
package sendactivationnotice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"business-workers/internal/common/aws"
	apperrors "business-workers/internal/common/errors"
	"business-workers/internal/common/logger"
	"business-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "send-activation-notice"
)

type EmailSender interface {
	SendEmail(ctx context.Context, msg aws.Email) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config     *Config
	email      EmailSender
	sms        SMSSender
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

// NewHandler accepts nil senders for channels that are not configured.
func NewHandler(config *Config, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		email:      email,
		sms:        sms,
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
	if input.BusinessNumber == "" || input.BusinessName == "" {
		return nil, apperrors.NewValidationError("businessName and businessNumber are required")
	}

	out := &Output{}

	if h.config.EmailEnabled && h.email != nil && input.NotifyEmail && input.OwnerEmail != "" {
		id, err := h.email.SendEmail(ctx, h.composeEmail(input))
		if err != nil {
			return nil, apperrors.NewNotificationSendFailedError("email", err)
		}
		out.EmailSent, out.EmailMessageID = true, id
	}

	// a retry after an SMS failure sends the email again
	if h.config.SMSEnabled && h.sms != nil && input.NotifySMS && input.OwnerPhone != "" {
		id, err := h.sms.SendSMS(ctx, input.OwnerPhone, h.composeSMS(input))
		if err != nil {
			return nil, apperrors.NewNotificationSendFailedError("sms", err)
		}
		out.SMSSent, out.SMSMessageID = true, id
	}

	h.logger.Info("activation notice sent", map[string]interface{}{
		"businessProfileId": input.BusinessProfileID,
		"email":             out.EmailSent,
		"sms":               out.SMSSent,
	})
	return out, nil
}

func (h *Handler) link(input *Input) string {
	if input.Slug == "" {
		return ""
	}
	return strings.TrimRight(h.config.DirectoryBaseURL, "/") + "/" + input.Slug
}

func (h *Handler) composeEmail(input *Input) aws.Email {
	var text strings.Builder
	fmt.Fprintf(&text, "تم تفعيل نشاطك التجاري %s\n", input.BusinessName)
	fmt.Fprintf(&text, "رقم النشاط: %s\n", input.BusinessNumber)
	if link := h.link(input); link != "" {
		fmt.Fprintf(&text, "صفحة النشاط: %s\n", link)
	}
	fmt.Fprintf(&text, "\nYour business %s is now active. Business number: %s\n", input.BusinessName, input.BusinessNumber)

	return aws.Email{
		To:      input.OwnerEmail,
		Subject: fmt.Sprintf("تم تفعيل %s | %s activated", input.BusinessName, input.BusinessName),
		Text:    text.String(),
	}
}

func (h *Handler) composeSMS(input *Input) string {
	msg := fmt.Sprintf("تم تفعيل %s. رقم النشاط %s", input.BusinessName, input.BusinessNumber)
	if link := h.link(input); link != "" {
		msg += " " + link
	}
	return msg
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
