package activation

import (
	"context"
	"time"

	"business-workers/internal/common/logger"
	"business-workers/internal/models"
)

// AuditEntry records who activated which request into which business.
type AuditEntry struct {
	RequestID         string               `json:"requestId"`
	BusinessProfileID string               `json:"businessProfileId"`
	BusinessNumber    string               `json:"businessNumber"`
	TemplateID        string               `json:"templateId"`
	BusinessModel     models.BusinessModel `json:"businessModel"`
	ActivatedBy       string               `json:"activatedBy"`
	Notes             string               `json:"notes,omitempty"`
	Timestamp         time.Time            `json:"timestamp"`
}

type AuditSink interface {
	RecordActivation(ctx context.Context, entry AuditEntry) error
}

// LogAuditSink writes audit entries to the structured log.
type LogAuditSink struct {
	logger logger.Logger
}

func NewLogAuditSink(log logger.Logger) *LogAuditSink {
	return &LogAuditSink{logger: log.WithFields(map[string]interface{}{"audit": "business_activation"})}
}

func (s *LogAuditSink) RecordActivation(_ context.Context, entry AuditEntry) error {
	s.logger.Info("business activation audited", map[string]interface{}{
		"requestId":         entry.RequestID,
		"businessProfileId": entry.BusinessProfileID,
		"businessNumber":    entry.BusinessNumber,
		"templateId":        entry.TemplateID,
		"businessModel":     string(entry.BusinessModel),
		"activatedBy":       entry.ActivatedBy,
		"notes":             entry.Notes,
		"timestamp":         entry.Timestamp.Format(time.RFC3339),
	})
	return nil
}
