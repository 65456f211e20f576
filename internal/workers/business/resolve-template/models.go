// internal/workers/business/resolve-template/models.go
package resolvetemplate

import (
	"time"

	"business-workers/internal/models"
)

type Input struct {
	RequestID     string                `json:"requestId"`
	BusinessModel *models.BusinessModel `json:"businessModel"`
}

// Output is merged into the process variables under these names.
type Output struct {
	TemplateID      string                         `json:"templateId"`
	TemplateName    string                         `json:"templateName"`
	TemplateVersion string                         `json:"templateVersion"`
	BusinessModel   models.BusinessModel           `json:"businessModel"`
	Features        models.TemplateFeatures        `json:"features"`
	DefaultSettings models.TemplateDefaultSettings `json:"defaultSettings"`
	Initialization  models.InitializationPlan      `json:"initialization"`
	ResolvedAt      time.Time                      `json:"resolvedAt"`
}
