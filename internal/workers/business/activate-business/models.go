// internal/workers/business/activate-business/models.go
package activatebusiness

import (
	"time"

	"business-workers/internal/models"
)

type Input struct {
	RequestID   string `json:"requestId"`
	ActivatedBy string `json:"activatedBy"`
	Notes       string `json:"notes,omitempty"`
}

// Output carries everything send-activation-notice needs.
type Output struct {
	BusinessProfileID      string               `json:"businessProfileId"`
	BusinessNumber         string               `json:"businessNumber"`
	BusinessName           string               `json:"businessName"`
	Slug                   string               `json:"slug"`
	Category               string               `json:"category"`
	BusinessModel          models.BusinessModel `json:"businessModel"`
	TemplateID             string               `json:"templateId"`
	TemplateInstanceID     string               `json:"templateInstanceId"`
	InitializedCollections []string             `json:"initializedCollections"`
	OwnerUserID            string               `json:"ownerUserId"`
	OwnerEmail             string               `json:"ownerEmail,omitempty"`
	OwnerPhone             string               `json:"ownerPhone"`
	NotifyEmail            bool                 `json:"notifyEmail"`
	NotifySMS              bool                 `json:"notifySms"`
	DirectoryIndexed       bool                 `json:"directoryIndexed"`
	ActivatedAt            time.Time            `json:"activatedAt"`
	ActivatedBy            string               `json:"activatedBy"`
}
