// internal/workers/business/check-activation/models.go
package checkactivation

import "business-workers/internal/models"

type Input struct {
	RequestID string `json:"requestId"`
}

// Output drives the gateway in front of the activation task.
type Output struct {
	RequestID   string                      `json:"requestId"`
	Status      models.ServiceRequestStatus `json:"requestStatus"`
	CanActivate bool                        `json:"canActivate"`
	Reason      string                      `json:"activationBlockedReason,omitempty"`
}
