// internal/workers/business/transition-request/models.go
package transitionrequest

import (
	"time"

	"business-workers/internal/business/requeststate"
	"business-workers/internal/models"
)

// Input moves one service request. TargetStatus "draft" on a rejected
// request opens a resubmission draft instead.
type Input struct {
	RequestID    string                      `json:"requestId"`
	TargetStatus models.ServiceRequestStatus `json:"targetStatus"`
	Actor        string                      `json:"actor"`
	Reason       string                      `json:"reason,omitempty"`
}

type Output struct {
	RequestID         string                      `json:"requestId"`
	PreviousRequestID string                      `json:"previousRequestId,omitempty"`
	PreviousStatus    models.ServiceRequestStatus `json:"previousStatus"`
	Status            models.ServiceRequestStatus `json:"status"`
	StatusMessage     requeststate.StatusMessage  `json:"statusMessage"`
	Terminal          bool                        `json:"terminal"`
	TransitionedAt    time.Time                   `json:"transitionedAt"`
}
