// internal/models/service_request.go
package models

import "time"

// ServiceRequestStatus is the lifecycle state of a merchant's request to open a business.
type ServiceRequestStatus string

const (
	StatusDraft     ServiceRequestStatus = "draft"
	StatusSubmitted ServiceRequestStatus = "submitted"
	StatusReviewed  ServiceRequestStatus = "reviewed"
	StatusApproved  ServiceRequestStatus = "approved"
	StatusRejected  ServiceRequestStatus = "rejected"
	StatusActivated ServiceRequestStatus = "activated"
)

// ServiceRequest is a merchant's application to operate a business.
type ServiceRequest struct {
	ID           string               `json:"id"`
	UserID       string               `json:"userId"`
	BusinessName string               `json:"businessName"`
	Phone        string               `json:"phone"`
	Address      string               `json:"address"`
	ManagerPhone string               `json:"managerPhone"`
	Email        string               `json:"email,omitempty"`
	LogoURL      string               `json:"logoUrl,omitempty"`
	Description  string               `json:"description,omitempty"`
	BusinessType string               `json:"businessType"`
	Model        *BusinessModel       `json:"businessModel,omitempty"`
	Status       ServiceRequestStatus `json:"status"`

	RejectionReason   string `json:"rejectionReason,omitempty"`
	PreviousRequestID string `json:"previousRequestId,omitempty"`
	ReviewedBy        string `json:"reviewedBy,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	RejectedAt  *time.Time `json:"rejectedAt,omitempty"`
	ActivatedAt *time.Time `json:"activatedAt,omitempty"`
}

// StatusTransition is one row of a request's status history.
type StatusTransition struct {
	RequestID string               `json:"requestId"`
	From      ServiceRequestStatus `json:"from"`
	To        ServiceRequestStatus `json:"to"`
	Actor     string               `json:"actor"`
	Reason    string               `json:"reason,omitempty"`
	At        time.Time            `json:"at"`
}
