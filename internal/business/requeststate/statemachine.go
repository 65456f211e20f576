// Package requeststate is the single source of truth for the service-request
// lifecycle: which states exist, which edges are legal and what each state
// allows a merchant or an administrator to do.
package requeststate

import (
	"errors"
	"fmt"
	"time"

	"business-workers/internal/models"
)

var ErrInvalidTransition = errors.New("INVALID_TRANSITION")

// TransitionError reports an edge that is not in the source state's transition list.
type TransitionError struct {
	From   models.ServiceRequestStatus
	To     models.ServiceRequestStatus
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("cannot transition service request from %q to %q", e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

type Capabilities struct {
	CanEdit     bool `json:"canEdit"`
	CanSubmit   bool `json:"canSubmit"`
	CanResubmit bool `json:"canResubmit"`
	CanApprove  bool `json:"canApprove"`
	CanReject   bool `json:"canReject"`
	CanActivate bool `json:"canActivate"`
}

type Display struct {
	ShowRejectionReason bool   `json:"showRejectionReason"`
	ShowBusinessLink    bool   `json:"showBusinessLink"`
	ShowTimeline        bool   `json:"showTimeline"`
	BadgeColor          string `json:"badgeColor"`
}

// StateConfig is everything the UI and the workers need to know about one state.
type StateConfig struct {
	Status           models.ServiceRequestStatus   `json:"status"`
	Label            string                        `json:"label"`
	Description      string                        `json:"description"`
	Capabilities     Capabilities                  `json:"capabilities"`
	Display          Display                       `json:"display"`
	Terminal         bool                          `json:"terminal"`
	ValidTransitions []models.ServiceRequestStatus `json:"validTransitions"`
}

type StatusMessage struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Action      string `json:"action,omitempty"`
}

var allStates = []models.ServiceRequestStatus{
	models.StatusDraft,
	models.StatusSubmitted,
	models.StatusReviewed,
	models.StatusApproved,
	models.StatusRejected,
	models.StatusActivated,
}

var stateConfigs = map[models.ServiceRequestStatus]StateConfig{
	models.StatusDraft: {
		Status:       models.StatusDraft,
		Label:        "مسودة",
		Description:  "الطلب قيد الإعداد ولم يُرسل بعد",
		Capabilities: Capabilities{CanEdit: true, CanSubmit: true},
		Display:      Display{BadgeColor: "gray"},
		ValidTransitions: []models.ServiceRequestStatus{
			models.StatusSubmitted,
		},
	},
	models.StatusSubmitted: {
		Status:       models.StatusSubmitted,
		Label:        "مُرسل",
		Description:  "تم إرسال الطلب وهو بانتظار المراجعة",
		Capabilities: Capabilities{CanApprove: true, CanReject: true},
		Display:      Display{ShowTimeline: true, BadgeColor: "blue"},
		ValidTransitions: []models.ServiceRequestStatus{
			models.StatusReviewed,
			models.StatusRejected,
		},
	},
	models.StatusReviewed: {
		Status:       models.StatusReviewed,
		Label:        "قيد المراجعة",
		Description:  "تمت مراجعة الطلب مبدئياً وبانتظار القرار النهائي",
		Capabilities: Capabilities{CanApprove: true, CanReject: true},
		Display:      Display{ShowTimeline: true, BadgeColor: "yellow"},
		ValidTransitions: []models.ServiceRequestStatus{
			models.StatusApproved,
			models.StatusRejected,
		},
	},
	models.StatusApproved: {
		Status:       models.StatusApproved,
		Label:        "مقبول",
		Description:  "تمت الموافقة على الطلب وبانتظار تفعيل النشاط التجاري",
		Capabilities: Capabilities{CanActivate: true},
		Display:      Display{ShowTimeline: true, BadgeColor: "green"},
		ValidTransitions: []models.ServiceRequestStatus{
			models.StatusActivated,
		},
	},
	models.StatusRejected: {
		Status:           models.StatusRejected,
		Label:            "مرفوض",
		Description:      "تم رفض الطلب",
		Capabilities:     Capabilities{CanResubmit: true},
		Display:          Display{ShowRejectionReason: true, ShowTimeline: true, BadgeColor: "red"},
		Terminal:         true,
		ValidTransitions: []models.ServiceRequestStatus{},
	},
	models.StatusActivated: {
		Status:           models.StatusActivated,
		Label:            "مفعّل",
		Description:      "النشاط التجاري مفعّل ويعمل",
		Display:          Display{ShowBusinessLink: true, ShowTimeline: true, BadgeColor: "emerald"},
		Terminal:         true,
		ValidTransitions: []models.ServiceRequestStatus{},
	},
}

// AllStates returns the lifecycle states in their natural order.
func AllStates() []models.ServiceRequestStatus {
	return append([]models.ServiceRequestStatus(nil), allStates...)
}

// GetStateConfig returns the config for state; ok is false for an unknown state.
func GetStateConfig(state models.ServiceRequestStatus) (StateConfig, bool) {
	cfg, ok := stateConfigs[state]
	if !ok {
		return StateConfig{}, false
	}
	cfg.ValidTransitions = append([]models.ServiceRequestStatus{}, cfg.ValidTransitions...)
	return cfg, true
}

// CanTransition reports whether to is a declared successor of from.
func CanTransition(from, to models.ServiceRequestStatus) bool {
	cfg, ok := stateConfigs[from]
	if !ok {
		return false
	}
	for _, next := range cfg.ValidTransitions {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminalState(state models.ServiceRequestStatus) bool {
	cfg, ok := stateConfigs[state]
	return ok && len(cfg.ValidTransitions) == 0
}

// IsActiveState reports whether the request is still moving through the pipeline.
func IsActiveState(state models.ServiceRequestStatus) bool {
	return state != models.StatusRejected && state != models.StatusActivated
}

// GetStatusMessage renders the merchant-facing message for state. For a
// rejected request the supplied reason wins over the generic text.
func GetStatusMessage(state models.ServiceRequestStatus, rejectionReason string) StatusMessage {
	switch state {
	case models.StatusDraft:
		return StatusMessage{
			Title:       "طلبك محفوظ كمسودة",
			Description: "أكمل بيانات نشاطك التجاري ثم أرسل الطلب للمراجعة",
			Action:      "إرسال الطلب",
		}
	case models.StatusSubmitted:
		return StatusMessage{
			Title:       "تم استلام طلبك",
			Description: "سيقوم فريقنا بمراجعة طلبك في أقرب وقت",
		}
	case models.StatusReviewed:
		return StatusMessage{
			Title:       "طلبك قيد المراجعة",
			Description: "تمت مراجعة بياناتك مبدئياً وسيصلك القرار النهائي قريباً",
		}
	case models.StatusApproved:
		return StatusMessage{
			Title:       "تمت الموافقة على طلبك",
			Description: "سيتم تفعيل نشاطك التجاري قريباً",
		}
	case models.StatusRejected:
		description := "لم تتم الموافقة على طلبك. يمكنك تعديل البيانات وإرسال طلب جديد"
		if rejectionReason != "" {
			description = rejectionReason
		}
		return StatusMessage{
			Title:       "تم رفض طلبك",
			Description: description,
			Action:      "إعادة تقديم الطلب",
		}
	case models.StatusActivated:
		return StatusMessage{
			Title:       "تم تفعيل نشاطك التجاري",
			Description: "يمكنك الآن إدارة نشاطك التجاري من لوحة التحكم",
			Action:      "الانتقال إلى النشاط التجاري",
		}
	default:
		return StatusMessage{
			Title:       "حالة غير معروفة",
			Description: fmt.Sprintf("حالة الطلب %q غير معروفة", state),
		}
	}
}

type TransitionOptions struct {
	Actor           string
	RejectionReason string
	At              time.Time
}

// Transition returns a copy of req moved to the given status with the
// matching lifecycle timestamp set. req itself is never modified.
func Transition(req models.ServiceRequest, to models.ServiceRequestStatus, opts TransitionOptions) (models.ServiceRequest, error) {
	if !CanTransition(req.Status, to) {
		return req, &TransitionError{From: req.Status, To: to}
	}
	if to == models.StatusRejected && opts.RejectionReason == "" {
		return req, &TransitionError{From: req.Status, To: to, Reason: "a rejection reason is required"}
	}

	at := opts.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	next := req
	next.Status = to
	next.UpdatedAt = at

	switch to {
	case models.StatusSubmitted:
		next.SubmittedAt = &at
	case models.StatusReviewed:
		next.ReviewedAt = &at
		next.ReviewedBy = opts.Actor
	case models.StatusApproved:
		next.ApprovedAt = &at
		next.ReviewedBy = opts.Actor
	case models.StatusRejected:
		next.RejectedAt = &at
		next.ReviewedBy = opts.Actor
		next.RejectionReason = opts.RejectionReason
	case models.StatusActivated:
		next.ActivatedAt = &at
	}

	return next, nil
}

// Resubmit opens a new draft from a rejected request. The draft keeps the
// merchant's content and links back to the rejected request.
func Resubmit(rejected models.ServiceRequest, newID string, at time.Time) (models.ServiceRequest, error) {
	if rejected.Status != models.StatusRejected {
		return models.ServiceRequest{}, &TransitionError{
			From:   rejected.Status,
			To:     models.StatusDraft,
			Reason: "only rejected requests can be resubmitted",
		}
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	draft := models.ServiceRequest{
		ID:                newID,
		UserID:            rejected.UserID,
		BusinessName:      rejected.BusinessName,
		Phone:             rejected.Phone,
		Address:           rejected.Address,
		ManagerPhone:      rejected.ManagerPhone,
		Email:             rejected.Email,
		LogoURL:           rejected.LogoURL,
		Description:       rejected.Description,
		BusinessType:      rejected.BusinessType,
		Status:            models.StatusDraft,
		PreviousRequestID: rejected.ID,
		CreatedAt:         at,
		UpdatedAt:         at,
	}
	if rejected.Model != nil {
		m := *rejected.Model
		draft.Model = &m
	}
	return draft, nil
}
