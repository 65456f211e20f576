// internal/workers/business/send-activation-notice/models.go
package sendactivationnotice

// Input matches the activate-business output variables.
type Input struct {
	BusinessProfileID string `json:"businessProfileId"`
	BusinessName      string `json:"businessName"`
	BusinessNumber    string `json:"businessNumber"`
	Slug              string `json:"slug"`
	OwnerEmail        string `json:"ownerEmail,omitempty"`
	OwnerPhone        string `json:"ownerPhone"`
	NotifyEmail       bool   `json:"notifyEmail"`
	NotifySMS         bool   `json:"notifySms"`
}

type Output struct {
	EmailSent      bool   `json:"activationEmailSent"`
	EmailMessageID string `json:"activationEmailMessageId,omitempty"`
	SMSSent        bool   `json:"activationSmsSent"`
	SMSMessageID   string `json:"activationSmsMessageId,omitempty"`
}
