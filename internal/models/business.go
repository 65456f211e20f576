// internal/models/business.go
package models

import "time"

const (
	BusinessStatusActive = "active"
)

type NotificationPreferences struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
}

type BusinessSettings struct {
	AllowCreditPurchases bool                    `json:"allowCreditPurchases"`
	DefaultCurrency      string                  `json:"defaultCurrency"`
	Notifications        NotificationPreferences `json:"notifications"`
}

// BusinessProfile is the live business created when a request is activated.
type BusinessProfile struct {
	ID                 string           `json:"id"`
	ServiceRequestID   string           `json:"serviceRequestId"`
	OwnerUserID        string           `json:"ownerUserId"`
	BusinessNumber     string           `json:"businessNumber"`
	Name               string           `json:"name"`
	Slug               string           `json:"slug"`
	Phone              string           `json:"phone"`
	Address            string           `json:"address"`
	ManagerPhone       string           `json:"managerPhone"`
	Email              string           `json:"email,omitempty"`
	LogoURL            string           `json:"logoUrl,omitempty"`
	Description        string           `json:"description,omitempty"`
	BusinessType       string           `json:"businessType"`
	BusinessModel      BusinessModel    `json:"businessModel"`
	Category           string           `json:"category"`
	TemplateInstanceID string           `json:"templateInstanceId"`
	Status             string           `json:"status"`
	ActivatedAt        time.Time        `json:"activatedAt"`
	CustomersCount     int              `json:"customersCount"`
	OrdersCount        int              `json:"ordersCount"`
	Balance            float64          `json:"balance"`
	Settings           BusinessSettings `json:"settings"`
}

type TemplateConfiguration struct {
	Features        TemplateFeatures        `json:"features"`
	DefaultSettings TemplateDefaultSettings `json:"defaultSettings"`
	UISections      []string                `json:"uiSections"`
	Permissions     []string                `json:"permissions"`
}

// TemplateInstance binds a Template to exactly one BusinessProfile.
type TemplateInstance struct {
	ID                string                `json:"id"`
	TemplateID        string                `json:"templateId"`
	TemplateVersion   string                `json:"templateVersion"`
	BusinessProfileID string                `json:"businessProfileId"`
	Configuration     TemplateConfiguration `json:"configuration"`
	Customizations    TemplateConfiguration `json:"customizations"`
	CreatedAt         time.Time             `json:"createdAt"`
}
