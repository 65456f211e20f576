// internal/models/template.go
package models

// BusinessModel is the merchant's declared commercial intent.
type BusinessModel string

const (
	BusinessModelCommerce BusinessModel = "commerce"
	BusinessModelFood     BusinessModel = "food"
	BusinessModelServices BusinessModel = "services"
	BusinessModelRental   BusinessModel = "rental"
)

// BusinessModels lists every accepted business model.
var BusinessModels = []BusinessModel{
	BusinessModelCommerce,
	BusinessModelFood,
	BusinessModelServices,
	BusinessModelRental,
}

// Valid reports whether m is one of the closed set of business models.
func (m BusinessModel) Valid() bool {
	switch m {
	case BusinessModelCommerce, BusinessModelFood, BusinessModelServices, BusinessModelRental:
		return true
	}
	return false
}

func (m BusinessModel) String() string {
	return string(m)
}

// BusinessModelPtr is a convenience for optional fields.
func BusinessModelPtr(m BusinessModel) *BusinessModel {
	return &m
}

type TemplateFeatures struct {
	CustomerManagement bool `json:"customerManagement"`
	OrderManagement    bool `json:"orderManagement"`
	PaymentProcessing  bool `json:"paymentProcessing"`
	Reporting          bool `json:"reporting"`
	Inventory          bool `json:"inventory"`
	MenuManagement     bool `json:"menuManagement"`
	TableReservations  bool `json:"tableReservations"`
	Appointments       bool `json:"appointments"`
	StaffScheduling    bool `json:"staffScheduling"`
	AssetTracking      bool `json:"assetTracking"`
	RentalContracts    bool `json:"rentalContracts"`
}

type TemplateDefaultSettings struct {
	AllowCreditPurchases bool     `json:"allowCreditPurchases"`
	DefaultCurrency      string   `json:"defaultCurrency"`
	PaymentMethods       []string `json:"paymentMethods"`
}

// InitializationPlan declares which entity collections a template creates on activation.
type InitializationPlan struct {
	CreateCustomers bool `json:"createCustomers"`
	CreateProducts  bool `json:"createProducts"`
	CreateServices  bool `json:"createServices"`
	CreateBookings  bool `json:"createBookings"`
	CreateAssets    bool `json:"createAssets"`
}

// Template is the static, versioned definition bound to one business model.
type Template struct {
	ID              string                  `json:"id"`
	Name            string                  `json:"name"`
	BusinessModel   BusinessModel           `json:"businessModel"`
	Version         string                  `json:"version"`
	Features        TemplateFeatures        `json:"features"`
	DefaultSettings TemplateDefaultSettings `json:"defaultSettings"`
	Initialization  InitializationPlan      `json:"initialization"`
}
