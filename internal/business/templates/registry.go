// Package templates holds the canonical business templates and resolves a
// merchant's business model to exactly one of them.
package templates

import (
	"errors"
	"fmt"
	"sync"

	"business-workers/internal/models"
)

// ErrTemplateNotFound is returned when a business model has no registered template.
// The model set is closed, so this signals drift between the enum and the table.
var ErrTemplateNotFound = errors.New("TEMPLATE_NOT_FOUND")

// Registry is an immutable lookup of templates keyed by business model.
type Registry struct {
	byModel map[models.BusinessModel]models.Template
	ids     map[string]struct{}
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the process-wide registry of canonical templates.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(canonicalTemplates()...)
	})
	return defaultRegistry
}

// NewRegistry builds a registry from the given templates. A later template for
// the same business model replaces an earlier one.
func NewRegistry(tmpls ...models.Template) *Registry {
	r := &Registry{
		byModel: make(map[models.BusinessModel]models.Template, len(tmpls)),
		ids:     make(map[string]struct{}, len(tmpls)),
	}
	for _, t := range tmpls {
		r.byModel[t.BusinessModel] = cloneTemplate(t)
	}
	for _, t := range r.byModel {
		r.ids[t.ID] = struct{}{}
	}
	return r
}

// GetTemplateByBusinessModel returns a copy of the template registered for model.
func (r *Registry) GetTemplateByBusinessModel(model models.BusinessModel) (*models.Template, error) {
	t, ok := r.byModel[model]
	if !ok {
		return nil, fmt.Errorf("%w: no template registered for business model %q", ErrTemplateNotFound, model)
	}
	out := cloneTemplate(t)
	return &out, nil
}

// TemplateExists reports whether templateID, e.g. "food-template-v1", is registered.
func (r *Registry) TemplateExists(templateID string) bool {
	_, ok := r.ids[templateID]
	return ok
}

// GetAllTemplates returns copies of every registered template in no particular order.
func (r *Registry) GetAllTemplates() []models.Template {
	out := make([]models.Template, 0, len(r.byModel))
	for _, t := range r.byModel {
		out = append(out, cloneTemplate(t))
	}
	return out
}

// cloneTemplate copies the slice fields so callers cannot reach registry state.
func cloneTemplate(t models.Template) models.Template {
	t.DefaultSettings.PaymentMethods = append([]string(nil), t.DefaultSettings.PaymentMethods...)
	return t
}

func canonicalTemplates() []models.Template {
	return []models.Template{
		{
			ID:            "commerce-template-v1",
			Name:          "Commerce",
			BusinessModel: models.BusinessModelCommerce,
			Version:       "1.0.0",
			Features: models.TemplateFeatures{
				CustomerManagement: true,
				OrderManagement:    true,
				PaymentProcessing:  true,
				Reporting:          true,
				Inventory:          true,
			},
			DefaultSettings: models.TemplateDefaultSettings{
				AllowCreditPurchases: true,
				DefaultCurrency:      "SAR",
				PaymentMethods:       []string{"cash", "card", "credit"},
			},
			Initialization: models.InitializationPlan{
				CreateCustomers: true,
				CreateProducts:  true,
			},
		},
		{
			ID:            "food-template-v1",
			Name:          "Food & Beverage",
			BusinessModel: models.BusinessModelFood,
			Version:       "1.0.0",
			Features: models.TemplateFeatures{
				CustomerManagement: true,
				OrderManagement:    true,
				PaymentProcessing:  true,
				Reporting:          true,
				MenuManagement:     true,
				TableReservations:  true,
			},
			DefaultSettings: models.TemplateDefaultSettings{
				AllowCreditPurchases: false,
				DefaultCurrency:      "SAR",
				PaymentMethods:       []string{"cash", "card"},
			},
			// Table reservations reuse the booking collection.
			Initialization: models.InitializationPlan{
				CreateCustomers: true,
				CreateProducts:  true,
				CreateBookings:  true,
			},
		},
		{
			ID:            "services-template-v1",
			Name:          "Services",
			BusinessModel: models.BusinessModelServices,
			Version:       "1.0.0",
			Features: models.TemplateFeatures{
				CustomerManagement: true,
				OrderManagement:    false,
				PaymentProcessing:  true,
				Reporting:          true,
				Appointments:       true,
				StaffScheduling:    true,
			},
			DefaultSettings: models.TemplateDefaultSettings{
				AllowCreditPurchases: true,
				DefaultCurrency:      "SAR",
				PaymentMethods:       []string{"cash", "card", "credit"},
			},
			Initialization: models.InitializationPlan{
				CreateCustomers: true,
				CreateServices:  true,
				CreateBookings:  true,
			},
		},
		{
			ID:            "rental-template-v1",
			Name:          "Rental",
			BusinessModel: models.BusinessModelRental,
			Version:       "1.0.0",
			Features: models.TemplateFeatures{
				CustomerManagement: true,
				OrderManagement:    true,
				PaymentProcessing:  true,
				Reporting:          true,
				AssetTracking:      true,
				RentalContracts:    true,
			},
			DefaultSettings: models.TemplateDefaultSettings{
				AllowCreditPurchases: false,
				DefaultCurrency:      "SAR",
				PaymentMethods:       []string{"cash", "card", "bank_transfer"},
			},
			Initialization: models.InitializationPlan{
				CreateCustomers: true,
				CreateBookings:  true,
				CreateAssets:    true,
			},
		},
	}
}
