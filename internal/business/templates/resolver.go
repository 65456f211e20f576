package templates

import (
	"errors"
	"fmt"
	"time"

	"business-workers/internal/models"
)

// ErrValidation marks malformed resolver input.
var ErrValidation = errors.New("VALIDATION_ERROR")

// ValidationError reports an absent or unrecognised business model.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Resolution is the outcome of resolving a business model to its template.
type Resolution struct {
	Template      models.Template      `json:"template"`
	BusinessModel models.BusinessModel `json:"businessModel"`
	ResolvedAt    time.Time            `json:"resolvedAt"`
}

type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Resolver turns a merchant's business model into system structure.
type Resolver struct {
	registry *Registry
	now      func() time.Time
}

// NewResolver returns a resolver over reg, or over DefaultRegistry when reg is nil.
func NewResolver(reg *Registry) *Resolver {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Resolver{
		registry: reg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *Resolver) Registry() *Registry {
	return r.registry
}

// ResolveTemplate returns the template for model. The result depends only on
// model and the registry contents, apart from the ResolvedAt stamp.
func (r *Resolver) ResolveTemplate(model *models.BusinessModel) (*Resolution, error) {
	if err := validateModel(model); err != nil {
		return nil, err
	}

	tmpl, err := r.registry.GetTemplateByBusinessModel(*model)
	if err != nil {
		return nil, err
	}

	return &Resolution{
		Template:      *tmpl,
		BusinessModel: *model,
		ResolvedAt:    r.now(),
	}, nil
}

// ValidateTemplateResolution is the non-failing pre-flight form of ResolveTemplate.
func (r *Resolver) ValidateTemplateResolution(model *models.BusinessModel) ValidationResult {
	if _, err := r.ResolveTemplate(model); err != nil {
		return ValidationResult{Valid: false, Error: err.Error()}
	}
	return ValidationResult{Valid: true}
}

func validateModel(model *models.BusinessModel) error {
	if model == nil || *model == "" {
		return &ValidationError{Field: "businessModel", Message: "business model is required"}
	}
	if !model.Valid() {
		return &ValidationError{
			Field:   "businessModel",
			Value:   string(*model),
			Message: fmt.Sprintf("must be one of %v", models.BusinessModels),
		}
	}
	return nil
}
