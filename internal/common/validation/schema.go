package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"business-workers/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// submissionSchema is what a draft must satisfy before it can be submitted.
const submissionSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["businessName", "phone", "address", "managerPhone", "businessModel"],
	"properties": {
		"businessName":  {"type": "string", "minLength": 2, "maxLength": 120, "pattern": "\\S"},
		"phone":         {"type": "string", "pattern": "^\\+?[0-9][0-9 \\-]{7,18}$"},
		"managerPhone":  {"type": "string", "pattern": "^\\+?[0-9][0-9 \\-]{7,18}$"},
		"address":       {"type": "string", "minLength": 3, "maxLength": 500},
		"email":         {"type": "string", "format": "email"},
		"logoUrl":       {"type": "string", "format": "uri"},
		"description":   {"type": "string", "maxLength": 2000},
		"businessType":  {"type": "string", "maxLength": 80},
		"businessModel": {"type": "string", "enum": ["commerce", "food", "services", "rental"]}
	}
}`

var submissionLoader = gojsonschema.NewStringLoader(submissionSchema)

// ValidateSubmission checks the merchant-supplied fields of req.
func ValidateSubmission(req *models.ServiceRequest) (*ValidationResult, error) {
	if req == nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "(root)", Message: "service request is required", Code: "required"}},
		}, nil
	}
	return ValidateDocument(submissionLoader, req)
}

// ValidateSchema validates doc against a schema given as a Go map, as stored
// in the activity registry.
func ValidateSchema(schema map[string]interface{}, doc interface{}) (*ValidationResult, error) {
	if len(schema) == 0 {
		return &ValidationResult{Valid: true}, nil
	}
	return ValidateDocument(gojsonschema.NewGoLoader(schema), doc)
}

// ValidateDocument runs doc through schema. Go structs are round-tripped
// through JSON so their json tags decide the field names.
func ValidateDocument(schema gojsonschema.JSONLoader, doc interface{}) (*ValidationResult, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if desc.Type() == "required" {
			if p, ok := desc.Details()["property"].(string); ok {
				field = p
			}
		}
		out.Errors = append(out.Errors, ValidationError{
			Field:   field,
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	return out, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			return true
		}
	}
	return false
}

func (vr *ValidationResult) String() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}
