// internal/workers/business/resolve-qr/models.go
package resolveqr

import "business-workers/internal/models"

// Input holds the scanned payload: a directory link, a slug or a business number.
type Input struct {
	Code string `json:"qrCode"`
}

type Output struct {
	BusinessProfileID string               `json:"businessProfileId"`
	BusinessNumber    string               `json:"businessNumber"`
	Slug              string               `json:"slug"`
	BusinessName      string               `json:"businessName"`
	Category          string               `json:"category"`
	BusinessModel     models.BusinessModel `json:"businessModel"`
	Phone             string               `json:"phone"`
	Address           string               `json:"address"`
	LogoURL           string               `json:"logoUrl,omitempty"`
	MatchedBy         string               `json:"matchedBy"`
}
