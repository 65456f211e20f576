// Package directory keeps a searchable copy of activated business profiles in
// Elasticsearch so QR codes and public links can be resolved without Postgres.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"business-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const DefaultIndex = "business_profiles"

var (
	ErrDirectoryUnavailable = errors.New("DIRECTORY_UNAVAILABLE")
	ErrBusinessNotFound     = errors.New("BUSINESS_NOT_FOUND")
	ErrInvalidLookup        = errors.New("INVALID_LOOKUP")
)

// Entry is the document stored per business.
type Entry struct {
	ID             string               `json:"id"`
	BusinessNumber string               `json:"business_number"`
	Slug           string               `json:"slug"`
	Name           string               `json:"name"`
	Category       string               `json:"category"`
	BusinessModel  models.BusinessModel `json:"business_model"`
	Phone          string               `json:"phone"`
	Address        string               `json:"address"`
	LogoURL        string               `json:"logo_url,omitempty"`
	Status         string               `json:"status"`
	ActivatedAt    string               `json:"activated_at"`
}

// EntryFromProfile projects the public fields of a business profile.
func EntryFromProfile(p models.BusinessProfile) Entry {
	return Entry{
		ID:             p.ID,
		BusinessNumber: p.BusinessNumber,
		Slug:           p.Slug,
		Name:           p.Name,
		Category:       p.Category,
		BusinessModel:  p.BusinessModel,
		Phone:          p.Phone,
		Address:        p.Address,
		LogoURL:        p.LogoURL,
		Status:         p.Status,
		ActivatedAt:    p.ActivatedAt.UTC().Format(time.RFC3339),
	}
}

// LookupQuery selects a business by slug or by business number; exactly one must be set.
type LookupQuery struct {
	Slug           string
	BusinessNumber string
}

type Directory struct {
	client *elasticsearch.Client
	index  string
}

func New(client *elasticsearch.Client, index string) *Directory {
	if index == "" {
		index = DefaultIndex
	}
	return &Directory{client: client, index: index}
}

// IndexProfile upserts the profile document keyed by profile id.
func (d *Directory) IndexProfile(ctx context.Context, profile models.BusinessProfile) error {
	body, err := json.Marshal(EntryFromProfile(profile))
	if err != nil {
		return fmt.Errorf("marshal directory entry: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      d.index,
		DocumentID: profile.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, d.client)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: index %s: %s", ErrDirectoryUnavailable, profile.ID, readError(res.Body, res.Status()))
	}
	return nil
}

// Lookup returns the single entry matching q.
func (d *Directory) Lookup(ctx context.Context, q LookupQuery) (*Entry, error) {
	field, value, err := q.term()
	if err != nil {
		return nil, err
	}

	query := map[string]interface{}{
		"size": 1,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{field: value}},
					map[string]interface{}{"term": map[string]interface{}{"status": models.BusinessStatusActive}},
				},
			},
		},
	}
	body, _ := json.Marshal(query)

	res, err := d.client.Search(
		d.client.Search.WithContext(ctx),
		d.client.Search.WithIndex(d.index),
		d.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: index %s missing", ErrBusinessNotFound, d.index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: search: %s", ErrDirectoryUnavailable, readError(res.Body, res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source Entry `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", ErrDirectoryUnavailable, err)
	}
	if len(parsed.Hits.Hits) == 0 {
		return nil, fmt.Errorf("%w: %s=%s", ErrBusinessNotFound, field, value)
	}

	entry := parsed.Hits.Hits[0].Source
	return &entry, nil
}

func (q LookupQuery) term() (string, string, error) {
	slug := strings.TrimSpace(q.Slug)
	number := strings.TrimSpace(q.BusinessNumber)
	switch {
	case slug != "" && number != "":
		return "", "", fmt.Errorf("%w: set either slug or business number, not both", ErrInvalidLookup)
	case slug != "":
		return "slug", slug, nil
	case number != "":
		return "business_number", number, nil
	}
	return "", "", fmt.Errorf("%w: slug or business number is required", ErrInvalidLookup)
}

// EnsureIndex creates the index with keyword mappings when it does not exist.
func (d *Directory) EnsureIndex(ctx context.Context) error {
	res, err := d.client.Indices.Exists([]string{d.index}, d.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	mapping := `{
		"mappings": {
			"properties": {
				"id":              {"type": "keyword"},
				"business_number": {"type": "keyword"},
				"slug":            {"type": "keyword"},
				"name":            {"type": "text"},
				"category":        {"type": "keyword"},
				"business_model":  {"type": "keyword"},
				"status":          {"type": "keyword"},
				"activated_at":    {"type": "date"}
			}
		}
	}`
	res, err = d.client.Indices.Create(
		d.index,
		d.client.Indices.Create.WithContext(ctx),
		d.client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("%w: create index: %s", ErrDirectoryUnavailable, readError(res.Body, res.Status()))
	}
	return nil
}

func readError(r io.Reader, status string) string {
	b, _ := io.ReadAll(io.LimitReader(r, 1024))
	if len(b) == 0 {
		return status
	}
	return fmt.Sprintf("%s %s", status, strings.TrimSpace(string(b)))
}
