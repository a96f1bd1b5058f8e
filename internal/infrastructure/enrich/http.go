package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"AdmitScanner/internal/domain"
	"AdmitScanner/internal/ports"
)

// HTTPEnricher talks to a network canonicalization service instead of a
// local subprocess. Same contract: records in, equal-or-fewer records out,
// any failure aborts the run.
type HTTPEnricher struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

var _ ports.Enricher = (*HTTPEnricher)(nil)

// NewHTTPEnricher creates a reusable client for the given endpoint.
func NewHTTPEnricher(endpoint, apiKey string) *HTTPEnricher {
	return &HTTPEnricher{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Enrich posts the cleaned records and decodes the enriched array.
func (e *HTTPEnricher) Enrich(ctx context.Context, records []domain.Applicant) ([]domain.Applicant, error) {
	body, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enrichment service returned %s", resp.Status)
	}

	var enriched []domain.Applicant
	if err := json.NewDecoder(resp.Body).Decode(&enriched); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return enriched, nil
}
