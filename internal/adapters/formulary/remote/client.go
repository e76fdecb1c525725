package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"oncology-dispatch/internal/domain/formulary"
	"oncology-dispatch/internal/platform/httpclient"
)

var (
	ErrNotConfigured = errors.New("remote formulary not configured")
	ErrUnauthorized  = errors.New("remote formulary unauthorized")
	ErrUpstream      = errors.New("remote formulary upstream error")
)

type Config struct {
	BaseURL string
	APIKey  string

	APIKeyHeader string
	Timeout      time.Duration
}

// Client trae el catálogo de medicamentos de un servicio externo.
type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

// NewClient: breaker puede ser nil.
func NewClient(cfg Config, breaker *httpclient.Breaker) (*Client, error) {
	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), timeout)
	if err != nil {
		return nil, err
	}
	if breaker != nil {
		hc.WithBreaker(breaker)
	}
	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != ""
}

// CatalogResponse es el contrato de GET /v1/formulario.
type CatalogResponse struct {
	Medications []formulary.Medication               `json:"medicamentos"`
	Treatments  map[string]formulary.TreatmentConfig `json:"tratamientos,omitempty"`
}

func (c *Client) FetchCatalog(ctx context.Context) (CatalogResponse, error) {
	if !c.IsConfigured() {
		return CatalogResponse{}, ErrNotConfigured
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers[c.apiKeyHeader] = c.apiKey
	}

	var out CatalogResponse
	err := c.http.DoJSON(ctx, http.MethodGet, "/v1/formulario", headers, nil, &out)
	if err != nil {
		var he *httpclient.HTTPError
		if errors.As(err, &he) && (he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden) {
			return CatalogResponse{}, ErrUnauthorized
		}
		return CatalogResponse{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(out.Medications) == 0 {
		return CatalogResponse{}, fmt.Errorf("%w: %v", ErrUpstream, formulary.ErrEmptyCatalog)
	}
	return out, nil
}
