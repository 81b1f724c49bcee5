/*
Package source fetches tariff overrides from the remote pricing sheet.

PROTOCOL:
  GET <PRICING_URL>?action=pricing
  200 {"ok": true, "pricing": {"BASE_NIGHT": 200, "TRAVEL_WR": "30", ...}}

  Anything else (transport error, timeout, non-2xx, ok=false, malformed
  body) is an error. The caller keeps its last-known-good tariff; there is
  no retry here.

SEE ALSO:
  - factory/tariff.go: ParsePayload
  - api/scheduler.go: TariffRefresher, the only caller
*/
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/petguardian/quote-engine/factory"
)

// maxBodyBytes bounds how much of a pricing response is read.
const maxBodyBytes = 1 << 20

// PricingSource is anything that can produce an override payload.
type PricingSource interface {
	FetchOverrides(ctx context.Context) (map[string]any, error)
	URL() string
}

// HTTPSource pulls overrides over HTTP.
type HTTPSource struct {
	endpoint string
	client   *http.Client
	factory  *factory.TariffFactory
}

// NewHTTPSource builds a source for baseURL with a per-request timeout.
func NewHTTPSource(baseURL string, timeout time.Duration) (*HTTPSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid pricing url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid pricing url %q: scheme must be http or https", baseURL)
	}
	q := u.Query()
	q.Set("action", "pricing")
	u.RawQuery = q.Encode()

	return &HTTPSource{
		endpoint: u.String(),
		client:   &http.Client{Timeout: timeout},
		factory:  factory.NewTariffFactory(),
	}, nil
}

// URL returns the full request URL, query included.
func (s *HTTPSource) URL() string { return s.endpoint }

// FetchOverrides performs one pull.
func (s *HTTPSource) FetchOverrides(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pricing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("pricing request failed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing response: %w", err)
	}

	return s.factory.ParsePayload(body)
}
