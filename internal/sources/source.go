// Package sources contains one adapter per upstream hazard feed. Each
// adapter fetches raw data, applies its severity threshold table and emits
// normalized threats. Adapters are independent; a failure in one is reported
// as an error for the aggregator to collect and never affects siblings.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/hyperwatch/threat-monitor/internal/models"
)

// Adapter fetches and normalizes one upstream feed for a region.
type Adapter interface {
	// Source identifies the feed for error attribution and filtering.
	Source() models.Source

	// Fetch returns the current normalized threats for the region. Any
	// transport or parse failure is returned as an error together with an
	// empty result; Fetch never panics.
	Fetch(ctx context.Context, region string) ([]models.Threat, error)
}

// newHTTPClient builds the outbound client all adapters share the shape of:
// bounded retries for transient upstream failures and a hard per-call
// timeout so a hung feed cannot stall the aggregation.
func newHTTPClient(timeout time.Duration) *http.Client {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = 2
	client := rc.StandardClient()
	client.Timeout = timeout
	return client
}

// getJSON issues a GET with context and decodes the 200 response body into v.
func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("error decoding resp.Body: %w", err)
	}
	return nil
}
