package drafter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/hyperwatch/threat-monitor/internal/models"
)

// HTTPRemote calls an external drafting service over HTTP. The service
// accepts {threat, context} and answers {message, audiences, channels}.
type HTTPRemote struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewHTTPRemote(endpoint, apiKey string, timeout time.Duration) *HTTPRemote {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = 1
	client := rc.StandardClient()
	client.Timeout = timeout

	return &HTTPRemote{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   client,
	}
}

func (r *HTTPRemote) Configured() bool {
	return r.endpoint != "" && r.apiKey != ""
}

func (r *HTTPRemote) Draft(ctx context.Context, threat models.Threat, extra string) (models.Draft, error) {
	payload, err := json.Marshal(struct {
		Threat  models.Threat `json:"threat"`
		Context string        `json:"context,omitempty"`
	}{threat, extra})
	if err != nil {
		return models.Draft{}, fmt.Errorf("error encoding draft request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return models.Draft{}, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return models.Draft{}, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Draft{}, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var draft models.Draft
	if err := json.NewDecoder(resp.Body).Decode(&draft); err != nil {
		return models.Draft{}, fmt.Errorf("error decoding resp.Body: %w", err)
	}
	return draft, nil
}
