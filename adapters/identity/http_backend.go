package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/DCMX-Protocol/walletgate/core"
	"github.com/DCMX-Protocol/walletgate/ports"
)

// HTTPBackend talks to the upstream identity service over HTTP. Every
// transport-level failure is reported as core.ErrBackendUnavailable so
// the caller can take the degraded-mode path; only well-formed
// responses surface profile data.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBackend creates a client for the identity service at baseURL.
// Callers bound individual requests with a context deadline; httpClient
// may carry an overall timeout as a second line of defense.
func NewHTTPBackend(baseURL string, httpClient *http.Client) ports.IdentityBackend {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

type createOrFetchRequest struct {
	Address string `json:"address"`
}

// CreateOrFetch asks the backend for the profile bound to the address,
// creating it on first login.
func (b *HTTPBackend) CreateOrFetch(ctx context.Context, address string) (*core.IdentityProfile, error) {
	payload, err := json.Marshal(createOrFetchRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/users", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request failed: %w", core.ErrBackendUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("identity backend returned %d: %w", resp.StatusCode, core.ErrBackendUnavailable)
	}

	var profile core.IdentityProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", core.ErrBackendUnavailable)
	}
	return &profile, nil
}
