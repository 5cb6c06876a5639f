package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultProviderTimeout bounds a single identity-provider round trip.
// A slow provider fails the request with ErrProviderUnavailable rather
// than hanging indefinitely.
const DefaultProviderTimeout = 5 * time.Second

// HTTPProvider verifies tokens against a remote identity provider over
// HTTP. The provider's /verify endpoint receives the token as a bearer
// header and answers 200 with the subject, or 401 for a bad token.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

var _ TokenVerifier = (*HTTPProvider)(nil)

// NewHTTPProvider creates a provider client. timeout <= 0 falls back to
// DefaultProviderTimeout.
func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &HTTPProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type verifyResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// VerifyToken resolves token via the remote provider. Transport faults
// and 5xx answers map to ErrProviderUnavailable; rejections and empty
// subjects map to ErrInvalidCredential.
func (p *HTTPProvider) VerifyToken(ctx context.Context, token string) (Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/verify", nil)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: build request: %v", ErrProviderUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to decode.
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Identity{}, ErrInvalidCredential
	default:
		return Identity{}, fmt.Errorf("%w: provider answered %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Identity{}, fmt.Errorf("%w: decode response: %v", ErrProviderUnavailable, err)
	}
	if body.Email == "" {
		return Identity{}, ErrInvalidCredential
	}

	return Identity{ID: body.ID, Email: body.Email}, nil
}
