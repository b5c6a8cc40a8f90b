// Package identity resolves external identities to display data. All
// identity facts used by the account subsystem originate here; callers never
// trust a caller-supplied username.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/replaybrowser/replaybrowser/internal/model"
)

// SentinelUsername is substituted when the identity API cannot be reached.
// Login still proceeds so an outage does not lock players out.
const SentinelUsername = "API Error"

// Profile is the display data the identity provider holds for an identifier.
type Profile struct {
	Identifier model.Identifier
	Username   string
}

// Resolver resolves an authenticated identifier to its current profile
type Resolver interface {
	Resolve(ctx context.Context, id model.Identifier) (Profile, error)
}

// HTTPResolver resolves profiles against the identity provider's HTTP API
type HTTPResolver struct {
	baseURL string
	client  *http.Client
}

// NewHTTPResolver creates a resolver for the given API base URL
func NewHTTPResolver(baseURL string, timeout time.Duration) *HTTPResolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

var _ Resolver = (*HTTPResolver)(nil)

// Resolve looks up the identifier's profile. A timeout or non-200 response
// is returned as an error; the caller decides how to degrade.
func (r *HTTPResolver) Resolve(ctx context.Context, id model.Identifier) (Profile, error) {
	u := fmt.Sprintf("%s/players/%s", r.baseURL, url.PathEscape(string(id)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Profile{}, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("identity lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("identity lookup: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		UserID   string `json:"userId"`
		Username string `json:"userName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Profile{}, fmt.Errorf("identity lookup: %w", err)
	}

	return Profile{Identifier: id, Username: body.Username}, nil
}
