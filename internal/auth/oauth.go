// Package auth implements the OAuth 2.0 login flow against the university
// auth server, session tokens, and the request middleware that enforces them.
//
// Two credentials are accepted on API routes:
//   - the session cookie, a JWT issued by this service after the OAuth
//     callback, carrying the username and the provider access token
//   - an X-API-Key header holding a raw provider access token, which is
//     introspected against the auth server on every request
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// ProviderConfig carries the OAuth client registration and the auth server
// endpoints. The endpoints are configured rather than hardcoded because each
// deployment environment runs its own auth server.
type ProviderConfig struct {
	ClientID      string
	ClientSecret  string
	RedirectURL   string
	AuthorizeURL  string
	TokenURL      string
	CheckTokenURL string
}

// Provider wraps golang.org/x/oauth2 for the Authorization Code flow and
// adds token introspection for API-key requests.
type Provider struct {
	config        *oauth2.Config
	checkTokenURL string
	client        *http.Client
}

// NewProvider creates a Provider from the given registration.
func NewProvider(cfg ProviderConfig) *Provider {
	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizeURL,
				TokenURL: cfg.TokenURL,
			},
		},
		checkTokenURL: cfg.CheckTokenURL,
		client:        &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthURL returns the authorization URL to redirect the user to. The state
// is random, stored in a cookie before the redirect and compared on the
// callback to stop CSRF.
func (p *Provider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades the authorization code for an access token. The exchange
// runs server-to-server with the client secret; the token never reaches the
// browser directly.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}
	return token, nil
}

// introspection is the part of the check_token response we care about.
type introspection struct {
	Username string `json:"user_name"`
}

// Introspect asks the auth server who an access token belongs to. Used for
// X-API-Key requests where no session cookie exists. Any failure (transport,
// non-200, empty user_name) means the token is not acceptable.
func (p *Provider) Introspect(ctx context.Context, accessToken string) (string, error) {
	form := url.Values{"token": {accessToken}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.checkTokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("auth: building introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.config.ClientID, p.config.ClientSecret)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth: calling check_token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth: check_token returned status %d", resp.StatusCode)
	}

	var info introspection
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("auth: decoding check_token response: %w", err)
	}
	if info.Username == "" {
		return "", fmt.Errorf("auth: check_token response has no user_name")
	}

	return info.Username, nil
}
