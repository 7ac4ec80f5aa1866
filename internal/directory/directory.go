// Package directory looks up people in the university directory API. Profiles
// (names, preferred email) live there; the local database only mirrors them.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// UserData is the directory record for one person.
type UserData struct {
	Username       string `json:"username"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	PreferredEmail string `json:"preferredEmail"`
}

// Client answers directory lookups. The HTTP implementation is Directory;
// tests substitute fakes.
type Client interface {
	// Lookup fetches one person's record, authorized by the caller's
	// OAuth access token. A missing person is (nil, nil), not an error.
	Lookup(ctx context.Context, accessToken, username string) (*UserData, error)
}

// Directory is the HTTP directory client.
type Directory struct {
	baseURL string
	client  *http.Client
}

var _ Client = (*Directory)(nil)

// New creates a directory client for the API rooted at baseURL.
func New(baseURL string) *Directory {
	return &Directory{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Lookup calls GET {base}/people/{username} with a Bearer token. The access
// token is the user's own OAuth token, so the directory applies the user's
// permissions, not the service's.
func (d *Directory) Lookup(ctx context.Context, accessToken, username string) (*UserData, error) {
	endpoint := fmt.Sprintf("%s/people/%s", d.baseURL, url.PathEscape(username))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("directory: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory: calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory: people API returned status %d", resp.StatusCode)
	}

	var data UserData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("directory: decoding people response: %w", err)
	}

	if data.Username == "" {
		data.Username = username
	}

	return &data, nil
}
