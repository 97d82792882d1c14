// Package githubapi provides the direct authenticated calls to the
// GitHub REST API that the gh CLI does not cover.
package githubapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// User is the subset of the /user response we consume.
type User struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// Client fetches user info with a bearer token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the given hostname. "github.com" maps to
// the public API host; anything else is treated as GitHub Enterprise.
func New(hostname string) *Client {
	base := "https://api.github.com"
	if hostname != "" && hostname != "github.com" {
		base = "https://" + hostname + "/api/v3"
	}
	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewWithBaseURL creates a client against an explicit API base URL.
// Used by tests and by configs that override endpoints.
func NewWithBaseURL(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// UserInfo resolves the user that owns the given token.
func (c *Client) UserInfo(ctx context.Context, token string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return User{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("fetching user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return User{}, fmt.Errorf("user info returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return User{}, fmt.Errorf("parsing user info: %w", err)
	}
	if u.Login == "" {
		return User{}, fmt.Errorf("user info response missing login")
	}

	return u, nil
}
