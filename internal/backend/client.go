// Package backend provides a client for the backend collaborator: active
// watchlists, user preferences, user contact lookup, and agent activity
// logging. All agent endpoints are authorized with a shared secret header.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/vacationgenius/dealwatch/internal/models"
)

const agentSecretHeader = "X-Agent-Secret"

// Client talks to the backend API.
type Client struct {
	apiURL      string
	agentSecret string
	maxRetries  int
	httpClient  *http.Client
}

// NewClient creates a backend client.
func NewClient(apiURL, agentSecret string, timeout time.Duration, maxRetries int) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Client{
		apiURL:      apiURL,
		agentSecret: agentSecret,
		maxRetries:  maxRetries,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ActiveWatchlists returns all watchlists currently being monitored.
func (c *Client) ActiveWatchlists(ctx context.Context) ([]models.Watchlist, error) {
	var watchlists []models.Watchlist
	if err := c.getJSON(ctx, "/api/watchlists/active", &watchlists); err != nil {
		return nil, fmt.Errorf("failed to get active watchlists: %w", err)
	}
	return watchlists, nil
}

// Preferences returns one user's matching policy.
func (c *Client) Preferences(ctx context.Context, userID string) (models.PreferencePolicy, error) {
	var policy models.PreferencePolicy
	path := "/api/users/" + url.PathEscape(userID) + "/preferences"
	if err := c.getJSON(ctx, path, &policy); err != nil {
		return models.PreferencePolicy{}, fmt.Errorf("failed to get preferences for user %s: %w", userID, err)
	}
	return policy, nil
}

// UserEmail returns the alert address for one user.
func (c *Client) UserEmail(ctx context.Context, userID string) (string, error) {
	var user struct {
		Email string `json:"email"`
	}
	path := "/api/users/" + url.PathEscape(userID)
	if err := c.getJSON(ctx, path, &user); err != nil {
		return "", fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return user.Email, nil
}

// LogActivity records one cycle-level activity event. Best effort: callers
// log failures and move on.
func (c *Client) LogActivity(ctx context.Context, action string, details map[string]interface{}) error {
	payload := struct {
		AgentType string                 `json:"agentType"`
		Action    string                 `json:"action"`
		Details   map[string]interface{} `json:"details"`
	}{
		AgentType: "scraper-analyzer",
		Action:    action,
		Details:   details,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/api/agent-activity", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(agentSecretHeader, c.agentSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post activity: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("activity endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.doRequest(ctx, c.apiURL+path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status %d: %s", resp.StatusCode, b)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// doRequest performs a GET with retry on transport and server errors.
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set(agentSecretHeader, c.agentSecret)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
