// Package dispatch hands matched deals to the email collaborator. Rendering
// and delivery are the collaborator's concern; this client only posts the
// match with its recipient address.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vacationgenius/dealwatch/internal/models"
)

// Client posts alert requests to the email service.
type Client struct {
	apiURL         string
	agentSecret    string
	maxRetries     int
	retryDelayBase time.Duration
	httpClient     *http.Client
}

// NewClient creates a dispatch client.
func NewClient(apiURL, agentSecret string, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		apiURL:         apiURL,
		agentSecret:    agentSecret,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type alertRequest struct {
	Email string             `json:"email"`
	Match models.MatchResult `json:"match"`
}

// Dispatch sends one matched deal with linear-backoff retry. A failure after
// all retries is reported to the caller, which logs it and treats the deal
// as processed anyway; there is no re-delivery.
func (c *Client) Dispatch(ctx context.Context, email string, match models.MatchResult) error {
	body, err := json.Marshal(alertRequest{Email: email, Match: match})
	if err != nil {
		return fmt.Errorf("failed to marshal alert request: %w", err)
	}

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if err := c.post(ctx, body); err == nil {
			return nil
		} else {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/alerts", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Agent-Secret", c.agentSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("alert endpoint returned status %d: %s", resp.StatusCode, b)
	}
	return nil
}
