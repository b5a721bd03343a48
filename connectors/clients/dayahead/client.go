// Package dayahead fetches hour-aligned day-ahead prices from a market API
// speaking the common area/start/end REST shape.
package dayahead

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voltplan/voltplan/auth"
	"github.com/voltplan/voltplan/connectors"
	"github.com/voltplan/voltplan/core/model"
)

// Client fetches prices for one area and window.
type Client struct {
	baseURL   string
	area      string
	startDate time.Time
	endDate   time.Time
}

// Fetch retrieves the day-ahead prices for the configured window. Options
// must set the base URL, area and date range.
func (c *Client) Fetch(authClient *auth.ClientCred, opts ...connectors.Option) ([]model.PriceUpdate, error) {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.baseURL == "" || c.area == "" {
		return nil, fmt.Errorf("day_ahead: base url and area are required")
	}

	url := fmt.Sprintf("%s?area=%s&start_date=%s&end_date=%s",
		c.baseURL, c.area, c.startDate.Format(time.RFC3339), c.endDate.Format(time.RFC3339))
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if authClient != nil {
		if err := authClient.SetAuthHeader(req); err != nil {
			return nil, fmt.Errorf("failed to set auth header: %w", err)
		}
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	out := make([]model.PriceUpdate, 0, len(r.Prices))
	for _, p := range r.Prices {
		out = append(out, model.PriceUpdate{StartAt: p.StartAt.Truncate(time.Hour), Price: p.Value})
	}
	return out, nil
}

type response struct {
	Prices []struct {
		StartAt time.Time `json:"start_at"`
		Value   float64   `json:"value"`
	} `json:"prices"`
}
