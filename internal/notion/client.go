// Package notion fetches campaign records from the source store when the
// webhook payload alone is not enough to build the ticket.
package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"legalbridge.app/bridge/internal/model"
	"legalbridge.app/bridge/internal/payload"
)

const apiVersion = "2022-06-28"

// Source fetches the current properties of a record.
type Source interface {
	FetchProperties(ctx context.Context, recordID string) (map[string]model.Property, error)
}

type Config struct {
	// BaseURL overrides the public API endpoint. Used by tests.
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func New(cfg Config) Source {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.notion.com/v1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
	}
}

type pageResponse struct {
	Properties map[string]json.RawMessage `json:"properties"`
}

func (c *client) FetchProperties(ctx context.Context, recordID string) (map[string]model.Property, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/pages/"+recordID, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page %s: %w", recordID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("fetching page %s: status %d: %s", recordID, resp.StatusCode, body)
	}

	var page pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding page %s: %w", recordID, err)
	}

	return payload.ParseProperties(page.Properties), nil
}
